package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

type ProjectService struct {
	repo  ports.ProjectRepository
	audit ports.AuditRecorder
	log   zerolog.Logger
	now   func() time.Time
}

func NewProjectService(repo ports.ProjectRepository, audit ports.AuditRecorder, log zerolog.Logger) *ProjectService {
	return &ProjectService{repo: repo, audit: audit, log: log, now: time.Now}
}

func (s *ProjectService) List(ctx context.Context, filter ports.ProjectFilter) ([]*domain.Project, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return list, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("project: find: %w", err)
	}
	return p, nil
}

// Create adds a project. Only admins may create projects.
func (s *ProjectService) Create(ctx context.Context, actor *domain.Identity, in ports.CreateProjectInput) (*domain.Project, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	created, err := s.repo.Create(ctx, &domain.Project{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrProjectExists) {
			return nil, err
		}
		return nil, fmt.Errorf("project: create: %w", err)
	}

	emit(s.audit, s.now(), domain.AuditEvent{Kind: domain.AuditProjectCreated, ActorID: actor.UserID, ProjectID: created.ID})
	s.log.Info().Int64("project_id", created.ID).Str("name", created.Name).Msg("project created")
	return created, nil
}

// Archive closes a project to new assignments. Archiving twice is a no-op.
func (s *ProjectService) Archive(ctx context.Context, actor *domain.Identity, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Archived() {
		return nil
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return err
		}
		return fmt.Errorf("project: archive: %w", err)
	}

	emit(s.audit, s.now(), domain.AuditEvent{Kind: domain.AuditProjectArchived, ActorID: actor.UserID, ProjectID: id})
	return nil
}

var _ ports.ProjectService = (*ProjectService)(nil)
