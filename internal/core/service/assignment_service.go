package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

const assignmentCachePrefix = "assignments:"

// AssignmentService manages who works on which project and in what role.
// Every write goes through authority, which is the only permission check.
type AssignmentService struct {
	users       ports.UserRepository
	projects    ports.ProjectRepository
	assignments ports.AssignmentRepository
	cache       ports.Cache
	cacheTTL    time.Duration
	audit       ports.AuditRecorder
	log         zerolog.Logger
	now         func() time.Time
}

func NewAssignmentService(
	users ports.UserRepository,
	projects ports.ProjectRepository,
	assignments ports.AssignmentRepository,
	cache ports.Cache,
	cacheTTL time.Duration,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		users:       users,
		projects:    projects,
		assignments: assignments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		audit:       audit,
		log:         log,
		now:         time.Now,
	}
}

func (s *AssignmentService) Assign(ctx context.Context, in ports.AssignInput) (*domain.Assignment, error) {
	if err := s.requireUser(ctx, in.TargetUserID); err != nil {
		return nil, err
	}
	if _, err := s.activeProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	if !domain.ValidProjectRole(in.Role) {
		return nil, domain.ErrInvalidRole
	}
	if _, err := s.authorize(ctx, in.ActorID, in.ProjectID, "assign"); err != nil {
		return nil, err
	}

	_, err := s.assignments.FindActive(ctx, in.TargetUserID, in.ProjectID)
	switch {
	case err == nil:
		return nil, domain.ErrAlreadyAssigned
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("assignment: find active: %w", err)
	}

	now := s.now().UTC()
	start := domain.Day(now)
	if in.StartDate != nil {
		start = domain.Day(*in.StartDate)
	}

	// The store rejects a second active row for the pair, so a concurrent
	// assign that passed the check above still ends in ErrAlreadyAssigned.
	created, err := s.assignments.Insert(ctx, &domain.Assignment{
		UserID:           in.TargetUserID,
		ProjectID:        in.ProjectID,
		RoleInProject:    in.Role,
		AssignedByUserID: in.ActorID,
		Status:           domain.AssignmentActive,
		StartDate:        start,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyAssigned) {
			return nil, err
		}
		return nil, fmt.Errorf("assignment: insert: %w", err)
	}

	s.invalidate(ctx)
	s.emit(domain.AuditEvent{
		Kind:      domain.AuditAssignmentCreated,
		ActorID:   in.ActorID,
		SubjectID: in.TargetUserID,
		ProjectID: in.ProjectID,
		Detail:    in.Role,
	})
	s.log.Info().
		Int64("actor_id", in.ActorID).
		Int64("user_id", in.TargetUserID).
		Int64("project_id", in.ProjectID).
		Str("role", in.Role).
		Msg("user assigned to project")
	return created, nil
}

// Remove ends an active assignment. The row is kept with status inactive.
func (s *AssignmentService) Remove(ctx context.Context, actorID, targetUserID, projectID int64) error {
	admin, err := s.authorize(ctx, actorID, projectID, "remove")
	if err != nil {
		return err
	}

	current, err := s.assignments.FindActive(ctx, targetUserID, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("assignment: find active: %w", err)
	}
	if current.RoleInProject == domain.ProjectRoleManager && !admin {
		if err := s.keepManager(ctx, projectID); err != nil {
			return err
		}
	}

	if err := s.assignments.Deactivate(ctx, targetUserID, projectID, domain.Day(s.now())); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("assignment: deactivate: %w", err)
	}

	s.invalidate(ctx)
	s.emit(domain.AuditEvent{
		Kind:      domain.AuditAssignmentRemoved,
		ActorID:   actorID,
		SubjectID: targetUserID,
		ProjectID: projectID,
		Detail:    current.RoleInProject,
	})
	return nil
}

func (s *AssignmentService) ChangeRole(ctx context.Context, actorID, targetUserID, projectID int64, newRole string) error {
	if !domain.ValidProjectRole(newRole) {
		return domain.ErrInvalidRole
	}
	if err := s.requireUser(ctx, targetUserID); err != nil {
		return err
	}
	if _, err := s.activeProject(ctx, projectID); err != nil {
		return err
	}
	admin, err := s.authorize(ctx, actorID, projectID, "change role")
	if err != nil {
		return err
	}

	current, err := s.assignments.FindActive(ctx, targetUserID, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("assignment: find active: %w", err)
	}
	if current.RoleInProject == newRole {
		return nil
	}
	if current.RoleInProject == domain.ProjectRoleManager && !admin {
		if err := s.keepManager(ctx, projectID); err != nil {
			return err
		}
	}

	if err := s.assignments.UpdateRole(ctx, targetUserID, projectID, newRole); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("assignment: update role: %w", err)
	}

	s.invalidate(ctx)
	s.emit(domain.AuditEvent{
		Kind:      domain.AuditAssignmentRoleSet,
		ActorID:   actorID,
		SubjectID: targetUserID,
		ProjectID: projectID,
		Detail:    current.RoleInProject + "->" + newRole,
	})
	return nil
}

// CanAssign reports whether actorID may change the staffing of projectID:
// global admins always may, otherwise only active managers of that project.
func (s *AssignmentService) CanAssign(ctx context.Context, actorID, projectID int64) (bool, error) {
	allowed, _, err := s.authority(ctx, actorID, projectID)
	return allowed, err
}

// ProjectAssignments lists the active assignments of a project.
func (s *AssignmentService) ProjectAssignments(ctx context.Context, projectID int64) ([]*domain.Assignment, error) {
	if _, err := s.project(ctx, projectID); err != nil {
		return nil, err
	}

	key := assignmentCachePrefix + "project:" + strconv.FormatInt(projectID, 10)
	var cached []*domain.Assignment
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	list, err := s.assignments.ListByProject(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("assignment: list project: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, list, s.cacheTTL)
	}
	return list, nil
}

// ProjectHistory lists every assignment a project ever had, newest first.
func (s *AssignmentService) ProjectHistory(ctx context.Context, projectID int64) ([]*domain.Assignment, error) {
	if _, err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	list, err := s.assignments.ListByProject(ctx, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("assignment: list history: %w", err)
	}
	return list, nil
}

// UserProjects lists a user's active assignments, optionally filtered by role.
func (s *AssignmentService) UserProjects(ctx context.Context, userID int64, role string) ([]*domain.Assignment, error) {
	if role != "" && !domain.ValidProjectRole(role) {
		return nil, domain.ErrInvalidRole
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	list, err := s.assignments.ListByUser(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("assignment: list user: %w", err)
	}
	return list, nil
}

// AvailableUsers lists users without an active assignment on the project.
func (s *AssignmentService) AvailableUsers(ctx context.Context, projectID int64) ([]*domain.User, error) {
	if _, err := s.activeProject(ctx, projectID); err != nil {
		return nil, err
	}

	active, err := s.assignments.ListByProject(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("assignment: list project: %w", err)
	}
	assigned := make(map[int64]struct{}, len(active))
	for _, a := range active {
		assigned[a.UserID] = struct{}{}
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("assignment: list users: %w", err)
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if _, ok := assigned[u.ID]; ok {
			continue
		}
		out = append(out, withoutHash(u))
	}
	return out, nil
}

func (s *AssignmentService) ProjectStats(ctx context.Context, projectID int64) (*domain.AssignmentStats, error) {
	active, err := s.ProjectAssignments(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &domain.AssignmentStats{Total: len(active)}
	for _, a := range active {
		switch a.RoleInProject {
		case domain.ProjectRoleManager:
			stats.Managers++
		case domain.ProjectRoleDeveloper:
			stats.Developers++
		}
		start := a.StartDate
		if stats.FirstAssigned == nil || start.Before(*stats.FirstAssigned) {
			stats.FirstAssigned = &start
		}
		if stats.LastAssigned == nil || start.After(*stats.LastAssigned) {
			stats.LastAssigned = &start
		}
	}
	return stats, nil
}

// authority decides whether actorID may change staffing on projectID and
// whether that right comes from the global admin role.
func (s *AssignmentService) authority(ctx context.Context, actorID, projectID int64) (allowed, admin bool, err error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("assignment: find actor: %w", err)
	}
	if actor.IsAdmin() {
		return true, true, nil
	}

	manager, err := s.assignments.IsActiveManager(ctx, actorID, projectID)
	if err != nil {
		return false, false, fmt.Errorf("assignment: check manager: %w", err)
	}
	return manager, false, nil
}

// authorize wraps authority and records denied attempts.
func (s *AssignmentService) authorize(ctx context.Context, actorID, projectID int64, action string) (admin bool, err error) {
	allowed, admin, err := s.authority(ctx, actorID, projectID)
	if err != nil {
		return false, err
	}
	if !allowed {
		s.emit(domain.AuditEvent{Kind: domain.AuditAccessDenied, ActorID: actorID, ProjectID: projectID, Detail: action})
		s.log.Warn().Int64("actor_id", actorID).Int64("project_id", projectID).Str("action", action).Msg("assignment change denied")
		return false, domain.ErrForbidden
	}
	return admin, nil
}

// keepManager fails with ErrLastManager when the project has no other
// active manager.
func (s *AssignmentService) keepManager(ctx context.Context, projectID int64) error {
	n, err := s.assignments.CountActiveManagers(ctx, projectID)
	if err != nil {
		return fmt.Errorf("assignment: count managers: %w", err)
	}
	if n <= 1 {
		return domain.ErrLastManager
	}
	return nil
}

func (s *AssignmentService) requireUser(ctx context.Context, id int64) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("assignment: find user: %w", err)
	}
	return nil
}

func (s *AssignmentService) project(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("assignment: find project: %w", err)
	}
	return p, nil
}

// activeProject treats archived projects as missing.
func (s *AssignmentService) activeProject(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Archived() {
		return nil, domain.ErrProjectNotFound
	}
	return p, nil
}

func (s *AssignmentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, assignmentCachePrefix)
	}
}

func (s *AssignmentService) emit(ev domain.AuditEvent) {
	emit(s.audit, s.now(), ev)
}

var _ ports.AssignmentService = (*AssignmentService)(nil)
