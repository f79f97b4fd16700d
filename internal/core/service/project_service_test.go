package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

func TestProjectService_Create(t *testing.T) {
	audit := &recordingAudit{}
	svc := NewProjectService(newStubProjectRepo(), audit, zerolog.Nop())
	user := &domain.Identity{UserID: 2, Role: domain.RoleUser}

	if _, err := svc.Create(context.Background(), user, ports.CreateProjectInput{Name: "Atlas"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), adminActor, ports.CreateProjectInput{Name: "   "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	p, err := svc.Create(context.Background(), adminActor, ports.CreateProjectInput{Name: " Atlas ", Category: "web"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.Name != "Atlas" || p.CreatedAt.IsZero() {
		t.Fatalf("unexpected project: %+v", p)
	}
	if _, err := svc.Create(context.Background(), adminActor, ports.CreateProjectInput{Name: "atlas"}); !errors.Is(err, domain.ErrProjectExists) {
		t.Fatalf("expected ErrProjectExists, got %v", err)
	}
	if !audit.has(domain.AuditProjectCreated) {
		t.Fatalf("expected project_created audit event")
	}
}

func TestProjectService_Archive(t *testing.T) {
	repo := newStubProjectRepo(&domain.Project{ID: 10, Name: "Atlas"})
	svc := NewProjectService(repo, nil, zerolog.Nop())

	if err := svc.Archive(context.Background(), &domain.Identity{UserID: 2, Role: domain.RoleUser}, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Archive(context.Background(), adminActor, 99); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if err := svc.Archive(context.Background(), adminActor, 10); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := svc.Archive(context.Background(), adminActor, 10); err != nil {
		t.Fatalf("second archive must be a no-op, got %v", err)
	}

	active, _ := svc.List(context.Background(), ports.ProjectFilter{})
	all, _ := svc.List(context.Background(), ports.ProjectFilter{IncludeArchived: true})
	if len(active) != 0 || len(all) != 1 {
		t.Fatalf("expected archived project hidden by default, got %d/%d", len(active), len(all))
	}
}

func TestProjectService_ListByCategory(t *testing.T) {
	repo := newStubProjectRepo(
		&domain.Project{ID: 10, Name: "Atlas", Category: "Mobile"},
		&domain.Project{ID: 11, Name: "Borealis", Category: "Web"},
		&domain.Project{ID: 12, Name: "Comet", Category: "mobile"},
	)
	svc := NewProjectService(repo, nil, zerolog.Nop())

	list, err := svc.List(context.Background(), ports.ProjectFilter{Category: "  MOBILE "})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != 10 || list[1].ID != 12 {
		t.Fatalf("expected Atlas and Comet, got %+v", list)
	}

	all, _ := svc.List(context.Background(), ports.ProjectFilter{})
	if len(all) != 3 {
		t.Fatalf("empty category must not filter, got %d", len(all))
	}
}
