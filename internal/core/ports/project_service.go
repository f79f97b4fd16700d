package ports

import (
	"context"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// CreateProjectInput carries the fields of a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	Category    string
}

// ProjectFilter narrows a project listing. The zero value lists every
// active project.
type ProjectFilter struct {
	IncludeArchived bool
	// Category matches case-insensitively; empty means any category.
	Category string
}

type ProjectService interface {
	List(ctx context.Context, filter ProjectFilter) ([]*domain.Project, error)
	Get(ctx context.Context, id int64) (*domain.Project, error)
	Create(ctx context.Context, actor *domain.Identity, input CreateProjectInput) (*domain.Project, error)
	Archive(ctx context.Context, actor *domain.Identity, id int64) error
}
