package ports

import (
	"context"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// ProjectRepository persists projects. FindByID returns archived projects too;
// callers decide whether archived counts as missing.
type ProjectRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]*domain.Project, error)
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Archive(ctx context.Context, id int64) error
}
