package ports

import (
	"context"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// AssignmentRepository persists project assignments. At most one active row
// exists per (user, project); Insert returns domain.ErrAlreadyAssigned when
// that would be violated.
type AssignmentRepository interface {
	FindActive(ctx context.Context, userID, projectID int64) (*domain.Assignment, error)
	Insert(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error)
	// Deactivate marks the active row inactive with the given end date.
	// Returns domain.ErrNotFound when no active row exists.
	Deactivate(ctx context.Context, userID, projectID int64, endDate time.Time) error
	// UpdateRole changes the role on the active row.
	// Returns domain.ErrNotFound when no active row exists.
	UpdateRole(ctx context.Context, userID, projectID int64, role string) error
	IsActiveManager(ctx context.Context, userID, projectID int64) (bool, error)
	CountActiveManagers(ctx context.Context, projectID int64) (int64, error)
	ListByProject(ctx context.Context, projectID int64, activeOnly bool) ([]*domain.Assignment, error)
	ListByUser(ctx context.Context, userID int64, role string) ([]*domain.Assignment, error)
}
