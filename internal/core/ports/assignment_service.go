package ports

import (
	"context"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// AssignInput carries the parameters of an assignment request.
type AssignInput struct {
	ActorID      int64
	TargetUserID int64
	ProjectID    int64
	Role         string
	StartDate    *time.Time
}

// AssignmentService applies the project permission model. CanAssign is the
// only place that decides whether an actor may change a project's staffing.
type AssignmentService interface {
	Assign(ctx context.Context, input AssignInput) (*domain.Assignment, error)
	Remove(ctx context.Context, actorID, targetUserID, projectID int64) error
	ChangeRole(ctx context.Context, actorID, targetUserID, projectID int64, newRole string) error
	CanAssign(ctx context.Context, actorID, projectID int64) (bool, error)

	ProjectAssignments(ctx context.Context, projectID int64) ([]*domain.Assignment, error)
	ProjectHistory(ctx context.Context, projectID int64) ([]*domain.Assignment, error)
	UserProjects(ctx context.Context, userID int64, role string) ([]*domain.Assignment, error)
	AvailableUsers(ctx context.Context, projectID int64) ([]*domain.User, error)
	ProjectStats(ctx context.Context, projectID int64) (*domain.AssignmentStats, error)
}
