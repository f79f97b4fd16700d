package ports

import (
	"context"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// UserRepository is the credential store. Lookups return domain.ErrUserNotFound
// on a miss; Create returns domain.ErrEmailTaken or domain.ErrUsernameTaken
// when a unique key collides.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
