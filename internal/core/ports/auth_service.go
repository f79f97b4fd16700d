package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// ResolveCurrentUser returns the user behind the request's bearer token,
	// or nil when there is none or it does not validate.
	ResolveCurrentUser(ctx context.Context, r *http.Request) *domain.User
	Register(ctx context.Context, actor *domain.Identity, input RegisterInput) (*domain.User, error)
	Logout(ctx context.Context, actor *domain.Identity)
	ListUsers(ctx context.Context, actor *domain.Identity) ([]*domain.User, error)
	ChangePassword(ctx context.Context, actor *domain.Identity, current, next string) error
}
