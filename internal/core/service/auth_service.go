package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
	"github.com/memory-app/memory-api/internal/core/token"
)

// AuthConfig holds the issuance and hashing parameters of AuthService.
type AuthConfig struct {
	Token      token.Options
	BcryptCost int
}

// AuthService implements login, registration and current-user resolution.
// Token checks go through the same Verifier the HTTP middleware uses.
type AuthService struct {
	users    ports.UserRepository
	codec    *token.Codec
	verifier *token.Verifier
	audit    ports.AuditRecorder
	cfg      AuthConfig
	validate *validator.Validate
	log      zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	users ports.UserRepository,
	codec *token.Codec,
	verifier *token.Verifier,
	audit ports.AuditRecorder,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Token.TTL <= 0 {
		cfg.Token.TTL = token.DefaultTTL
	}
	return &AuthService{
		users:    users,
		codec:    codec,
		verifier: verifier,
		audit:    audit,
		cfg:      cfg,
		validate: validator.New(),
		log:      log,
	}
}

// Login exchanges an email and password for a signed token. Unknown emails and
// wrong passwords both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if !s.validEmail(email) || password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("auth: find user: %w", err)
		}
		// Same bcrypt work as a real mismatch.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		s.emit(domain.AuditEvent{Kind: domain.AuditLoginFailed, Detail: "unknown email"})
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.emit(domain.AuditEvent{Kind: domain.AuditLoginFailed, SubjectID: user.ID, Detail: "password mismatch"})
		return nil, domain.ErrInvalidCredentials
	}

	claims := token.NewClaims(user, s.cfg.Token, s.verifier.Now())
	raw, err := s.codec.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}

	s.emit(domain.AuditEvent{Kind: domain.AuditLoginSucceeded, ActorID: user.ID, SubjectID: user.ID})
	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")

	return &ports.LoginResult{
		Token:     raw,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      withoutHash(user),
	}, nil
}

// ResolveCurrentUser returns the stored user behind the request's token, or nil.
// Failure reasons are logged, never returned.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, r *http.Request) *domain.User {
	res := s.verifier.Resolve(r)
	if !res.Authenticated() {
		if res.State != token.StateNoToken {
			s.log.Debug().Err(res.Err).Str("state", res.State.String()).Msg("current user not resolved")
		}
		return nil
	}

	user, err := s.users.FindByID(ctx, res.Claims.UserID)
	if err != nil {
		s.log.Debug().Err(err).Int64("user_id", res.Claims.UserID).Msg("token subject not found")
		return nil
	}
	return withoutHash(user)
}

// Register creates an account on behalf of an admin.
func (s *AuthService) Register(ctx context.Context, actor *domain.Identity, in ports.RegisterInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		s.denied(actor, 0, "register")
		return nil, domain.ErrForbidden
	}

	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	if taken, err := s.exists(ctx, s.users.FindByEmail, email); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}
	if taken, err := s.exists(ctx, s.users.FindByUsername, username); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}

	if !s.validEmail(email) {
		return nil, domain.ErrInvalidInput
	}
	if err := domain.CheckPassword(in.Password); err != nil {
		return nil, err
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidUserRole(role) {
		return nil, domain.ErrInvalidUserRole
	}

	created, err := s.createUser(ctx, username, email, in.Password, role)
	if err != nil {
		return nil, err
	}

	s.emit(domain.AuditEvent{Kind: domain.AuditUserRegistered, ActorID: actor.UserID, SubjectID: created.ID, Detail: role})
	return created, nil
}

// Logout records the event. Tokens stay valid until they expire.
func (s *AuthService) Logout(_ context.Context, actor *domain.Identity) {
	if actor == nil {
		return
	}
	s.emit(domain.AuditEvent{Kind: domain.AuditLogout, ActorID: actor.UserID, SubjectID: actor.UserID})
}

func (s *AuthService) ListUsers(ctx context.Context, actor *domain.Identity) ([]*domain.User, error) {
	if !actor.IsAdmin() {
		s.denied(actor, 0, "list users")
		return nil, domain.ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, withoutHash(u))
	}
	return out, nil
}

// ChangePassword replaces the actor's own password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Identity, current, next string) error {
	if actor == nil {
		return domain.ErrForbidden
	}
	if current == "" || next == "" {
		return domain.ErrInvalidInput
	}
	if err := domain.CheckPassword(next); err != nil {
		return err
	}

	// Credential reads bypass the user cache, which never holds hashes.
	user, err := s.users.FindByEmail(ctx, normalizeEmail(actor.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("auth: find user: %w", err)
	}
	if user.ID != actor.UserID {
		return domain.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}

	s.emit(domain.AuditEvent{Kind: domain.AuditPasswordChanged, ActorID: user.ID, SubjectID: user.ID})
	return nil
}

// EnsureAdmin creates the first admin account when the user store is empty.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("auth: count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := domain.CheckPassword(password); err != nil {
		return false, err
	}
	email = normalizeEmail(email)
	if strings.TrimSpace(username) == "" || !s.validEmail(email) {
		return false, domain.ErrInvalidInput
	}

	created, err := s.createUser(ctx, strings.TrimSpace(username), email, password, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.emit(domain.AuditEvent{Kind: domain.AuditUserRegistered, SubjectID: created.ID, Detail: "bootstrap admin"})
	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("bootstrap admin created")
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, username, email, password, role string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	now := s.verifier.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return withoutHash(created), nil
}

func (s *AuthService) exists(ctx context.Context, find func(context.Context, string) (*domain.User, error), key string) (bool, error) {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("auth: lookup user: %w", err)
	}
}

func (s *AuthService) validEmail(email string) bool {
	return s.validate.Var(email, "required,email") == nil
}

// dummy returns a hash compared against on unknown emails.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("memory-api-timing-equaliser"), s.cfg.BcryptCost)
		if err != nil {
			s.log.Error().Err(err).Msg("dummy hash generation failed")
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *AuthService) denied(actor *domain.Identity, projectID int64, action string) {
	var actorID int64
	if actor != nil {
		actorID = actor.UserID
	}
	s.emit(domain.AuditEvent{Kind: domain.AuditAccessDenied, ActorID: actorID, ProjectID: projectID, Detail: action})
}

func (s *AuthService) emit(ev domain.AuditEvent) {
	emit(s.audit, s.verifier.Now(), ev)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func withoutHash(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

var _ ports.AuthService = (*AuthService)(nil)
