package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

func TestAuthHandler_Login_Success(t *testing.T) {
	expires := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "dev@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{
				Token:     "a.b.c",
				ExpiresAt: expires,
				User:      &domain.User{ID: 3, Username: "dev", Email: email, PasswordHash: "$2a$...", Role: domain.RoleUser},
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, http.MethodPost, "/auth/login", `{"email":"dev@example.com","password":"secret1"}`, nil)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["success"] != true {
		t.Fatalf("expected success envelope, got %+v", resp)
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", resp)
	}
	if data["token"] != "a.b.c" || data["expires_at"] != "2026-01-02T00:00:00Z" {
		t.Fatalf("unexpected data: %+v", data)
	}
	user, ok := data["user"].(map[string]any)
	if !ok || user["username"] != "dev" {
		t.Fatalf("unexpected user: %+v", data["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash must not be serialised")
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(t, http.MethodPost, "/auth/login", `{"email":"dev@example.com","password":"wrong"}`, nil)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	c, _ = newContext(t, http.MethodPost, "/auth/login", `{"email":"dev@example.com"}`, nil)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing password, got %v", err)
	}

	c, _ = newContext(t, http.MethodPost, "/auth/login", `{not json`, nil)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad payload, got %v", err)
	}
}

func TestAuthHandler_Register(t *testing.T) {
	var got ports.RegisterInput
	stub := &stubAuthService{
		registerFn: func(_ context.Context, actor *domain.Identity, in ports.RegisterInput) (*domain.User, error) {
			if actor.UserID != adminIdentity.UserID {
				t.Fatalf("unexpected actor: %+v", actor)
			}
			got = in
			return &domain.User{ID: 9, Username: in.Username, Email: in.Email, Role: domain.RoleUser}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, http.MethodPost, "/auth/register",
		`{"username":"carol","email":"carol@example.com","password":"secret1"}`, adminIdentity)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.Username != "carol" || got.Password != "secret1" || got.Role != "" {
		t.Fatalf("unexpected input: %+v", got)
	}
	data := decode(t, rec)["data"].(map[string]any)
	if data["id"] != float64(9) {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestAuthHandler_Register_PassesServiceError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, *domain.Identity, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrForbidden
		},
	}
	h := NewAuthHandler(stub)

	// An empty body from a non-admin still reaches the service so the
	// permission check decides first.
	c, _ := newContext(t, http.MethodPost, "/auth/register", `{}`, userIdentity)
	if err := h.Register(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthHandler_Register_WithoutIdentity(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newContext(t, http.MethodPost, "/auth/register", `{}`, nil)
	if err := h.Register(c); err == nil {
		t.Fatal("expected an error without identity")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		resolveFn: func(r *http.Request) *domain.User {
			if r.Header.Get("Authorization") == "" {
				return nil
			}
			return &domain.User{ID: 3, Username: "dev"}
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, http.MethodGet, "/auth/me", "", nil)
	c.Request().Header.Set("Authorization", "Bearer a.b.c")
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newContext(t, http.MethodGet, "/auth/me", "", nil)
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != false || resp["code"] != "UNAUTHORIZED" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	stub := &stubAuthService{}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, http.MethodPost, "/auth/logout", "", userIdentity)
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.logouts != 1 {
		t.Fatalf("expected 200 and one logout, got %d / %d", rec.Code, stub.logouts)
	}
}
