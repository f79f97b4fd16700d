package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/memory-app/memory-api/internal/core/domain"
)

func TestUserHandler_Projects_SelfOrAdmin(t *testing.T) {
	var asked []int64
	assignments := &stubAssignmentService{
		userProjects: func(userID int64, role string) ([]*domain.Assignment, error) {
			asked = append(asked, userID)
			return []*domain.Assignment{}, nil
		},
	}
	h := NewUserHandler(&stubAuthService{}, assignments)

	cases := []struct {
		name    string
		actor   *domain.Identity
		param   string
		wantErr error
	}{
		{"self", userIdentity, "3", nil},
		{"admin for someone else", adminIdentity, "3", nil},
		{"someone else", userIdentity, "2", domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newContext(t, http.MethodGet, "/v1/users/x/projects", "", tc.actor)
			c.SetParamNames("id")
			c.SetParamValues(tc.param)
			err := h.Projects(c)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
	if len(asked) != 2 {
		t.Fatalf("expected two service calls, got %v", asked)
	}
}

func TestUserHandler_MyProjects_PassesRoleFilter(t *testing.T) {
	var gotRole string
	assignments := &stubAssignmentService{
		userProjects: func(userID int64, role string) ([]*domain.Assignment, error) {
			if userID != userIdentity.UserID {
				t.Fatalf("unexpected user: %d", userID)
			}
			gotRole = role
			return nil, nil
		},
	}
	h := NewUserHandler(&stubAuthService{}, assignments)

	c, rec := newContext(t, http.MethodGet, "/v1/me/projects?role=manager", "", userIdentity)
	if err := h.MyProjects(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotRole != "manager" {
		t.Fatalf("expected 200 with role filter, got %d %q", rec.Code, gotRole)
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	auth := &stubAuthService{
		changeFn: func(_ context.Context, actor *domain.Identity, current, next string) error {
			if actor.UserID != 3 || current != "secret1" || next != "secret2" {
				t.Fatalf("unexpected args: %d %s %s", actor.UserID, current, next)
			}
			return nil
		},
	}
	h := NewUserHandler(auth, &stubAssignmentService{})

	c, rec := newContext(t, http.MethodPut, "/v1/users/me/password",
		`{"current_password":"secret1","new_password":"secret2"}`, userIdentity)
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext(t, http.MethodPut, "/v1/users/me/password", `{"current_password":"secret1"}`, userIdentity)
	if err := h.ChangePassword(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserHandler_List(t *testing.T) {
	auth := &stubAuthService{
		listFn: func(_ context.Context, actor *domain.Identity) ([]*domain.User, error) {
			if !actor.IsAdmin() {
				return nil, domain.ErrForbidden
			}
			return []*domain.User{{ID: 1}, {ID: 3}}, nil
		},
	}
	h := NewUserHandler(auth, &stubAssignmentService{})

	c, rec := newContext(t, http.MethodGet, "/v1/users", "", adminIdentity)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if data, ok := decode(t, rec)["data"].([]any); !ok || len(data) != 2 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c, _ = newContext(t, http.MethodGet, "/v1/users", "", userIdentity)
	if err := h.List(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
