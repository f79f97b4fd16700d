package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/memory-app/memory-api/internal/api/middleware"
	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	resolveFn  func(r *http.Request) *domain.User
	registerFn func(ctx context.Context, actor *domain.Identity, in ports.RegisterInput) (*domain.User, error)
	listFn     func(ctx context.Context, actor *domain.Identity) ([]*domain.User, error)
	changeFn   func(ctx context.Context, actor *domain.Identity, current, next string) error
	logouts    int
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ResolveCurrentUser(_ context.Context, r *http.Request) *domain.User {
	return s.resolveFn(r)
}

func (s *stubAuthService) Register(ctx context.Context, actor *domain.Identity, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, actor, in)
}

func (s *stubAuthService) Logout(context.Context, *domain.Identity) {
	s.logouts++
}

func (s *stubAuthService) ListUsers(ctx context.Context, actor *domain.Identity) ([]*domain.User, error) {
	return s.listFn(ctx, actor)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, actor *domain.Identity, current, next string) error {
	return s.changeFn(ctx, actor, current, next)
}

type stubAssignmentService struct {
	assignFn     func(in ports.AssignInput) (*domain.Assignment, error)
	removeFn     func(actorID, userID, projectID int64) error
	changeRoleFn func(actorID, userID, projectID int64, role string) error
	userProjects func(userID int64, role string) ([]*domain.Assignment, error)
	projectList  []*domain.Assignment
}

func (s *stubAssignmentService) Assign(_ context.Context, in ports.AssignInput) (*domain.Assignment, error) {
	return s.assignFn(in)
}

func (s *stubAssignmentService) Remove(_ context.Context, actorID, userID, projectID int64) error {
	return s.removeFn(actorID, userID, projectID)
}

func (s *stubAssignmentService) ChangeRole(_ context.Context, actorID, userID, projectID int64, role string) error {
	return s.changeRoleFn(actorID, userID, projectID, role)
}

func (s *stubAssignmentService) CanAssign(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (s *stubAssignmentService) ProjectAssignments(context.Context, int64) ([]*domain.Assignment, error) {
	return s.projectList, nil
}

func (s *stubAssignmentService) ProjectHistory(context.Context, int64) ([]*domain.Assignment, error) {
	return s.projectList, nil
}

func (s *stubAssignmentService) UserProjects(_ context.Context, userID int64, role string) ([]*domain.Assignment, error) {
	return s.userProjects(userID, role)
}

func (s *stubAssignmentService) AvailableUsers(context.Context, int64) ([]*domain.User, error) {
	return nil, nil
}

func (s *stubAssignmentService) ProjectStats(context.Context, int64) (*domain.AssignmentStats, error) {
	return &domain.AssignmentStats{}, nil
}

var (
	adminIdentity = &domain.Identity{UserID: 1, Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	userIdentity  = &domain.Identity{UserID: 3, Username: "dev", Email: "dev@example.com", Role: domain.RoleUser}
)

// newContext builds an echo context with a JSON body and, when id is not nil,
// an attached identity.
func newContext(t *testing.T, method, target, body string, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set(middleware.IdentityKey, id)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, rec.Body.String())
	}
	return resp
}
