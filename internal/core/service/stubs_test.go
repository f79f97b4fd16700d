package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

// ── users ────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users    map[int64]*domain.User
	nextID   int64
	findByID int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[int64]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.findByID++
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
		if u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
	}
	r.nextID++
	c := cloneUser(user)
	c.ID = r.nextID
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

// ── projects ─────────────────────────────────────────────────────────────────

type stubProjectRepo struct {
	projects map[int64]*domain.Project
	nextID   int64
}

func newStubProjectRepo(projects ...*domain.Project) *stubProjectRepo {
	r := &stubProjectRepo{projects: make(map[int64]*domain.Project)}
	for _, p := range projects {
		c := *p
		r.projects[p.ID] = &c
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *stubProjectRepo) FindByID(_ context.Context, id int64) (*domain.Project, error) {
	if p, ok := r.projects[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, domain.ErrProjectNotFound
}

func (r *stubProjectRepo) List(_ context.Context, f ports.ProjectFilter) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range r.projects {
		if p.Archived() && !f.IncludeArchived {
			continue
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project) (*domain.Project, error) {
	for _, existing := range r.projects {
		if strings.EqualFold(existing.Name, p.Name) {
			return nil, domain.ErrProjectExists
		}
	}
	r.nextID++
	c := *p
	c.ID = r.nextID
	r.projects[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubProjectRepo) Archive(_ context.Context, id int64) error {
	p, ok := r.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	now := time.Now().UTC()
	p.ArchivedAt = &now
	return nil
}

// ── assignments ──────────────────────────────────────────────────────────────

type stubAssignmentRepo struct {
	rows          []*domain.Assignment
	insertErr     error
	listByProject int
}

func (r *stubAssignmentRepo) active(userID, projectID int64) *domain.Assignment {
	for _, a := range r.rows {
		if a.UserID == userID && a.ProjectID == projectID && a.Active() {
			return a
		}
	}
	return nil
}

func (r *stubAssignmentRepo) FindActive(_ context.Context, userID, projectID int64) (*domain.Assignment, error) {
	if a := r.active(userID, projectID); a != nil {
		c := *a
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubAssignmentRepo) Insert(_ context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	if r.active(a.UserID, a.ProjectID) != nil {
		return nil, domain.ErrAlreadyAssigned
	}
	c := *a
	c.ID = "a" + strconv.Itoa(len(r.rows)+1)
	r.rows = append(r.rows, &c)
	out := c
	return &out, nil
}

func (r *stubAssignmentRepo) Deactivate(_ context.Context, userID, projectID int64, end time.Time) error {
	a := r.active(userID, projectID)
	if a == nil {
		return domain.ErrNotFound
	}
	a.Status = domain.AssignmentInactive
	a.EndDate = &end
	return nil
}

func (r *stubAssignmentRepo) UpdateRole(_ context.Context, userID, projectID int64, role string) error {
	a := r.active(userID, projectID)
	if a == nil {
		return domain.ErrNotFound
	}
	a.RoleInProject = role
	return nil
}

func (r *stubAssignmentRepo) IsActiveManager(_ context.Context, userID, projectID int64) (bool, error) {
	a := r.active(userID, projectID)
	return a != nil && a.RoleInProject == domain.ProjectRoleManager, nil
}

func (r *stubAssignmentRepo) CountActiveManagers(_ context.Context, projectID int64) (int64, error) {
	var n int64
	for _, a := range r.rows {
		if a.ProjectID == projectID && a.Active() && a.RoleInProject == domain.ProjectRoleManager {
			n++
		}
	}
	return n, nil
}

func (r *stubAssignmentRepo) ListByProject(_ context.Context, projectID int64, activeOnly bool) ([]*domain.Assignment, error) {
	r.listByProject++
	var out []*domain.Assignment
	for _, a := range r.rows {
		if a.ProjectID != projectID || (activeOnly && !a.Active()) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (r *stubAssignmentRepo) ListByUser(_ context.Context, userID int64, role string) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	for _, a := range r.rows {
		if a.UserID != userID || !a.Active() || (role != "" && a.RoleInProject != role) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

// ── cache and audit ──────────────────────────────────────────────────────────

// memCache stores JSON like the Redis cache does.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	down    bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return false
	}
	raw, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.entries[key] = raw
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recordingAudit) Record(ev domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingAudit) kinds() []domain.AuditKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recordingAudit) has(kind domain.AuditKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
