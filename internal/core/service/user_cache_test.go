package service

import (
	"context"
	"testing"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
)

func TestUserCache_FindByID_ReadThrough(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "hash", Role: domain.RoleAdmin})
	cache := newMemCache()
	users := NewUserCache(repo, cache, time.Minute)

	for i := 0; i < 3; i++ {
		u, err := users.FindByID(context.Background(), 1)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u.Username != "alice" {
			t.Fatalf("unexpected user: %+v", u)
		}
	}
	if repo.findByID != 1 {
		t.Fatalf("expected one store read, got %d", repo.findByID)
	}

	var cached domain.User
	if !cache.Get(context.Background(), "users:id:1", &cached) {
		t.Fatalf("expected cache entry")
	}
	if cached.PasswordHash != "" {
		t.Fatalf("hash must never be cached")
	}
}

func TestUserCache_WritesInvalidate(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: domain.RoleAdmin})
	cache := newMemCache()
	users := NewUserCache(repo, cache, time.Minute)

	if list, _ := users.List(context.Background()); len(list) != 1 {
		t.Fatalf("expected one user")
	}
	if _, err := users.Create(context.Background(), &domain.User{Username: "bob", Email: "bob@example.com", Role: domain.RoleUser}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if list, _ := users.List(context.Background()); len(list) != 2 {
		t.Fatalf("list must be refreshed after create, got %d", len(list))
	}
}

func TestUserCache_BackendDownFallsThrough(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: 1, Username: "alice", Email: "alice@example.com"})
	cache := newMemCache()
	cache.down = true
	users := NewUserCache(repo, cache, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := users.FindByID(context.Background(), 1); err != nil {
			t.Fatalf("find: %v", err)
		}
	}
	if repo.findByID != 2 {
		t.Fatalf("expected every read to hit the store, got %d", repo.findByID)
	}
}
