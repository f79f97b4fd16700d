package service

import (
	"context"
	"strconv"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

const userCachePrefix = "users:"

// UserCache is a read-through cache over a UserRepository. Only profile reads
// (FindByID, List) are cached; PasswordHash is never written to the cache, so
// credential checks must use FindByEmail, which always hits the store.
type UserCache struct {
	ports.UserRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewUserCache(repo ports.UserRepository, cache ports.Cache, ttl time.Duration) *UserCache {
	return &UserCache{UserRepository: repo, cache: cache, ttl: ttl}
}

func (c *UserCache) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	key := userCachePrefix + "id:" + strconv.FormatInt(id, 10)

	var cached domain.User
	if c.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := c.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, withoutHash(user), c.ttl)
	return user, nil
}

func (c *UserCache) List(ctx context.Context) ([]*domain.User, error) {
	key := userCachePrefix + "list"

	var cached []*domain.User
	if c.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	users, err := c.UserRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, withoutHash(u))
	}
	c.cache.Set(ctx, key, out, c.ttl)
	return users, nil
}

func (c *UserCache) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created, err := c.UserRepository.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	c.cache.DeletePrefix(ctx, userCachePrefix)
	return created, nil
}

func (c *UserCache) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if err := c.UserRepository.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}
	c.cache.DeletePrefix(ctx, userCachePrefix)
	return nil
}

var _ ports.UserRepository = (*UserCache)(nil)
