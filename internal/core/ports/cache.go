package ports

import (
	"context"
	"time"
)

// Cache is an optional read-through store. Implementations must treat an
// unreachable backend as a miss rather than failing the caller.
type Cache interface {
	// Get decodes the cached value for key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	DeletePrefix(ctx context.Context, prefix string)
}
