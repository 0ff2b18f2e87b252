package cache

import (
	"context"
	"time"
)

// Service is a best-effort read accelerator, never the system of record.
// Implementations return zero values rather than propagating backend faults
// where the semantics allow it; callers must always be able to fall back to
// the repository.
type Service interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string, amount int64) (int64, error)
}
