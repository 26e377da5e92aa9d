package cache

import (
	"context"
	"time"
)

// Cache is a read-through cache for hot lookups. The only heavy consumer is
// the client directory resolving Stripe customer ids on every event.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
}
