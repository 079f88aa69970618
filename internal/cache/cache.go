// Package cache is a small JSON key/value facade used for short-lived
// aggregates like journal entry stats. Services take a nil Cache to mean
// caching is off; they must not fail because of it.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// GetJSON unmarshals the value at key into dst. A miss is (false, nil),
	// never an error.
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
