// Package redistest provides an in-memory stand-in for the redis command
// surface so middleware and session code can be tested without a server.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	sfredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// Fake is a goroutine-safe map-backed Cmdable. TTLs are recorded, not enforced.
type Fake struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func NewFake() *Fake {
	return &Fake{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

// NewClient returns a platform client backed by a fresh Fake.
func NewClient() (*sfredis.Client, *Fake) {
	fake := NewFake()
	return sfredis.NewWithCmdable(fake), fake
}

// Has reports whether key is present.
func (f *Fake) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// TTL returns the last TTL recorded for key.
func (f *Fake) TTL(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttl[key]
}

func (f *Fake) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *Fake) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = stringify(value)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *Fake) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *Fake) SetNX(_ context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = stringify(value)
	f.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *Fake) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	if raw, ok := f.data[key]; ok {
		if _, err := fmt.Sscan(raw, &n); err != nil {
			return redis.NewIntResult(0, err)
		}
	}
	n++
	f.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (f *Fake) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	if ok {
		f.ttl[key] = expiration
	}
	return redis.NewBoolResult(ok, nil)
}

func (f *Fake) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			delete(f.ttl, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
