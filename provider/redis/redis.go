// Package redis wires an optional go-redis client used as a cross-process
// cache backend, following the same Init/IsEnabled/Shutdown shape as
// provider/otel.
package redis

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/provider/otel"
)

var (
	client  *redis.Client
	enabled atomic.Bool
)

// Init connects the global client from config.App.Redis. A no-op (leaving
// IsEnabled false) when redis is disabled, so callers never need to guard
// the call site.
func Init() error {
	cfg := config.App.Redis
	if !cfg.Enable {
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client = nil
		return errors.Wrap(err, "failed to connect to redis")
	}

	if otel.IsEnabled() {
		if err := redisotel.InstrumentTracing(client); err != nil {
			zap.S().Warnw("failed to instrument redis client with tracing", "error", err)
		}
	}

	enabled.Store(true)
	zap.S().Infow("redis cache enabled", "addr", cfg.Addr, "db", cfg.DB)
	return nil
}

// IsEnabled reports whether the client connected successfully.
func IsEnabled() bool { return enabled.Load() }

// SetML marshals v to JSON ("Set as Marshaled/List") and stores it under
// key with config.App.Redis's configured expiration; safe to call when
// disabled, where it no-ops.
func SetML(key string, v any) error {
	if !IsEnabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal redis value")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.Set(ctx, key, data, config.App.Redis.Expiration).Err()
}

// GetML loads the value stored under key into out, reporting false if the
// key is absent, disabled, or the stored value can't be unmarshaled.
func GetML(key string, out any) bool {
	if !IsEnabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Delete removes key, if present. No-op when disabled.
func Delete(key string) {
	if !IsEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client.Del(ctx, key)
}

// Shutdown closes the underlying client; called from the server's
// graceful-shutdown sequence.
func Shutdown() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// PageCache adapts the package-level client to types.Cache[T], scoping every
// key under prefix so unrelated callers (e.g. two different entity lists)
// never collide in the shared keyspace.
type PageCache[T any] struct {
	Prefix string
}

func (c PageCache[T]) Get(key string) (T, bool) {
	var v T
	if !GetML(c.Prefix+key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}

func (c PageCache[T]) Set(key string, value T) {
	_ = SetML(c.Prefix+key, value)
}

func (c PageCache[T]) Delete(key string) {
	Delete(c.Prefix + key)
}
