package growcycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes evaluation and transition work per cycle. Two concurrent
// evaluators (e.g. the worker tick and a manual evaluate request) must not
// both run the transition sequence for the same cycle: the stage CAS makes
// the race harmless to data, but the duplicated retract/materialize work and
// history append are avoided by taking a short lease first.
type Locker interface {
	// Acquire attempts to take the lease for key. When acquired it returns
	// a release function; when the lease is held elsewhere it returns
	// acquired=false with no error.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// releaseScript deletes the lease only if the caller still holds it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with a SetNX lease in redis.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a locker using the given redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "growcycle:lock:"}
}

// Acquire takes the lease via SET NX with a per-holder token.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.New().String()
	fullKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Best effort; an expired lease has already released itself.
		_ = releaseScript.Run(context.Background(), l.client, []string{fullKey}, token).Err()
	}
	return release, true, nil
}

// NoopLocker always grants the lease. Used in tests and single-process
// deployments without redis.
type NoopLocker struct{}

// Acquire grants the lease unconditionally.
func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}
