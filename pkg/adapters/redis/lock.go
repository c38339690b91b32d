package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/relay/pkg/ports"
)

// ErrLockAcquire is returned when a run lock could not be taken.
var ErrLockAcquire = errors.New("run lock not acquired")

var errLockHeld = errors.New("lock held")

// release deletes a lock only while it still carries the holder's token, so a
// holder whose TTL lapsed cannot free a lock that someone else now owns.
var release = backend.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
return redis.call("DEL", KEYS[1])`)

// Locker serializes runs across processes with SET NX PX keys.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

func NewLocker(client *backend.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Locker{client: client, prefix: prefix, poll: 50 * time.Millisecond}
}

// Lock polls until the lock for key is free or ctx is done. The lock expires
// after ttl even if the returned UnlockFunc is never called.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	name := l.prefix + "lock:" + key
	token := uuid.NewString()

	take := func() error {
		ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
		switch {
		case err != nil:
			return backoff.Permanent(err)
		case !ok:
			return errLockHeld
		}
		return nil
	}
	if err := backoff.Retry(take, backoff.WithContext(backoff.NewConstantBackOff(l.poll), ctx)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLockAcquire, key, err)
	}

	return func(ctx context.Context) error {
		return release.Run(ctx, l.client, []string{name}, token).Err()
	}, nil
}
