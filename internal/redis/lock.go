package redisclient

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("participant lock not acquired")
)

const (
	releaseTimeout = 2 * time.Second
	retryInterval  = 25 * time.Millisecond
)

// Locker is used by the booking service to keep concurrent requests for the
// same participants from interleaving their check and write.
type Locker interface {
	WithParticipantLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// NoopLocker runs fn directly. Storage constraints still guard the invariant.
type NoopLocker struct{}

func (NoopLocker) WithParticipantLocks(ctx context.Context, _ []string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type redisParticipantLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisParticipantLocker creates a locker that holds one Redis key per
// participant. A busy key is retried for up to one ttl, the longest another
// holder can keep it.
func NewRedisParticipantLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisParticipantLocker{
		client: client,
		ttl:    ttl,
		wait:   ttl,
	}
}

// WithParticipantLocks takes every key or none, runs fn, then releases the keys
// it owns. It waits while another request holds any of the keys and returns
// ErrLockNotAcquired, without running fn, once the wait or ctx runs out or
// Redis cannot be reached.
func (l *redisParticipantLocker) WithParticipantLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	redisKeys := participantKeys(keys)
	if len(redisKeys) == 0 {
		return fn(ctx)
	}
	token := uuid.NewString()

	if err := l.acquire(ctx, redisKeys, token); err != nil {
		return err
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), redisKeys, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var acquireScript = redis.NewScript(`
for _, key in ipairs(KEYS) do
  if redis.call("EXISTS", key) == 1 then
    return 0
  end
end
for _, key in ipairs(KEYS) do
  redis.call("SET", key, ARGV[1], "PX", ARGV[2])
end
return 1
`)

var unlockScript = redis.NewScript(`
local released = 0
for _, key in ipairs(KEYS) do
  if redis.call("GET", key) == ARGV[1] then
    released = released + redis.call("DEL", key)
  end
end
return released
`)

func (l *redisParticipantLocker) acquire(ctx context.Context, keys []string, token string) error {
	ttl := strconv.FormatInt(l.ttl.Milliseconds(), 10)
	deadline := time.Now().Add(l.wait)

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := acquireScript.Run(ctx, l.client, keys, token, ttl).Int()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLockNotAcquired, err)
		}
		if ok == 1 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *redisParticipantLocker) release(ctx context.Context, keys []string, token string) error {
	ctx, cancel := context.WithTimeout(ctx, releaseTimeout)
	defer cancel()

	_, err := unlockScript.Run(ctx, l.client, keys, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release participant locks: %w", err)
	}
	return nil
}

// participantKeys namespaces, sorts and de-duplicates lock keys.
func participantKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, "lock:participant:"+k)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
