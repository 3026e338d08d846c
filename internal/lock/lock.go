// Package lock provides a Redis backed mutual exclusion used to keep a
// single document render in flight across instances.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrNotConfigured = errors.New("lock_not_configured")
	ErrEmptyKey      = errors.New("lock_key_empty")
	ErrInvalidTTL    = errors.New("lock_ttl_invalid")
)

// Locker hands out expiring locks identified by a random token. Only the
// holder of the token can release the lock.
type Locker struct {
	client redis.UniversalClient
	script *redis.Script
	prefix string
}

// New returns nil when client is nil; a nil Locker reports Enabled false.
func New(client redis.UniversalClient, prefix string) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(releaseScript),
		prefix: prefix,
	}
}

func (l *Locker) Enabled() bool {
	return l != nil && l.client != nil
}

// TryLock attempts to take key for ttl. ok is false when someone else holds it.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if !l.Enabled() {
		return "", false, ErrNotConfigured
	}
	if key == "" {
		return "", false, ErrEmptyKey
	}
	if ttl <= 0 {
		return "", false, ErrInvalidTTL
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Acquire polls TryLock until the lock is taken, ctx ends or wait elapses.
func (l *Locker) Acquire(ctx context.Context, key string, ttl, wait, interval time.Duration) (string, bool, error) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	deadline := time.Now().Add(wait)
	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil || ok {
			return token, ok, err
		}
		if !time.Now().Before(deadline) {
			return "", false, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", false, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if !l.Enabled() || key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
}
