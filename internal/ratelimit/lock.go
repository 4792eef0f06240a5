package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const releaseTimeout = 2 * time.Second

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockNotConfigured = errors.New("lock_not_configured")
	ErrLockKeyEmpty      = errors.New("lock_key_empty")
	ErrLockTTLInvalid    = errors.New("lock_ttl_invalid")
)

// Locker is a single-holder lease on a redis key. A lease is released only by
// the token that obtained it.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// TryLock returns the lease token and true when the key was free.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrLockNotConfigured
	}
	if key == "" {
		return "", false, ErrLockKeyEmpty
	}
	if ttl <= 0 {
		return "", false, ErrLockTTLInvalid
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Lease is a held lock. Release detaches from the caller's context so a
// cancelled request still frees the key.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Acquire wraps TryLock. A nil lease with ok=false means the key is held.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, bool, error) {
	token, ok, err := l.TryLock(ctx, key, ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Lease{locker: l, key: key, token: token}, true, nil
}

func (le *Lease) Key() string {
	if le == nil {
		return ""
	}
	return le.key
}

func (le *Lease) Release(ctx context.Context) error {
	if le == nil {
		return nil
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	return le.locker.Release(releaseCtx, le.key, le.token)
}
