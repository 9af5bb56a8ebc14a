package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrLockLost is returned by Renew when the lease expired or another worker
// reclaimed the lock since acquisition.
var ErrLockLost = errors.New("scheduler: lock lost")

// Locker provides distributed mutual exclusion scoped to a job name. A lock
// carries a lease: if the holder neither renews nor releases it within the
// lease, another worker may reclaim it.
type Locker interface {
	// TryAcquire attempts to take the lock. acquired=false means another
	// worker holds it; that is not an error.
	TryAcquire(ctx context.Context, name string, lease time.Duration) (token string, acquired bool, err error)

	// Renew extends the lease of a held lock.
	Renew(ctx context.Context, name, token string, lease time.Duration) error

	// Release drops the lock if the token still owns it.
	Release(ctx context.Context, name, token string) error
}

const lockKeyPrefix = "loyalty:job-lock:"

func lockKey(name string) string {
	return lockKeyPrefix + name
}

type redisLocker struct {
	client *goredis.Client
}

// NewRedisLocker returns a Locker backed by Redis SET NX with TTL. Acquire
// is atomic across worker processes.
func NewRedisLocker(client *goredis.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) TryAcquire(ctx context.Context, name string, lease time.Duration) (string, bool, error) {

	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey(name), token, lease).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (l *redisLocker) Renew(ctx context.Context, name, token string, lease time.Duration) error {

	current, err := l.client.Get(ctx, lockKey(name)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrLockLost
		}
		return fmt.Errorf("failed to read job lock: %w", err)
	}
	if current != token {
		return ErrLockLost
	}

	if err = l.client.Expire(ctx, lockKey(name), lease).Err(); err != nil {
		return fmt.Errorf("failed to renew job lock: %w", err)
	}

	return nil
}

func (l *redisLocker) Release(ctx context.Context, name, token string) error {

	current, err := l.client.Get(ctx, lockKey(name)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil // lease already expired
		}
		return fmt.Errorf("failed to read job lock: %w", err)
	}
	if current != token {
		return nil // reclaimed by another worker
	}

	if err = l.client.Del(ctx, lockKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to release job lock: %w", err)
	}

	return nil
}

type memoryLease struct {
	token   string
	expires time.Time
}

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]memoryLease
}

// NewMemoryLocker returns an in-process Locker for single-worker deployments
// and tests.
func NewMemoryLocker() Locker {
	return &memoryLocker{held: make(map[string]memoryLease)}
}

func (l *memoryLocker) TryAcquire(_ context.Context, name string, lease time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.held[name]; ok && cur.expires.After(now) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.held[name] = memoryLease{token: token, expires: now.Add(lease)}
	return token, true, nil
}

func (l *memoryLocker) Renew(_ context.Context, name, token string, lease time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.held[name]
	if !ok || cur.token != token || !cur.expires.After(time.Now()) {
		return ErrLockLost
	}

	l.held[name] = memoryLease{token: token, expires: time.Now().Add(lease)}
	return nil
}

func (l *memoryLocker) Release(_ context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.held[name]; ok && cur.token == token {
		delete(l.held, name)
	}
	return nil
}
