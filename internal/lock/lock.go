package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/logger"
)

// ErrAlreadyRunning is returned when another holder owns the lock
var ErrAlreadyRunning = errors.New("already running")

const (
	defaultTTL = 2 * time.Hour
	keyPrefix  = "lock:"
)

// releaseScript deletes the lock only when it still carries our token.
// Returns 1 when released, 0 when the lock expired or belongs to someone else.
const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
else
  return 0
end
`

// extendScript resets the lock TTL (ARGV[2], milliseconds) only when it still carries our token.
// Returns 1 when extended, 0 when the lock expired or belongs to someone else.
const extendScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  return 0
end
`

// Locker serializes work by name across processes
//
//go:generate mockgen -source=lock.go -destination=../mocks/lock.go -package=mocks -mock_names=Locker=MockLocker
type Locker interface {
	// Run acquires the named lock without waiting, runs fn and releases the lock.
	// It returns ErrAlreadyRunning without calling fn when the lock is held.
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	client adapter.RedisClient
	ttl    time.Duration
}

// NewRedisLocker creates a Locker backed by Redis SET NX PX with token release.
// ttl bounds how long a crashed holder keeps the lock; a live holder extends it
// every third of ttl for as long as fn runs.
func NewRedisLocker(client adapter.RedisClient, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	key := keyPrefix + name
	token := ulid.Make().String()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, name)
	}

	logger.DebugCtx(ctx, "Lock acquired", zap.String("lock", name), zap.Duration("ttl", l.ttl))

	defer l.release(context.WithoutCancel(ctx), key, token)

	stop := l.keepAlive(ctx, key, token)
	defer stop()

	return fn(ctx)
}

// keepAlive extends the lock every ttl/3 until stop is called or the lock is lost.
// stop returns once no further extension can happen.
func (l *redisLocker) keepAlive(ctx context.Context, key, token string) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		interval := l.ttl / 3
		if interval <= 0 {
			interval = l.ttl
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !l.extend(ctx, key, token) {
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// extend reports whether the lock is still held; transient Redis errors keep the refresher running
func (l *redisLocker) extend(ctx context.Context, key, token string) bool {
	res, err := l.client.Eval(ctx, extendScript, []string{key}, token, l.ttl.Milliseconds())
	if err != nil {
		logger.WarnCtx(ctx, "Failed to extend lock", zap.String("lock", key), zap.Error(err))
		return true
	}

	if n, ok := res.(int64); !ok || n == 0 {
		logger.WarnCtx(ctx, "Lock was lost while running", zap.String("lock", key))
		return false
	}

	return true
}

func (l *redisLocker) release(ctx context.Context, key, token string) {
	res, err := l.client.Eval(ctx, releaseScript, []string{key}, token)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to release lock: %w", err), zap.String("lock", key))
		return
	}

	if n, ok := res.(int64); !ok || n == 0 {
		logger.WarnCtx(ctx, "Lock was lost before release", zap.String("lock", key))
		return
	}

	logger.DebugCtx(ctx, "Lock released", zap.String("lock", key))
}
