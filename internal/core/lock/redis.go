package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Options tunes lease behavior. Wait-to-acquire must stay well below the
// lease duration; the defaults keep roughly two orders of magnitude
// between them.
type Options struct {
	// Lease is how long a held lock survives before auto-expiring.
	// Must comfortably cover worst-case transfer processing.
	Lease time.Duration

	// Wait bounds the total time spent trying to acquire.
	Wait time.Duration

	// RetryDelay is the pause between acquisition attempts.
	RetryDelay time.Duration
}

// DefaultOptions returns the production defaults: 3 minute lease,
// 30 second wait, 500ms between attempts.
func DefaultOptions() Options {
	return Options{
		Lease:      3 * time.Minute,
		Wait:       30 * time.Second,
		RetryDelay: 500 * time.Millisecond,
	}
}

func (o Options) tries() int {
	if o.RetryDelay <= 0 {
		return 1
	}
	n := int(o.Wait/o.RetryDelay) + 1
	if n < 1 {
		n = 1
	}
	return n
}

// RedisManager implements Manager with redsync mutexes, so leases hold
// across every process sharing the Redis instance.
type RedisManager struct {
	rs   *redsync.Redsync
	opts Options
}

func NewRedisManager(client goredislib.UniversalClient, opts Options) *RedisManager {
	pool := goredis.NewPool(client)
	return &RedisManager{rs: redsync.New(pool), opts: opts}
}

// Acquire takes the lease for key, retrying until the wait timeout.
// Contention past the timeout maps to ErrBusy; anything else (network,
// canceled context) is surfaced as-is.
func (m *RedisManager) Acquire(ctx context.Context, key string) (Lease, error) {
	mutex := m.rs.NewMutex(
		key,
		redsync.WithExpiry(m.opts.Lease),
		redsync.WithTries(m.opts.tries()),
		redsync.WithRetryDelay(m.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) {
			return nil, ErrBusy
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}

	return &redisLease{mutex: mutex}, nil
}

type redisLease struct {
	mutex *redsync.Mutex
}

func (l *redisLease) Release(ctx context.Context) error {
	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("release %s: %w", l.mutex.Name(), err)
	}
	if !ok {
		return fmt.Errorf("release %s: lease already expired", l.mutex.Name())
	}
	return nil
}
