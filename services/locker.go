package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotel-pms/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises work on one key (for example a reservation) across
// concurrent requests.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MemoryLocker is a per-key mutex for single-process deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: map[string]*keyLock{}}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	if err := ctx.Err(); err != nil {
		l.release(key, kl)
		return nil, err
	}
	return func() { l.release(key, kl) }, nil
}

func (l *MemoryLocker) release(key string, kl *keyLock) {
	kl.mu.Unlock()
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// RedisLocker holds a SET NX PX lease per key so that several API processes
// serialise on the same reservation.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

var errLockTimeout = errors.New("lock wait timed out")

// compare-and-delete so a lease that expired and was re-acquired elsewhere is left alone
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 50 * time.Millisecond, prefix: "hotel:lock:"}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// background ctx: the request ctx may already be cancelled
				_ = unlockScript.Run(context.Background(), l.client, []string{redisKey}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("redis lock %s: %w", key, errLockTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func reservationLockKey(id uint) string {
	return fmt.Sprintf("reservation:%d", id)
}

// lockReservation takes the per-reservation lock and records how long it waited.
func lockReservation(ctx context.Context, locker Locker, m *metrics.HotelMetrics, id uint) (func(), error) {
	start := time.Now()
	unlock, err := locker.Lock(ctx, reservationLockKey(id))
	m.LockWait(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to lock reservation %d: %w", id, err)
	}
	return unlock, nil
}
