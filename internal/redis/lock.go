package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("slot lock not acquired")
)

// Locker guards the booking critical section for one doctor/slot pair, so
// that concurrent requests for the same start time cannot both insert.
type Locker interface {
	WithSlotLock(ctx context.Context, doctorID uuid.UUID, slotStart time.Time, fn func(ctx context.Context) error) error
}

type redisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlotLocker creates a locker keyed per doctor and slot start minute.
func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisSlotLocker{
		client: client,
		ttl:    ttl,
	}
}

// SlotLockKey is the Redis key for a doctor's slot. Minute truncation keeps
// the key identical for every representation of the same slot start.
func SlotLockKey(doctorID uuid.UUID, slotStart time.Time) string {
	return fmt.Sprintf("lock:doctor:%s:slot:%s",
		doctorID.String(), slotStart.UTC().Truncate(time.Minute).Format("2006-01-02T15:04"))
}

func (l *redisSlotLocker) WithSlotLock(ctx context.Context, doctorID uuid.UUID, slotStart time.Time, fn func(ctx context.Context) error) error {
	key := SlotLockKey(doctorID, slotStart)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSlotLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}
