package infra

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// nextSerialScript bumps the per-owner counter to at least the floor the caller
// has observed, then increments it. It runs atomically inside Redis.
var nextSerialScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	current = floor
end
current = current + 1
redis.call('SET', KEYS[1], current)
return current
`)

// SerialAllocator hands out job serials from a Redis counter so that replicas
// serving the same owner never pick the same number.
type SerialAllocator struct {
	redis *RedisClient
}

func NewSerialAllocator(redis *RedisClient) *SerialAllocator {
	return &SerialAllocator{redis: redis}
}

func SerialKey(owner uuid.UUID) string {
	return "jobs:serial:" + owner.String()
}

// Next returns a serial strictly greater than floor.
func (a *SerialAllocator) Next(ctx context.Context, owner uuid.UUID, floor int) (int, error) {
	n, err := nextSerialScript.Run(ctx, a.redis.Client, []string{SerialKey(owner)}, floor).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate serial: %w", err)
	}
	return n, nil
}
