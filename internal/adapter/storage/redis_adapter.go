package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

const (
	slotKey             = "warehouse:slot"
	goodsReservePrefix  = "warehouse:goods:"
	idempotencyKeyTTL   = 24 * time.Hour
	goodsReservationTTL = 10 * time.Minute
)

// nextSlotScript returns the current slot and stores its successor. ARGV
// holds the cycle in order; a missing or foreign stored value counts as
// the first member.
var nextSlotScript = redis.NewScript(`
local key = KEYS[1]
local current = redis.call('GET', key)

local idx = 0
if current then
	for i = 1, #ARGV do
		if ARGV[i] == current then
			idx = i
			break
		end
	end
end
if idx == 0 then
	idx = 1
end

local nextIdx = idx + 1
if nextIdx > #ARGV then
	nextIdx = 1
end

redis.call('SET', key, ARGV[nextIdx])
return tonumber(ARGV[idx])
`)

type RedisAdapter struct {
	client *redis.Client
	prefix string
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// WithKeyPrefix returns an adapter whose keys all start with prefix, so
// tools can run beside a live deployment without touching its keys.
func (r *RedisAdapter) WithKeyPrefix(prefix string) *RedisAdapter {
	return &RedisAdapter{client: r.client, prefix: prefix}
}

func (r *RedisAdapter) NextSlot(ctx context.Context) (domain.Slot, error) {
	cycle := make([]interface{}, len(domain.DeliverySlots))
	for i, s := range domain.DeliverySlots {
		cycle[i] = int32(s)
	}

	result, err := nextSlotScript.Run(ctx, r.client, []string{r.prefix + slotKey}, cycle...).Int()
	if err != nil {
		return 0, fmt.Errorf("advance slot: %w", err)
	}

	return domain.Slot(result), nil
}

// ResetSlot stores slot as the next value handed out.
func (r *RedisAdapter) ResetSlot(ctx context.Context, slot domain.Slot) error {
	return r.client.Set(ctx, r.prefix+slotKey, int32(slot), 0).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisAdapter) ReserveGoodsID(ctx context.Context, goodsID int64) (bool, error) {
	key := fmt.Sprintf("%s%s%d", r.prefix, goodsReservePrefix, goodsID)

	ok, err := r.client.SetNX(ctx, key, 1, goodsReservationTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}
