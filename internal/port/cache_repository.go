package port

import (
	"context"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes a key so the request may be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// ReserveGoodsID claims a candidate goods id, returns false if another request holds it
	ReserveGoodsID(ctx context.Context, goodsID int64) (bool, error)
}

// SlotSequence hands out delivery slots. Each call returns the current
// slot and advances the sequence atomically.
type SlotSequence interface {
	NextSlot(ctx context.Context) (domain.Slot, error)
}
