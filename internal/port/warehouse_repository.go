package port

import (
	"context"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

type WarehouseRepository interface {
	// MaxGoodsID returns the largest stored goods id, or 0 when none exist
	MaxGoodsID(ctx context.Context) (int64, error)

	// Register runs the registration procedure and returns the new label id.
	// Returns domain.ErrDuplicateGoodsID when the goods id is already taken
	Register(ctx context.Context, reg domain.Registration) (int64, error)

	// LookupLabel finds the label assigned to goodsID, if registration happened
	LookupLabel(ctx context.Context, goodsID int64) (int64, bool, error)
}

type GoodsStateStore interface {
	// SetGoodsState moves the goods record forward to state; never backwards
	SetGoodsState(ctx context.Context, goodsID int64, state domain.GoodsState) error
}

type ItemStateStore interface {
	// SetItemState moves the item records of labelID forward to state
	SetItemState(ctx context.Context, labelID int64, state domain.ItemState) error
}
