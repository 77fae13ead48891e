package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/port"
)

// DefaultGoodsNumber is the goods quantity field sent with every
// registration, independent of the granted item quantity.
const DefaultGoodsNumber int32 = 233

// Registrar submits grants to the warehouse registration procedure. It
// never retries: a repeated call could grant twice.
type Registrar struct {
	repo        port.WarehouseRepository
	goodsNumber int32
}

func NewRegistrar(repo port.WarehouseRepository, goodsNumber int32) *Registrar {
	if goodsNumber <= 0 {
		goodsNumber = DefaultGoodsNumber
	}
	return &Registrar{repo: repo, goodsNumber: goodsNumber}
}

// Register returns the label id assigned by the store. A duplicate goods id
// is returned unwrapped as domain.ErrDuplicateGoodsID so the caller can
// allocate again.
func (r *Registrar) Register(ctx context.Context, req domain.GrantRequest, slot domain.Slot) (int64, error) {
	labelID, err := r.repo.Register(ctx, domain.Registration{
		AccountID:         req.AccountID,
		GoodsID:           req.GoodsID,
		GoodsNumber:       r.goodsNumber,
		SenderDescription: req.SenderDescription,
		SenderMessage:     req.SenderMessage,
		PurchaseTime:      req.PurchaseTime,
		Slot:              slot,
		ItemID:            req.ItemID,
		Quantity:          req.Quantity,
	})
	if errors.Is(err, domain.ErrDuplicateGoodsID) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRegistration, err)
	}
	if labelID <= 0 {
		return 0, fmt.Errorf("%w: store returned label id %d", domain.ErrRegistration, labelID)
	}

	return labelID, nil
}
