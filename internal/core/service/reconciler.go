package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/port"
)

// Reconciler advances the goods and item records of a registered grant.
// Both updates are assignments to a fixed target, so a rerun is harmless.
type Reconciler struct {
	goods port.GoodsStateStore
	items port.ItemStateStore
}

func NewReconciler(goods port.GoodsStateStore, items port.ItemStateStore) *Reconciler {
	return &Reconciler{goods: goods, items: items}
}

func (r *Reconciler) Reconcile(ctx context.Context, goodsID, labelID int64) error {
	var errs []error

	if err := r.goods.SetGoodsState(ctx, goodsID, domain.GoodsStateRegistered); err != nil {
		errs = append(errs, fmt.Errorf("goods %d: %w", goodsID, err))
	}
	if err := r.items.SetItemState(ctx, labelID, domain.ItemStateActive); err != nil {
		errs = append(errs, fmt.Errorf("label %d: %w", labelID, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrReconciliation, errors.Join(errs...))
	}
	return nil
}
