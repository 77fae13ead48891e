package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/port"
)

const maxGoodsReservations = 16

// GoodsAllocator derives the next goods id from the stored maximum.
type GoodsAllocator struct {
	repo            port.WarehouseRepository
	cache           port.CacheRepository
	maxTries        uint
	initialInterval time.Duration
	logger          *zap.Logger
}

// NewGoodsAllocator builds an allocator. cache may be nil, in which case
// candidates are not reserved and only the store's unique constraint
// guards against concurrent duplicates.
func NewGoodsAllocator(repo port.WarehouseRepository, cache port.CacheRepository, maxTries uint, initialInterval time.Duration, logger *zap.Logger) *GoodsAllocator {
	if maxTries == 0 {
		maxTries = 1
	}
	if initialInterval <= 0 {
		initialInterval = 50 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoodsAllocator{
		repo:            repo,
		cache:           cache,
		maxTries:        maxTries,
		initialInterval: initialInterval,
		logger:          logger,
	}
}

// Allocate returns the goods id following the stored maximum. Pass the id
// rejected by the store as floor to regenerate after a duplicate:
// derivation then continues from floor, which after a wrap lies below the
// stored maximum.
func (a *GoodsAllocator) Allocate(ctx context.Context, floor int64) (int64, error) {
	max, err := a.readMax(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: read max goods id: %w", domain.ErrAllocation, err)
	}
	if floor != 0 {
		max = floor
	}

	for i := 0; i < maxGoodsReservations; i++ {
		if domain.GoodsIDWrapped(max) {
			a.logger.Warn("goods id remainder wrapped without carry", zap.Int64("max_goods_id", max))
		}
		candidate := domain.NextGoodsID(max)

		if a.cache == nil {
			return candidate, nil
		}

		ok, err := a.cache.ReserveGoodsID(ctx, candidate)
		if err != nil {
			a.logger.Warn("goods id reservation unavailable, relying on store uniqueness",
				zap.Int64("goods_id", candidate))
			a.logger.Debug("reservation error", zap.Error(err))
			return candidate, nil
		}
		if ok {
			return candidate, nil
		}
		max = candidate
	}

	return 0, fmt.Errorf("%w: no free goods id after %d reservations", domain.ErrAllocation, maxGoodsReservations)
}

func (a *GoodsAllocator) readMax(ctx context.Context) (int64, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.initialInterval

	return backoff.Retry(ctx, func() (int64, error) {
		return a.repo.MaxGoodsID(ctx)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(a.maxTries))
}
