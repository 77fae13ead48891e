package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-grant/internal/adapter/storage"
	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/core/service"
)

const heroAccount = "3f2a9c1e-7b4d-4e8a-9c61-2d5b8f0a1e37"

// fakeWorld stands in for the game and warehouse databases.
type fakeWorld struct {
	mu          sync.Mutex
	maxGoods    int64
	nextLabel   int64
	registerErr error
	itemsErr    error
	registered  int
}

func (f *fakeWorld) LookupAccountID(ctx context.Context, name string) (string, error) {
	if name == "Hero1" {
		return heroAccount, nil
	}
	return "", domain.ErrCharacterNotFound
}

func (f *fakeWorld) ListCharacters(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	if accountID.String() == heroAccount {
		return []string{"Hero1"}, nil
	}
	return nil, nil
}

func (f *fakeWorld) MaxGoodsID(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxGoods, nil
}

func (f *fakeWorld) Register(ctx context.Context, reg domain.Registration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registerErr != nil {
		return 0, f.registerErr
	}
	f.registered++
	f.maxGoods = reg.GoodsID
	f.nextLabel++
	return 5000 + f.nextLabel, nil
}

func (f *fakeWorld) LookupLabel(ctx context.Context, goodsID int64) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeWorld) SetGoodsState(ctx context.Context, goodsID int64, state domain.GoodsState) error {
	return nil
}

func (f *fakeWorld) SetItemState(ctx context.Context, labelID int64, state domain.ItemState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemsErr
}

func (f *fakeWorld) ListCategories(ctx context.Context) ([]domain.ItemCategory, error) {
	return []domain.ItemCategory{{
		Key:   "Costume - General",
		Items: []domain.CatalogItem{{ItemID: 500, Alias: "cos_500"}},
	}}, nil
}

func newTestService(t *testing.T) (*service.GrantService, *fakeWorld) {
	t.Helper()

	journal, err := storage.OpenSQLiteJournal(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	world := &fakeWorld{}
	svc := service.NewGrantService(service.Dependencies{
		Directory: world,
		Warehouse: world,
		Goods:     world,
		Items:     world,
		Slots:     service.NewSlotRotator(),
		Journal:   journal,
		Catalog:   world,
	}, service.Options{
		AllocationMaxTries: 1,
		AllocationBackoff:  time.Millisecond,
		RepairQueueSize:    4,
	})
	t.Cleanup(svc.Close)

	return svc, world
}

var errStoreDown = errors.New("store down")
