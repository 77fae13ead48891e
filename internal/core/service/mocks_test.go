package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

// Mock CharacterDirectory
type mockDirectory struct {
	mu       sync.Mutex
	accounts map[string]string
	calls    int
	err      error
}

func newMockDirectory(accounts map[string]string) *mockDirectory {
	return &mockDirectory{accounts: accounts}
}

func (m *mockDirectory) LookupAccountID(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return "", m.err
	}
	id, ok := m.accounts[name]
	if !ok {
		return "", domain.ErrCharacterNotFound
	}
	return id, nil
}

func (m *mockDirectory) ListCharacters(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for name, id := range m.accounts {
		if id == accountID.String() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Mock warehouse store covering registration and both record tables
type mockWarehouse struct {
	mu            sync.Mutex
	maxGoods      int64
	staleMax      bool
	maxFailures   int
	maxCalls      int
	registerCalls int
	registerErr   error
	commitErr     error
	goodsErr      error
	itemsErr      error
	nextLabel     int64
	goods         map[int64]*domain.GoodsRecord
	items         map[int64]*domain.ItemRecord
	registrations []domain.Registration
}

func newMockWarehouse() *mockWarehouse {
	return &mockWarehouse{
		nextLabel: 9000,
		goods:     make(map[int64]*domain.GoodsRecord),
		items:     make(map[int64]*domain.ItemRecord),
	}
}

func (m *mockWarehouse) MaxGoodsID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxCalls++

	if m.maxFailures > 0 {
		m.maxFailures--
		return 0, errors.New("connection reset")
	}
	max := m.maxGoods
	if !m.staleMax {
		for id := range m.goods {
			if id > max {
				max = id
			}
		}
	}
	return max, nil
}

func (m *mockWarehouse) Register(ctx context.Context, reg domain.Registration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls++

	if m.registerErr != nil {
		return 0, m.registerErr
	}
	if _, exists := m.goods[reg.GoodsID]; exists {
		return 0, domain.ErrDuplicateGoodsID
	}

	m.nextLabel++
	label := m.nextLabel
	m.goods[reg.GoodsID] = &domain.GoodsRecord{GoodsID: reg.GoodsID, LabelID: label, RegistrationState: domain.GoodsStatePending}
	m.items[label] = &domain.ItemRecord{LabelID: label, ItemState: domain.ItemStateUnregistered}
	m.registrations = append(m.registrations, reg)
	if m.commitErr != nil {
		return 0, m.commitErr
	}
	return label, nil
}

func (m *mockWarehouse) LookupLabel(ctx context.Context, goodsID int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goods[goodsID]
	if !ok {
		return 0, false, nil
	}
	return g.LabelID, true, nil
}

func (m *mockWarehouse) SetGoodsState(ctx context.Context, goodsID int64, state domain.GoodsState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.goodsErr != nil {
		return m.goodsErr
	}
	g, ok := m.goods[goodsID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if g.RegistrationState < state {
		g.RegistrationState = state
	}
	return nil
}

func (m *mockWarehouse) SetItemState(ctx context.Context, labelID int64, state domain.ItemState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.itemsErr != nil {
		return m.itemsErr
	}
	it, ok := m.items[labelID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if it.ItemState < state {
		it.ItemState = state
	}
	return nil
}

func (m *mockWarehouse) goodsState(goodsID int64) domain.GoodsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goods[goodsID].RegistrationState
}

func (m *mockWarehouse) itemState(labelID int64) domain.ItemState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[labelID].ItemState
}

// Mock CacheRepository
type mockCache struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	reserved       map[int64]bool
	reserveErr     error
}

func newMockCache() *mockCache {
	return &mockCache{
		idempotencySet: make(map[string]bool),
		reserved:       make(map[int64]bool),
	}
}

func (m *mockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

func (m *mockCache) ReserveGoodsID(ctx context.Context, goodsID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reserveErr != nil {
		return false, m.reserveErr
	}
	if m.reserved[goodsID] {
		return false, nil
	}
	m.reserved[goodsID] = true
	return true, nil
}

// In-memory GrantJournal
type memJournal struct {
	mu      sync.Mutex
	entries map[uuid.UUID]domain.GrantEntry
	order   []uuid.UUID
	err     error
}

func newMemJournal() *memJournal {
	return &memJournal{entries: make(map[uuid.UUID]domain.GrantEntry)}
}

func (j *memJournal) RecordAllocated(ctx context.Context, entry domain.GrantEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.err != nil {
		return j.err
	}
	if _, exists := j.entries[entry.ID]; exists || entry.ID == uuid.Nil {
		return errors.New("bad entry id")
	}
	entry.Status = domain.JournalAllocated
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	j.entries[entry.ID] = entry
	j.order = append(j.order, entry.ID)
	return nil
}

func (j *memJournal) RecordRegistered(ctx context.Context, entryID uuid.UUID, labelID int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[entryID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	e.LabelID = labelID
	e.Status = domain.JournalRegistered
	j.entries[entryID] = e
	return nil
}

func (j *memJournal) RecordStatus(ctx context.Context, entryID uuid.UUID, status domain.JournalStatus, lastErr string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[entryID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	e.Status = status
	e.LastError = lastErr
	e.Attempts++
	j.entries[entryID] = e
	return nil
}

func (j *memJournal) Pending(ctx context.Context, staleBefore time.Time, limit int) ([]domain.GrantEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []domain.GrantEntry
	for _, id := range j.order {
		e := j.entries[id]
		switch {
		case e.Status == domain.JournalRepair:
		case (e.Status == domain.JournalAllocated || e.Status == domain.JournalRegistered) && e.UpdatedAt.Before(staleBefore):
		default:
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *memJournal) Get(ctx context.Context, entryID uuid.UUID) (domain.GrantEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[entryID]
	if !ok {
		return domain.GrantEntry{}, domain.ErrRecordNotFound
	}
	return e, nil
}

// latest returns the newest entry for goodsID.
func (j *memJournal) latest(goodsID int64) domain.GrantEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i := len(j.order) - 1; i >= 0; i-- {
		if e := j.entries[j.order[i]]; e.GoodsID == goodsID {
			return e
		}
	}
	return domain.GrantEntry{}
}

func (j *memJournal) status(goodsID int64) domain.JournalStatus {
	return j.latest(goodsID).Status
}

// allocate journals a fresh entry for goodsID, as the pipeline does before
// registering.
func (j *memJournal) allocate(goodsID int64) uuid.UUID {
	id := uuid.New()
	if err := j.RecordAllocated(context.Background(), domain.GrantEntry{ID: id, GoodsID: goodsID}); err != nil {
		panic(err)
	}
	return id
}
