package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

func openJournal(t *testing.T) (*SQLiteJournal, *time.Time) {
	t.Helper()

	j, err := OpenSQLiteJournal(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	clock := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }
	return j, &clock
}

func sampleEntry(goodsID int64) domain.GrantEntry {
	return domain.GrantEntry{
		ID:        uuid.New(),
		GoodsID:   goodsID,
		AccountID: uuid.MustParse("3f2a9c1e-7b4d-4e8a-9c61-2d5b8f0a1e37"),
		ItemID:    500,
		Quantity:  3,
		Slot:      185,
	}
}

// record inserts an entry for goodsID and moves it to status.
func record(t *testing.T, j *SQLiteJournal, goodsID int64, status domain.JournalStatus) domain.GrantEntry {
	t.Helper()
	ctx := context.Background()

	e := sampleEntry(goodsID)
	require.NoError(t, j.RecordAllocated(ctx, e))
	switch status {
	case domain.JournalAllocated:
	case domain.JournalRegistered:
		require.NoError(t, j.RecordRegistered(ctx, e.ID, 77))
	default:
		require.NoError(t, j.RecordStatus(ctx, e.ID, status, ""))
	}
	return e
}

func TestJournal_Lifecycle(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()

	entry := sampleEntry(1700043)
	require.NoError(t, j.RecordAllocated(ctx, entry))

	e, err := j.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, e.ID)
	assert.Equal(t, int64(1700043), e.GoodsID)
	assert.Equal(t, domain.JournalAllocated, e.Status)
	assert.Equal(t, int64(0), e.LabelID)
	assert.Equal(t, int32(500), e.ItemID)
	assert.Equal(t, int32(3), e.Quantity)
	assert.Equal(t, domain.Slot(185), e.Slot)
	assert.Equal(t, "3f2a9c1e-7b4d-4e8a-9c61-2d5b8f0a1e37", e.AccountID.String())

	require.NoError(t, j.RecordRegistered(ctx, entry.ID, 9001))
	require.NoError(t, j.RecordStatus(ctx, entry.ID, domain.JournalRepair, "item store timeout"))

	e, err = j.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), e.LabelID)
	assert.Equal(t, domain.JournalRepair, e.Status)
	assert.Equal(t, "item store timeout", e.LastError)
	assert.Equal(t, 1, e.Attempts)
}

func TestJournal_SameGoodsIDKeepsEarlierEntry(t *testing.T) {
	j, clock := openJournal(t)
	ctx := context.Background()

	first := sampleEntry(1700000)
	require.NoError(t, j.RecordAllocated(ctx, first))
	require.NoError(t, j.RecordRegistered(ctx, first.ID, 9001))
	require.NoError(t, j.RecordStatus(ctx, first.ID, domain.JournalRepair, "item store timeout"))

	// A later attempt on the same goods id is rejected as a duplicate.
	second := sampleEntry(1700000)
	second.ItemID = 600
	require.NoError(t, j.RecordAllocated(ctx, second))
	require.NoError(t, j.RecordStatus(ctx, second.ID, domain.JournalFailed, "duplicate"))

	e, err := j.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JournalRepair, e.Status)
	assert.Equal(t, int64(9001), e.LabelID)
	assert.Equal(t, int32(500), e.ItemID)

	*clock = clock.Add(time.Minute)
	entries, err := j.Pending(ctx, *clock, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first.ID, entries[0].ID)
}

func TestJournal_RejectsEntryWithoutID(t *testing.T) {
	j, _ := openJournal(t)

	e := sampleEntry(1)
	e.ID = uuid.Nil
	assert.Error(t, j.RecordAllocated(context.Background(), e))
}

func TestJournal_DuplicateEntryID(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()

	e := sampleEntry(1)
	require.NoError(t, j.RecordAllocated(ctx, e))
	assert.Error(t, j.RecordAllocated(ctx, e))
}

func TestJournal_MissingEntry(t *testing.T) {
	j, _ := openJournal(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := j.Get(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	assert.ErrorIs(t, j.RecordRegistered(ctx, missing, 1), domain.ErrRecordNotFound)
	assert.ErrorIs(t, j.RecordStatus(ctx, missing, domain.JournalFailed, ""), domain.ErrRecordNotFound)
}

func TestJournal_Pending(t *testing.T) {
	j, clock := openJournal(t)
	ctx := context.Background()

	record(t, j, 1, domain.JournalAllocated)
	record(t, j, 2, domain.JournalRegistered)
	record(t, j, 3, domain.JournalReconciled)
	record(t, j, 4, domain.JournalFailed)

	*clock = clock.Add(time.Minute)
	record(t, j, 5, domain.JournalRepair)
	record(t, j, 6, domain.JournalAllocated)

	staleBefore := clock.Add(-30 * time.Second)
	entries, err := j.Pending(ctx, staleBefore, 10)
	require.NoError(t, err)

	var ids []int64
	for _, e := range entries {
		ids = append(ids, e.GoodsID)
	}
	assert.ElementsMatch(t, []int64{1, 2, 5}, ids)
	assert.Equal(t, int64(5), entries[len(entries)-1].GoodsID)

	limited, err := j.Pending(ctx, staleBefore, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
