package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalStatus tracks how far a grant got through the pipeline.
type JournalStatus string

const (
	JournalAllocated  JournalStatus = "allocated"
	JournalRegistered JournalStatus = "registered"
	JournalReconciled JournalStatus = "reconciled"
	JournalRepair     JournalStatus = "repair"
	JournalFailed     JournalStatus = "failed"
)

// GrantEntry is the persisted saga state of one registration attempt.
// Several entries may name the same goods id when an attempt was rejected
// as a duplicate. LabelID is zero until registration succeeds.
type GrantEntry struct {
	ID        uuid.UUID
	GoodsID   int64
	LabelID   int64
	AccountID uuid.UUID
	ItemID    int32
	Quantity  int32
	Slot      Slot
	Status    JournalStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RepairTask asks a repair worker to bring one grant to its reconciled state.
type RepairTask struct {
	EntryID uuid.UUID
	GoodsID int64
}
