package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

type GrantJournal interface {
	// RecordAllocated stores a new entry before registration is attempted
	RecordAllocated(ctx context.Context, entry domain.GrantEntry) error

	// RecordRegistered attaches the label id once the warehouse accepted the grant
	RecordRegistered(ctx context.Context, entryID uuid.UUID, labelID int64) error

	// RecordStatus moves an entry to status, keeping lastErr for operators
	RecordStatus(ctx context.Context, entryID uuid.UUID, status domain.JournalStatus, lastErr string) error

	// Pending lists entries needing repair plus unfinished entries last touched before staleBefore
	Pending(ctx context.Context, staleBefore time.Time, limit int) ([]domain.GrantEntry, error)

	// Get returns a single entry, or domain.ErrRecordNotFound
	Get(ctx context.Context, entryID uuid.UUID) (domain.GrantEntry, error)
}
