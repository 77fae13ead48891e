package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS grant_journal (
	entry_id   TEXT    PRIMARY KEY,
	goods_id   INTEGER NOT NULL,
	label_id   INTEGER NOT NULL DEFAULT 0,
	account_id TEXT    NOT NULL,
	item_id    INTEGER NOT NULL,
	quantity   INTEGER NOT NULL,
	slot       INTEGER NOT NULL,
	status     TEXT    NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	last_error TEXT    NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_grant_journal_status ON grant_journal (status, updated_at);
CREATE INDEX IF NOT EXISTS idx_grant_journal_goods ON grant_journal (goods_id);
`

const entryColumns = `entry_id, goods_id, label_id, account_id, item_id, quantity, slot, status, attempts, last_error, created_at, updated_at`

// SQLiteJournal keeps the saga state of grants in a local SQLite file so
// reconciliation can resume after a crash.
type SQLiteJournal struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteJournal opens (creating if needed) the journal at path.
// Use ":memory:" for a throwaway journal.
func OpenSQLiteJournal(ctx context.Context, path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One writer keeps SQLite free of lock contention, and keeps
	// ":memory:" bound to a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}

	return &SQLiteJournal{db: db, now: time.Now}, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// RecordAllocated inserts a new entry. Entries are never replaced, so an
// attempt on a goods id owned by another grant leaves that grant's entry
// untouched.
func (j *SQLiteJournal) RecordAllocated(ctx context.Context, entry domain.GrantEntry) error {
	if entry.ID == uuid.Nil {
		return errors.New("journal entry has no id")
	}
	now := j.now().UnixMilli()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO grant_journal (`+entryColumns+`)
		VALUES (?, ?, 0, ?, ?, ?, ?, ?, 0, '', ?, ?)`,
		entry.ID.String(), entry.GoodsID, entry.AccountID.String(), entry.ItemID, entry.Quantity, int32(entry.Slot),
		string(domain.JournalAllocated), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	return nil
}

func (j *SQLiteJournal) RecordRegistered(ctx context.Context, entryID uuid.UUID, labelID int64) error {
	result, err := j.db.ExecContext(ctx, `
		UPDATE grant_journal
		SET label_id = ?, status = ?, updated_at = ?
		WHERE entry_id = ?`,
		labelID, string(domain.JournalRegistered), j.now().UnixMilli(), entryID.String(),
	)
	if err != nil {
		return fmt.Errorf("update journal entry: %w", err)
	}

	return requireRow(result, entryID)
}

func (j *SQLiteJournal) RecordStatus(ctx context.Context, entryID uuid.UUID, status domain.JournalStatus, lastErr string) error {
	result, err := j.db.ExecContext(ctx, `
		UPDATE grant_journal
		SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ?
		WHERE entry_id = ?`,
		string(status), lastErr, j.now().UnixMilli(), entryID.String(),
	)
	if err != nil {
		return fmt.Errorf("update journal entry: %w", err)
	}

	return requireRow(result, entryID)
}

func (j *SQLiteJournal) Pending(ctx context.Context, staleBefore time.Time, limit int) ([]domain.GrantEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM grant_journal
		WHERE status = ?
		   OR (status IN (?, ?) AND updated_at < ?)
		ORDER BY created_at, entry_id
		LIMIT ?`,
		string(domain.JournalRepair),
		string(domain.JournalAllocated), string(domain.JournalRegistered), staleBefore.UnixMilli(),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.GrantEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}

	return entries, nil
}

func (j *SQLiteJournal) Get(ctx context.Context, entryID uuid.UUID) (domain.GrantEntry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM grant_journal WHERE entry_id = ?`, entryID.String())

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GrantEntry{}, fmt.Errorf("journal entry %s: %w", entryID, domain.ErrRecordNotFound)
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.GrantEntry, error) {
	var (
		e                    domain.GrantEntry
		entryID, accountID   string
		status               string
		slot                 int32
		createdAt, updatedAt int64
	)
	err := row.Scan(&entryID, &e.GoodsID, &e.LabelID, &accountID, &e.ItemID, &e.Quantity, &slot,
		&status, &e.Attempts, &e.LastError, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scan journal entry: %w", err)
	}

	e.ID, err = uuid.Parse(entryID)
	if err != nil {
		return e, fmt.Errorf("journal entry for goods %d has malformed id: %w", e.GoodsID, err)
	}
	e.AccountID, err = uuid.Parse(accountID)
	if err != nil {
		return e, fmt.Errorf("journal entry %s has malformed account id: %w", e.ID, err)
	}
	e.Slot = domain.Slot(slot)
	e.Status = domain.JournalStatus(status)
	e.CreatedAt = time.UnixMilli(createdAt)
	e.UpdatedAt = time.UnixMilli(updatedAt)

	return e, nil
}

func requireRow(result sql.Result, entryID uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("journal rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("journal entry %s: %w", entryID, domain.ErrRecordNotFound)
	}
	return nil
}
