package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

// MySQLDirectory reads characters from the game world database.
type MySQLDirectory struct {
	db *sql.DB
}

func NewMySQLDirectory(db *sql.DB) *MySQLDirectory {
	return &MySQLDirectory{db: db}
}

func (m *MySQLDirectory) LookupAccountID(ctx context.Context, characterName string) (string, error) {
	var accountID sql.NullString
	err := m.db.QueryRowContext(ctx,
		`SELECT game_account_id FROM CreatureProperty WHERE name = ? LIMIT 1`, characterName,
	).Scan(&accountID)

	if errors.Is(err, sql.ErrNoRows) || (err == nil && accountID.String == "") {
		return "", domain.ErrCharacterNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query character: %w", err)
	}

	return accountID.String, nil
}

func (m *MySQLDirectory) ListCharacters(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT name FROM CreatureProperty WHERE game_account_id = ? ORDER BY name`, accountID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}

	return names, nil
}
