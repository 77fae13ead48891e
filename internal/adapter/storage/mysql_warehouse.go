package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

// MySQLWarehouse talks to the game warehouse database: the registration
// procedure plus the WarehouseGoods and WarehouseItem tables.
type MySQLWarehouse struct {
	db *sql.DB
}

func NewMySQLWarehouse(db *sql.DB) *MySQLWarehouse {
	return &MySQLWarehouse{db: db}
}

func (m *MySQLWarehouse) MaxGoodsID(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := m.db.QueryRowContext(ctx,
		`SELECT MAX(CAST(GoodsID AS SIGNED)) FROM WarehouseGoods`,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max goods id: %w", err)
	}

	return max.Int64, nil
}

// Register calls the registration procedure. The procedure reports the
// label through a session variable, so both statements run on one
// connection.
func (m *MySQLWarehouse) Register(ctx context.Context, reg domain.Registration) (int64, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `
		CALL usp_TryWarehouseRegistration(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, @NewLabelID)`,
		reg.AccountID.String(), reg.GoodsID, reg.GoodsNumber,
		nullString(reg.SenderDescription), nullString(reg.SenderMessage),
		reg.PurchaseTime, int32(reg.Slot), reg.ItemID, reg.Quantity, nil,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) {
			if myErr.Number == mysqlDuplicateEntry {
				return 0, domain.ErrDuplicateGoodsID
			}
			return 0, fmt.Errorf("%w: %w", domain.ErrRegistrationRejected, err)
		}
		// Anything else (timeout, broken connection) leaves the outcome unknown.
		return 0, fmt.Errorf("call registration procedure: %w", err)
	}

	var labelID sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT @NewLabelID`).Scan(&labelID); err != nil {
		return 0, fmt.Errorf("read new label id: %w", err)
	}
	if !labelID.Valid {
		return 0, errors.New("registration procedure returned no label id")
	}

	return labelID.Int64, nil
}

func (m *MySQLWarehouse) LookupLabel(ctx context.Context, goodsID int64) (int64, bool, error) {
	var labelID sql.NullInt64
	err := m.db.QueryRowContext(ctx,
		`SELECT LabelID FROM WarehouseGoods WHERE GoodsID = ?`, goodsID,
	).Scan(&labelID)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query label: %w", err)
	}
	if !labelID.Valid {
		return 0, false, nil
	}

	return labelID.Int64, true, nil
}

func (m *MySQLWarehouse) SetGoodsState(ctx context.Context, goodsID int64, state domain.GoodsState) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE WarehouseGoods
		SET RegistrationState = ?
		WHERE GoodsID = ? AND RegistrationState < ?`,
		int(state), goodsID, int(state),
	)
	if err != nil {
		return fmt.Errorf("update goods state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Nothing changed: either already at or past state, or missing.
	var exists int
	err = m.db.QueryRowContext(ctx,
		`SELECT 1 FROM WarehouseGoods WHERE GoodsID = ?`, goodsID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("goods %d: %w", goodsID, domain.ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("query goods: %w", err)
	}

	return nil
}

func (m *MySQLWarehouse) SetItemState(ctx context.Context, labelID int64, state domain.ItemState) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE WarehouseItem
		SET ItemState = ?
		WHERE LabelID = ? AND ItemState < ?`,
		int(state), labelID, int(state),
	)
	if err != nil {
		return fmt.Errorf("update item state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var count int
	err = m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM WarehouseItem WHERE LabelID = ?`, labelID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("query items: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("label %d: %w", labelID, domain.ErrRecordNotFound)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
