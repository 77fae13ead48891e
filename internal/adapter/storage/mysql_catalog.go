package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

const defaultSubCategory = "General"

// MySQLCatalog reads grantable items from the items database.
type MySQLCatalog struct {
	db *sql.DB
}

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{db: db}
}

// ListCategories returns categories in name order. Categories without
// items are kept with an empty item list.
func (m *MySQLCatalog) ListCategories(ctx context.Context) ([]domain.ItemCategory, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT c.CategoryName, c.SubCategoryName, i.ItemID, i.Alias,
		       i.EN_Description, i.CN_Description, i.FileName
		FROM ItemCategories c
		LEFT JOIN GameItems i ON c.CategoryID = i.CategoryID
		ORDER BY c.CategoryName, c.SubCategoryName, i.ItemID`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var categories []domain.ItemCategory
	index := make(map[string]int)

	for rows.Next() {
		var (
			category, subCategory           sql.NullString
			itemID                          sql.NullInt32
			alias, enDesc, cnDesc, fileName sql.NullString
		)
		if err := rows.Scan(&category, &subCategory, &itemID, &alias, &enDesc, &cnDesc, &fileName); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}

		sub := subCategory.String
		if sub == "" {
			sub = defaultSubCategory
		}
		key := category.String + " - " + sub

		i, ok := index[key]
		if !ok {
			i = len(categories)
			index[key] = i
			categories = append(categories, domain.ItemCategory{Key: key})
		}
		if !itemID.Valid {
			continue
		}
		categories[i].Items = append(categories[i].Items, domain.CatalogItem{
			ItemID:        itemID.Int32,
			Alias:         alias.String,
			ENDescription: enDesc.String,
			CNDescription: cnDesc.String,
			FileName:      fileName.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}

	return categories, nil
}
