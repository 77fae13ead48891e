package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"CategoryName", "SubCategoryName", "ItemID", "Alias", "EN_Description", "CN_Description", "FileName"}
	mock.ExpectQuery(`FROM ItemCategories c\s+LEFT JOIN GameItems i`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("Costume", nil, int64(500), "cos_500", "Hanbok", "韩服", "cos_500.png").
			AddRow("Costume", nil, int64(501), "cos_501", "Robe", "长袍", "cos_501.png").
			AddRow("Weapon", "Sword", int64(900), "sw_900", "Blade", "剑", "sw_900.png").
			AddRow("Empty", "Nothing", nil, nil, nil, nil, nil))

	categories, err := NewMySQLCatalog(db).ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)

	assert.Equal(t, "Costume - General", categories[0].Key)
	require.Len(t, categories[0].Items, 2)
	assert.Equal(t, int32(500), categories[0].Items[0].ItemID)
	assert.Equal(t, "Hanbok", categories[0].Items[0].ENDescription)

	assert.Equal(t, "Weapon - Sword", categories[1].Key)
	assert.Len(t, categories[1].Items, 1)

	assert.Equal(t, "Empty - Nothing", categories[2].Key)
	assert.Empty(t, categories[2].Items)

	assert.NoError(t, mock.ExpectationsWereMet())
}
