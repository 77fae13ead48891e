package port

import (
	"context"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
)

type ItemCatalog interface {
	ListCategories(ctx context.Context) ([]domain.ItemCategory, error)
}
