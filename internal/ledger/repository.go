package ledger

import (
	"context"

	"github.com/incuhub/inventory-service/internal/ledger/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*model.InventoryItem, error)
	GetBySKU(ctx context.Context, sku string) (*model.InventoryItem, error)
	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.InventoryItem, int, error)
	Create(ctx context.Context, item *model.InventoryItem) error

	// Mutate runs apply against the item inside a single transaction that
	// locks the item row first; the updated row is persisted only when
	// apply returns nil. All quantity changes go through this (or through
	// the sibling repositories' combined operations, which follow the
	// same lock-apply-save discipline).
	Mutate(ctx context.Context, itemID string, apply func(*model.InventoryItem) error) (*model.InventoryItem, error)
}
