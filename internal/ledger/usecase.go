package ledger

import (
	"context"

	"github.com/incuhub/inventory-service/internal/ledger/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

type UseCase interface {
	GetItem(ctx context.Context, id string) (*model.InventoryItem, error)
	GetItemBySKU(ctx context.Context, sku string) (*model.InventoryItem, error)
	ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.InventoryItem, int, error)
	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.InventoryItem, error)
	Restock(ctx context.Context, itemID string, qty int, actor string) (*model.InventoryItem, error)
}
