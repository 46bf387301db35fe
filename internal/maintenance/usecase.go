package maintenance

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/model"
)

type UseCase interface {
	PlaceHold(ctx context.Context, itemID string, actor string) (*model.InventoryItem, error)
	Complete(ctx context.Context, itemID string, performedAt time.Time, actor string) (*model.InventoryItem, error)
	Due(ctx context.Context) ([]model.InventoryItem, error)
}
