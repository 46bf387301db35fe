package maintenance

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/model"
)

type Repository interface {
	// PlaceHold zeroes available capacity and marks the item as under
	// maintenance; assign/reserve/consume reject held items.
	PlaceHold(ctx context.Context, itemID string) (*model.InventoryItem, error)
	// Complete logs the performed service, schedules the next one from
	// the item's interval and restores available capacity from the
	// outstanding assignment/reservation sums.
	Complete(ctx context.Context, itemID string, performedAt time.Time) (*model.InventoryItem, error)
	// Due lists items whose next_maintenance date has passed.
	Due(ctx context.Context, now time.Time) ([]model.InventoryItem, error)
}
