package consumption

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/consumption/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

type Repository interface {
	// Create debits the ledger and appends the log row in one
	// transaction. The log is append-only; there is no delete or update.
	Create(ctx context.Context, log *model.ConsumptionLog) (*model.InventoryItem, error)
	List(ctx context.Context, filters *dto.LogFilters) ([]model.ConsumptionLog, error)
	// SumSince totals quantities consumed for an item from the given
	// instant; the forecaster's trailing-window input.
	SumSince(ctx context.Context, itemID string, since time.Time) (int, error)
}
