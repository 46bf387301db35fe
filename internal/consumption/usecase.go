package consumption

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/consumption/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

type UseCase interface {
	Distribute(ctx context.Context, input *dto.DistributeInput) (*model.ConsumptionLog, error)
	DistributeBatch(ctx context.Context, inputs []dto.DistributeInput) []dto.BatchResult
	List(ctx context.Context, filters *dto.LogFilters) ([]model.ConsumptionLog, error)
	SumSince(ctx context.Context, itemID string, since time.Time) (int, error)
}
