package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/consumption"
	"github.com/incuhub/inventory-service/internal/consumption/dto"
	"github.com/incuhub/inventory-service/internal/events"
	"github.com/incuhub/inventory-service/internal/model"
	"go.uber.org/zap"
)

type consumptionUseCase struct {
	repo      consumption.Repository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewConsumptionUseCase(repo consumption.Repository, publisher events.Publisher, log *zap.Logger) consumption.UseCase {
	return &consumptionUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *consumptionUseCase) Distribute(ctx context.Context, input *dto.DistributeInput) (*model.ConsumptionLog, error) {
	if input.ItemID == "" || input.TeamID == "" {
		return nil, fmt.Errorf("item_id and team_id are required")
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", apperr.ErrInvalidQuantity, input.Quantity)
	}

	log := &model.ConsumptionLog{
		ID:            uuid.New().String(),
		ItemID:        input.ItemID,
		TeamID:        input.TeamID,
		Quantity:      input.Quantity,
		DistributedBy: input.Actor,
		ConsumedAt:    time.Now(),
	}

	item, err := uc.repo.Create(ctx, log)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock distributed",
		zap.String("item_id", log.ItemID), zap.String("team_id", log.TeamID),
		zap.Int("quantity", log.Quantity), zap.String("distributed_by", log.DistributedBy))

	if item.Status == model.ItemStatusLowStock || item.Status == model.ItemStatusOutOfStock {
		ev := events.New(events.ItemLowStock, events.LowStockPayload{
			ItemID:    item.ID,
			SKU:       item.SKU,
			Status:    item.Status,
			Available: item.AvailableQuantity,
			MinStock:  item.MinStockLevel,
		})
		if err := uc.publisher.Publish(ctx, ev); err != nil {
			uc.logger.Error("failed to publish event", zap.String("event_type", ev.EventType), zap.Error(err))
		}
	}
	return log, nil
}

// DistributeBatch distributes each line independently; a failed line is
// reported in its result and does not affect the rest.
func (uc *consumptionUseCase) DistributeBatch(ctx context.Context, inputs []dto.DistributeInput) []dto.BatchResult {
	results := make([]dto.BatchResult, 0, len(inputs))
	for i := range inputs {
		input := inputs[i]
		res := dto.BatchResult{ItemID: input.ItemID}
		log, err := uc.Distribute(ctx, &input)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.LogID = log.ID
		}
		results = append(results, res)
	}
	return results
}

func (uc *consumptionUseCase) List(ctx context.Context, filters *dto.LogFilters) ([]model.ConsumptionLog, error) {
	return uc.repo.List(ctx, filters)
}

func (uc *consumptionUseCase) SumSince(ctx context.Context, itemID string, since time.Time) (int, error) {
	return uc.repo.SumSince(ctx, itemID, since)
}
