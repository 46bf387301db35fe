package usecase

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/maintenance"
	"github.com/incuhub/inventory-service/internal/model"
	"go.uber.org/zap"
)

type maintenanceUseCase struct {
	repo   maintenance.Repository
	logger *zap.Logger
}

func NewMaintenanceUseCase(repo maintenance.Repository, log *zap.Logger) maintenance.UseCase {
	return &maintenanceUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *maintenanceUseCase) PlaceHold(ctx context.Context, itemID, actor string) (*model.InventoryItem, error) {
	item, err := uc.repo.PlaceHold(ctx, itemID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("maintenance hold placed",
		zap.String("item_id", itemID), zap.String("actor", actor))
	return item, nil
}

func (uc *maintenanceUseCase) Complete(ctx context.Context, itemID string, performedAt time.Time, actor string) (*model.InventoryItem, error) {
	if performedAt.IsZero() {
		performedAt = time.Now()
	}
	item, err := uc.repo.Complete(ctx, itemID, performedAt)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("maintenance completed",
		zap.String("item_id", itemID), zap.Time("performed_at", performedAt),
		zap.String("actor", actor), zap.String("status", item.Status))
	return item, nil
}

func (uc *maintenanceUseCase) Due(ctx context.Context) ([]model.InventoryItem, error) {
	return uc.repo.Due(ctx, time.Now())
}
