package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/incuhub/inventory-service/internal/events"
	"github.com/incuhub/inventory-service/internal/ledger"
	"github.com/incuhub/inventory-service/internal/ledger/dto"
	"github.com/incuhub/inventory-service/internal/model"
	"go.uber.org/zap"
)

type ledgerUseCase struct {
	repo      ledger.Repository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewLedgerUseCase(repo ledger.Repository, publisher events.Publisher, log *zap.Logger) ledger.UseCase {
	return &ledgerUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *ledgerUseCase) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *ledgerUseCase) GetItemBySKU(ctx context.Context, sku string) (*model.InventoryItem, error) {
	return uc.repo.GetBySKU(ctx, sku)
}

func (uc *ledgerUseCase) ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.InventoryItem, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *ledgerUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.InventoryItem, error) {
	now := time.Now()
	item := &model.InventoryItem{
		ID:                       uuid.New().String(),
		SKU:                      input.SKU,
		Name:                     input.Name,
		Barcode:                  input.Barcode,
		Category:                 input.Category,
		IsConsumable:             input.IsConsumable,
		TotalQuantity:            input.InitialQuantity,
		AvailableQuantity:        input.InitialQuantity,
		MinStockLevel:            input.MinStockLevel,
		ReorderQuantity:          input.ReorderQuantity,
		TypicalWeeklyConsumption: input.TypicalWeeklyConsumption,
		PurchaseDate:             input.PurchaseDate,
		WarrantyUntil:            input.WarrantyUntil,
		MaintenanceInterval:      input.MaintenanceIntervalDays,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	item.Status = ledger.DeriveStatus(item)

	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	uc.logger.Info("inventory item created",
		zap.String("item_id", item.ID), zap.String("sku", item.SKU),
		zap.Int("quantity", item.TotalQuantity))
	uc.notifyStock(ctx, item)
	return item, nil
}

func (uc *ledgerUseCase) Restock(ctx context.Context, itemID string, qty int, actor string) (*model.InventoryItem, error) {
	item, err := uc.repo.Mutate(ctx, itemID, func(it *model.InventoryItem) error {
		return ledger.ApplyRestock(it, qty)
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("item restocked",
		zap.String("item_id", itemID), zap.Int("quantity", qty), zap.String("actor", actor))
	uc.notifyStock(ctx, item)
	return item, nil
}

// notifyStock flags items that are still at or below their minimum
// after a stock-increasing operation (e.g. a restock smaller than the
// configured minimum).
func (uc *ledgerUseCase) notifyStock(ctx context.Context, item *model.InventoryItem) {
	if item.Status != model.ItemStatusLowStock && item.Status != model.ItemStatusOutOfStock {
		return
	}
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
