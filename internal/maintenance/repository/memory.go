package repository

import (
	"context"
	"sort"
	"time"

	"github.com/incuhub/inventory-service/internal/ledger"
	"github.com/incuhub/inventory-service/internal/ledger/dto"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
)

// SumSource supplies the outstanding assignment/reservation totals
// needed when a hold is released; the assignment memory repository
// implements it.
type SumSource interface {
	OutstandingSums(itemID string) (assigned, reserved int)
}

type MemoryRepository struct {
	store *ledgerrepo.MemoryStore
	items *ledgerrepo.MemoryRepository
	sums  SumSource
}

func NewMemoryRepository(store *ledgerrepo.MemoryStore, sums SumSource) *MemoryRepository {
	return &MemoryRepository{
		store: store,
		items: ledgerrepo.NewMemoryRepository(store),
		sums:  sums,
	}
}

func (r *MemoryRepository) PlaceHold(_ context.Context, itemID string) (*model.InventoryItem, error) {
	return r.store.WithItem(itemID, func(it *model.InventoryItem) error {
		return ledger.ApplyHold(it)
	})
}

func (r *MemoryRepository) Complete(_ context.Context, itemID string, performedAt time.Time) (*model.InventoryItem, error) {
	assigned, reserved := r.sums.OutstandingSums(itemID)
	return r.store.WithItem(itemID, func(it *model.InventoryItem) error {
		if err := ledger.ApplyReleaseHold(it, assigned, reserved); err != nil {
			return err
		}
		it.LastMaintenance = &performedAt
		if it.MaintenanceInterval > 0 {
			next := performedAt.AddDate(0, 0, it.MaintenanceInterval)
			it.NextMaintenance = &next
		} else {
			it.NextMaintenance = nil
		}
		return nil
	})
}

func (r *MemoryRepository) Due(ctx context.Context, now time.Time) ([]model.InventoryItem, error) {
	all, _, err := r.items.FindAll(ctx, &dto.ItemFilters{})
	if err != nil {
		return nil, err
	}
	var out []model.InventoryItem
	for _, item := range all {
		if item.NextMaintenance != nil && !item.NextMaintenance.After(now) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextMaintenance.Before(*out[j].NextMaintenance) })
	return out, nil
}
