package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/incuhub/inventory-service/internal/consumption/dto"
	"github.com/incuhub/inventory-service/internal/ledger"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
)

type MemoryRepository struct {
	mu    sync.Mutex
	store *ledgerrepo.MemoryStore
	logs  []model.ConsumptionLog
}

func NewMemoryRepository(store *ledgerrepo.MemoryStore) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) Create(_ context.Context, log *model.ConsumptionLog) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := r.store.WithItem(log.ItemID, func(it *model.InventoryItem) error {
		return ledger.ApplyConsume(it, log.Quantity)
	})
	if err != nil {
		return nil, err
	}
	r.logs = append(r.logs, *log)
	return item, nil
}

func (r *MemoryRepository) List(_ context.Context, f *dto.LogFilters) ([]model.ConsumptionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.ConsumptionLog
	for _, log := range r.logs {
		if f.ItemID != "" && log.ItemID != f.ItemID {
			continue
		}
		if f.TeamID != "" && log.TeamID != f.TeamID {
			continue
		}
		if f.Since != nil && log.ConsumedAt.Before(*f.Since) {
			continue
		}
		if f.Until != nil && !log.ConsumedAt.Before(*f.Until) {
			continue
		}
		out = append(out, log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsumedAt.After(out[j].ConsumedAt) })
	return out, nil
}

func (r *MemoryRepository) SumSince(_ context.Context, itemID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum := 0
	for _, log := range r.logs {
		if log.ItemID == itemID && !log.ConsumedAt.Before(since) {
			sum += log.Quantity
		}
	}
	return sum, nil
}
