package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/ledger/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

// MemoryStore is an in-memory item table shared by the in-memory
// repositories. A single mutex stands in for the database row lock:
// WithItem gives the caller exclusive access for the whole
// read-check-write, and the mutation is only kept when apply succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*model.InventoryItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]*model.InventoryItem{}}
}

func (s *MemoryStore) Put(item *model.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.items[item.ID] = &cp
}

func (s *MemoryStore) Get(id string) (*model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", apperr.ErrNotFound, id)
	}
	cp := *item
	return &cp, nil
}

// WithItem runs apply under the store lock against a copy of the item;
// the copy replaces the stored row only when apply returns nil.
func (s *MemoryStore) WithItem(id string, apply func(*model.InventoryItem) error) (*model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withItemLocked(id, apply)
}

func (s *MemoryStore) withItemLocked(id string, apply func(*model.InventoryItem) error) (*model.InventoryItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", apperr.ErrNotFound, id)
	}
	cp := *item
	if err := apply(&cp); err != nil {
		return nil, err
	}
	s.items[id] = &cp
	out := cp
	return &out, nil
}

// Lock exposes the store mutex so sibling in-memory repositories can
// make their combined operations (item + own rows) atomic.
func (s *MemoryStore) Lock()   { s.mu.Lock() }
func (s *MemoryStore) Unlock() { s.mu.Unlock() }

// WithItemLocked is WithItem for callers already holding the store lock.
func (s *MemoryStore) WithItemLocked(id string, apply func(*model.InventoryItem) error) (*model.InventoryItem, error) {
	return s.withItemLocked(id, apply)
}

func (s *MemoryStore) all() []model.InventoryItem {
	out := make([]model.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// MemoryRepository implements ledger.Repository over a MemoryStore.
type MemoryRepository struct {
	store *MemoryStore
}

func NewMemoryRepository(store *MemoryStore) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*model.InventoryItem, error) {
	return r.store.Get(id)
}

func (r *MemoryRepository) GetBySKU(_ context.Context, sku string) (*model.InventoryItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, item := range r.store.items {
		if item.SKU == sku {
			cp := *item
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", apperr.ErrNotFound, sku)
}

func (r *MemoryRepository) FindAll(_ context.Context, f *dto.ItemFilters) ([]model.InventoryItem, int, error) {
	r.store.mu.Lock()
	all := r.store.all()
	r.store.mu.Unlock()

	var items []model.InventoryItem
	for _, item := range all {
		if f.SKU != "" && item.SKU != f.SKU {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if f.Consumable != nil && item.IsConsumable != *f.Consumable {
			continue
		}
		if f.LowStock && !(item.MinStockLevel > 0 && item.AvailableQuantity < item.MinStockLevel) {
			continue
		}
		if f.MinStockOnly && item.MinStockLevel <= 0 {
			continue
		}
		items = append(items, item)
	}
	total := len(items)
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start < 0 {
			start = 0
		}
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		items = items[start:end]
	}
	return items, total, nil
}

func (r *MemoryRepository) Create(_ context.Context, item *model.InventoryItem) error {
	r.store.Put(item)
	return nil
}

func (r *MemoryRepository) Mutate(_ context.Context, itemID string, apply func(*model.InventoryItem) error) (*model.InventoryItem, error) {
	return r.store.WithItem(itemID, apply)
}
