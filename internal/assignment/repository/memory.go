package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/ledger"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
)

// MemoryRepository backs the assignment manager with the shared
// in-memory item store. Its mutex makes each combined operation
// (reservation/assignment row + item quantities) atomic, mirroring the
// single transaction of the Postgres implementation.
type MemoryRepository struct {
	mu           sync.Mutex
	store        *ledgerrepo.MemoryStore
	assignments  map[string]*model.InventoryAssignment
	reservations map[string]*model.InventoryReservation
}

func NewMemoryRepository(store *ledgerrepo.MemoryStore) *MemoryRepository {
	return &MemoryRepository{
		store:        store,
		assignments:  map[string]*model.InventoryAssignment{},
		reservations: map[string]*model.InventoryReservation{},
	}
}

func (r *MemoryRepository) CreateAssignment(_ context.Context, a *model.InventoryAssignment) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := r.store.WithItem(a.ItemID, func(it *model.InventoryItem) error {
		return ledger.ApplyAssign(it, a.Quantity)
	})
	if err != nil {
		return nil, err
	}
	cp := *a
	r.assignments[a.ID] = &cp
	return item, nil
}

func (r *MemoryRepository) GetAssignment(_ context.Context, id string) (*model.InventoryAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, fmt.Errorf("%w: assignment %s", apperr.ErrNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) ReturnAssignment(_ context.Context, id string, now time.Time) (*model.InventoryAssignment, *model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: assignment %s", apperr.ErrNotFound, id)
	}
	if a.ReturnedAt != nil {
		return nil, nil, fmt.Errorf("%w: assignment %s", apperr.ErrAlreadyReturned, id)
	}

	item, err := r.store.WithItem(a.ItemID, func(it *model.InventoryItem) error {
		return ledger.ApplyReleaseAssignment(it, a.Quantity)
	})
	if err != nil {
		return nil, nil, err
	}

	ts := now
	a.ReturnedAt = &ts
	cp := *a
	return &cp, item, nil
}

func (r *MemoryRepository) ListAssignments(_ context.Context, f *dto.AssignmentFilters) ([]model.InventoryAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.InventoryAssignment
	for _, a := range r.assignments {
		if f.TeamID != "" && a.TeamID != f.TeamID {
			continue
		}
		if f.ItemID != "" && a.ItemID != f.ItemID {
			continue
		}
		if f.ActiveOnly && a.ReturnedAt != nil {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (r *MemoryRepository) CreateReservation(_ context.Context, rv *model.InventoryReservation) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := r.store.WithItem(rv.ItemID, func(it *model.InventoryItem) error {
		return ledger.ApplyReserve(it, rv.Quantity)
	})
	if err != nil {
		return nil, err
	}
	cp := *rv
	r.reservations[rv.ID] = &cp
	return item, nil
}

func (r *MemoryRepository) GetReservation(_ context.Context, id string) (*model.InventoryReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", apperr.ErrNotFound, id)
	}
	cp := *rv
	return &cp, nil
}

func (r *MemoryRepository) ConfirmReservation(_ context.Context, reservationID string, a *model.InventoryAssignment, now time.Time) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", apperr.ErrNotFound, reservationID)
	}
	switch rv.Status {
	case model.ReservationHeld:
	case model.ReservationConfirmed:
		return nil, fmt.Errorf("%w: reservation %s already confirmed", apperr.ErrDuplicateAssignment, reservationID)
	default:
		return nil, fmt.Errorf("%w: reservation %s is %s", apperr.ErrInvalidTransition, reservationID, rv.Status)
	}

	item, err := r.store.WithItem(rv.ItemID, func(it *model.InventoryItem) error {
		return ledger.ApplyConfirmReservation(it, rv.Quantity)
	})
	if err != nil {
		return nil, err
	}

	ts := now
	rv.Status = model.ReservationConfirmed
	rv.ResolvedAt = &ts
	cp := *a
	r.assignments[a.ID] = &cp
	return item, nil
}

func (r *MemoryRepository) ReleaseReservation(_ context.Context, reservationID, toStatus string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rv, ok := r.reservations[reservationID]
	if !ok {
		return false, fmt.Errorf("%w: reservation %s", apperr.ErrNotFound, reservationID)
	}
	if rv.Status != model.ReservationHeld {
		return false, nil
	}

	if _, err := r.store.WithItem(rv.ItemID, func(it *model.InventoryItem) error {
		return ledger.ApplyReleaseReservation(it, rv.Quantity)
	}); err != nil {
		return false, err
	}

	ts := now
	rv.Status = toStatus
	rv.ResolvedAt = &ts
	return true, nil
}

// OutstandingSums totals active assignments and held reservations for
// an item, mirroring the SQL aggregate used on maintenance release.
func (r *MemoryRepository) OutstandingSums(itemID string) (assigned, reserved int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.ItemID == itemID && a.ReturnedAt == nil {
			assigned += a.Quantity
		}
	}
	for _, rv := range r.reservations {
		if rv.ItemID == itemID && rv.Status == model.ReservationHeld {
			reserved += rv.Quantity
		}
	}
	return assigned, reserved
}

func (r *MemoryRepository) DueReservations(_ context.Context, now time.Time) ([]model.InventoryReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.InventoryReservation
	for _, rv := range r.reservations {
		if rv.Status == model.ReservationHeld && !rv.ExpiresAt.After(now) {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *MemoryRepository) ListReservations(_ context.Context, f *dto.ReservationFilters) ([]model.InventoryReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.InventoryReservation
	for _, rv := range r.reservations {
		if f.TeamID != "" && rv.TeamID != f.TeamID {
			continue
		}
		if f.ItemID != "" && rv.ItemID != f.ItemID {
			continue
		}
		if f.Status != "" && rv.Status != f.Status {
			continue
		}
		out = append(out, *rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
