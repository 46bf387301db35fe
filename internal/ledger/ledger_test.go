package ledger

import (
	"errors"
	"testing"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/model"
)

func item(total, available, min int) *model.InventoryItem {
	it := &model.InventoryItem{
		SKU:               "LAPTOP-01",
		TotalQuantity:     total,
		AvailableQuantity: available,
		MinStockLevel:     min,
	}
	it.Status = DeriveStatus(it)
	return it
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		available int
		min       int
		hold      bool
		want      string
	}{
		{"plenty", 10, 3, false, model.ItemStatusAvailable},
		{"at min is fine", 3, 3, false, model.ItemStatusAvailable},
		{"below min", 2, 3, false, model.ItemStatusLowStock},
		{"zero", 0, 3, false, model.ItemStatusOutOfStock},
		{"no min configured", 1, 0, false, model.ItemStatusAvailable},
		{"maintenance wins", 10, 3, true, model.ItemStatusMaintenance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item(10, tt.available, tt.min)
			if tt.hold {
				it.Status = model.ItemStatusMaintenance
			}
			if got := DeriveStatus(it); got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyAssign(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		wantErr error
	}{
		{"ok", 4, nil},
		{"all of it", 10, nil},
		{"zero", 0, apperr.ErrInvalidQuantity},
		{"negative", -2, apperr.ErrInvalidQuantity},
		{"too much", 11, apperr.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := item(10, 10, 0)
			err := ApplyAssign(it, tt.qty)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ApplyAssign() error = %v, want %v", err, tt.wantErr)
				}
				if it.AvailableQuantity != 10 {
					t.Errorf("failed assign mutated available to %d", it.AvailableQuantity)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyAssign() error = %v", err)
			}
			if got := it.AvailableQuantity; got != 10-tt.qty {
				t.Errorf("available = %d, want %d", got, 10-tt.qty)
			}
			if it.TotalQuantity != 10 {
				t.Errorf("assign changed total to %d", it.TotalQuantity)
			}
		})
	}
}

func TestApplyAssignUnderMaintenance(t *testing.T) {
	it := item(10, 10, 0)
	if err := ApplyHold(it); err != nil {
		t.Fatalf("ApplyHold() error = %v", err)
	}
	if err := ApplyAssign(it, 1); !errors.Is(err, apperr.ErrItemUnavailable) {
		t.Errorf("ApplyAssign() under hold error = %v, want ErrItemUnavailable", err)
	}
	if err := ApplyReserve(it, 1); !errors.Is(err, apperr.ErrItemUnavailable) {
		t.Errorf("ApplyReserve() under hold error = %v, want ErrItemUnavailable", err)
	}
	if err := ApplyConsume(it, 1); !errors.Is(err, apperr.ErrItemUnavailable) {
		t.Errorf("ApplyConsume() under hold error = %v, want ErrItemUnavailable", err)
	}
}

func TestApplyReserveAndRelease(t *testing.T) {
	it := item(10, 10, 0)
	if err := ApplyReserve(it, 6); err != nil {
		t.Fatalf("ApplyReserve() error = %v", err)
	}
	if it.AvailableQuantity != 4 || it.ReservedQuantity != 6 {
		t.Fatalf("after reserve: available=%d reserved=%d, want 4/6", it.AvailableQuantity, it.ReservedQuantity)
	}

	if err := ApplyReleaseReservation(it, 6); err != nil {
		t.Fatalf("ApplyReleaseReservation() error = %v", err)
	}
	if it.AvailableQuantity != 10 || it.ReservedQuantity != 0 {
		t.Errorf("after release: available=%d reserved=%d, want 10/0", it.AvailableQuantity, it.ReservedQuantity)
	}

	if err := ApplyReleaseReservation(it, 1); err == nil {
		t.Error("releasing more than reserved should fail")
	}
}

func TestApplyConfirmReservation(t *testing.T) {
	it := item(10, 10, 0)
	if err := ApplyReserve(it, 6); err != nil {
		t.Fatalf("ApplyReserve() error = %v", err)
	}
	if err := ApplyConfirmReservation(it, 6); err != nil {
		t.Fatalf("ApplyConfirmReservation() error = %v", err)
	}
	// Confirm moves the hold into assignment-land; available must not
	// change because both states subtract from it.
	if it.AvailableQuantity != 4 {
		t.Errorf("confirm changed available to %d, want 4", it.AvailableQuantity)
	}
	if it.ReservedQuantity != 0 {
		t.Errorf("reserved = %d, want 0", it.ReservedQuantity)
	}
}

func TestApplyConsume(t *testing.T) {
	it := item(10, 10, 3)
	if err := ApplyConsume(it, 8); err != nil {
		t.Fatalf("ApplyConsume() error = %v", err)
	}
	if it.AvailableQuantity != 2 || it.TotalQuantity != 2 || it.ConsumedQuantity != 8 {
		t.Errorf("after consume: available=%d total=%d consumed=%d, want 2/2/8",
			it.AvailableQuantity, it.TotalQuantity, it.ConsumedQuantity)
	}
	if it.Status != model.ItemStatusLowStock {
		t.Errorf("status = %q, want low_stock", it.Status)
	}
	if err := ApplyConsume(it, 3); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Errorf("overconsume error = %v, want ErrInsufficientStock", err)
	}
}

func TestApplyRestock(t *testing.T) {
	it := item(10, 2, 5)
	if err := ApplyRestock(it, 8); err != nil {
		t.Fatalf("ApplyRestock() error = %v", err)
	}
	if it.TotalQuantity != 18 || it.AvailableQuantity != 10 {
		t.Errorf("after restock: total=%d available=%d, want 18/10", it.TotalQuantity, it.AvailableQuantity)
	}
	if it.Status != model.ItemStatusAvailable {
		t.Errorf("status = %q, want available", it.Status)
	}
}

func TestApplyRestockUnderMaintenance(t *testing.T) {
	it := item(10, 10, 0)
	if err := ApplyHold(it); err != nil {
		t.Fatalf("ApplyHold() error = %v", err)
	}
	if err := ApplyRestock(it, 5); err != nil {
		t.Fatalf("ApplyRestock() error = %v", err)
	}
	// New stock lands in total but stays locked until the hold lifts.
	if it.TotalQuantity != 15 || it.AvailableQuantity != 0 {
		t.Errorf("after restock under hold: total=%d available=%d, want 15/0", it.TotalQuantity, it.AvailableQuantity)
	}
	if it.Status != model.ItemStatusMaintenance {
		t.Errorf("status = %q, want maintenance", it.Status)
	}
}

func TestApplyHoldAndRelease(t *testing.T) {
	it := item(10, 7, 0) // 3 units out on assignment
	if err := ApplyHold(it); err != nil {
		t.Fatalf("ApplyHold() error = %v", err)
	}
	if it.AvailableQuantity != 0 {
		t.Fatalf("hold left available at %d", it.AvailableQuantity)
	}
	if err := ApplyHold(it); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("double hold error = %v, want ErrInvalidTransition", err)
	}

	if err := ApplyReleaseHold(it, 3, 0); err != nil {
		t.Fatalf("ApplyReleaseHold() error = %v", err)
	}
	if it.AvailableQuantity != 7 {
		t.Errorf("release restored available=%d, want 7", it.AvailableQuantity)
	}
	if it.Status != model.ItemStatusAvailable {
		t.Errorf("status = %q, want available", it.Status)
	}

	if err := ApplyReleaseHold(it, 0, 0); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("release without hold error = %v, want ErrInvalidTransition", err)
	}
}

func TestApplyReleaseAssignmentDeferredUnderHold(t *testing.T) {
	it := item(10, 7, 0)
	if err := ApplyHold(it); err != nil {
		t.Fatalf("ApplyHold() error = %v", err)
	}
	if err := ApplyReleaseAssignment(it, 3); err != nil {
		t.Fatalf("ApplyReleaseAssignment() error = %v", err)
	}
	// The credit is deferred while the hold is active.
	if it.AvailableQuantity != 0 {
		t.Errorf("return credited available to %d under hold", it.AvailableQuantity)
	}
	if err := ApplyReleaseHold(it, 0, 0); err != nil {
		t.Fatalf("ApplyReleaseHold() error = %v", err)
	}
	if it.AvailableQuantity != 10 {
		t.Errorf("after release: available=%d, want 10", it.AvailableQuantity)
	}
}
