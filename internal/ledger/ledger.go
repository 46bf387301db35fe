// Package ledger owns the inventory quantity bookkeeping. The Apply*
// functions below are the only code in the service allowed to touch the
// quantity fields of an InventoryItem; repositories call them between a
// row lock and the write so the read-check-write is serialized per item.
//
// Load-bearing invariant, checked by every mutator:
//
//	0 <= available_quantity <= total_quantity
//	available_quantity = total_quantity
//	                     - outstanding assignments
//	                     - active reservations
//	                     - (maintenance hold ? total_quantity : 0)
package ledger

import (
	"fmt"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/model"
)

func checkQuantity(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: got %d", apperr.ErrInvalidQuantity, qty)
	}
	return nil
}

func checkMutable(item *model.InventoryItem) error {
	if item.UnderMaintenance() {
		return fmt.Errorf("%w: item %s", apperr.ErrItemUnavailable, item.SKU)
	}
	return nil
}

func checkAvailable(item *model.InventoryItem, qty int) error {
	if qty > item.AvailableQuantity {
		return fmt.Errorf("%w: item %s has %d available, want %d",
			apperr.ErrInsufficientStock, item.SKU, item.AvailableQuantity, qty)
	}
	return nil
}

// DeriveStatus recomputes the status label from the quantity fields.
// A maintenance hold is sticky: it is only cleared by ReleaseHold.
func DeriveStatus(item *model.InventoryItem) string {
	switch {
	case item.UnderMaintenance():
		return model.ItemStatusMaintenance
	case item.AvailableQuantity <= 0:
		return model.ItemStatusOutOfStock
	case item.AvailableQuantity < item.MinStockLevel:
		return model.ItemStatusLowStock
	default:
		return model.ItemStatusAvailable
	}
}

// ApplyAssign debits available capacity for a long-lived checkout.
func ApplyAssign(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if err := checkMutable(item); err != nil {
		return err
	}
	if err := checkAvailable(item, qty); err != nil {
		return err
	}
	item.AvailableQuantity -= qty
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyReserve debits available capacity for a short-lived hold.
func ApplyReserve(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if err := checkMutable(item); err != nil {
		return err
	}
	if err := checkAvailable(item, qty); err != nil {
		return err
	}
	item.AvailableQuantity -= qty
	item.ReservedQuantity += qty
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyReleaseAssignment credits a returned assignment back. Under a
// maintenance hold the credit is deferred: available stays zeroed and is
// recomputed from the outstanding sums when the hold is released.
func ApplyReleaseAssignment(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if !item.UnderMaintenance() {
		item.AvailableQuantity += qty
		if item.AvailableQuantity > item.TotalQuantity {
			return fmt.Errorf("release of %d would exceed total stock of item %s", qty, item.SKU)
		}
	}
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyReleaseReservation releases an expired or cancelled hold.
func ApplyReleaseReservation(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if qty > item.ReservedQuantity {
		return fmt.Errorf("release of %d exceeds reserved %d on item %s", qty, item.ReservedQuantity, item.SKU)
	}
	item.ReservedQuantity -= qty
	if !item.UnderMaintenance() {
		item.AvailableQuantity += qty
	}
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyConfirmReservation converts a held reservation into an
// assignment. Available capacity is untouched: both states already
// subtract from it, only the reserved counter moves.
func ApplyConfirmReservation(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if err := checkMutable(item); err != nil {
		return err
	}
	if qty > item.ReservedQuantity {
		return fmt.Errorf("confirm of %d exceeds reserved %d on item %s", qty, item.ReservedQuantity, item.SKU)
	}
	item.ReservedQuantity -= qty
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyConsume permanently removes consumable stock. Both available and
// total are debited so the availability invariant keeps holding; the
// consumed counter is a lifetime total. There is no credit-back path.
func ApplyConsume(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	if err := checkMutable(item); err != nil {
		return err
	}
	if err := checkAvailable(item, qty); err != nil {
		return err
	}
	item.AvailableQuantity -= qty
	item.TotalQuantity -= qty
	item.ConsumedQuantity += qty
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyRestock adds purchased stock to both total and available.
func ApplyRestock(item *model.InventoryItem, qty int) error {
	if err := checkQuantity(qty); err != nil {
		return err
	}
	item.TotalQuantity += qty
	if !item.UnderMaintenance() {
		item.AvailableQuantity += qty
	}
	item.Status = DeriveStatus(item)
	return nil
}

// ApplyHold places a maintenance hold, removing the full stock from
// available capacity without consuming it.
func ApplyHold(item *model.InventoryItem) error {
	if item.UnderMaintenance() {
		return fmt.Errorf("%w: item %s already under maintenance", apperr.ErrInvalidTransition, item.SKU)
	}
	item.AvailableQuantity = 0
	item.Status = model.ItemStatusMaintenance
	return nil
}

// ApplyReleaseHold clears a maintenance hold and restores available
// capacity from the outstanding assignment and reservation sums.
func ApplyReleaseHold(item *model.InventoryItem, assignedSum, reservedSum int) error {
	if !item.UnderMaintenance() {
		return fmt.Errorf("%w: item %s not under maintenance", apperr.ErrInvalidTransition, item.SKU)
	}
	avail := item.TotalQuantity - assignedSum - reservedSum
	if avail < 0 {
		return fmt.Errorf("outstanding quantities %d exceed total stock %d on item %s",
			assignedSum+reservedSum, item.TotalQuantity, item.SKU)
	}
	item.AvailableQuantity = avail
	item.Status = model.ItemStatusAvailable // clear the hold before re-deriving
	item.Status = DeriveStatus(item)
	return nil
}
