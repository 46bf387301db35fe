package assignment

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

// Repository methods are complete transactional operations: each one
// locks the item row, applies the ledger mutation, writes its own rows
// and commits (or rolls back) as a unit. Methods return the updated
// item so the usecase can emit low-stock notifications after commit.
type Repository interface {
	CreateAssignment(ctx context.Context, a *model.InventoryAssignment) (*model.InventoryItem, error)
	GetAssignment(ctx context.Context, id string) (*model.InventoryAssignment, error)
	// ReturnAssignment stamps returned_at and credits the ledger; a
	// second return of the same assignment fails with AlreadyReturned.
	ReturnAssignment(ctx context.Context, id string, now time.Time) (*model.InventoryAssignment, *model.InventoryItem, error)
	ListAssignments(ctx context.Context, filters *dto.AssignmentFilters) ([]model.InventoryAssignment, error)

	CreateReservation(ctx context.Context, r *model.InventoryReservation) (*model.InventoryItem, error)
	GetReservation(ctx context.Context, id string) (*model.InventoryReservation, error)
	// ConfirmReservation converts a held reservation into the given
	// assignment. Racing resolutions are decided by a conditional update
	// on the reservation row: whoever flips it from "held" wins.
	ConfirmReservation(ctx context.Context, reservationID string, a *model.InventoryAssignment, now time.Time) (*model.InventoryItem, error)
	// ReleaseReservation moves a held reservation to toStatus and credits
	// the hold back. Returns false without error when the reservation is
	// no longer held (a confirm won the race), so sweeps are idempotent.
	ReleaseReservation(ctx context.Context, reservationID, toStatus string, now time.Time) (bool, error)
	DueReservations(ctx context.Context, now time.Time) ([]model.InventoryReservation, error)
	ListReservations(ctx context.Context, filters *dto.ReservationFilters) ([]model.InventoryReservation, error)
}
