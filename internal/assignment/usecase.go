package assignment

import (
	"context"

	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/model"
)

type UseCase interface {
	Assign(ctx context.Context, input *dto.AssignInput) (*model.InventoryAssignment, error)
	Return(ctx context.Context, assignmentID string) (*model.InventoryAssignment, error)
	ListAssignments(ctx context.Context, filters *dto.AssignmentFilters) ([]model.InventoryAssignment, error)

	Reserve(ctx context.Context, input *dto.ReserveInput) (*model.InventoryReservation, error)
	Confirm(ctx context.Context, reservationID string) (*model.InventoryAssignment, error)
	Cancel(ctx context.Context, reservationID string) error
	// ExpireDue releases every reservation whose expiry has passed and
	// returns how many were released. Safe to run concurrently with
	// confirmations: a confirm that lands first always wins.
	ExpireDue(ctx context.Context) (int, error)
	ListReservations(ctx context.Context, filters *dto.ReservationFilters) ([]model.InventoryReservation, error)
}
