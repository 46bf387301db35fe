package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/assignment"
	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/events"
	"github.com/incuhub/inventory-service/internal/model"
	"go.uber.org/zap"
)

type assignmentUseCase struct {
	repo       assignment.Repository
	publisher  events.Publisher
	logger     *zap.Logger
	defaultTTL time.Duration
}

func NewAssignmentUseCase(repo assignment.Repository, publisher events.Publisher, log *zap.Logger, defaultTTL time.Duration) assignment.UseCase {
	return &assignmentUseCase{
		repo:       repo,
		publisher:  publisher,
		logger:     log,
		defaultTTL: defaultTTL,
	}
}

func (uc *assignmentUseCase) Assign(ctx context.Context, input *dto.AssignInput) (*model.InventoryAssignment, error) {
	if input.ItemID == "" || input.TeamID == "" {
		return nil, fmt.Errorf("item_id and team_id are required")
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", apperr.ErrInvalidQuantity, input.Quantity)
	}

	a := &model.InventoryAssignment{
		ID:         uuid.New().String(),
		ItemID:     input.ItemID,
		TeamID:     input.TeamID,
		Quantity:   input.Quantity,
		AssignedBy: input.Actor,
		AssignedAt: time.Now(),
	}

	item, err := uc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock assigned",
		zap.String("assignment_id", a.ID), zap.String("item_id", a.ItemID),
		zap.String("team_id", a.TeamID), zap.Int("quantity", a.Quantity))

	uc.publish(ctx, events.New(events.AssignmentCreated, events.AssignmentCreatedPayload{
		AssignmentID: a.ID,
		ItemID:       a.ItemID,
		TeamID:       a.TeamID,
		Quantity:     a.Quantity,
	}))
	uc.notifyStock(ctx, item)
	return a, nil
}

func (uc *assignmentUseCase) Return(ctx context.Context, assignmentID string) (*model.InventoryAssignment, error) {
	a, item, err := uc.repo.ReturnAssignment(ctx, assignmentID, time.Now())
	if err != nil {
		return nil, err
	}
	uc.logger.Info("assignment returned",
		zap.String("assignment_id", a.ID), zap.String("item_id", a.ItemID), zap.Int("quantity", a.Quantity))
	uc.notifyStock(ctx, item)
	return a, nil
}

func (uc *assignmentUseCase) ListAssignments(ctx context.Context, filters *dto.AssignmentFilters) ([]model.InventoryAssignment, error) {
	return uc.repo.ListAssignments(ctx, filters)
}

func (uc *assignmentUseCase) Reserve(ctx context.Context, input *dto.ReserveInput) (*model.InventoryReservation, error) {
	if input.ItemID == "" || input.TeamID == "" {
		return nil, fmt.Errorf("item_id and team_id are required")
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", apperr.ErrInvalidQuantity, input.Quantity)
	}

	ttl := input.TTL
	if ttl == 0 && input.TTLMillis > 0 {
		ttl = time.Duration(input.TTLMillis) * time.Millisecond
	}
	if ttl <= 0 {
		ttl = uc.defaultTTL
	}

	now := time.Now()
	rv := &model.InventoryReservation{
		ID:        uuid.New().String(),
		ItemID:    input.ItemID,
		TeamID:    input.TeamID,
		Quantity:  input.Quantity,
		RequestID: input.RequestID,
		Status:    model.ReservationHeld,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	item, err := uc.repo.CreateReservation(ctx, rv)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock reserved",
		zap.String("reservation_id", rv.ID), zap.String("item_id", rv.ItemID),
		zap.Int("quantity", rv.Quantity), zap.Time("expires_at", rv.ExpiresAt))
	uc.notifyStock(ctx, item)
	return rv, nil
}

func (uc *assignmentUseCase) Confirm(ctx context.Context, reservationID string) (*model.InventoryAssignment, error) {
	rv, err := uc.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	a := &model.InventoryAssignment{
		ID:         uuid.New().String(),
		ItemID:     rv.ItemID,
		TeamID:     rv.TeamID,
		Quantity:   rv.Quantity,
		AssignedBy: "reservation:" + rv.ID,
		AssignedAt: time.Now(),
	}

	if _, err := uc.repo.ConfirmReservation(ctx, reservationID, a, time.Now()); err != nil {
		return nil, err
	}

	uc.logger.Info("reservation confirmed",
		zap.String("reservation_id", reservationID), zap.String("assignment_id", a.ID))

	uc.publish(ctx, events.New(events.AssignmentCreated, events.AssignmentCreatedPayload{
		AssignmentID: a.ID,
		ItemID:       a.ItemID,
		TeamID:       a.TeamID,
		Quantity:     a.Quantity,
	}))
	return a, nil
}

func (uc *assignmentUseCase) Cancel(ctx context.Context, reservationID string) error {
	released, err := uc.repo.ReleaseReservation(ctx, reservationID, model.ReservationCancelled, time.Now())
	if err != nil {
		return err
	}
	if !released {
		return fmt.Errorf("%w: reservation %s is no longer held", apperr.ErrInvalidTransition, reservationID)
	}
	uc.logger.Info("reservation cancelled", zap.String("reservation_id", reservationID))
	return nil
}

func (uc *assignmentUseCase) ExpireDue(ctx context.Context) (int, error) {
	due, err := uc.repo.DueReservations(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	released := 0
	for _, rv := range due {
		ok, err := uc.repo.ReleaseReservation(ctx, rv.ID, model.ReservationExpired, time.Now())
		if err != nil {
			uc.logger.Error("failed to expire reservation",
				zap.String("reservation_id", rv.ID), zap.Error(err))
			continue
		}
		if ok {
			released++
		}
	}
	if released > 0 {
		uc.logger.Info("expired reservations released", zap.Int("count", released))
	}
	return released, nil
}

func (uc *assignmentUseCase) ListReservations(ctx context.Context, filters *dto.ReservationFilters) ([]model.InventoryReservation, error) {
	return uc.repo.ListReservations(ctx, filters)
}

func (uc *assignmentUseCase) publish(ctx context.Context, ev events.Event) {
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.logger.Error("failed to publish event", zap.String("event_type", ev.EventType), zap.Error(err))
	}
}

func (uc *assignmentUseCase) notifyStock(ctx context.Context, item *model.InventoryItem) {
	if item == nil {
		return
	}
	if item.Status != model.ItemStatusLowStock && item.Status != model.ItemStatusOutOfStock {
		return
	}
	uc.publish(ctx, events.New(events.ItemLowStock, events.LowStockPayload{
		ItemID:    item.ID,
		SKU:       item.SKU,
		Status:    item.Status,
		Available: item.AvailableQuantity,
		MinStock:  item.MinStockLevel,
	}))
}
