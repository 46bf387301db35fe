package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/assignment"
	assigndto "github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/consumption"
	consumedto "github.com/incuhub/inventory-service/internal/consumption/dto"
	"github.com/incuhub/inventory-service/internal/events"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request"
	"github.com/incuhub/inventory-service/internal/request/dto"
	"go.uber.org/zap"
)

type requestUseCase struct {
	repo      request.Repository
	assignUC  assignment.UseCase
	consumeUC consumption.UseCase
	publisher events.Publisher
	logger    *zap.Logger
	locker    request.Locker
	// Ordered approver roles; index i decides approval level i+1.
	approvalRoles []string
}

func NewRequestUseCase(
	repo request.Repository,
	assignUC assignment.UseCase,
	consumeUC consumption.UseCase,
	publisher events.Publisher,
	log *zap.Logger,
	locker request.Locker,
	approvalRoles []string,
) request.UseCase {
	return &requestUseCase{
		repo:          repo,
		assignUC:      assignUC,
		consumeUC:     consumeUC,
		publisher:     publisher,
		logger:        log,
		locker:        locker,
		approvalRoles: approvalRoles,
	}
}

func (uc *requestUseCase) CreateDraft(ctx context.Context, input *dto.CreateRequestInput) (*dto.RequestDetail, error) {
	if input.TeamID == "" || input.RequestedBy == "" {
		return nil, fmt.Errorf("team_id and requester are required")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q requested %d", apperr.ErrInvalidQuantity, item.ItemName, item.Quantity)
		}
	}

	now := time.Now()
	req := &model.MaterialRequest{
		ID:                    uuid.New().String(),
		TeamID:                input.TeamID,
		RequestedBy:           input.RequestedBy,
		Priority:              input.Priority,
		Purpose:               input.Purpose,
		IsConsumableRequest:   input.IsConsumableRequest,
		RequiresQuickApproval: input.RequiresQuickApproval,
		Status:                model.RequestDraft,
		DeliveryStatus:        model.DeliveryNotOrdered,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	items := make([]model.RequestItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, model.RequestItem{
			ID:        uuid.New().String(),
			RequestID: req.ID,
			ItemID:    in.ItemID,
			ItemName:  in.ItemName,
			Quantity:  in.Quantity,
			Status:    model.RequestItemPending,
		})
	}

	if err := uc.createWithNumber(ctx, req, items); err != nil {
		return nil, err
	}

	uc.appendHistory(ctx, req.ID, "status", "", model.RequestDraft, input.RequestedBy, "request created")
	uc.logger.Info("material request drafted",
		zap.String("request_id", req.ID), zap.String("request_number", req.RequestNumber),
		zap.String("team_id", req.TeamID), zap.Int("items", len(items)))

	return uc.detail(ctx, req.ID)
}

// createWithNumber allocates the next REQ-<year>-NNNN number and
// inserts the request. Allocation scans the max existing sequence for
// the year, guarded by an advisory lock; the unique index plus one
// retry covers the window the lock cannot (e.g. lock service down).
func (uc *requestUseCase) createWithNumber(ctx context.Context, req *model.MaterialRequest, items []model.RequestItem) error {
	year := req.CreatedAt.Year()

	if uc.locker != nil {
		lockKey := fmt.Sprintf("lock:request_number:%d", year)
		lockValue := uuid.New().String()
		acquired := false
		for i := 0; i < 3; i++ {
			ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
			if err != nil {
				uc.logger.Error("failed to acquire request number lock", zap.Error(err))
				break
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		if acquired {
			defer uc.locker.ReleaseLock(ctx, lockKey, lockValue)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		seq, err := uc.repo.MaxSequence(ctx, year)
		if err != nil {
			return err
		}
		req.RequestNumber = fmt.Sprintf("REQ-%d-%04d", year, seq+1)

		err = uc.repo.Create(ctx, req, items)
		if err == nil {
			return nil
		}
		if !errors.Is(err, request.ErrDuplicateNumber) {
			return err
		}
	}
	return fmt.Errorf("could not allocate request number for %d: %w", year, request.ErrDuplicateNumber)
}

func (uc *requestUseCase) Submit(ctx context.Context, requestID, actor string) (*model.MaterialRequest, error) {
	req, err := uc.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor != req.RequestedBy {
		return nil, fmt.Errorf("%w: only the requester may submit", apperr.ErrPermissionDenied)
	}
	if req.Status != model.RequestDraft {
		return nil, fmt.Errorf("%w: cannot submit a %s request", apperr.ErrInvalidTransition, req.Status)
	}
	items, err := uc.repo.Items(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cannot submit a request without items", apperr.ErrInvalidTransition)
	}

	// Submission lands directly in pending_review; "submitted" only
	// exists as an audit waypoint.
	now := time.Now()
	req.Status = model.RequestPendingReview
	req.SubmittedAt = &now
	req.UpdatedAt = now
	if err := uc.repo.UpdateStatus(ctx, req, model.RequestDraft); err != nil {
		return nil, err
	}

	uc.appendHistory(ctx, req.ID, "status", model.RequestDraft, model.RequestSubmitted, actor, "")
	uc.appendHistory(ctx, req.ID, "status", model.RequestSubmitted, model.RequestPendingReview, actor, "")
	uc.logger.Info("material request submitted",
		zap.String("request_id", req.ID), zap.String("request_number", req.RequestNumber))
	return req, nil
}

func (uc *requestUseCase) Decide(ctx context.Context, requestID string, input *dto.DecideInput) (*dto.RequestDetail, error) {
	req, err := uc.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestPendingReview {
		return nil, fmt.Errorf("%w: request is %s, not pending review", apperr.ErrInvalidTransition, req.Status)
	}

	finalLevel := len(uc.approvalRoles)
	if req.RequiresQuickApproval {
		finalLevel = 1
	}
	if input.Level < 1 || input.Level > finalLevel {
		return nil, fmt.Errorf("%w: approval level %d out of range", apperr.ErrInvalidTransition, input.Level)
	}
	if role := uc.approvalRoles[input.Level-1]; role != input.ApproverRole {
		return nil, fmt.Errorf("%w: level %d requires role %s", apperr.ErrPermissionDenied, input.Level, role)
	}

	// Claim the request before reading anything decision-relevant. The
	// conditional update admits exactly one decider at a time, so two
	// concurrent final-level decisions cannot both reach finalize and
	// debit the ledger twice for the same approved line.
	if err := uc.claim(ctx, req); err != nil {
		return nil, err
	}

	decideErr := uc.decideClaimed(ctx, req, input, finalLevel)
	if req.Status == model.RequestInReview {
		// Still claimed: either a validation error, a non-final level, or
		// an allocation conflict. Back into the reviewers' queue.
		if err := uc.release(ctx, req); err != nil {
			return nil, err
		}
	}
	if decideErr != nil {
		if !errors.Is(decideErr, apperr.ErrInsufficientStock) {
			return nil, decideErr
		}
		// Allocation conflict: the caller still gets the detail so the
		// reviewer can see which lines dropped back to pending.
		detail, detailErr := uc.detail(ctx, requestID)
		if detailErr != nil {
			return nil, decideErr
		}
		return detail, decideErr
	}
	return uc.detail(ctx, requestID)
}

func (uc *requestUseCase) claim(ctx context.Context, req *model.MaterialRequest) error {
	req.Status = model.RequestInReview
	req.UpdatedAt = time.Now()
	if err := uc.repo.UpdateStatus(ctx, req, model.RequestPendingReview); err != nil {
		req.Status = model.RequestPendingReview
		if errors.Is(err, apperr.ErrInvalidTransition) {
			return fmt.Errorf("%w: request %s has a decision in progress", apperr.ErrInvalidTransition, req.ID)
		}
		return err
	}
	return nil
}

func (uc *requestUseCase) release(ctx context.Context, req *model.MaterialRequest) error {
	req.Status = model.RequestPendingReview
	req.UpdatedAt = time.Now()
	return uc.repo.UpdateStatus(ctx, req, model.RequestInReview)
}

// decideClaimed runs one approval level against a claimed request. The
// caller owns releasing the claim when the request does not finalize.
func (uc *requestUseCase) decideClaimed(ctx context.Context, req *model.MaterialRequest, input *dto.DecideInput, finalLevel int) error {
	requestID := req.ID
	approvals, err := uc.repo.Approvals(ctx, requestID)
	if err != nil {
		return err
	}
	// Levels run strictly in ascending order; the final level may repeat
	// after a finalize conflict sent items back to re-review.
	expected := 1
	for _, a := range approvals {
		if a.ApprovalLevel >= expected {
			expected = a.ApprovalLevel + 1
		}
	}
	if expected > finalLevel {
		expected = finalLevel
	}
	if input.Level != expected {
		return fmt.Errorf("%w: expected decision at level %d, got %d", apperr.ErrInvalidTransition, expected, input.Level)
	}

	items, err := uc.repo.Items(ctx, requestID)
	if err != nil {
		return err
	}
	byID := make(map[string]*model.RequestItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for _, decision := range input.Items {
		item, ok := byID[decision.RequestItemID]
		if !ok {
			return fmt.Errorf("%w: request item %s", apperr.ErrNotFound, decision.RequestItemID)
		}
		if item.Status == model.RequestItemDeclined {
			// An earlier level's decline is final.
			if !decision.Decline && decision.ApprovedQuantity > 0 {
				return fmt.Errorf("%w: item %q was declined at an earlier level", apperr.ErrInvalidTransition, item.ItemName)
			}
			continue
		}
		if decision.Decline {
			item.ApprovedQuantity = 0
			item.Status = model.RequestItemDeclined
			continue
		}
		if decision.ApprovedQuantity < 0 || decision.ApprovedQuantity > item.Quantity {
			return fmt.Errorf("%w: approved %d of requested %d for %q",
				apperr.ErrInvalidQuantity, decision.ApprovedQuantity, item.Quantity, item.ItemName)
		}
		item.ApprovedQuantity = decision.ApprovedQuantity
		switch {
		case decision.ApprovedQuantity == 0:
			item.Status = model.RequestItemDeclined
		case decision.ApprovedQuantity == item.Quantity:
			item.Status = model.RequestItemApproved
		default:
			item.Status = model.RequestItemPartial
		}
	}

	for i := range items {
		if err := uc.repo.SaveItem(ctx, &items[i]); err != nil {
			return err
		}
	}

	verdict := aggregateVerdict(items)
	approval := &model.RequestApproval{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		ApprovalLevel: input.Level,
		ApproverID:    input.ApproverID,
		ApproverRole:  input.ApproverRole,
		Decision:      verdict,
		Note:          input.Note,
		DecidedAt:     time.Now(),
	}
	if err := uc.repo.AddApproval(ctx, approval); err != nil {
		return err
	}
	uc.appendHistory(ctx, requestID, "approval",
		"", fmt.Sprintf("level %d: %s", input.Level, verdict), input.ApproverID, input.Note)

	if input.Level == finalLevel {
		return uc.finalize(ctx, req, items, input.ApproverID)
	}
	return nil
}

// aggregateVerdict folds item statuses into the request-level verdict.
func aggregateVerdict(items []model.RequestItem) string {
	approved, declined := 0, 0
	for _, item := range items {
		switch item.Status {
		case model.RequestItemApproved:
			approved++
		case model.RequestItemDeclined:
			declined++
		}
	}
	switch {
	case approved == len(items):
		return model.DecisionApproved
	case declined == len(items):
		return model.DecisionDeclined
	default:
		return model.DecisionPartial
	}
}

// finalize realizes the approved quantities against the ledger and
// moves the request to its terminal review status. Each item's
// allocation is its own transaction: one item's stock conflict never
// rolls back another item's allocation. Conflicting items (after one
// retry) drop back to pending and the request stays in pending_review
// for another decision round.
func (uc *requestUseCase) finalize(ctx context.Context, req *model.MaterialRequest, items []model.RequestItem, actor string) error {
	// Items nobody ever decided on count as declined.
	for i := range items {
		if items[i].Status == model.RequestItemPending {
			items[i].Status = model.RequestItemDeclined
			items[i].ApprovedQuantity = 0
			if err := uc.repo.SaveItem(ctx, &items[i]); err != nil {
				return err
			}
		}
	}

	target := targetStatus(items)
	if target == model.RequestDeclined {
		return uc.moveTo(ctx, req, target, actor, "")
	}

	conflicts := 0
	for i := range items {
		item := &items[i]
		if item.ItemID == nil || item.ApprovedQuantity <= item.DistributedQuantity {
			continue
		}
		need := item.ApprovedQuantity - item.DistributedQuantity

		err := uc.allocate(ctx, req, item, need)
		if err != nil && (errors.Is(err, apperr.ErrInsufficientStock) || errors.Is(err, apperr.ErrItemUnavailable)) {
			// Stock may have moved between review and finalize; retry
			// once before surfacing.
			err = uc.allocate(ctx, req, item, need)
		}
		if err != nil {
			if errors.Is(err, apperr.ErrInsufficientStock) || errors.Is(err, apperr.ErrItemUnavailable) {
				item.Status = model.RequestItemPending
				if saveErr := uc.repo.SaveItem(ctx, item); saveErr != nil {
					return saveErr
				}
				uc.appendHistory(ctx, req.ID, "status", model.RequestPendingReview, model.RequestPendingReview,
					actor, fmt.Sprintf("allocation conflict on %q: %v", item.ItemName, err))
				conflicts++
				continue
			}
			return err
		}

		item.DistributedQuantity = item.ApprovedQuantity
		if err := uc.repo.SaveItem(ctx, item); err != nil {
			return err
		}
	}

	if conflicts > 0 {
		uc.logger.Warn("request finalize hit stock conflicts; kept pending review",
			zap.String("request_id", req.ID), zap.Int("conflicts", conflicts))
		return fmt.Errorf("%w: %d item(s) flagged for re-review", apperr.ErrInsufficientStock, conflicts)
	}
	return uc.moveTo(ctx, req, target, actor, "")
}

func (uc *requestUseCase) allocate(ctx context.Context, req *model.MaterialRequest, item *model.RequestItem, qty int) error {
	if req.IsConsumableRequest {
		_, err := uc.consumeUC.Distribute(ctx, &consumedto.DistributeInput{
			ItemID:   *item.ItemID,
			TeamID:   req.TeamID,
			Quantity: qty,
			Actor:    "request:" + req.RequestNumber,
		})
		return err
	}
	_, err := uc.assignUC.Assign(ctx, &assigndto.AssignInput{
		ItemID:   *item.ItemID,
		TeamID:   req.TeamID,
		Quantity: qty,
		Actor:    "request:" + req.RequestNumber,
	})
	return err
}

func targetStatus(items []model.RequestItem) string {
	approved, declined := 0, 0
	for _, item := range items {
		switch item.Status {
		case model.RequestItemApproved:
			approved++
		case model.RequestItemDeclined:
			declined++
		}
	}
	switch {
	case approved == len(items):
		return model.RequestApproved
	case declined == len(items):
		return model.RequestDeclined
	default:
		return model.RequestPartiallyApproved
	}
}

func (uc *requestUseCase) moveTo(ctx context.Context, req *model.MaterialRequest, target, actor, note string) error {
	now := time.Now()
	from := req.Status
	req.Status = target
	req.ReviewedAt = &now
	req.UpdatedAt = now
	if err := uc.repo.UpdateStatus(ctx, req, from); err != nil {
		return err
	}
	// The transient decision claim is plumbing, not an audit event.
	if from == model.RequestInReview {
		from = model.RequestPendingReview
	}
	uc.appendHistory(ctx, req.ID, "status", from, target, actor, note)
	uc.logger.Info("material request finalized",
		zap.String("request_id", req.ID), zap.String("request_number", req.RequestNumber),
		zap.String("status", target))

	if target == model.RequestApproved || target == model.RequestPartiallyApproved {
		ev := events.New(events.RequestApproved, events.RequestApprovedPayload{
			RequestID:     req.ID,
			RequestNumber: req.RequestNumber,
			Status:        target,
			TeamID:        req.TeamID,
		})
		if err := uc.publisher.Publish(ctx, ev); err != nil {
			uc.logger.Error("failed to publish event", zap.String("event_type", ev.EventType), zap.Error(err))
		}
	}
	return nil
}

func (uc *requestUseCase) UpdateDelivery(ctx context.Context, requestID, newStatus, actor string) (*model.MaterialRequest, error) {
	req, err := uc.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestApproved && req.Status != model.RequestPartiallyApproved {
		return nil, fmt.Errorf("%w: delivery only advances on approved requests", apperr.ErrInvalidTransition)
	}

	valid := map[string]string{
		model.DeliveryNotOrdered: model.DeliveryOrdered,
		model.DeliveryOrdered:    model.DeliveryDelivered,
	}
	if valid[req.DeliveryStatus] != newStatus {
		return nil, fmt.Errorf("%w: delivery cannot move from %s to %s",
			apperr.ErrInvalidTransition, req.DeliveryStatus, newStatus)
	}

	old := req.DeliveryStatus
	req.DeliveryStatus = newStatus
	req.UpdatedAt = time.Now()
	if err := uc.repo.UpdateStatus(ctx, req, req.Status); err != nil {
		return nil, err
	}
	uc.appendHistory(ctx, req.ID, "delivery_status", old, newStatus, actor, "")
	return req, nil
}

func (uc *requestUseCase) Get(ctx context.Context, requestID string) (*dto.RequestDetail, error) {
	return uc.detail(ctx, requestID)
}

func (uc *requestUseCase) List(ctx context.Context, filters *dto.RequestFilters) ([]model.MaterialRequest, int, error) {
	return uc.repo.List(ctx, filters)
}

func (uc *requestUseCase) detail(ctx context.Context, requestID string) (*dto.RequestDetail, error) {
	req, err := uc.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	items, err := uc.repo.Items(ctx, requestID)
	if err != nil {
		return nil, err
	}
	approvals, err := uc.repo.Approvals(ctx, requestID)
	if err != nil {
		return nil, err
	}
	history, err := uc.repo.History(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &dto.RequestDetail{
		Request:   *req,
		Items:     items,
		Approvals: approvals,
		History:   history,
	}, nil
}

func (uc *requestUseCase) appendHistory(ctx context.Context, requestID, field, oldValue, newValue, actor, note string) {
	h := &model.RequestHistory{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ActorID:   actor,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.AddHistory(ctx, h); err != nil {
		uc.logger.Error("failed to append request history",
			zap.String("request_id", requestID), zap.Error(err))
	}
}
