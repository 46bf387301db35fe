package request

import (
	"context"
	"time"

	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request/dto"
)

// Locker serializes request-number allocation across processes; the
// Redis client implements it. A nil Locker degrades to relying on the
// unique index plus retry alone.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) (bool, error)
}

type UseCase interface {
	CreateDraft(ctx context.Context, input *dto.CreateRequestInput) (*dto.RequestDetail, error)
	// Submit moves draft -> submitted -> pending_review. Requester only;
	// a request with no items cannot be submitted.
	Submit(ctx context.Context, requestID, actor string) (*model.MaterialRequest, error)
	// Decide records one approval level's verdicts. Levels are evaluated
	// in ascending order; the final level (or level 1 on quick-approval
	// requests) triggers finalization, which allocates approved
	// quantities against the ledger.
	Decide(ctx context.Context, requestID string, input *dto.DecideInput) (*dto.RequestDetail, error)
	UpdateDelivery(ctx context.Context, requestID, newStatus, actor string) (*model.MaterialRequest, error)
	Get(ctx context.Context, requestID string) (*dto.RequestDetail, error)
	List(ctx context.Context, filters *dto.RequestFilters) ([]model.MaterialRequest, int, error)
}
