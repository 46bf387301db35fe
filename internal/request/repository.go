package request

import (
	"context"
	"errors"

	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request/dto"
)

// ErrDuplicateNumber signals a request_number collision on insert; the
// usecase re-scans the sequence and retries once.
var ErrDuplicateNumber = errors.New("request number already taken")

type Repository interface {
	// MaxSequence returns the highest allocated sequence for the given
	// year's REQ-<year>- prefix, zero when none exists yet.
	MaxSequence(ctx context.Context, year int) (int, error)
	Create(ctx context.Context, req *model.MaterialRequest, items []model.RequestItem) error
	Get(ctx context.Context, id string) (*model.MaterialRequest, error)
	Items(ctx context.Context, requestID string) ([]model.RequestItem, error)
	List(ctx context.Context, filters *dto.RequestFilters) ([]model.MaterialRequest, int, error)

	// UpdateStatus persists the request's status axes and timestamps,
	// conditional on the review status still being fromStatus; reports
	// InvalidTransition when another writer moved it first.
	UpdateStatus(ctx context.Context, req *model.MaterialRequest, fromStatus string) error
	SaveItem(ctx context.Context, item *model.RequestItem) error

	AddApproval(ctx context.Context, a *model.RequestApproval) error
	Approvals(ctx context.Context, requestID string) ([]model.RequestApproval, error)
	AddHistory(ctx context.Context, h *model.RequestHistory) error
	History(ctx context.Context, requestID string) ([]model.RequestHistory, error)

	// LatestTeamForItem returns the team behind the most recent request
	// containing the item, or "" when no request ever named it.
	LatestTeamForItem(ctx context.Context, itemID string) (string, error)
}
