package forecast

import (
	"context"

	"github.com/incuhub/inventory-service/internal/forecast/dto"
)

type UseCase interface {
	// Report computes the replenishment outlook for every item with a
	// configured minimum stock level. Read-only (the dry run).
	Report(ctx context.Context, opts *dto.ReportOptions) ([]dto.ItemForecast, error)
	// AutoDraft turns the urgent part of the report into draft material
	// requests. Drafts are never auto-submitted or auto-approved.
	AutoDraft(ctx context.Context, opts *dto.AutoDraftOptions) ([]dto.AutoDraftResult, error)
}
