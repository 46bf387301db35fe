package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/consumption"
	"github.com/incuhub/inventory-service/internal/forecast"
	"github.com/incuhub/inventory-service/internal/forecast/dto"
	"github.com/incuhub/inventory-service/internal/ledger"
	ledgerdto "github.com/incuhub/inventory-service/internal/ledger/dto"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request"
	requestdto "github.com/incuhub/inventory-service/internal/request/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	highUrgencyDays = 7
	// Suggested restock covers roughly a month of consumption when no
	// reorder quantity is configured on the item.
	suggestedCoverDays = 30
)

type Config struct {
	DefaultWindowDays    int
	DefaultLookAheadDays int
	// Units per week assumed for items with neither history nor a
	// per-item typical rate.
	DefaultWeeklyRate float64
}

type forecastUseCase struct {
	items     ledger.Repository
	logs      consumption.Repository
	requests  request.Repository
	requestUC request.UseCase
	logger    *zap.Logger
	cfg       Config
}

func NewForecastUseCase(
	items ledger.Repository,
	logs consumption.Repository,
	requests request.Repository,
	requestUC request.UseCase,
	log *zap.Logger,
	cfg Config,
) forecast.UseCase {
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = 30
	}
	if cfg.DefaultLookAheadDays <= 0 {
		cfg.DefaultLookAheadDays = 14
	}
	return &forecastUseCase{
		items:     items,
		logs:      logs,
		requests:  requests,
		requestUC: requestUC,
		logger:    log,
		cfg:       cfg,
	}
}

func (uc *forecastUseCase) Report(ctx context.Context, opts *dto.ReportOptions) ([]dto.ItemForecast, error) {
	windowDays, lookAhead := uc.windows(opts)

	items, _, err := uc.items.FindAll(ctx, &ledgerdto.ItemFilters{MinStockOnly: true})
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	out := make([]dto.ItemForecast, 0, len(items))
	for i := range items {
		f, err := uc.forecastItem(ctx, &items[i], since, windowDays, lookAhead)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

func (uc *forecastUseCase) forecastItem(ctx context.Context, item *model.InventoryItem, since time.Time, windowDays, lookAhead int) (*dto.ItemForecast, error) {
	consumed, err := uc.logs.SumSince(ctx, item.ID, since)
	if err != nil {
		return nil, err
	}

	var avg decimal.Decimal
	if consumed > 0 {
		avg = decimal.NewFromInt(int64(consumed)).Div(decimal.NewFromInt(int64(windowDays)))
	} else {
		weekly := item.TypicalWeeklyConsumption
		if weekly <= 0 {
			weekly = uc.cfg.DefaultWeeklyRate
		}
		avg = decimal.NewFromFloat(weekly).Div(decimal.NewFromInt(7))
	}

	f := &dto.ItemForecast{
		ItemID:            item.ID,
		SKU:               item.SKU,
		Name:              item.Name,
		IsConsumable:      item.IsConsumable,
		AvailableQuantity: item.AvailableQuantity,
		MinStockLevel:     item.MinStockLevel,
	}
	f.AvgDailyConsumption, _ = avg.Float64()

	if !avg.IsPositive() {
		f.DaysUntilReorder = -1
		f.Urgency = dto.UrgencyMonitor
		f.SuggestedQuantity = item.ReorderQuantity
		return f, nil
	}

	headroom := item.AvailableQuantity - item.MinStockLevel
	if headroom < 0 {
		headroom = 0
	}
	// IntPart truncates, which is floor for the non-negative headroom.
	f.DaysUntilReorder = int(decimal.NewFromInt(int64(headroom)).Div(avg).IntPart())

	switch {
	case f.DaysUntilReorder <= highUrgencyDays:
		f.Urgency = dto.UrgencyHigh
	case f.DaysUntilReorder <= lookAhead:
		f.Urgency = dto.UrgencyMedium
	default:
		f.Urgency = dto.UrgencyLow
	}

	f.SuggestedQuantity = item.ReorderQuantity
	if f.SuggestedQuantity <= 0 {
		f.SuggestedQuantity = int(avg.Mul(decimal.NewFromInt(suggestedCoverDays)).Ceil().IntPart())
	}
	return f, nil
}

func (uc *forecastUseCase) AutoDraft(ctx context.Context, opts *dto.AutoDraftOptions) ([]dto.AutoDraftResult, error) {
	report, err := uc.Report(ctx, &dto.ReportOptions{
		WindowDays:    opts.WindowDays,
		LookAheadDays: opts.LookAheadDays,
	})
	if err != nil {
		return nil, err
	}

	actor := opts.Actor
	if actor == "" {
		actor = "forecaster"
	}

	var results []dto.AutoDraftResult
	for _, f := range report {
		if f.Urgency != dto.UrgencyHigh && f.Urgency != dto.UrgencyMedium {
			continue
		}
		res := dto.AutoDraftResult{ItemID: f.ItemID, SKU: f.SKU}

		teamID := opts.TeamID
		if teamID == "" {
			teamID, err = uc.requests.LatestTeamForItem(ctx, f.ItemID)
			if err != nil {
				return nil, err
			}
		}
		if teamID == "" {
			res.Error = fmt.Errorf("%w: item %s", apperr.ErrNoTargetTeam, f.SKU).Error()
			results = append(results, res)
			continue
		}

		itemID := f.ItemID
		detail, err := uc.requestUC.CreateDraft(ctx, &requestdto.CreateRequestInput{
			TeamID:              teamID,
			RequestedBy:         actor,
			Priority:            f.Urgency,
			Purpose:             fmt.Sprintf("replenishment: %d day(s) of stock left above minimum", f.DaysUntilReorder),
			IsConsumableRequest: f.IsConsumable,
			Items: []requestdto.RequestItemInput{{
				ItemID:   &itemID,
				ItemName: f.Name,
				Quantity: f.SuggestedQuantity,
			}},
		})
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		res.RequestID = detail.Request.ID
		res.RequestNumber = detail.Request.RequestNumber
		results = append(results, res)
		uc.logger.Info("replenishment draft created",
			zap.String("item_id", f.ItemID), zap.String("request_number", res.RequestNumber),
			zap.String("urgency", f.Urgency), zap.Int("quantity", f.SuggestedQuantity))
	}
	return results, nil
}

func (uc *forecastUseCase) windows(opts *dto.ReportOptions) (windowDays, lookAhead int) {
	windowDays = uc.cfg.DefaultWindowDays
	lookAhead = uc.cfg.DefaultLookAheadDays
	if opts != nil {
		if opts.WindowDays > 0 {
			windowDays = opts.WindowDays
		}
		if opts.LookAheadDays > 0 {
			lookAhead = opts.LookAheadDays
		}
	}
	return windowDays, lookAhead
}
