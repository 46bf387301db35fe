package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	assignrepo "github.com/incuhub/inventory-service/internal/assignment/repository"
	assignuc "github.com/incuhub/inventory-service/internal/assignment/usecase"
	"github.com/incuhub/inventory-service/internal/consumption"
	consumedto "github.com/incuhub/inventory-service/internal/consumption/dto"
	consumerepo "github.com/incuhub/inventory-service/internal/consumption/repository"
	consumeuc "github.com/incuhub/inventory-service/internal/consumption/usecase"
	"github.com/incuhub/inventory-service/internal/events"
	"github.com/incuhub/inventory-service/internal/forecast"
	"github.com/incuhub/inventory-service/internal/forecast/dto"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request"
	requestdto "github.com/incuhub/inventory-service/internal/request/dto"
	requestrepo "github.com/incuhub/inventory-service/internal/request/repository"
	requestuc "github.com/incuhub/inventory-service/internal/request/usecase"
	"go.uber.org/zap"
)

type fixture struct {
	uc        forecast.UseCase
	consumeUC consumption.UseCase
	requestUC request.UseCase
	store     *ledgerrepo.MemoryStore
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := ledgerrepo.NewMemoryStore()
	log := zap.NewNop()
	pub := events.NopPublisher{}

	itemRepo := ledgerrepo.NewMemoryRepository(store)
	logRepo := consumerepo.NewMemoryRepository(store)
	reqRepo := requestrepo.NewMemoryRepository()

	assignUC := assignuc.NewAssignmentUseCase(assignrepo.NewMemoryRepository(store), pub, log, time.Hour)
	consumeUC := consumeuc.NewConsumptionUseCase(logRepo, pub, log)
	requestUC := requestuc.NewRequestUseCase(reqRepo, assignUC, consumeUC, pub, log, nil, []string{"mentor"})

	return &fixture{
		uc:        NewForecastUseCase(itemRepo, logRepo, reqRepo, requestUC, log, cfg),
		consumeUC: consumeUC,
		requestUC: requestUC,
		store:     store,
	}
}

func (f *fixture) addItem(id, sku string, total, min, reorder int, weekly float64) {
	f.store.Put(&model.InventoryItem{
		ID:                       id,
		SKU:                      sku,
		Name:                     sku,
		IsConsumable:             true,
		TotalQuantity:            total,
		AvailableQuantity:        total,
		MinStockLevel:            min,
		ReorderQuantity:          reorder,
		TypicalWeeklyConsumption: weekly,
		Status:                   model.ItemStatusAvailable,
	})
}

func (f *fixture) consume(t *testing.T, itemID string, qty int) {
	t.Helper()
	if _, err := f.consumeUC.Distribute(context.Background(), &consumedto.DistributeInput{
		ItemID: itemID, TeamID: "team-a", Quantity: qty, Actor: "sam",
	}); err != nil {
		t.Fatal(err)
	}
}

func one(t *testing.T, report []dto.ItemForecast, itemID string) dto.ItemForecast {
	t.Helper()
	for _, f := range report {
		if f.ItemID == itemID {
			return f
		}
	}
	t.Fatalf("item %s missing from report", itemID)
	return dto.ItemForecast{}
}

func TestReportAveragesObservedConsumption(t *testing.T) {
	f := newFixture(t, Config{})
	f.addItem("item-1", "GLUE-01", 40, 2, 0, 0)
	f.consume(t, "item-1", 20) // leaves 20 available

	report, err := f.uc.Report(context.Background(), &dto.ReportOptions{WindowDays: 4})
	if err != nil {
		t.Fatal(err)
	}
	got := one(t, report, "item-1")

	if got.AvgDailyConsumption != 5 {
		t.Errorf("avg = %v, want 5 (20 consumed over 4 days)", got.AvgDailyConsumption)
	}
	// (20 available - 2 min) / 5 per day, floored.
	if got.DaysUntilReorder != 3 {
		t.Errorf("days = %d, want 3", got.DaysUntilReorder)
	}
	if got.Urgency != dto.UrgencyHigh {
		t.Errorf("urgency = %q, want high", got.Urgency)
	}
	// No reorder quantity configured: cover about a month.
	if got.SuggestedQuantity != 150 {
		t.Errorf("suggested = %d, want 150", got.SuggestedQuantity)
	}
}

func TestReportFallsBackToTypicalWeeklyRate(t *testing.T) {
	f := newFixture(t, Config{})
	f.addItem("item-1", "TAPE-01", 30, 2, 25, 14) // 2/day typical

	report, err := f.uc.Report(context.Background(), &dto.ReportOptions{WindowDays: 7, LookAheadDays: 14})
	if err != nil {
		t.Fatal(err)
	}
	got := one(t, report, "item-1")

	if got.AvgDailyConsumption != 2 {
		t.Errorf("avg = %v, want 2 (14 weekly / 7)", got.AvgDailyConsumption)
	}
	if got.DaysUntilReorder != 14 {
		t.Errorf("days = %d, want 14", got.DaysUntilReorder)
	}
	if got.Urgency != dto.UrgencyMedium {
		t.Errorf("urgency = %q, want medium", got.Urgency)
	}
	if got.SuggestedQuantity != 25 {
		t.Errorf("suggested = %d, want the configured reorder quantity 25", got.SuggestedQuantity)
	}
}

func TestReportMonitorsItemsWithoutSignal(t *testing.T) {
	f := newFixture(t, Config{})
	f.addItem("item-1", "CLAMP-01", 10, 3, 0, 0)
	f.addItem("item-2", "no-min", 10, 0, 0, 0) // no min stock, excluded

	report, err := f.uc.Report(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 1 {
		t.Fatalf("report has %d items, want 1 (min stock only)", len(report))
	}
	got := report[0]
	if got.Urgency != dto.UrgencyMonitor {
		t.Errorf("urgency = %q, want monitor", got.Urgency)
	}
	if got.DaysUntilReorder != -1 {
		t.Errorf("days = %d, want -1", got.DaysUntilReorder)
	}
}

func TestAutoDraftCreatesDraftsForUrgentItems(t *testing.T) {
	f := newFixture(t, Config{})
	f.addItem("item-1", "GLUE-01", 40, 2, 30, 0)
	f.addItem("item-2", "SLOW-01", 1000, 2, 0, 7) // days >> lookahead, low urgency
	f.consume(t, "item-1", 20)

	results, err := f.uc.AutoDraft(context.Background(), &dto.AutoDraftOptions{
		WindowDays: 4, TeamID: "team-ops", Actor: "scheduler",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (only the urgent item)", len(results))
	}
	res := results[0]
	if res.ItemID != "item-1" || res.Error != "" || res.RequestID == "" {
		t.Fatalf("result = %+v, want a draft for item-1", res)
	}

	detail, err := f.requestUC.Get(context.Background(), res.RequestID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Request.Status != model.RequestDraft {
		t.Errorf("status = %q, drafts must never auto-submit", detail.Request.Status)
	}
	if detail.Request.TeamID != "team-ops" {
		t.Errorf("team = %q, want team-ops", detail.Request.TeamID)
	}
	if len(detail.Items) != 1 || detail.Items[0].Quantity != 30 {
		t.Errorf("draft items = %+v, want one line of 30", detail.Items)
	}
}

func TestAutoDraftInfersTeamFromHistory(t *testing.T) {
	f := newFixture(t, Config{})
	f.addItem("item-1", "GLUE-01", 40, 2, 30, 0)
	f.consume(t, "item-1", 20)

	itemID := "item-1"
	if _, err := f.requestUC.CreateDraft(context.Background(), &requestdto.CreateRequestInput{
		TeamID: "team-z", RequestedBy: "riley",
		Items: []requestdto.RequestItemInput{{ItemID: &itemID, ItemName: "GLUE-01", Quantity: 5}},
	}); err != nil {
		t.Fatal(err)
	}

	results, err := f.uc.AutoDraft(context.Background(), &dto.AutoDraftOptions{WindowDays: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Error != "" {
		t.Fatalf("results = %+v, want one clean draft", results)
	}
	detail, err := f.requestUC.Get(context.Background(), results[0].RequestID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Request.TeamID != "team-z" {
		t.Errorf("team = %q, want team-z from request history", detail.Request.TeamID)
	}
}

func TestAutoDraftReportsMissingTeam(t *testing.T) {
	f := newFixture(t, Config{})
	f.addItem("item-1", "GLUE-01", 40, 2, 30, 0)
	f.consume(t, "item-1", 20)

	results, err := f.uc.AutoDraft(context.Background(), &dto.AutoDraftOptions{WindowDays: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].RequestID != "" || !strings.Contains(results[0].Error, "no target team") {
		t.Errorf("result = %+v, want a no-target-team error", results[0])
	}
}
