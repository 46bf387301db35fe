package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	assignrepo "github.com/incuhub/inventory-service/internal/assignment/repository"
	assignuc "github.com/incuhub/inventory-service/internal/assignment/usecase"
	consumerepo "github.com/incuhub/inventory-service/internal/consumption/repository"
	consumeuc "github.com/incuhub/inventory-service/internal/consumption/usecase"
	"github.com/incuhub/inventory-service/internal/events"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request"
	"github.com/incuhub/inventory-service/internal/request/dto"
	"github.com/incuhub/inventory-service/internal/request/repository"
	requestuc "github.com/incuhub/inventory-service/internal/request/usecase"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (*gin.Engine, request.UseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledgerrepo.NewMemoryStore()
	store.Put(&model.InventoryItem{
		ID:                "item-1",
		SKU:               "SOLDER-01",
		Name:              "Soldering iron",
		TotalQuantity:     10,
		AvailableQuantity: 10,
		Status:            model.ItemStatusAvailable,
	})

	log := zap.NewNop()
	pub := events.NopPublisher{}
	assignUC := assignuc.NewAssignmentUseCase(assignrepo.NewMemoryRepository(store), pub, log, time.Hour)
	consumeUC := consumeuc.NewConsumptionUseCase(consumerepo.NewMemoryRepository(store), pub, log)
	uc := requestuc.NewRequestUseCase(repository.NewMemoryRepository(), assignUC, consumeUC, pub, log, nil,
		[]string{"mentor", "program_manager"})

	h := NewRequestHandler(uc, log)
	r := gin.New()
	r.Use(middleware.RequireActor())
	r.POST("/requests/:id/decisions", h.Decide)
	return r, uc
}

func TestDecideAcceptsEmptyDecisionList(t *testing.T) {
	r, uc := newTestRouter(t)

	itemID := "item-1"
	detail, err := uc.CreateDraft(context.Background(), &dto.CreateRequestInput{
		TeamID: "team-a", RequestedBy: "riley",
		Items: []dto.RequestItemInput{{ItemID: &itemID, ItemName: "Soldering iron", Quantity: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	reqID := detail.Request.ID
	if _, err := uc.Submit(context.Background(), reqID, "riley"); err != nil {
		t.Fatal(err)
	}
	// Level 1 declines everything; level 2 then has nothing new to say.
	if _, err := uc.Decide(context.Background(), reqID, &dto.DecideInput{
		Level: 1, ApproverID: "m1", ApproverRole: "mentor",
		Items: []dto.ItemDecision{{RequestItemID: detail.Items[0].ID, Decline: true}},
	}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/requests/"+reqID+"/decisions",
		strings.NewReader(`{"level": 2, "note": "confirming the decline"}`))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(middleware.HeaderActorID, "p1")
	httpReq.Header.Set(middleware.HeaderActorRole, "program_manager")
	r.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Request struct {
			Status string
		} `json:"request"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Request.Status != model.RequestDeclined {
		t.Errorf("status = %q, want declined", body.Request.Status)
	}
}
