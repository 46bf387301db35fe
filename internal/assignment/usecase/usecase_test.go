package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/assignment"
	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/assignment/repository"
	"github.com/incuhub/inventory-service/internal/events"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
	"go.uber.org/zap"
)

func newTestUseCase(t *testing.T, total int) (assignment.UseCase, *ledgerrepo.MemoryStore) {
	t.Helper()
	store := ledgerrepo.NewMemoryStore()
	store.Put(&model.InventoryItem{
		ID:                "item-1",
		SKU:               "MULTIMETER-01",
		Name:              "Multimeter",
		TotalQuantity:     total,
		AvailableQuantity: total,
		Status:            model.ItemStatusAvailable,
	})
	repo := repository.NewMemoryRepository(store)
	return NewAssignmentUseCase(repo, events.NopPublisher{}, zap.NewNop(), time.Hour), store
}

func TestAssignConcurrentBoundedByStock(t *testing.T) {
	const (
		total   = 10
		perCall = 3
		callers = 10
	)
	uc, store := newTestUseCase(t, total)

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Assign(context.Background(), &dto.AssignInput{
				ItemID: "item-1", TeamID: "team-a", Quantity: perCall, Actor: "alex",
			})
			if err == nil {
				succeeded <- struct{}{}
			} else if !errors.Is(err, apperr.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := len(succeeded)
	if want := total / perCall; wins != want {
		t.Errorf("%d assigns succeeded, want %d", wins, want)
	}
	item, err := store.Get("item-1")
	if err != nil {
		t.Fatal(err)
	}
	if want := total - wins*perCall; item.AvailableQuantity != want {
		t.Errorf("available = %d, want %d", item.AvailableQuantity, want)
	}
}

func TestSameTeamMayAssignTwice(t *testing.T) {
	uc, _ := newTestUseCase(t, 10)
	for i := 0; i < 2; i++ {
		if _, err := uc.Assign(context.Background(), &dto.AssignInput{
			ItemID: "item-1", TeamID: "team-a", Quantity: 2, Actor: "alex",
		}); err != nil {
			t.Fatalf("assign #%d failed: %v", i+1, err)
		}
	}
	rows, err := uc.ListAssignments(context.Background(), &dto.AssignmentFilters{TeamID: "team-a", ActiveOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("active assignments = %d, want 2", len(rows))
	}
}

func TestReturnIsIdempotentGuarded(t *testing.T) {
	uc, store := newTestUseCase(t, 5)
	a, err := uc.Assign(context.Background(), &dto.AssignInput{
		ItemID: "item-1", TeamID: "team-a", Quantity: 5, Actor: "alex",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := uc.Return(context.Background(), a.ID); err != nil {
		t.Fatalf("first return failed: %v", err)
	}
	if _, err := uc.Return(context.Background(), a.ID); !errors.Is(err, apperr.ErrAlreadyReturned) {
		t.Errorf("second return error = %v, want ErrAlreadyReturned", err)
	}

	item, err := store.Get("item-1")
	if err != nil {
		t.Fatal(err)
	}
	if item.AvailableQuantity != 5 {
		t.Errorf("available = %d after single credit, want 5", item.AvailableQuantity)
	}
}

func TestReserveCancelRoundTrip(t *testing.T) {
	uc, store := newTestUseCase(t, 8)
	rv, err := uc.Reserve(context.Background(), &dto.ReserveInput{
		ItemID: "item-1", TeamID: "team-b", Quantity: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	item, _ := store.Get("item-1")
	if item.AvailableQuantity != 5 || item.ReservedQuantity != 3 {
		t.Fatalf("after reserve: available=%d reserved=%d, want 5/3", item.AvailableQuantity, item.ReservedQuantity)
	}

	if err := uc.Cancel(context.Background(), rv.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	item, _ = store.Get("item-1")
	if item.AvailableQuantity != 8 || item.ReservedQuantity != 0 {
		t.Errorf("after cancel: available=%d reserved=%d, want 8/0", item.AvailableQuantity, item.ReservedQuantity)
	}

	if err := uc.Cancel(context.Background(), rv.ID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("double cancel error = %v, want ErrInvalidTransition", err)
	}
}

func TestConfirmTurnsReservationIntoAssignment(t *testing.T) {
	uc, store := newTestUseCase(t, 8)
	rv, err := uc.Reserve(context.Background(), &dto.ReserveInput{
		ItemID: "item-1", TeamID: "team-b", Quantity: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	a, err := uc.Confirm(context.Background(), rv.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if a.Quantity != 3 || a.TeamID != "team-b" {
		t.Errorf("assignment = %+v, want qty 3 for team-b", a)
	}

	// Confirm moves the hold, it must not debit a second time.
	item, _ := store.Get("item-1")
	if item.AvailableQuantity != 5 || item.ReservedQuantity != 0 {
		t.Errorf("after confirm: available=%d reserved=%d, want 5/0", item.AvailableQuantity, item.ReservedQuantity)
	}

	if _, err := uc.Confirm(context.Background(), rv.ID); !errors.Is(err, apperr.ErrDuplicateAssignment) {
		t.Errorf("double confirm error = %v, want ErrDuplicateAssignment", err)
	}
}

func TestExpireDueReleasesOnlyHeld(t *testing.T) {
	uc, store := newTestUseCase(t, 10)

	expired, err := uc.Reserve(context.Background(), &dto.ReserveInput{
		ItemID: "item-1", TeamID: "team-a", Quantity: 2, TTL: time.Nanosecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	confirmed, err := uc.Reserve(context.Background(), &dto.ReserveInput{
		ItemID: "item-1", TeamID: "team-b", Quantity: 3, TTL: time.Nanosecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Confirm(context.Background(), confirmed.ID); err != nil {
		t.Fatal(err)
	}

	time.Sleep(time.Millisecond)
	released, err := uc.ExpireDue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if released != 1 {
		t.Errorf("released = %d, want 1 (confirm wins over sweep)", released)
	}

	// Expired holds cannot be confirmed afterwards.
	if _, err := uc.Confirm(context.Background(), expired.ID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("confirm of expired error = %v, want ErrInvalidTransition", err)
	}

	item, _ := store.Get("item-1")
	// 10 - 3 confirmed; the expired 2 came back.
	if item.AvailableQuantity != 7 || item.ReservedQuantity != 0 {
		t.Errorf("available=%d reserved=%d, want 7/0", item.AvailableQuantity, item.ReservedQuantity)
	}
}
