package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request"
	"github.com/incuhub/inventory-service/internal/request/dto"
)

type MemoryRepository struct {
	mu        sync.Mutex
	requests  map[string]*model.MaterialRequest
	items     map[string][]*model.RequestItem // by request id
	approvals map[string][]model.RequestApproval
	history   map[string][]model.RequestHistory
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		requests:  map[string]*model.MaterialRequest{},
		items:     map[string][]*model.RequestItem{},
		approvals: map[string][]model.RequestApproval{},
		history:   map[string][]model.RequestHistory{},
	}
}

func (r *MemoryRepository) MaxSequence(_ context.Context, year int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := fmt.Sprintf("REQ-%d-", year)
	max := 0
	for _, req := range r.requests {
		if !strings.HasPrefix(req.RequestNumber, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(req.RequestNumber, prefix))
		if err == nil && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (r *MemoryRepository) Create(_ context.Context, req *model.MaterialRequest, items []model.RequestItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.RequestNumber == req.RequestNumber {
			return request.ErrDuplicateNumber
		}
	}
	cp := *req
	r.requests[req.ID] = &cp
	rows := make([]*model.RequestItem, 0, len(items))
	for i := range items {
		item := items[i]
		rows = append(rows, &item)
	}
	r.items[req.ID] = rows
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*model.MaterialRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: request %s", apperr.ErrNotFound, id)
	}
	cp := *req
	return &cp, nil
}

func (r *MemoryRepository) Items(_ context.Context, requestID string) ([]model.RequestItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.items[requestID]
	out := make([]model.RequestItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (r *MemoryRepository) List(_ context.Context, f *dto.RequestFilters) ([]model.MaterialRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.MaterialRequest
	for _, req := range r.requests {
		if f.TeamID != "" && req.TeamID != f.TeamID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start < 0 {
			start = 0
		}
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, req *model.MaterialRequest, fromStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[req.ID]
	if !ok {
		return fmt.Errorf("%w: request %s", apperr.ErrNotFound, req.ID)
	}
	if stored.Status != fromStatus {
		return fmt.Errorf("%w: request %s no longer %s", apperr.ErrInvalidTransition, req.ID, fromStatus)
	}
	stored.Status = req.Status
	stored.DeliveryStatus = req.DeliveryStatus
	stored.SubmittedAt = req.SubmittedAt
	stored.ReviewedAt = req.ReviewedAt
	stored.UpdatedAt = req.UpdatedAt
	return nil
}

func (r *MemoryRepository) SaveItem(_ context.Context, item *model.RequestItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.items[item.RequestID] {
		if row.ID == item.ID {
			row.ApprovedQuantity = item.ApprovedQuantity
			row.DistributedQuantity = item.DistributedQuantity
			row.Status = item.Status
			return nil
		}
	}
	return fmt.Errorf("%w: request item %s", apperr.ErrNotFound, item.ID)
}

func (r *MemoryRepository) AddApproval(_ context.Context, a *model.RequestApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals[a.RequestID] = append(r.approvals[a.RequestID], *a)
	return nil
}

func (r *MemoryRepository) Approvals(_ context.Context, requestID string) ([]model.RequestApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.RequestApproval(nil), r.approvals[requestID]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ApprovalLevel != out[j].ApprovalLevel {
			return out[i].ApprovalLevel < out[j].ApprovalLevel
		}
		return out[i].DecidedAt.Before(out[j].DecidedAt)
	})
	return out, nil
}

func (r *MemoryRepository) AddHistory(_ context.Context, h *model.RequestHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[h.RequestID] = append(r.history[h.RequestID], *h)
	return nil
}

func (r *MemoryRepository) History(_ context.Context, requestID string) ([]model.RequestHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.RequestHistory(nil), r.history[requestID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) LatestTeamForItem(_ context.Context, itemID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team := ""
	var latest *model.MaterialRequest
	for reqID, rows := range r.items {
		for _, row := range rows {
			if row.ItemID == nil || *row.ItemID != itemID {
				continue
			}
			req := r.requests[reqID]
			if req == nil {
				continue
			}
			if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
				latest = req
				team = req.TeamID
			}
		}
	}
	return team, nil
}
