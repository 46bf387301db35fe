package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/incuhub/inventory-service/internal/request"
	"github.com/incuhub/inventory-service/internal/request/dto"
	"github.com/jackc/pgx"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) MaxSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("REQ-%d-", year)
	var latest string
	err := r.DB.GetContext(ctx, &latest,
		`SELECT request_number FROM material_requests WHERE request_number LIKE $1 ORDER BY request_number DESC LIMIT 1`,
		prefix+"%")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil {
		return 0, fmt.Errorf("malformed request number %q: %w", latest, err)
	}
	return seq, nil
}

func (r *PGRepository) Create(ctx context.Context, req *model.MaterialRequest, items []model.RequestItem) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO material_requests (
            id, request_number, team_id, requested_by, priority, purpose,
            is_consumable_request, requires_quick_approval, status, delivery_status,
            created_at, submitted_at, reviewed_at, updated_at
        )
        VALUES (
            :id, :request_number, :team_id, :requested_by, :priority, :purpose,
            :is_consumable_request, :requires_quick_approval, :status, :delivery_status,
            :created_at, :submitted_at, :reviewed_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
		if isUniqueViolation(err) {
			return request.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to insert request: %w", err)
	}

	itemQuery := `
        INSERT INTO request_items (id, request_id, item_id, item_name, quantity, approved_quantity, distributed_quantity, status)
        VALUES (:id, :request_id, :item_id, :item_name, :quantity, :approved_quantity, :distributed_quantity, :status)
    `
	for i := range items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, &items[i]); err != nil {
			return fmt.Errorf("failed to insert request item: %w", err)
		}
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is SQLSTATE 23505, the
// unique_violation raised by the request_number index.
func isUniqueViolation(err error) bool {
	var pgErr pgx.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PGRepository) Get(ctx context.Context, id string) (*model.MaterialRequest, error) {
	var req model.MaterialRequest
	err := r.DB.GetContext(ctx, &req, `SELECT * FROM material_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: request %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &req, nil
}

func (r *PGRepository) Items(ctx context.Context, requestID string) ([]model.RequestItem, error) {
	var out []model.RequestItem
	err := r.DB.SelectContext(ctx, &out,
		`SELECT * FROM request_items WHERE request_id = $1 ORDER BY item_name`, requestID)
	return out, err
}

func (r *PGRepository) List(ctx context.Context, f *dto.RequestFilters) ([]model.MaterialRequest, int, error) {
	var out []model.MaterialRequest
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.TeamID != "" {
		conditions = append(conditions, "team_id = :team_id")
		args["team_id"] = f.TeamID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM material_requests" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM material_requests" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &out, args)
	return out, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, req *model.MaterialRequest, fromStatus string) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE material_requests SET
            status = $1, delivery_status = $2, submitted_at = $3, reviewed_at = $4, updated_at = now()
        WHERE id = $5 AND status = $6
    `, req.Status, req.DeliveryStatus, req.SubmittedAt, req.ReviewedAt, req.ID, fromStatus)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %s no longer %s", apperr.ErrInvalidTransition, req.ID, fromStatus)
	}
	return nil
}

func (r *PGRepository) SaveItem(ctx context.Context, item *model.RequestItem) error {
	_, err := r.DB.NamedExecContext(ctx, `
        UPDATE request_items SET
            approved_quantity = :approved_quantity,
            distributed_quantity = :distributed_quantity,
            status = :status
        WHERE id = :id
    `, item)
	return err
}

func (r *PGRepository) AddApproval(ctx context.Context, a *model.RequestApproval) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO request_approvals (id, request_id, approval_level, approver_id, approver_role, decision, note, decided_at)
        VALUES (:id, :request_id, :approval_level, :approver_id, :approver_role, :decision, :note, :decided_at)
    `, a)
	return err
}

func (r *PGRepository) Approvals(ctx context.Context, requestID string) ([]model.RequestApproval, error) {
	var out []model.RequestApproval
	err := r.DB.SelectContext(ctx, &out,
		`SELECT * FROM request_approvals WHERE request_id = $1 ORDER BY approval_level, decided_at`, requestID)
	return out, err
}

func (r *PGRepository) AddHistory(ctx context.Context, h *model.RequestHistory) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO request_history (id, request_id, field, old_value, new_value, actor_id, note, created_at)
        VALUES (:id, :request_id, :field, :old_value, :new_value, :actor_id, :note, :created_at)
    `, h)
	return err
}

func (r *PGRepository) History(ctx context.Context, requestID string) ([]model.RequestHistory, error) {
	var out []model.RequestHistory
	err := r.DB.SelectContext(ctx, &out,
		`SELECT * FROM request_history WHERE request_id = $1 ORDER BY created_at`, requestID)
	return out, err
}

func (r *PGRepository) LatestTeamForItem(ctx context.Context, itemID string) (string, error) {
	var teamID string
	err := r.DB.GetContext(ctx, &teamID, `
        SELECT mr.team_id FROM material_requests mr
        JOIN request_items ri ON ri.request_id = mr.id
        WHERE ri.item_id = $1
        ORDER BY mr.created_at DESC
        LIMIT 1
    `, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return teamID, nil
}
