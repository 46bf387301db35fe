package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"github.com/incuhub/inventory-service/internal/ledger"
	ledgerrepo "github.com/incuhub/inventory-service/internal/ledger/repository"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateAssignment(ctx context.Context, a *model.InventoryAssignment) (*model.InventoryItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, a.ItemID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ApplyAssign(item, a.Quantity); err != nil {
		return nil, err
	}

	query := `
        INSERT INTO inventory_assignments (id, item_id, team_id, quantity, assigned_by, assigned_at, returned_at)
        VALUES (:id, :item_id, :team_id, :quantity, :assigned_by, :assigned_at, :returned_at)
    `
	if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PGRepository) GetAssignment(ctx context.Context, id string) (*model.InventoryAssignment, error) {
	var a model.InventoryAssignment
	err := r.DB.GetContext(ctx, &a, `SELECT * FROM inventory_assignments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: assignment %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) ReturnAssignment(ctx context.Context, id string, now time.Time) (*model.InventoryAssignment, *model.InventoryItem, error) {
	a, err := r.GetAssignment(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Item row first, then the assignment row: same lock order as every
	// other operation, so concurrent returns serialize on the item.
	item, err := ledgerrepo.LockItem(ctx, tx, a.ItemID)
	if err != nil {
		return nil, nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory_assignments SET returned_at = $1 WHERE id = $2 AND returned_at IS NULL`, now, id)
	if err != nil {
		return nil, nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if affected == 0 {
		return nil, nil, fmt.Errorf("%w: assignment %s", apperr.ErrAlreadyReturned, id)
	}

	if err := ledger.ApplyReleaseAssignment(item, a.Quantity); err != nil {
		return nil, nil, err
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	a.ReturnedAt = &now
	return a, item, nil
}

func (r *PGRepository) ListAssignments(ctx context.Context, f *dto.AssignmentFilters) ([]model.InventoryAssignment, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.TeamID != "" {
		conditions = append(conditions, "team_id = :team_id")
		args["team_id"] = f.TeamID
	}
	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.ActiveOnly {
		conditions = append(conditions, "returned_at IS NULL")
	}

	query := "SELECT * FROM inventory_assignments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY assigned_at DESC"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	var out []model.InventoryAssignment
	err = nstmt.SelectContext(ctx, &out, args)
	return out, err
}

func (r *PGRepository) CreateReservation(ctx context.Context, rv *model.InventoryReservation) (*model.InventoryItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, rv.ItemID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ApplyReserve(item, rv.Quantity); err != nil {
		return nil, err
	}

	query := `
        INSERT INTO inventory_reservations (id, item_id, team_id, quantity, request_id, status, expires_at, created_at, resolved_at)
        VALUES (:id, :item_id, :team_id, :quantity, :request_id, :status, :expires_at, :created_at, :resolved_at)
    `
	if _, err := tx.NamedExecContext(ctx, query, rv); err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PGRepository) GetReservation(ctx context.Context, id string) (*model.InventoryReservation, error) {
	var rv model.InventoryReservation
	err := r.DB.GetContext(ctx, &rv, `SELECT * FROM inventory_reservations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reservation %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &rv, nil
}

func (r *PGRepository) ConfirmReservation(ctx context.Context, reservationID string, a *model.InventoryAssignment, now time.Time) (*model.InventoryItem, error) {
	rv, err := r.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, rv.ItemID)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory_reservations SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4`,
		model.ReservationConfirmed, now, reservationID, model.ReservationHeld)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Someone else resolved the hold first; report what happened.
		cur, err := r.reservationStatusTx(ctx, tx, reservationID)
		if err != nil {
			return nil, err
		}
		if cur == model.ReservationConfirmed {
			return nil, fmt.Errorf("%w: reservation %s already confirmed", apperr.ErrDuplicateAssignment, reservationID)
		}
		return nil, fmt.Errorf("%w: reservation %s is %s", apperr.ErrInvalidTransition, reservationID, cur)
	}

	if err := ledger.ApplyConfirmReservation(item, rv.Quantity); err != nil {
		return nil, err
	}

	query := `
        INSERT INTO inventory_assignments (id, item_id, team_id, quantity, assigned_by, assigned_at, returned_at)
        VALUES (:id, :item_id, :team_id, :quantity, :assigned_by, :assigned_at, :returned_at)
    `
	if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PGRepository) reservationStatusTx(ctx context.Context, tx *sqlx.Tx, id string) (string, error) {
	var status string
	err := tx.GetContext(ctx, &status, `SELECT status FROM inventory_reservations WHERE id = $1`, id)
	return status, err
}

func (r *PGRepository) ReleaseReservation(ctx context.Context, reservationID, toStatus string, now time.Time) (bool, error) {
	rv, err := r.GetReservation(ctx, reservationID)
	if err != nil {
		return false, err
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, rv.ItemID)
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory_reservations SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4`,
		toStatus, now, reservationID, model.ReservationHeld)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Confirm (or an earlier sweep) won; nothing to release.
		return false, nil
	}

	if err := ledger.ApplyReleaseReservation(item, rv.Quantity); err != nil {
		return false, err
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepository) DueReservations(ctx context.Context, now time.Time) ([]model.InventoryReservation, error) {
	var out []model.InventoryReservation
	err := r.DB.SelectContext(ctx, &out,
		`SELECT * FROM inventory_reservations WHERE status = $1 AND expires_at <= $2 ORDER BY expires_at`,
		model.ReservationHeld, now)
	return out, err
}

func (r *PGRepository) ListReservations(ctx context.Context, f *dto.ReservationFilters) ([]model.InventoryReservation, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.TeamID != "" {
		conditions = append(conditions, "team_id = :team_id")
		args["team_id"] = f.TeamID
	}
	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	query := "SELECT * FROM inventory_reservations"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	var out []model.InventoryReservation
	err = nstmt.SelectContext(ctx, &out, args)
	return out, err
}
