package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/incuhub/inventory-service/internal/apperr"
	"github.com/incuhub/inventory-service/internal/ledger/dto"
	"github.com/incuhub/inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: item %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) GetBySKU(ctx context.Context, sku string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.DB.GetContext(ctx, &item, `SELECT * FROM inventory_items WHERE sku = $1`, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sku %s", apperr.ErrNotFound, sku)
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.InventoryItem, int, error) {
	var items []model.InventoryItem
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.SKU != "" {
		conditions = append(conditions, "sku = :sku")
		args["sku"] = f.SKU
	}
	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Consumable != nil {
		conditions = append(conditions, "is_consumable = :is_consumable")
		args["is_consumable"] = *f.Consumable
	}
	if f.LowStock {
		conditions = append(conditions, "available_quantity < min_stock_level AND min_stock_level > 0")
	}
	if f.MinStockOnly {
		conditions = append(conditions, "min_stock_level > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_items" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory_items" + whereClause + " ORDER BY sku"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	query := `
        INSERT INTO inventory_items (
            id, sku, name, barcode, category, is_consumable,
            total_quantity, available_quantity, reserved_quantity, consumed_quantity,
            min_stock_level, reorder_quantity, typical_weekly_consumption, status,
            purchase_date, warranty_until, maintenance_interval_days,
            last_maintenance, next_maintenance, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :barcode, :category, :is_consumable,
            :total_quantity, :available_quantity, :reserved_quantity, :consumed_quantity,
            :min_stock_level, :reorder_quantity, :typical_weekly_consumption, :status,
            :purchase_date, :warranty_until, :maintenance_interval_days,
            :last_maintenance, :next_maintenance, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, item)
	return err
}

func (r *PGRepository) Mutate(ctx context.Context, itemID string, apply func(*model.InventoryItem) error) (*model.InventoryItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := LockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := apply(item); err != nil {
		return nil, err
	}
	if err := SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

// LockItem reads the item row FOR UPDATE. Sibling repositories use it to
// serialize their combined operations on the item row; the row lock is
// the concurrency primitive for every quantity mutation.
func LockItem(ctx context.Context, tx *sqlx.Tx, itemID string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := tx.GetContext(ctx, &item, `SELECT * FROM inventory_items WHERE id = $1 FOR UPDATE`, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
		}
		return nil, err
	}
	return &item, nil
}

// SaveItem writes back the mutable fields of a locked item row.
func SaveItem(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error {
	query := `
        UPDATE inventory_items SET
            total_quantity = :total_quantity,
            available_quantity = :available_quantity,
            reserved_quantity = :reserved_quantity,
            consumed_quantity = :consumed_quantity,
            min_stock_level = :min_stock_level,
            reorder_quantity = :reorder_quantity,
            typical_weekly_consumption = :typical_weekly_consumption,
            status = :status,
            last_maintenance = :last_maintenance,
            next_maintenance = :next_maintenance,
            updated_at = now()
        WHERE id = :id
    `
	_, err := tx.NamedExecContext(ctx, query, item)
	return err
}

// OutstandingSums returns the active assignment and held reservation
// totals for an item, used when a maintenance hold is released.
func OutstandingSums(ctx context.Context, tx *sqlx.Tx, itemID string) (assigned int, reserved int, err error) {
	err = tx.GetContext(ctx, &assigned,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_assignments WHERE item_id = $1 AND returned_at IS NULL`, itemID)
	if err != nil {
		return 0, 0, err
	}
	err = tx.GetContext(ctx, &reserved,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory_reservations WHERE item_id = $1 AND status = $2`,
		itemID, model.ReservationHeld)
	if err != nil {
		return 0, 0, err
	}
	return assigned, reserved, nil
}
