package repository

import (
	"context"
	"time"

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

func (r *PGRepository) PlaceHold(ctx context.Context, itemID string) (*model.InventoryItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ApplyHold(item); err != nil {
		return nil, err
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PGRepository) Complete(ctx context.Context, itemID string, performedAt time.Time) (*model.InventoryItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	assigned, reserved, err := ledgerrepo.OutstandingSums(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ApplyReleaseHold(item, assigned, reserved); err != nil {
		return nil, err
	}

	item.LastMaintenance = &performedAt
	if item.MaintenanceInterval > 0 {
		next := performedAt.AddDate(0, 0, item.MaintenanceInterval)
		item.NextMaintenance = &next
	} else {
		item.NextMaintenance = nil
	}

	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PGRepository) Due(ctx context.Context, now time.Time) ([]model.InventoryItem, error) {
	var out []model.InventoryItem
	err := r.DB.SelectContext(ctx, &out,
		`SELECT * FROM inventory_items WHERE next_maintenance IS NOT NULL AND next_maintenance <= $1 ORDER BY next_maintenance`,
		now)
	return out, err
}
