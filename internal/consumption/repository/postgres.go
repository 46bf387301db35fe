package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/incuhub/inventory-service/internal/consumption/dto"
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

func (r *PGRepository) Create(ctx context.Context, log *model.ConsumptionLog) (*model.InventoryItem, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := ledgerrepo.LockItem(ctx, tx, log.ItemID)
	if err != nil {
		return nil, err
	}
	if err := ledger.ApplyConsume(item, log.Quantity); err != nil {
		return nil, err
	}

	query := `
        INSERT INTO consumption_logs (id, item_id, team_id, quantity, distributed_by, consumed_at)
        VALUES (:id, :item_id, :team_id, :quantity, :distributed_by, :consumed_at)
    `
	if _, err := tx.NamedExecContext(ctx, query, log); err != nil {
		return nil, fmt.Errorf("failed to insert consumption log: %w", err)
	}
	if err := ledgerrepo.SaveItem(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.LogFilters) ([]model.ConsumptionLog, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ItemID != "" {
		conditions = append(conditions, "item_id = :item_id")
		args["item_id"] = f.ItemID
	}
	if f.TeamID != "" {
		conditions = append(conditions, "team_id = :team_id")
		args["team_id"] = f.TeamID
	}
	if f.Since != nil {
		conditions = append(conditions, "consumed_at >= :since")
		args["since"] = *f.Since
	}
	if f.Until != nil {
		conditions = append(conditions, "consumed_at < :until")
		args["until"] = *f.Until
	}

	query := "SELECT * FROM consumption_logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY consumed_at DESC"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	var out []model.ConsumptionLog
	err = nstmt.SelectContext(ctx, &out, args)
	return out, err
}

func (r *PGRepository) SumSince(ctx context.Context, itemID string, since time.Time) (int, error) {
	var sum int
	err := r.DB.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(quantity), 0) FROM consumption_logs WHERE item_id = $1 AND consumed_at >= $2`,
		itemID, since)
	return sum, err
}
