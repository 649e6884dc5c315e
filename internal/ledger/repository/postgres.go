package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

// AuditPGRepository persists one stock_movements row per committed ledger
// mutation.
type AuditPGRepository struct {
	DB *sqlx.DB
}

var _ ledger.AuditRepository = (*AuditPGRepository)(nil)

func NewAuditPGRepository(db *sqlx.DB) *AuditPGRepository {
	return &AuditPGRepository{DB: db}
}

func (r *AuditPGRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, product_id, product_name, movement_type,
            quantity_change, quantity_after, actor, notes, created_at
        )
        VALUES (
            :id, :product_id, :product_name, :movement_type,
            :quantity_change, :quantity_after, :actor, :notes, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, m)
	return err
}

func (r *AuditPGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductName != "" {
		conditions = append(conditions, "product_name = :product_name")
		args["product_name"] = f.ProductName
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.Actor != "" {
		conditions = append(conditions, "actor = :actor")
		args["actor"] = f.Actor
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * f.PageSize
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
