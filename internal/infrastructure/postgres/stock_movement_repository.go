package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del log de movimientos sobre PostgreSQL.
// La tabla es append-only: este adaptador solo inserta y lee.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del log de movimientos.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta una entrada inmutable del log.
func (r *StockMovementRepo) Append(entry *entity.StockMovementLogEntry) error {
	query := `
		INSERT INTO stock_movements (id, site_id, item_id, change, direction, source_type, source_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.SiteID, entry.ItemID, entry.Change, entry.Direction,
		entry.SourceType, entry.SourceID, entry.CreatedBy, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// ListBySite lista los movimientos de una obra, más recientes primero.
func (r *StockMovementRepo) ListBySite(siteID string, limit, offset int) ([]*entity.StockMovementLogEntry, error) {
	query := `
		SELECT id, site_id, item_id, change, direction, source_type, source_id, created_by, created_at
		FROM stock_movements WHERE site_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(query, siteID, limit, offset)
}

// ListBySiteItem lista los movimientos de un ítem en una obra.
func (r *StockMovementRepo) ListBySiteItem(siteID, itemID string, limit, offset int) ([]*entity.StockMovementLogEntry, error) {
	query := `
		SELECT id, site_id, item_id, change, direction, source_type, source_id, created_by, created_at
		FROM stock_movements WHERE site_id = $1 AND item_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.list(query, siteID, itemID, limit, offset)
}

// SumChanges suma los deltas históricos de (obra, ítem). Por construcción el
// resultado reproduce la Quantity actual de la fila de inventario.
func (r *StockMovementRepo) SumChanges(siteID, itemID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(change), 0) FROM stock_movements WHERE site_id = $1 AND item_id = $2`,
		siteID, itemID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum stock movements: %w", err)
	}
	return sum, nil
}

func (r *StockMovementRepo) list(query string, args ...interface{}) ([]*entity.StockMovementLogEntry, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovementLogEntry
	for rows.Next() {
		var e entity.StockMovementLogEntry
		if err := rows.Scan(&e.ID, &e.SiteID, &e.ItemID, &e.Change, &e.Direction,
			&e.SourceType, &e.SourceID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
