package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

var _ repository.SiteInventoryRepository = (*SiteInventoryRepo)(nil)

// SiteInventoryRepo implementación de SiteInventoryRepository sobre PostgreSQL.
// Siempre corre dentro de una transacción: el Querier inyectado es la tx.
type SiteInventoryRepo struct {
	q Querier
}

// NewSiteInventoryRepository construye el adaptador de inventario por obra.
func NewSiteInventoryRepository(q Querier) *SiteInventoryRepo {
	return &SiteInventoryRepo{q: q}
}

// Get obtiene la fila de inventario sin bloquearla (nil si no existe).
func (r *SiteInventoryRepo) Get(siteID, itemID string) (*entity.SiteInventory, error) {
	query := `
		SELECT site_id, item_id, quantity, locked_quantity, minimum_level, status, updated_at
		FROM site_inventory WHERE site_id = $1 AND item_id = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, siteID, itemID))
}

// Ensure crea la fila con saldos en cero si no existe. Una fila inexistente no
// se puede bloquear con FOR UPDATE, por eso el insert precede al lock.
func (r *SiteInventoryRepo) Ensure(siteID, itemID string) error {
	query := `
		INSERT INTO site_inventory (site_id, item_id, quantity, locked_quantity, minimum_level, status, updated_at)
		VALUES ($1, $2, 0, 0, 0, $3, now())
		ON CONFLICT (site_id, item_id) DO NOTHING`
	_, err := r.q.Exec(context.Background(), query, siteID, itemID, entity.StockStatusOutOfStock)
	if err != nil {
		return fmt.Errorf("ensure site inventory: %w", err)
	}
	return nil
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE). La fila debe
// existir; los casos de uso llaman Ensure antes.
func (r *SiteInventoryRepo) GetForUpdate(siteID, itemID string) (*entity.SiteInventory, error) {
	query := `
		SELECT site_id, item_id, quantity, locked_quantity, minimum_level, status, updated_at
		FROM site_inventory WHERE site_id = $1 AND item_id = $2 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, siteID, itemID))
}

// Upsert persiste los saldos ya mutados por el ledger.
func (r *SiteInventoryRepo) Upsert(inv *entity.SiteInventory) error {
	query := `
		INSERT INTO site_inventory (site_id, item_id, quantity, locked_quantity, minimum_level, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (site_id, item_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			locked_quantity = EXCLUDED.locked_quantity,
			minimum_level = EXCLUDED.minimum_level,
			status = EXCLUDED.status,
			updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		inv.SiteID, inv.ItemID, inv.Quantity, inv.LockedQuantity, inv.MinimumLevel, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert site inventory: %w", err)
	}
	return nil
}

// ListBySite lista los niveles de inventario de una obra.
func (r *SiteInventoryRepo) ListBySite(siteID string, limit, offset int) ([]*entity.SiteInventory, error) {
	query := `
		SELECT site_id, item_id, quantity, locked_quantity, minimum_level, status, updated_at
		FROM site_inventory WHERE site_id = $1 ORDER BY item_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list site inventory: %w", err)
	}
	defer rows.Close()
	var list []*entity.SiteInventory
	for rows.Next() {
		var inv entity.SiteInventory
		if err := rows.Scan(&inv.SiteID, &inv.ItemID, &inv.Quantity, &inv.LockedQuantity,
			&inv.MinimumLevel, &inv.Status, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan site inventory: %w", err)
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}

func (r *SiteInventoryRepo) scanOne(row pgx.Row) (*entity.SiteInventory, error) {
	var inv entity.SiteInventory
	err := row.Scan(&inv.SiteID, &inv.ItemID, &inv.Quantity, &inv.LockedQuantity,
		&inv.MinimumLevel, &inv.Status, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get site inventory: %w", err)
	}
	return &inv, nil
}
