package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

var _ repository.ProcurementRepository = (*ProcurementRepo)(nil)

// ProcurementRepo implementación de ProcurementRepository sobre PostgreSQL.
type ProcurementRepo struct {
	q Querier
}

// NewProcurementRepository construye el adaptador de compras.
func NewProcurementRepository(q Querier) *ProcurementRepo {
	return &ProcurementRepo{q: q}
}

const procurementColumns = `id, code, requisition_id, vendor_id, requesting_site_id, status, total,
	created_by, created_at, ordered_by, ordered_at, accepted_by, accepted_at,
	transit_by, transit_at, delivered_at, paid_at, updated_at`

// Create persiste la cabecera de la compra.
func (r *ProcurementRepo) Create(p *entity.Procurement) error {
	query := `
		INSERT INTO procurements (` + procurementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.Code, p.RequisitionID, p.VendorID, p.RequestingSiteID, p.Status, p.Total,
		p.CreatedBy, p.CreatedAt, p.OrderedBy, p.OrderedAt, p.AcceptedBy, p.AcceptedAt,
		p.TransitBy, p.TransitAt, p.DeliveredAt, p.PaidAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert procurement: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de compra.
func (r *ProcurementRepo) CreateItem(item *entity.ProcurementItem) error {
	query := `
		INSERT INTO procurement_items (id, procurement_id, item_id, quantity, rate, amount, received_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.ProcurementID, item.ItemID, item.Quantity, item.Rate, item.Amount, item.ReceivedQuantity,
	)
	if err != nil {
		return fmt.Errorf("insert procurement item: %w", err)
	}
	return nil
}

// GetByID obtiene la compra por ID.
func (r *ProcurementRepo) GetByID(id string) (*entity.Procurement, error) {
	query := `SELECT ` + procurementColumns + ` FROM procurements WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene la compra y bloquea la fila.
func (r *ProcurementRepo) GetByIDForUpdate(id string) (*entity.Procurement, error) {
	query := `SELECT ` + procurementColumns + ` FROM procurements WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetItems obtiene las líneas de una compra.
func (r *ProcurementRepo) GetItems(procurementID string) ([]*entity.ProcurementItem, error) {
	query := `
		SELECT id, procurement_id, item_id, quantity, rate, amount, received_quantity
		FROM procurement_items WHERE procurement_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, procurementID)
	if err != nil {
		return nil, fmt.Errorf("list procurement items: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProcurementItem
	for rows.Next() {
		var it entity.ProcurementItem
		if err := rows.Scan(&it.ID, &it.ProcurementID, &it.ItemID, &it.Quantity,
			&it.Rate, &it.Amount, &it.ReceivedQuantity); err != nil {
			return nil, fmt.Errorf("scan procurement item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// GetItemForUpdate obtiene una línea y bloquea su fila (conciliación de facturas).
func (r *ProcurementRepo) GetItemForUpdate(id string) (*entity.ProcurementItem, error) {
	query := `
		SELECT id, procurement_id, item_id, quantity, rate, amount, received_quantity
		FROM procurement_items WHERE id = $1 FOR UPDATE`
	var it entity.ProcurementItem
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&it.ID, &it.ProcurementID, &it.ItemID, &it.Quantity, &it.Rate, &it.Amount, &it.ReceivedQuantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get procurement item: %w", err)
	}
	return &it, nil
}

// UpdateIf compare-and-swap de la cabecera; cero filas -> domain.ErrConflict.
func (r *ProcurementRepo) UpdateIf(p *entity.Procurement, expectedStatus string) error {
	query := `
		UPDATE procurements SET
			status = $2, total = $3,
			ordered_by = $4, ordered_at = $5,
			accepted_by = $6, accepted_at = $7,
			transit_by = $8, transit_at = $9,
			delivered_at = $10, paid_at = $11,
			updated_at = now()
		WHERE id = $1 AND status = $12`
	cmd, err := r.q.Exec(context.Background(), query,
		p.ID, p.Status, p.Total,
		p.OrderedBy, p.OrderedAt,
		p.AcceptedBy, p.AcceptedAt,
		p.TransitBy, p.TransitAt,
		p.DeliveredAt, p.PaidAt,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update procurement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// UpdateItemReceived persiste el acumulado conciliado de la línea.
func (r *ProcurementRepo) UpdateItemReceived(item *entity.ProcurementItem) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE procurement_items SET received_quantity = $2 WHERE id = $1`,
		item.ID, item.ReceivedQuantity,
	)
	if err != nil {
		return fmt.Errorf("update procurement item received: %w", err)
	}
	return nil
}

// ListBySite lista compras solicitadas por una obra.
func (r *ProcurementRepo) ListBySite(siteID string, limit, offset int) ([]*entity.Procurement, error) {
	query := `SELECT ` + procurementColumns + ` FROM procurements
		WHERE requesting_site_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list procurements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Procurement
	for rows.Next() {
		p, err := scanProcurement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete borra cabecera y líneas. El flujo revierte antes los asientos del ledger.
func (r *ProcurementRepo) Delete(id string) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM procurement_items WHERE procurement_id = $1`, id); err != nil {
		return fmt.Errorf("delete procurement items: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM procurements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete procurement: %w", err)
	}
	return nil
}

// NextCode reserva el siguiente consecutivo del código PO-.
func (r *ProcurementRepo) NextCode() (int64, error) {
	var n int64
	err := r.q.QueryRow(context.Background(), `SELECT nextval('procurement_code_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next procurement code: %w", err)
	}
	return n, nil
}

func (r *ProcurementRepo) scanOne(row pgx.Row) (*entity.Procurement, error) {
	p, err := scanProcurement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get procurement: %w", err)
	}
	return p, nil
}

func scanProcurement(row pgx.Row) (*entity.Procurement, error) {
	var p entity.Procurement
	err := row.Scan(
		&p.ID, &p.Code, &p.RequisitionID, &p.VendorID, &p.RequestingSiteID, &p.Status, &p.Total,
		&p.CreatedBy, &p.CreatedAt, &p.OrderedBy, &p.OrderedAt, &p.AcceptedBy, &p.AcceptedAt,
		&p.TransitBy, &p.TransitAt, &p.DeliveredAt, &p.PaidAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
