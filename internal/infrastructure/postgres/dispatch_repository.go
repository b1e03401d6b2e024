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

var _ repository.DispatchRepository = (*DispatchRepo)(nil)

// DispatchRepo implementación de DispatchRepository sobre PostgreSQL.
type DispatchRepo struct {
	q Querier
}

// NewDispatchRepository construye el adaptador de despachos.
func NewDispatchRepository(q Querier) *DispatchRepo {
	return &DispatchRepo{q: q}
}

const dispatchColumns = `id, code, procurement_id, status, vehicle_number, driver_name, driver_phone,
	dispatched_by, dispatched_at, received_by, received_at`

// Create persiste la cabecera del despacho.
func (r *DispatchRepo) Create(d *entity.Dispatch) error {
	query := `
		INSERT INTO dispatches (` + dispatchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		d.ID, d.Code, d.ProcurementID, d.Status, d.VehicleNumber, d.DriverName, d.DriverPhone,
		d.DispatchedBy, d.DispatchedAt, d.ReceivedBy, d.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dispatch: %w", err)
	}
	return nil
}

// CreateItem persiste una línea despachada.
func (r *DispatchRepo) CreateItem(item *entity.DispatchItem) error {
	query := `INSERT INTO dispatch_items (id, dispatch_id, item_id, quantity) VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(context.Background(), query, item.ID, item.DispatchID, item.ItemID, item.Quantity)
	if err != nil {
		return fmt.Errorf("insert dispatch item: %w", err)
	}
	return nil
}

// GetByID obtiene un despacho por ID.
func (r *DispatchRepo) GetByID(id string) (*entity.Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene el despacho y bloquea la fila.
func (r *DispatchRepo) GetByIDForUpdate(id string) (*entity.Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetItems obtiene las líneas de un despacho.
func (r *DispatchRepo) GetItems(dispatchID string) ([]*entity.DispatchItem, error) {
	query := `SELECT id, dispatch_id, item_id, quantity FROM dispatch_items WHERE dispatch_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, dispatchID)
	if err != nil {
		return nil, fmt.Errorf("list dispatch items: %w", err)
	}
	defer rows.Close()
	var list []*entity.DispatchItem
	for rows.Next() {
		var it entity.DispatchItem
		if err := rows.Scan(&it.ID, &it.DispatchID, &it.ItemID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan dispatch item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateIf compare-and-swap del despacho; cero filas -> domain.ErrConflict.
func (r *DispatchRepo) UpdateIf(d *entity.Dispatch, expectedStatus string) error {
	query := `
		UPDATE dispatches SET status = $2, received_by = $3, received_at = $4
		WHERE id = $1 AND status = $5`
	cmd, err := r.q.Exec(context.Background(), query,
		d.ID, d.Status, d.ReceivedBy, d.ReceivedAt, expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update dispatch: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListByProcurement lista los despachos de una compra.
func (r *DispatchRepo) ListByProcurement(procurementID string) ([]*entity.Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE procurement_id = $1 ORDER BY dispatched_at`
	rows, err := r.q.Query(context.Background(), query, procurementID)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()
	var list []*entity.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// NextCode reserva el siguiente consecutivo del código DSP-.
func (r *DispatchRepo) NextCode() (int64, error) {
	var n int64
	err := r.q.QueryRow(context.Background(), `SELECT nextval('dispatch_code_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next dispatch code: %w", err)
	}
	return n, nil
}

func (r *DispatchRepo) scanOne(row pgx.Row) (*entity.Dispatch, error) {
	d, err := scanDispatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dispatch: %w", err)
	}
	return d, nil
}

func scanDispatch(row pgx.Row) (*entity.Dispatch, error) {
	var d entity.Dispatch
	err := row.Scan(
		&d.ID, &d.Code, &d.ProcurementID, &d.Status, &d.VehicleNumber, &d.DriverName, &d.DriverPhone,
		&d.DispatchedBy, &d.DispatchedAt, &d.ReceivedBy, &d.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
