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

var _ repository.MachineTransferRepository = (*MachineTransferRepo)(nil)

// MachineTransferRepo implementación de MachineTransferRepository sobre PostgreSQL.
type MachineTransferRepo struct {
	q Querier
}

// NewMachineTransferRepository construye el adaptador de traslados de maquinaria.
func NewMachineTransferRepository(q Querier) *MachineTransferRepo {
	return &MachineTransferRepo{q: q}
}

const transferColumns = `id, code, machine_id, current_site_id, destination_site_id, request_type, status,
	requested_by, requested_at, approved_by, approved_at, dispatched_by, dispatched_at,
	received_by, received_at, rejected_by, rejected_at, created_at, updated_at`

// Create persiste la solicitud de traslado.
func (r *MachineTransferRepo) Create(t *entity.MachineTransfer) error {
	query := `
		INSERT INTO machine_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.Code, t.MachineID, t.CurrentSiteID, t.DestinationSiteID, t.RequestType, t.Status,
		t.RequestedBy, t.RequestedAt, t.ApprovedBy, t.ApprovedAt,
		t.DispatchedBy, t.DispatchedAt, t.ReceivedBy, t.ReceivedAt,
		t.RejectedBy, t.RejectedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert machine transfer: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado por ID.
func (r *MachineTransferRepo) GetByID(id string) (*entity.MachineTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM machine_transfers WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene el traslado y bloquea la fila.
func (r *MachineTransferRepo) GetByIDForUpdate(id string) (*entity.MachineTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM machine_transfers WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// UpdateIf compare-and-swap de la cabecera; cero filas -> domain.ErrConflict.
func (r *MachineTransferRepo) UpdateIf(t *entity.MachineTransfer, expectedStatus string) error {
	query := `
		UPDATE machine_transfers SET
			status = $2,
			approved_by = $3, approved_at = $4,
			dispatched_by = $5, dispatched_at = $6,
			received_by = $7, received_at = $8,
			rejected_by = $9, rejected_at = $10,
			updated_at = now()
		WHERE id = $1 AND status = $11`
	cmd, err := r.q.Exec(context.Background(), query,
		t.ID, t.Status,
		t.ApprovedBy, t.ApprovedAt,
		t.DispatchedBy, t.DispatchedAt,
		t.ReceivedBy, t.ReceivedAt,
		t.RejectedBy, t.RejectedAt,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update machine transfer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListBySite lista traslados con origen o destino en la obra.
func (r *MachineTransferRepo) ListBySite(siteID string, limit, offset int) ([]*entity.MachineTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM machine_transfers
		WHERE current_site_id = $1 OR destination_site_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list machine transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.MachineTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// NextCode reserva el siguiente consecutivo del código MT-.
func (r *MachineTransferRepo) NextCode() (int64, error) {
	var n int64
	err := r.q.QueryRow(context.Background(), `SELECT nextval('machine_transfer_code_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next transfer code: %w", err)
	}
	return n, nil
}

func (r *MachineTransferRepo) scanOne(row pgx.Row) (*entity.MachineTransfer, error) {
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get machine transfer: %w", err)
	}
	return t, nil
}

func scanTransfer(row pgx.Row) (*entity.MachineTransfer, error) {
	var t entity.MachineTransfer
	err := row.Scan(
		&t.ID, &t.Code, &t.MachineID, &t.CurrentSiteID, &t.DestinationSiteID, &t.RequestType, &t.Status,
		&t.RequestedBy, &t.RequestedAt, &t.ApprovedBy, &t.ApprovedAt,
		&t.DispatchedBy, &t.DispatchedAt, &t.ReceivedBy, &t.ReceivedAt,
		&t.RejectedBy, &t.RejectedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
