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

var _ repository.MachineRepository = (*MachineRepo)(nil)

// MachineRepo implementación de MachineRepository sobre PostgreSQL (usable con pool o tx).
type MachineRepo struct {
	q Querier
}

// NewMachineRepository construye el adaptador de maquinaria. Pasar pool o tx (Querier).
func NewMachineRepository(q Querier) *MachineRepo {
	return &MachineRepo{q: q}
}

// Create persiste una máquina.
func (r *MachineRepo) Create(machine *entity.Machine) error {
	query := `
		INSERT INTO machines (id, code, name, site_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		machine.ID, machine.Code, machine.Name, machine.SiteID, machine.Status,
		machine.CreatedAt, machine.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert machine: %w", err)
	}
	return nil
}

// GetByID obtiene una máquina por ID.
func (r *MachineRepo) GetByID(id string) (*entity.Machine, error) {
	query := `SELECT id, code, name, site_id, status, created_at, updated_at FROM machines WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene la máquina y bloquea la fila (SELECT FOR UPDATE).
func (r *MachineRepo) GetByIDForUpdate(id string) (*entity.Machine, error) {
	query := `SELECT id, code, name, site_id, status, created_at, updated_at FROM machines WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// UpdateStatus actualiza estado y obra de la máquina (espejo del flujo de traslado).
func (r *MachineRepo) UpdateStatus(id string, status string, siteID *string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE machines SET status = $2, site_id = $3, updated_at = now() WHERE id = $1`,
		id, status, siteID,
	)
	if err != nil {
		return fmt.Errorf("update machine status: %w", err)
	}
	return nil
}

// ListBySite lista las máquinas asignadas a una obra.
func (r *MachineRepo) ListBySite(siteID string, limit, offset int) ([]*entity.Machine, error) {
	query := `
		SELECT id, code, name, site_id, status, created_at, updated_at
		FROM machines WHERE site_id = $1 ORDER BY code LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()
	var list []*entity.Machine
	for rows.Next() {
		var m entity.Machine
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.SiteID, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

func (r *MachineRepo) scanOne(row pgx.Row) (*entity.Machine, error) {
	var m entity.Machine
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.SiteID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get machine: %w", err)
	}
	return &m, nil
}
