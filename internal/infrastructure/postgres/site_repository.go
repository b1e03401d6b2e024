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

var _ repository.SiteRepository = (*SiteRepo)(nil)

// SiteRepo implementación de SiteRepository sobre PostgreSQL (usable con pool o tx).
type SiteRepo struct {
	q Querier
}

// NewSiteRepository construye el adaptador de obras. Pasar pool o tx (Querier).
func NewSiteRepository(q Querier) *SiteRepo {
	return &SiteRepo{q: q}
}

// Create persiste una obra. El índice único parcial sobre kind='virtual'
// garantiza un único almacén virtual: la violación se mapea a ErrDuplicate
// para que el inicializador perezoso relea en vez de fallar.
func (r *SiteRepo) Create(site *entity.Site) error {
	query := `
		INSERT INTO sites (id, name, kind, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		site.ID, site.Name, site.Kind, site.Address, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

// GetByID obtiene una obra por ID (excluye las soft-deleted).
func (r *SiteRepo) GetByID(id string) (*entity.Site, error) {
	query := `
		SELECT id, name, kind, address, created_at, updated_at, deleted_at
		FROM sites WHERE id = $1 AND deleted_at IS NULL`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetVirtual obtiene la obra virtual de tránsito (nil si aún no existe).
func (r *SiteRepo) GetVirtual() (*entity.Site, error) {
	query := `
		SELECT id, name, kind, address, created_at, updated_at, deleted_at
		FROM sites WHERE kind = $1 AND deleted_at IS NULL`
	return r.scanOne(r.q.QueryRow(context.Background(), query, entity.SiteKindVirtual))
}

// List lista obras con paginación.
func (r *SiteRepo) List(limit, offset int) ([]*entity.Site, error) {
	query := `
		SELECT id, name, kind, address, created_at, updated_at, deleted_at
		FROM sites WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	var list []*entity.Site
	for rows.Next() {
		var s entity.Site
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind, &s.Address, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// SoftDelete marca la obra como eliminada (nunca borra la fila).
func (r *SiteRepo) SoftDelete(id string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE sites SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete site: %w", err)
	}
	return nil
}

func (r *SiteRepo) scanOne(row pgx.Row) (*entity.Site, error) {
	var s entity.Site
	err := row.Scan(&s.ID, &s.Name, &s.Kind, &s.Address, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &s, nil
}
