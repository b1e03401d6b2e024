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

var _ repository.MaterialIssueRepository = (*MaterialIssueRepo)(nil)

// MaterialIssueRepo implementación de MaterialIssueRepository sobre PostgreSQL.
type MaterialIssueRepo struct {
	q Querier
}

// NewMaterialIssueRepository construye el adaptador de salidas de material.
func NewMaterialIssueRepository(q Querier) *MaterialIssueRepo {
	return &MaterialIssueRepo{q: q}
}

const issueColumns = `id, code, issue_type, status, site_id, destination_site_id, requisition_id,
	requested_by, requested_at, approved_by, approved_at, dispatched_by, dispatched_at,
	received_by, received_at, rejected_by, rejected_at, created_at, updated_at`

// Create persiste la cabecera de la salida.
func (r *MaterialIssueRepo) Create(issue *entity.MaterialIssue) error {
	query := `
		INSERT INTO material_issues (` + issueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(context.Background(), query,
		issue.ID, issue.Code, issue.IssueType, issue.Status, issue.SiteID,
		issue.DestinationSiteID, issue.RequisitionID,
		issue.RequestedBy, issue.RequestedAt, issue.ApprovedBy, issue.ApprovedAt,
		issue.DispatchedBy, issue.DispatchedAt, issue.ReceivedBy, issue.ReceivedAt,
		issue.RejectedBy, issue.RejectedAt, issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert material issue: %w", err)
	}
	return nil
}

// CreateItem persiste una línea de la salida.
func (r *MaterialIssueRepo) CreateItem(item *entity.MaterialIssueItem) error {
	query := `
		INSERT INTO material_issue_items (id, issue_id, item_id, quantity, source_site_id, destination_site_id, machine_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.IssueID, item.ItemID, item.Quantity,
		item.SourceSiteID, item.DestinationSiteID, item.MachineID,
	)
	if err != nil {
		return fmt.Errorf("insert material issue item: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera por ID.
func (r *MaterialIssueRepo) GetByID(id string) (*entity.MaterialIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM material_issues WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByIDForUpdate obtiene la cabecera y bloquea la fila.
func (r *MaterialIssueRepo) GetByIDForUpdate(id string) (*entity.MaterialIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM material_issues WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetItems obtiene las líneas de una salida.
func (r *MaterialIssueRepo) GetItems(issueID string) ([]*entity.MaterialIssueItem, error) {
	query := `
		SELECT id, issue_id, item_id, quantity, source_site_id, destination_site_id, machine_id
		FROM material_issue_items WHERE issue_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, issueID)
	if err != nil {
		return nil, fmt.Errorf("list material issue items: %w", err)
	}
	defer rows.Close()
	var list []*entity.MaterialIssueItem
	for rows.Next() {
		var it entity.MaterialIssueItem
		if err := rows.Scan(&it.ID, &it.IssueID, &it.ItemID, &it.Quantity,
			&it.SourceSiteID, &it.DestinationSiteID, &it.MachineID); err != nil {
			return nil, fmt.Errorf("scan material issue item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateIf actualiza la cabecera solo si el estado actual coincide con
// expectedStatus (compare-and-swap). Cero filas afectadas significa que otra
// transacción ganó la transición: se retorna domain.ErrConflict.
func (r *MaterialIssueRepo) UpdateIf(issue *entity.MaterialIssue, expectedStatus string) error {
	query := `
		UPDATE material_issues SET
			status = $2,
			approved_by = $3, approved_at = $4,
			dispatched_by = $5, dispatched_at = $6,
			received_by = $7, received_at = $8,
			rejected_by = $9, rejected_at = $10,
			updated_at = now()
		WHERE id = $1 AND status = $11`
	cmd, err := r.q.Exec(context.Background(), query,
		issue.ID, issue.Status,
		issue.ApprovedBy, issue.ApprovedAt,
		issue.DispatchedBy, issue.DispatchedAt,
		issue.ReceivedBy, issue.ReceivedAt,
		issue.RejectedBy, issue.RejectedAt,
		expectedStatus,
	)
	if err != nil {
		return fmt.Errorf("update material issue: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListBySite lista las salidas con origen en una obra.
func (r *MaterialIssueRepo) ListBySite(siteID string, limit, offset int) ([]*entity.MaterialIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM material_issues
		WHERE site_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, siteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list material issues: %w", err)
	}
	defer rows.Close()
	var list []*entity.MaterialIssue
	for rows.Next() {
		m, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// NextCode reserva el siguiente consecutivo del código MI-.
func (r *MaterialIssueRepo) NextCode() (int64, error) {
	var n int64
	err := r.q.QueryRow(context.Background(), `SELECT nextval('material_issue_code_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next issue code: %w", err)
	}
	return n, nil
}

func (r *MaterialIssueRepo) scanOne(row pgx.Row) (*entity.MaterialIssue, error) {
	m, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material issue: %w", err)
	}
	return m, nil
}

func scanIssue(row pgx.Row) (*entity.MaterialIssue, error) {
	var m entity.MaterialIssue
	err := row.Scan(
		&m.ID, &m.Code, &m.IssueType, &m.Status, &m.SiteID, &m.DestinationSiteID, &m.RequisitionID,
		&m.RequestedBy, &m.RequestedAt, &m.ApprovedBy, &m.ApprovedAt,
		&m.DispatchedBy, &m.DispatchedAt, &m.ReceivedBy, &m.ReceivedAt,
		&m.RejectedBy, &m.RejectedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
