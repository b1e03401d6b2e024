package repository

import "github.com/jhoicas/Obras-api/internal/domain/entity"

// MaterialIssueRepository define el puerto de persistencia de salidas de material.
// UpdateIf es el compare-and-swap del flujo: actualiza la cabecera solo si el
// estado actual coincide con expectedStatus; si ninguna fila cambia retorna
// domain.ErrConflict (reintentable por el caller).
type MaterialIssueRepository interface {
	Create(issue *entity.MaterialIssue) error
	CreateItem(item *entity.MaterialIssueItem) error
	GetByID(id string) (*entity.MaterialIssue, error)
	GetByIDForUpdate(id string) (*entity.MaterialIssue, error)
	GetItems(issueID string) ([]*entity.MaterialIssueItem, error)
	UpdateIf(issue *entity.MaterialIssue, expectedStatus string) error
	ListBySite(siteID string, limit, offset int) ([]*entity.MaterialIssue, error)
	// NextCode reserva el siguiente consecutivo del código legible (MI-...),
	// dentro de la misma transacción que crea la cabecera.
	NextCode() (int64, error)
}
