package entity

import "time"

// Tipos de obra. Existe exactamente una obra virtual ("almacén de tránsito")
// donde se reciben las compras antes de distribuirlas; se crea de forma
// perezosa en el primer uso y está protegida por un índice único parcial.
const (
	SiteKindPhysical = "physical"
	SiteKindVirtual  = "virtual"
)

// Site representa una obra (sitio de construcción) o el almacén virtual de tránsito.
// Nunca se borra físicamente mientras existan filas de inventario que la referencien
// (solo soft-delete vía DeletedAt).
type Site struct {
	ID        string
	Name      string
	Kind      string // physical | virtual
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsVirtual indica si la obra es el almacén virtual de tránsito.
func (s *Site) IsVirtual() bool { return s.Kind == SiteKindVirtual }
