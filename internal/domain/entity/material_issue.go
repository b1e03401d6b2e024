package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de salida de material.
const (
	IssueTypeConsumption  = "CONSUMPTION"   // consumo en la propia obra
	IssueTypeSiteTransfer = "SITE_TRANSFER" // traslado a otra obra
)

// Estados de una salida de material.
// PENDING -> APPROVED -> {DISPATCHED -> RECEIVED | CONSUMED};
// cualquier estado no terminal con reserva viva -> REJECTED.
const (
	IssueStatusPending    = "PENDING"
	IssueStatusApproved   = "APPROVED"
	IssueStatusDispatched = "DISPATCHED"
	IssueStatusReceived   = "RECEIVED"
	IssueStatusConsumed   = "CONSUMED"
	IssueStatusRejected   = "REJECTED"
)

// MaterialIssue es la cabecera de una salida de material (consumo o traslado).
// Se crea PENDING con todas sus líneas reservadas; solo las transiciones del
// flujo la mutan y nunca se borra físicamente pasado el estado PENDING.
type MaterialIssue struct {
	ID                string
	Code              string // MI-000123, generado en la misma transacción del create
	IssueType         string // CONSUMPTION | SITE_TRANSFER
	Status            string
	SiteID            string  // obra origen
	DestinationSiteID *string // obra destino (solo SITE_TRANSFER)
	RequisitionID     *string
	RequestedBy       string
	RequestedAt       time.Time
	ApprovedBy        *string
	ApprovedAt        *time.Time
	DispatchedBy      *string
	DispatchedAt      *time.Time
	ReceivedBy        *string
	ReceivedAt        *time.Time
	RejectedBy        *string
	RejectedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MaterialIssueItem es una línea de la salida.
type MaterialIssueItem struct {
	ID                string
	IssueID           string
	ItemID            string
	Quantity          decimal.Decimal
	SourceSiteID      string
	DestinationSiteID *string
	MachineID         *string // consumo imputado a una máquina (opcional)
}

// IsTerminal indica si el estado es final (RECEIVED, CONSUMED o REJECTED).
func (m *MaterialIssue) IsTerminal() bool {
	switch m.Status {
	case IssueStatusReceived, IssueStatusConsumed, IssueStatusRejected:
		return true
	}
	return false
}

// HasOutstandingReservation indica si las líneas aún retienen reserva
// (la reserva vive desde el create hasta el dispatch/consume o el reject).
func (m *MaterialIssue) HasOutstandingReservation() bool {
	return m.Status == IssueStatusPending || m.Status == IssueStatusApproved
}
