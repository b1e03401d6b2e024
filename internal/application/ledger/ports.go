package ledger

import (
	"context"

	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
// Los cuatro flujos (ledger, salidas, traslados, compras) comparten el mismo
// ámbito transaccional, por eso el bundle es único.
type Repos struct {
	Sites        repository.SiteRepository
	Items        repository.ItemRepository
	Machines     repository.MachineRepository
	Inventory    repository.SiteInventoryRepository
	Movements    repository.StockMovementRepository
	Issues       repository.MaterialIssueRepository
	Transfers    repository.MachineTransferRepository
	Procurements repository.ProcurementRepository
	Dispatches   repository.DispatchRepository
	Invoices     repository.InvoiceRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Si fn falla, toda la transacción se revierte: nunca
// sobrevive una reserva, débito o entrada del log parcial.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
