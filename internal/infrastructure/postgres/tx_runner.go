package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Obras-api/internal/application/ledger"
)

// Ensure TxRunner implements ledger.TxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los cuatro flujos comparten el mismo bundle de repositorios atados a la tx:
// mutación de inventario, entrada del log y avance de estado viven o mueren juntos.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ledger.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ledger.Repos{
		Sites:        NewSiteRepository(tx),
		Items:        NewItemRepository(tx),
		Machines:     NewMachineRepository(tx),
		Inventory:    NewSiteInventoryRepository(tx),
		Movements:    NewStockMovementRepository(tx),
		Issues:       NewMaterialIssueRepository(tx),
		Transfers:    NewMachineTransferRepository(tx),
		Procurements: NewProcurementRepository(tx),
		Dispatches:   NewDispatchRepository(tx),
		Invoices:     NewInvoiceRepository(tx),
	}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
