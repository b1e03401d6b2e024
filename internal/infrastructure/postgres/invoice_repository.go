package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository sobre PostgreSQL.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador de facturas de compra.
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(inv *entity.Invoice) error {
	query := `
		INSERT INTO procurement_invoices (id, code, procurement_id, invoice_number, amount, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.Code, inv.ProcurementID, inv.InvoiceNumber, inv.Amount, inv.Status,
		inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea facturada.
func (r *InvoiceRepo) CreateItem(item *entity.InvoiceItem) error {
	query := `INSERT INTO procurement_invoice_items (id, invoice_id, item_id, quantity) VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(context.Background(), query, item.ID, item.InvoiceID, item.ItemID, item.Quantity)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(id string) (*entity.Invoice, error) {
	query := `
		SELECT id, code, procurement_id, invoice_number, amount, status, created_by, created_at, updated_at
		FROM procurement_invoices WHERE id = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&inv.ID, &inv.Code, &inv.ProcurementID, &inv.InvoiceNumber, &inv.Amount, &inv.Status,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

// GetItems obtiene las líneas de una factura.
func (r *InvoiceRepo) GetItems(invoiceID string) ([]*entity.InvoiceItem, error) {
	query := `SELECT id, invoice_id, item_id, quantity FROM procurement_invoice_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ItemID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// Update actualiza estado y monto de la factura.
func (r *InvoiceRepo) Update(inv *entity.Invoice) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE procurement_invoices SET amount = $2, status = $3, updated_at = now() WHERE id = $1`,
		inv.ID, inv.Amount, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// ListByProcurement lista las facturas de una compra.
func (r *InvoiceRepo) ListByProcurement(procurementID string) ([]*entity.Invoice, error) {
	query := `
		SELECT id, code, procurement_id, invoice_number, amount, status, created_by, created_at, updated_at
		FROM procurement_invoices WHERE procurement_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, procurementID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.ProcurementID, &inv.InvoiceNumber, &inv.Amount,
			&inv.Status, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// CreatePayment registra un abono contra la factura.
func (r *InvoiceRepo) CreatePayment(p *entity.Payment) error {
	query := `
		INSERT INTO procurement_payments (id, invoice_id, amount, method, reference, paid_by, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.PaidBy, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListPayments lista los abonos de una factura.
func (r *InvoiceRepo) ListPayments(invoiceID string) ([]*entity.Payment, error) {
	query := `
		SELECT id, invoice_id, amount, method, reference, paid_by, paid_at
		FROM procurement_payments WHERE invoice_id = $1 ORDER BY paid_at`
	rows, err := r.q.Query(context.Background(), query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.PaidBy, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// SumPayments suma los abonos acumulados de una factura.
func (r *InvoiceRepo) SumPayments(invoiceID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(amount), 0) FROM procurement_payments WHERE invoice_id = $1`,
		invoiceID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

// NextCode reserva el siguiente consecutivo del código INV-.
func (r *InvoiceRepo) NextCode() (int64, error) {
	var n int64
	err := r.q.QueryRow(context.Background(), `SELECT nextval('invoice_code_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next invoice code: %w", err)
	}
	return n, nil
}
