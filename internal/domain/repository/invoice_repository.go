package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de facturas de compra y sus pagos.
type InvoiceRepository interface {
	Create(inv *entity.Invoice) error
	CreateItem(item *entity.InvoiceItem) error
	GetByID(id string) (*entity.Invoice, error)
	GetItems(invoiceID string) ([]*entity.InvoiceItem, error)
	Update(inv *entity.Invoice) error
	ListByProcurement(procurementID string) ([]*entity.Invoice, error)
	CreatePayment(p *entity.Payment) error
	ListPayments(invoiceID string) ([]*entity.Payment, error)
	SumPayments(invoiceID string) (decimal.Decimal, error)
	NextCode() (int64, error)
}
