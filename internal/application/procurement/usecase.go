package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/application/ports"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

// ProcurementUseCase implementa el flujo de entrega de compras: la mercancía
// del proveedor entra primero al almacén virtual de tránsito y de ahí viaja a
// la obra solicitante. Hay dos caminos mutuamente excluyentes para ese tramo
// (el CAS sobre el estado los vuelve excluyentes):
//
//  1. MarkInTransit: débito del virtual + crédito de la obra, ambos asientos
//     en una misma transacción (dos entradas explícitas del log, no un "move").
//  2. Despachos con vehículo/conductor: CreateDispatch debita el virtual en su
//     propia transacción y ReceiveDispatch acredita la obra en otra posterior;
//     entre ambas la cantidad está en vuelo.
//
// Las facturas nunca escriben en el ledger: concilian ReceivedQuantity contra
// lo ordenado y auto-avanzan la compra a delivered cuando todo está recibido.
type ProcurementUseCase struct {
	txRunner ledger.TxRunner
	ledgerUC *ledger.LedgerUseCase
	procRepo repository.ProcurementRepository
	dispRepo repository.DispatchRepository
	invRepo  repository.InvoiceRepository
	siteRepo repository.SiteRepository
	itemRepo repository.ItemRepository
	notifier ports.Notifier
}

// NewProcurementUseCase construye el caso de uso.
func NewProcurementUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.LedgerUseCase,
	procRepo repository.ProcurementRepository,
	dispRepo repository.DispatchRepository,
	invRepo repository.InvoiceRepository,
	siteRepo repository.SiteRepository,
	itemRepo repository.ItemRepository,
	notifier ports.Notifier,
) *ProcurementUseCase {
	return &ProcurementUseCase{
		txRunner: txRunner,
		ledgerUC: ledgerUC,
		procRepo: procRepo,
		dispRepo: dispRepo,
		invRepo:  invRepo,
		siteRepo: siteRepo,
		itemRepo: itemRepo,
		notifier: notifier,
	}
}

// CreateLineInput línea de compra.
type CreateLineInput struct {
	ItemID   string
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

// CreateInput entrada para crear una compra.
type CreateInput struct {
	VendorID         string
	RequestingSiteID string
	RequisitionID    *string
	ActorID          string
	Lines            []CreateLineInput
}

// Create persiste la compra con sus líneas en pending. El importe de cada
// línea es Quantity * Rate y el total la suma de los importes.
func (uc *ProcurementUseCase) Create(ctx context.Context, input CreateInput) (*entity.Procurement, error) {
	if input.VendorID == "" || input.RequestingSiteID == "" || input.ActorID == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if site, err := uc.siteRepo.GetByID(input.RequestingSiteID); err != nil || site == nil {
		return nil, domain.ErrNotFound
	}
	for _, line := range input.Lines {
		if line.ItemID == "" || !line.Quantity.GreaterThan(decimal.Zero) || line.Rate.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if item, err := uc.itemRepo.GetByID(line.ItemID); err != nil || item == nil {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	proc := &entity.Procurement{
		ID:               uuid.New().String(),
		RequisitionID:    input.RequisitionID,
		VendorID:         input.VendorID,
		RequestingSiteID: input.RequestingSiteID,
		Status:           entity.ProcurementStatusPending,
		CreatedBy:        input.ActorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		seq, err := r.Procurements.NextCode()
		if err != nil {
			return err
		}
		proc.Code = fmt.Sprintf("PO-%06d", seq)
		total := decimal.Zero
		items := make([]*entity.ProcurementItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			amount := line.Quantity.Mul(line.Rate)
			total = total.Add(amount)
			items = append(items, &entity.ProcurementItem{
				ID:               uuid.New().String(),
				ProcurementID:    proc.ID,
				ItemID:           line.ItemID,
				Quantity:         line.Quantity,
				Rate:             line.Rate,
				Amount:           amount,
				ReceivedQuantity: decimal.Zero,
			})
		}
		proc.Total = total
		if err := r.Procurements.Create(proc); err != nil {
			return err
		}
		for _, item := range items {
			if err := r.Procurements.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, proc, "created", "Compra creada")
	return proc, nil
}

// MarkOrdered avanza pending -> ordered (orden colocada al proveedor).
func (uc *ProcurementUseCase) MarkOrdered(ctx context.Context, id, actorID string) (*entity.Procurement, error) {
	proc, err := uc.transition(ctx, id, entity.ProcurementStatusPending, func(r ledger.Repos, p *entity.Procurement, now time.Time) error {
		p.Status = entity.ProcurementStatusOrdered
		p.OrderedBy = &actorID
		p.OrderedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, proc, "ordered", "Orden de compra colocada al proveedor")
	return proc, nil
}

// AcceptAtVirtualSite avanza ordered -> accepted_at_virtual_site: acredita
// cada línea en el almacén virtual (creándolo perezosamente si es la primera vez).
func (uc *ProcurementUseCase) AcceptAtVirtualSite(ctx context.Context, id, actorID string) (*entity.Procurement, error) {
	proc, err := uc.transition(ctx, id, entity.ProcurementStatusOrdered, func(r ledger.Repos, p *entity.Procurement, now time.Time) error {
		virtual, err := uc.ledgerUC.VirtualSiteInTx(r)
		if err != nil {
			return err
		}
		lines, err := r.Procurements.GetItems(p.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := uc.ledgerUC.CreditInTx(r, virtual.ID, line.ItemID, line.Quantity, entity.MovementSourceProcurement, p.ID, actorID); err != nil {
				return err
			}
		}
		p.Status = entity.ProcurementStatusAcceptedAtVirtual
		p.AcceptedBy = &actorID
		p.AcceptedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, proc, "accepted_at_virtual_site", "Mercancía recibida en el almacén virtual")
	return proc, nil
}

// MarkInTransit avanza accepted_at_virtual_site -> in_transit_to_requested_site:
// débito del virtual y crédito de la obra solicitante por cada línea, los dos
// asientos en la misma transacción para que el log muestre ambos tramos.
func (uc *ProcurementUseCase) MarkInTransit(ctx context.Context, id, actorID string) (*entity.Procurement, error) {
	proc, err := uc.transition(ctx, id, entity.ProcurementStatusAcceptedAtVirtual, func(r ledger.Repos, p *entity.Procurement, now time.Time) error {
		virtual, err := uc.ledgerUC.VirtualSiteInTx(r)
		if err != nil {
			return err
		}
		lines, err := r.Procurements.GetItems(p.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := uc.ledgerUC.DebitInTx(r, virtual.ID, line.ItemID, line.Quantity, false, entity.MovementSourceProcurement, p.ID, actorID); err != nil {
				return err
			}
			if _, err := uc.ledgerUC.CreditInTx(r, p.RequestingSiteID, line.ItemID, line.Quantity, entity.MovementSourceProcurement, p.ID, actorID); err != nil {
				return err
			}
		}
		p.Status = entity.ProcurementStatusInTransit
		p.TransitBy = &actorID
		p.TransitAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, proc, "in_transit_to_requested_site", "Mercancía en camino a la obra solicitante")
	return proc, nil
}

// DispatchLineInput línea despachada (vacío = todas las líneas completas).
type DispatchLineInput struct {
	ItemID   string
	Quantity decimal.Decimal
}

// CreateDispatchInput entrada para el despacho con vehículo/conductor.
type CreateDispatchInput struct {
	VehicleNumber string
	DriverName    string
	DriverPhone   string
	ActorID       string
	Lines         []DispatchLineInput
}

// CreateDispatch es el camino alterno del tramo virtual -> obra: debita el
// almacén virtual y deja la compra in_transit_to_requested_site con un
// registro de despacho abierto. Hasta ReceiveDispatch la cantidad no figura
// en el inventario de ninguna obra (ventana en vuelo); la única salida es la
// recepción o una reversión compensatoria del operador.
func (uc *ProcurementUseCase) CreateDispatch(ctx context.Context, procurementID string, input CreateDispatchInput) (*entity.Dispatch, error) {
	if input.VehicleNumber == "" || input.DriverName == "" || input.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var dispatch *entity.Dispatch
	var siteID string
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		proc, err := r.Procurements.GetByIDForUpdate(procurementID)
		if err != nil {
			return err
		}
		if proc == nil {
			return domain.ErrNotFound
		}
		if proc.Status != entity.ProcurementStatusAcceptedAtVirtual {
			return domain.ErrInvalidTransition
		}
		siteID = proc.RequestingSiteID
		virtual, err := uc.ledgerUC.VirtualSiteInTx(r)
		if err != nil {
			return err
		}
		procLines, err := r.Procurements.GetItems(proc.ID)
		if err != nil {
			return err
		}
		lines := input.Lines
		if len(lines) == 0 {
			for _, pl := range procLines {
				lines = append(lines, DispatchLineInput{ItemID: pl.ItemID, Quantity: pl.Quantity})
			}
		}
		ordered := make(map[string]decimal.Decimal, len(procLines))
		for _, pl := range procLines {
			ordered[pl.ItemID] = pl.Quantity
		}
		seq, err := r.Dispatches.NextCode()
		if err != nil {
			return err
		}
		now := time.Now()
		dispatch = &entity.Dispatch{
			ID:            uuid.New().String(),
			Code:          fmt.Sprintf("DSP-%06d", seq),
			ProcurementID: proc.ID,
			Status:        entity.DispatchStatusInTransit,
			VehicleNumber: input.VehicleNumber,
			DriverName:    input.DriverName,
			DriverPhone:   input.DriverPhone,
			DispatchedBy:  input.ActorID,
			DispatchedAt:  now,
		}
		if err := r.Dispatches.Create(dispatch); err != nil {
			return err
		}
		for _, line := range lines {
			max, ok := ordered[line.ItemID]
			if !ok || !line.Quantity.GreaterThan(decimal.Zero) || line.Quantity.GreaterThan(max) {
				return domain.ErrInvalidInput
			}
			if _, err := uc.ledgerUC.DebitInTx(r, virtual.ID, line.ItemID, line.Quantity, false, entity.MovementSourceDispatch, dispatch.ID, input.ActorID); err != nil {
				return err
			}
			item := &entity.DispatchItem{
				ID:         uuid.New().String(),
				DispatchID: dispatch.ID,
				ItemID:     line.ItemID,
				Quantity:   line.Quantity,
			}
			if err := r.Dispatches.CreateItem(item); err != nil {
				return err
			}
		}
		proc.Status = entity.ProcurementStatusInTransit
		proc.TransitBy = &input.ActorID
		proc.TransitAt = &now
		proc.UpdatedAt = now
		return r.Procurements.UpdateIf(proc, entity.ProcurementStatusAcceptedAtVirtual)
	})
	if err != nil {
		return nil, err
	}
	uc.notifyDispatch(ctx, dispatch, siteID, "dispatched", "Despacho en camino a la obra")
	return dispatch, nil
}

// ReceiveDispatch cierra la ventana en vuelo: acredita cada línea despachada
// en la obra solicitante, en una transacción independiente del despacho.
func (uc *ProcurementUseCase) ReceiveDispatch(ctx context.Context, dispatchID, actorID string) (*entity.Dispatch, error) {
	var dispatch *entity.Dispatch
	var siteID string
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		var err error
		dispatch, err = r.Dispatches.GetByIDForUpdate(dispatchID)
		if err != nil {
			return err
		}
		if dispatch == nil {
			return domain.ErrNotFound
		}
		if dispatch.Status != entity.DispatchStatusInTransit {
			return domain.ErrInvalidTransition
		}
		proc, err := r.Procurements.GetByID(dispatch.ProcurementID)
		if err != nil || proc == nil {
			return domain.ErrNotFound
		}
		siteID = proc.RequestingSiteID
		lines, err := r.Dispatches.GetItems(dispatch.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := uc.ledgerUC.CreditInTx(r, proc.RequestingSiteID, line.ItemID, line.Quantity, entity.MovementSourceDispatch, dispatch.ID, actorID); err != nil {
				return err
			}
		}
		now := time.Now()
		dispatch.Status = entity.DispatchStatusReceived
		dispatch.ReceivedBy = &actorID
		dispatch.ReceivedAt = &now
		return r.Dispatches.UpdateIf(dispatch, entity.DispatchStatusInTransit)
	})
	if err != nil {
		return nil, err
	}
	uc.notifyDispatch(ctx, dispatch, siteID, "received", "Despacho recibido en la obra")
	return dispatch, nil
}

// InvoiceLineInput línea facturada.
type InvoiceLineInput struct {
	ItemID   string
	Quantity decimal.Decimal
}

// RegisterInvoiceInput entrada para registrar una factura del proveedor.
type RegisterInvoiceInput struct {
	InvoiceNumber string
	Amount        decimal.Decimal
	ActorID       string
	Lines         []InvoiceLineInput
}

// RegisterInvoice concilia cantidades: acumula ReceivedQuantity por línea
// (nunca por encima de lo ordenado, en ninguna cantidad de facturas) sin tocar
// el ledger. Cuando todas las líneas quedan completas y la mercancía ya viajó
// (in_transit_to_requested_site), la compra auto-avanza a delivered.
func (uc *ProcurementUseCase) RegisterInvoice(ctx context.Context, procurementID string, input RegisterInvoiceInput) (*entity.Invoice, error) {
	if input.InvoiceNumber == "" || input.ActorID == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var invoice *entity.Invoice
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		proc, err := r.Procurements.GetByIDForUpdate(procurementID)
		if err != nil {
			return err
		}
		if proc == nil {
			return domain.ErrNotFound
		}
		switch proc.Status {
		case entity.ProcurementStatusOrdered, entity.ProcurementStatusAcceptedAtVirtual, entity.ProcurementStatusInTransit:
		default:
			return domain.ErrInvalidTransition
		}
		procLines, err := r.Procurements.GetItems(proc.ID)
		if err != nil {
			return err
		}
		byItem := make(map[string]*entity.ProcurementItem, len(procLines))
		for _, pl := range procLines {
			byItem[pl.ItemID] = pl
		}
		seq, err := r.Invoices.NextCode()
		if err != nil {
			return err
		}
		now := time.Now()
		invoice = &entity.Invoice{
			ID:            uuid.New().String(),
			Code:          fmt.Sprintf("INV-%06d", seq),
			ProcurementID: proc.ID,
			InvoiceNumber: input.InvoiceNumber,
			Amount:        input.Amount,
			Status:        entity.InvoiceStatusPending,
			CreatedBy:     input.ActorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Invoices.Create(invoice); err != nil {
			return err
		}
		amount := decimal.Zero
		for _, line := range input.Lines {
			pl, ok := byItem[line.ItemID]
			if !ok || !line.Quantity.GreaterThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			// ReceivedQuantity jamás supera lo ordenado, sin importar cuántas facturas lleguen
			if pl.ReceivedQuantity.Add(line.Quantity).GreaterThan(pl.Quantity) {
				return domain.ErrInvalidInput
			}
			pl.ReceivedQuantity = pl.ReceivedQuantity.Add(line.Quantity)
			if err := r.Procurements.UpdateItemReceived(pl); err != nil {
				return err
			}
			if err := r.Invoices.CreateItem(&entity.InvoiceItem{
				ID:        uuid.New().String(),
				InvoiceID: invoice.ID,
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
			}); err != nil {
				return err
			}
			amount = amount.Add(line.Quantity.Mul(pl.Rate))
		}
		if invoice.Amount.IsZero() {
			invoice.Amount = amount
			if err := r.Invoices.Update(invoice); err != nil {
				return err
			}
		}
		// Auto-transición a delivered cuando todo está recibido y ya viajó
		if proc.Status == entity.ProcurementStatusInTransit {
			all := true
			for _, pl := range procLines {
				if !pl.FullyReceived() {
					all = false
					break
				}
			}
			if all {
				proc.Status = entity.ProcurementStatusDelivered
				proc.DeliveredAt = &now
				proc.UpdatedAt = now
				return r.Procurements.UpdateIf(proc, entity.ProcurementStatusInTransit)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifyInvoice(ctx, invoice, "invoiced", "Factura de compra registrada")
	return invoice, nil
}

// RegisterPaymentInput entrada para abonar una factura.
type RegisterPaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	ActorID   string
}

// RegisterPayment acumula abonos contra la factura: pagado >= importe la deja
// PAID, si no PARTIALLY_PAID. Con todas las facturas pagadas y la compra
// delivered, la compra pasa a paid.
func (uc *ProcurementUseCase) RegisterPayment(ctx context.Context, invoiceID string, input RegisterPaymentInput) (*entity.Invoice, error) {
	if !input.Amount.GreaterThan(decimal.Zero) || input.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var invoice *entity.Invoice
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		var err error
		invoice, err = r.Invoices.GetByID(invoiceID)
		if err != nil || invoice == nil {
			return domain.ErrNotFound
		}
		now := time.Now()
		payment := &entity.Payment{
			ID:        uuid.New().String(),
			InvoiceID: invoice.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Reference: input.Reference,
			PaidBy:    input.ActorID,
			PaidAt:    now,
		}
		if err := r.Invoices.CreatePayment(payment); err != nil {
			return err
		}
		paid, err := r.Invoices.SumPayments(invoice.ID)
		if err != nil {
			return err
		}
		if paid.GreaterThanOrEqual(invoice.Amount) {
			invoice.Status = entity.InvoiceStatusPaid
		} else {
			invoice.Status = entity.InvoiceStatusPartiallyPaid
		}
		invoice.UpdatedAt = now
		if err := r.Invoices.Update(invoice); err != nil {
			return err
		}
		if invoice.Status != entity.InvoiceStatusPaid {
			return nil
		}
		proc, err := r.Procurements.GetByIDForUpdate(invoice.ProcurementID)
		if err != nil {
			return err
		}
		if proc == nil {
			return domain.ErrNotFound
		}
		if proc.Status != entity.ProcurementStatusDelivered {
			return nil
		}
		invoices, err := r.Invoices.ListByProcurement(proc.ID)
		if err != nil {
			return err
		}
		for _, inv := range invoices {
			if inv.Status != entity.InvoiceStatusPaid {
				return nil
			}
		}
		proc.Status = entity.ProcurementStatusPaid
		proc.PaidAt = &now
		proc.UpdatedAt = now
		return r.Procurements.UpdateIf(proc, entity.ProcurementStatusDelivered)
	})
	if err != nil {
		return nil, err
	}
	uc.notifyInvoice(ctx, invoice, "payment_registered", "Pago registrado contra la factura")
	return invoice, nil
}

// Delete elimina una compra revirtiendo sus asientos como transiciones
// inversas (nunca un borrado ciego):
//   - pending/ordered: sin efecto en el ledger, solo borra cabecera y líneas.
//   - accepted_at_virtual_site: débito del virtual por cada línea.
//   - delivered: débito de la obra solicitante, crédito del virtual y débito
//     del virtual de nuevo, para netear al estado previo con ambos tramos
//     visibles en el log.
//   - in_transit/paid: prohibido (material en vuelo o ciclo cerrado).
func (uc *ProcurementUseCase) Delete(ctx context.Context, id, actorID string) error {
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		proc, err := r.Procurements.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if proc == nil {
			return domain.ErrNotFound
		}
		lines, err := r.Procurements.GetItems(proc.ID)
		if err != nil {
			return err
		}
		switch proc.Status {
		case entity.ProcurementStatusPending, entity.ProcurementStatusOrdered:
			// sin asientos que revertir
		case entity.ProcurementStatusAcceptedAtVirtual:
			virtual, err := uc.ledgerUC.VirtualSiteInTx(r)
			if err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := uc.ledgerUC.DebitInTx(r, virtual.ID, line.ItemID, line.Quantity, false, entity.MovementSourceProcurement, proc.ID, actorID); err != nil {
					return err
				}
			}
		case entity.ProcurementStatusDelivered:
			virtual, err := uc.ledgerUC.VirtualSiteInTx(r)
			if err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := uc.ledgerUC.DebitInTx(r, proc.RequestingSiteID, line.ItemID, line.Quantity, false, entity.MovementSourceProcurement, proc.ID, actorID); err != nil {
					return err
				}
				if _, err := uc.ledgerUC.CreditInTx(r, virtual.ID, line.ItemID, line.Quantity, entity.MovementSourceProcurement, proc.ID, actorID); err != nil {
					return err
				}
				if _, err := uc.ledgerUC.DebitInTx(r, virtual.ID, line.ItemID, line.Quantity, false, entity.MovementSourceProcurement, proc.ID, actorID); err != nil {
					return err
				}
			}
		default:
			return domain.ErrInvalidTransition
		}
		return r.Procurements.Delete(proc.ID)
	})
	return err
}

// Get devuelve la compra con sus líneas.
func (uc *ProcurementUseCase) Get(ctx context.Context, id string) (*entity.Procurement, []*entity.ProcurementItem, error) {
	proc, err := uc.procRepo.GetByID(id)
	if err != nil || proc == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := uc.procRepo.GetItems(id)
	if err != nil {
		return nil, nil, err
	}
	return proc, items, nil
}

// ListBySite lista las compras solicitadas por una obra.
func (uc *ProcurementUseCase) ListBySite(ctx context.Context, siteID string, limit, offset int) ([]*entity.Procurement, error) {
	return uc.procRepo.ListBySite(siteID, limit, offset)
}

// ListDispatches lista los despachos de una compra.
func (uc *ProcurementUseCase) ListDispatches(ctx context.Context, procurementID string) ([]*entity.Dispatch, error) {
	return uc.dispRepo.ListByProcurement(procurementID)
}

// ListInvoices lista las facturas de una compra.
func (uc *ProcurementUseCase) ListInvoices(ctx context.Context, procurementID string) ([]*entity.Invoice, error) {
	return uc.invRepo.ListByProcurement(procurementID)
}

func (uc *ProcurementUseCase) transition(ctx context.Context, id, expected string, apply func(r ledger.Repos, p *entity.Procurement, now time.Time) error) (*entity.Procurement, error) {
	var proc *entity.Procurement
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		var err error
		proc, err = r.Procurements.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if proc == nil {
			return domain.ErrNotFound
		}
		if proc.Status != expected {
			return domain.ErrInvalidTransition
		}
		now := time.Now()
		if err := apply(r, proc, now); err != nil {
			return err
		}
		proc.UpdatedAt = now
		return r.Procurements.UpdateIf(proc, expected)
	})
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func (uc *ProcurementUseCase) notify(ctx context.Context, p *entity.Procurement, action, title string) {
	if uc.notifier == nil || p == nil {
		return
	}
	uc.notifier.Notify(ctx, entity.TransitionEvent{
		EventType:   "procurement",
		EventAction: action,
		ReferenceID: p.ID,
		SiteID:      p.RequestingSiteID,
		Title:       title,
		Description: fmt.Sprintf("%s (%s)", title, p.Code),
		Roles:       []string{"admin", "compras"},
	})
}

func (uc *ProcurementUseCase) notifyDispatch(ctx context.Context, d *entity.Dispatch, siteID, action, title string) {
	if uc.notifier == nil || d == nil {
		return
	}
	uc.notifier.Notify(ctx, entity.TransitionEvent{
		EventType:   "procurement_dispatch",
		EventAction: action,
		ReferenceID: d.ID,
		SiteID:      siteID,
		Title:       title,
		Description: fmt.Sprintf("%s (%s, vehículo %s)", title, d.Code, d.VehicleNumber),
		Roles:       []string{"admin", "almacenista"},
	})
}

func (uc *ProcurementUseCase) notifyInvoice(ctx context.Context, inv *entity.Invoice, action, title string) {
	if uc.notifier == nil || inv == nil {
		return
	}
	uc.notifier.Notify(ctx, entity.TransitionEvent{
		EventType:   "procurement_invoice",
		EventAction: action,
		ReferenceID: inv.ID,
		Title:       title,
		Description: fmt.Sprintf("%s (%s)", title, inv.Code),
		Roles:       []string{"admin", "compras"},
	})
}
