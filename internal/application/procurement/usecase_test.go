package procurement_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/application/procurement"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	obra      = "site-solicitante"
	cemento   = "item-cemento"
	grava     = "item-grava"
	vendor    = "vendor-acme"
	comprador = "user-compras"
	almacen   = "user-almacenista"
)

// recordingNotifier captura los eventos emitidos por el flujo.
type recordingNotifier struct {
	events []entity.TransitionEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event entity.TransitionEvent) {
	n.events = append(n.events, event)
}

type fixture struct {
	store    *memory.Store
	ledgerUC *ledger.LedgerUseCase
	uc       *procurement.ProcurementUseCase
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedSite(entity.Site{ID: obra, Name: "Obra Solicitante", Kind: entity.SiteKindPhysical})
	store.SeedItem(entity.Item{ID: cemento, SKU: "CEM-001", Name: "Cemento gris", Unit: "saco"})
	store.SeedItem(entity.Item{ID: grava, SKU: "GRA-001", Name: "Grava triturada", Unit: "m3"})

	repos := store.Repos()
	ledgerUC := ledger.NewLedgerUseCase(store, repos.Inventory, repos.Movements, repos.Sites, repos.Items)
	notifier := &recordingNotifier{}
	uc := procurement.NewProcurementUseCase(
		store, ledgerUC, repos.Procurements, repos.Dispatches, repos.Invoices,
		repos.Sites, repos.Items, notifier,
	)
	return &fixture{store: store, ledgerUC: ledgerUC, uc: uc, notifier: notifier}
}

// virtualQty devuelve la existencia del ítem en el almacén virtual.
func (f *fixture) virtualQty(t *testing.T, itemID string) decimal.Decimal {
	t.Helper()
	virtual, err := f.ledgerUC.VirtualSite(context.Background())
	require.NoError(t, err)
	return f.store.Inventory(virtual.ID, itemID).Quantity
}

func (f *fixture) create(t *testing.T) *entity.Procurement {
	t.Helper()
	proc, err := f.uc.Create(context.Background(), procurement.CreateInput{
		VendorID:         vendor,
		RequestingSiteID: obra,
		ActorID:          comprador,
		Lines: []procurement.CreateLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(100), Rate: decimal.NewFromInt(30)},
			{ItemID: grava, Quantity: decimal.NewFromInt(40), Rate: decimal.NewFromInt(80)},
		},
	})
	require.NoError(t, err)
	return proc
}

// createAccepted lleva una compra hasta accepted_at_virtual_site.
func (f *fixture) createAccepted(t *testing.T) *entity.Procurement {
	t.Helper()
	ctx := context.Background()
	proc := f.create(t)
	_, err := f.uc.MarkOrdered(ctx, proc.ID, comprador)
	require.NoError(t, err)
	accepted, err := f.uc.AcceptAtVirtualSite(ctx, proc.ID, almacen)
	require.NoError(t, err)
	return accepted
}

// ──────────────────────────────────────────────────────────────────────────────
// Create y orden
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_CalculaImportesYTotal(t *testing.T) {
	f := newFixture(t)
	proc := f.create(t)

	assert.Equal(t, entity.ProcurementStatusPending, proc.Status)
	assert.Equal(t, "PO-000001", proc.Code)
	assert.True(t, proc.Total.Equal(decimal.NewFromInt(100*30+40*80)),
		"el total es la suma de Quantity*Rate por línea")

	_, lines, err := f.uc.Get(context.Background(), proc.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, line.Amount.Equal(line.Quantity.Mul(line.Rate)))
		assert.True(t, line.ReceivedQuantity.IsZero())
	}
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, procurement.CreateInput{
		VendorID: vendor, RequestingSiteID: obra, ActorID: comprador,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "compra sin líneas")

	_, err = f.uc.Create(ctx, procurement.CreateInput{
		VendorID: vendor, RequestingSiteID: "site-fantasma", ActorID: comprador,
		Lines: []procurement.CreateLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Create(ctx, procurement.CreateInput{
		VendorID: vendor, RequestingSiteID: obra, ActorID: comprador,
		Lines: []procurement.CreateLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(-2)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tarifa negativa")
}

// ──────────────────────────────────────────────────────────────────────────────
// Aceptación en el virtual y tránsito directo
// ──────────────────────────────────────────────────────────────────────────────

func TestAccept_AcreditaElAlmacenVirtual(t *testing.T) {
	f := newFixture(t)
	accepted := f.createAccepted(t)

	assert.Equal(t, entity.ProcurementStatusAcceptedAtVirtual, accepted.Status)
	assert.True(t, f.virtualQty(t, cemento).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.virtualQty(t, grava).Equal(decimal.NewFromInt(40)))
	assert.True(t, f.store.Inventory(obra, cemento).Quantity.IsZero(),
		"la obra solicitante aún no recibe nada")
}

func TestMarkInTransit_MueveDelVirtualALaObra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	inTransit, err := f.uc.MarkInTransit(ctx, proc.ID, almacen)
	require.NoError(t, err)
	assert.Equal(t, entity.ProcurementStatusInTransit, inTransit.Status)

	assert.True(t, f.virtualQty(t, cemento).IsZero(), "el virtual queda en cero")
	assert.True(t, f.store.Inventory(obra, cemento).Quantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.store.Inventory(obra, grava).Quantity.Equal(decimal.NewFromInt(40)))

	// Ambos tramos quedan en el log: IN al virtual, OUT del virtual, IN a la obra
	virtual, err := f.ledgerUC.VirtualSite(ctx)
	require.NoError(t, err)
	assert.True(t, f.store.SumChanges(virtual.ID, cemento).IsZero())
	assert.True(t, f.store.SumChanges(obra, cemento).Equal(decimal.NewFromInt(100)))
}

func TestTransiciones_FueraDeOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.create(t)

	_, err := f.uc.AcceptAtVirtualSite(ctx, proc.ID, almacen)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "aceptar sin ordenar")

	_, err = f.uc.MarkInTransit(ctx, proc.ID, almacen)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "tránsito sin aceptar")

	_, err = f.uc.MarkOrdered(ctx, proc.ID, comprador)
	require.NoError(t, err)
	_, err = f.uc.MarkOrdered(ctx, proc.ID, comprador)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "ordenar dos veces")
}

// ──────────────────────────────────────────────────────────────────────────────
// Despachos con vehículo: ventana en vuelo
// ──────────────────────────────────────────────────────────────────────────────

func TestDispatch_AbreYCierraLaVentanaEnVuelo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	dispatch, err := f.uc.CreateDispatch(ctx, proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "ABC-123",
		DriverName:    "Pedro Rojas",
		DriverPhone:   "3001234567",
		ActorID:       almacen,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DispatchStatusInTransit, dispatch.Status)
	assert.Equal(t, "DSP-000001", dispatch.Code)

	// En vuelo: ni el virtual ni la obra tienen la cantidad
	assert.True(t, f.virtualQty(t, cemento).IsZero())
	assert.True(t, f.store.Inventory(obra, cemento).Quantity.IsZero())

	received, err := f.uc.ReceiveDispatch(ctx, dispatch.ID, almacen)
	require.NoError(t, err)
	assert.Equal(t, entity.DispatchStatusReceived, received.Status)

	assert.True(t, f.store.Inventory(obra, cemento).Quantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.store.Inventory(obra, grava).Quantity.Equal(decimal.NewFromInt(40)))

	// Recibir dos veces es ilegal
	_, err = f.uc.ReceiveDispatch(ctx, dispatch.ID, almacen)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// Los eventos de despacho llevan la obra solicitante para que la notificación
// llegue al personal de esa obra.
func TestDispatch_EventosLlevanLaObraSolicitante(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	dispatch, err := f.uc.CreateDispatch(ctx, proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "ABC-123",
		DriverName:    "Pedro Rojas",
		ActorID:       almacen,
	})
	require.NoError(t, err)
	_, err = f.uc.ReceiveDispatch(ctx, dispatch.ID, almacen)
	require.NoError(t, err)

	var dispatchEvents []entity.TransitionEvent
	for _, event := range f.notifier.events {
		if event.EventType == "procurement_dispatch" {
			dispatchEvents = append(dispatchEvents, event)
		}
	}
	require.Len(t, dispatchEvents, 2)
	for _, event := range dispatchEvents {
		assert.Equal(t, obra, event.SiteID)
		assert.Equal(t, dispatch.ID, event.ReferenceID)
	}
	assert.Equal(t, "dispatched", dispatchEvents[0].EventAction)
	assert.Equal(t, "received", dispatchEvents[1].EventAction)
}

func TestDispatch_Parcial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	dispatch, err := f.uc.CreateDispatch(ctx, proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "XYZ-987",
		DriverName:    "Luisa Prieto",
		ActorID:       almacen,
		Lines: []procurement.DispatchLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(60)},
		},
	})
	require.NoError(t, err)

	assert.True(t, f.virtualQty(t, cemento).Equal(decimal.NewFromInt(40)),
		"solo se debita lo despachado")
	assert.True(t, f.virtualQty(t, grava).Equal(decimal.NewFromInt(40)),
		"la línea no despachada queda intacta")

	_, err = f.uc.ReceiveDispatch(ctx, dispatch.ID, almacen)
	require.NoError(t, err)
	assert.True(t, f.store.Inventory(obra, cemento).Quantity.Equal(decimal.NewFromInt(60)))
}

func TestDispatch_LineaPorEncimaDeLoOrdenado(t *testing.T) {
	f := newFixture(t)
	proc := f.createAccepted(t)

	_, err := f.uc.CreateDispatch(context.Background(), proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "ABC-123",
		DriverName:    "Pedro Rojas",
		ActorID:       almacen,
		Lines: []procurement.DispatchLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(101)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, f.virtualQty(t, cemento).Equal(decimal.NewFromInt(100)),
		"el despacho fallido no debita nada")
}

// MarkInTransit y CreateDispatch parten ambos de accepted_at_virtual_site: el
// primero que avance el estado excluye al otro.
func TestDispatch_ExcluyenteConMarkInTransit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	_, err := f.uc.MarkInTransit(ctx, proc.ID, almacen)
	require.NoError(t, err)

	_, err = f.uc.CreateDispatch(ctx, proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "ABC-123",
		DriverName:    "Pedro Rojas",
		ActorID:       almacen,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Facturas: conciliación sin tocar el ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterInvoice_AcumulaSinSuperarLoOrdenado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	movsAntes := len(f.store.Movements())
	inv, err := f.uc.RegisterInvoice(ctx, proc.ID, procurement.RegisterInvoiceInput{
		InvoiceNumber: "FV-7701",
		ActorID:       comprador,
		Lines: []procurement.InvoiceLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(70)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", inv.Code)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(70*30)),
		"sin importe explícito se deriva de cantidad*tarifa")
	assert.Len(t, f.store.Movements(), movsAntes, "las facturas nunca escriben en el ledger")

	// Una segunda factura no puede llevar el acumulado por encima de lo ordenado
	_, err = f.uc.RegisterInvoice(ctx, proc.ID, procurement.RegisterInvoiceInput{
		InvoiceNumber: "FV-7702",
		ActorID:       comprador,
		Lines: []procurement.InvoiceLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(31)}, // 70 + 31 > 100
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterInvoice_AutoAvanzaADelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)
	_, err := f.uc.MarkInTransit(ctx, proc.ID, almacen)
	require.NoError(t, err)

	// Primera factura: parcial, la compra sigue in_transit
	_, err = f.uc.RegisterInvoice(ctx, proc.ID, procurement.RegisterInvoiceInput{
		InvoiceNumber: "FV-8801",
		ActorID:       comprador,
		Lines: []procurement.InvoiceLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	current, _, err := f.uc.Get(ctx, proc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProcurementStatusInTransit, current.Status)

	// Segunda factura completa la última línea: auto-delivered
	_, err = f.uc.RegisterInvoice(ctx, proc.ID, procurement.RegisterInvoiceInput{
		InvoiceNumber: "FV-8802",
		ActorID:       comprador,
		Lines: []procurement.InvoiceLineInput{
			{ItemID: grava, Quantity: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)
	current, _, err = f.uc.Get(ctx, proc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProcurementStatusDelivered, current.Status)
	assert.NotNil(t, current.DeliveredAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pagos
// ──────────────────────────────────────────────────────────────────────────────

// deliveredWithInvoice deja la compra delivered con una única factura por el total.
func (f *fixture) deliveredWithInvoice(t *testing.T) (*entity.Procurement, *entity.Invoice) {
	t.Helper()
	ctx := context.Background()
	proc := f.createAccepted(t)
	_, err := f.uc.MarkInTransit(ctx, proc.ID, almacen)
	require.NoError(t, err)
	inv, err := f.uc.RegisterInvoice(ctx, proc.ID, procurement.RegisterInvoiceInput{
		InvoiceNumber: "FV-9901",
		ActorID:       comprador,
		Lines: []procurement.InvoiceLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(100)},
			{ItemID: grava, Quantity: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)
	current, _, err := f.uc.Get(ctx, proc.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ProcurementStatusDelivered, current.Status)
	return current, inv
}

func TestRegisterPayment_ParcialYLuegoTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc, inv := f.deliveredWithInvoice(t)

	// Abono parcial
	paid, err := f.uc.RegisterPayment(ctx, inv.ID, procurement.RegisterPaymentInput{
		Amount:  decimal.NewFromInt(1000),
		Method:  "transferencia",
		ActorID: comprador,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPartiallyPaid, paid.Status)

	current, _, err := f.uc.Get(ctx, proc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProcurementStatusDelivered, current.Status,
		"con la factura a medio pagar la compra sigue delivered")

	// Abono por el resto: factura PAID y compra paid
	paid, err = f.uc.RegisterPayment(ctx, inv.ID, procurement.RegisterPaymentInput{
		Amount:  inv.Amount.Sub(decimal.NewFromInt(1000)),
		Method:  "transferencia",
		ActorID: comprador,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, paid.Status)

	current, _, err = f.uc.Get(ctx, proc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProcurementStatusPaid, current.Status)
	assert.NotNil(t, current.PaidAt)
}

func TestRegisterPayment_FacturaInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RegisterPayment(context.Background(), "inv-fantasma", procurement.RegisterPaymentInput{
		Amount:  decimal.NewFromInt(10),
		ActorID: comprador,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Eliminación con reversión
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_PendingNoTocaElLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.create(t)

	require.NoError(t, f.uc.Delete(ctx, proc.ID, comprador))
	_, _, err := f.uc.Get(ctx, proc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.Movements())
}

func TestDelete_AceptadaRevierteElVirtual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)
	require.True(t, f.virtualQty(t, cemento).Equal(decimal.NewFromInt(100)))

	require.NoError(t, f.uc.Delete(ctx, proc.ID, comprador))

	assert.True(t, f.virtualQty(t, cemento).IsZero())
	assert.True(t, f.virtualQty(t, grava).IsZero())
}

// Borrar una compra delivered netea la obra y el virtual con transiciones
// inversas explícitas, dejando todos los tramos en el log.
func TestDelete_DeliveredRevierteConTransicionesInversas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc, _ := f.deliveredWithInvoice(t)

	require.NoError(t, f.uc.Delete(ctx, proc.ID, comprador))

	virtual, err := f.ledgerUC.VirtualSite(ctx)
	require.NoError(t, err)
	assert.True(t, f.store.Inventory(obra, cemento).Quantity.IsZero())
	assert.True(t, f.store.Inventory(virtual.ID, cemento).Quantity.IsZero())
	assert.True(t, f.store.SumChanges(obra, cemento).IsZero(),
		"el replay por obra también netea a cero")
	assert.True(t, f.store.SumChanges(virtual.ID, cemento).IsZero())
}

func TestDelete_ProhibidoConMaterialEnVuelo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)
	_, err := f.uc.CreateDispatch(ctx, proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "ABC-123",
		DriverName:    "Pedro Rojas",
		ActorID:       almacen,
	})
	require.NoError(t, err)

	err = f.uc.Delete(ctx, proc.ID, comprador)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"in_transit tiene material en vuelo: borrar está prohibido")
}

// Si la obra ya consumió parte de lo entregado, la reversión del borrado no
// alcanza y debe fallar sin dejar efectos parciales.
func TestDelete_DeliveredConStockYaConsumido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc, _ := f.deliveredWithInvoice(t)

	// La obra consume 10 sacos por fuera de la compra
	_, err := f.ledgerUC.RegisterAdjustment(ctx, ledger.AdjustmentInputDTO{
		SiteID:    obra,
		ItemID:    cemento,
		Direction: entity.MovementDirectionOut,
		Quantity:  decimal.NewFromInt(10),
		ActorID:   almacen,
	})
	require.NoError(t, err)

	err = f.uc.Delete(ctx, proc.ID, comprador)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// La transacción se revirtió completa: nada cambió
	assert.True(t, f.store.Inventory(obra, cemento).Quantity.Equal(decimal.NewFromInt(90)))
	_, _, err = f.uc.Get(ctx, proc.ID)
	require.NoError(t, err, "la compra sigue existiendo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListDispatchesEInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	proc := f.createAccepted(t)

	_, err := f.uc.RegisterInvoice(ctx, proc.ID, procurement.RegisterInvoiceInput{
		InvoiceNumber: "FV-1001",
		ActorID:       comprador,
		Lines:         []procurement.InvoiceLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	_, err = f.uc.CreateDispatch(ctx, proc.ID, procurement.CreateDispatchInput{
		VehicleNumber: "ABC-123",
		DriverName:    "Pedro Rojas",
		ActorID:       almacen,
	})
	require.NoError(t, err)

	dispatches, err := f.uc.ListDispatches(ctx, proc.ID)
	require.NoError(t, err)
	assert.Len(t, dispatches, 1)

	invoices, err := f.uc.ListInvoices(ctx, proc.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}
