package issue_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Obras-api/internal/application/issue"
	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	origen    = "site-origen"
	destino   = "site-destino"
	cemento   = "item-cemento"
	varilla   = "item-varilla"
	bodeguero = "user-almacenista"
	ingeniero = "user-ingeniero"
)

// recordingNotifier captura los eventos emitidos por el flujo.
type recordingNotifier struct {
	events []entity.TransitionEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event entity.TransitionEvent) {
	n.events = append(n.events, event)
}

func newIssueFixture(t *testing.T) (*memory.Store, *issue.IssueUseCase, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore()
	store.SeedSite(entity.Site{ID: origen, Name: "Obra Origen", Kind: entity.SiteKindPhysical})
	store.SeedSite(entity.Site{ID: destino, Name: "Obra Destino", Kind: entity.SiteKindPhysical})
	store.SeedItem(entity.Item{ID: cemento, SKU: "CEM-001", Name: "Cemento gris", Unit: "saco"})
	store.SeedItem(entity.Item{ID: varilla, SKU: "VAR-012", Name: "Varilla 1/2", Unit: "und"})
	store.SeedInventory(entity.SiteInventory{
		SiteID: origen, ItemID: cemento,
		Quantity: decimal.NewFromInt(100),
		Status:   entity.StockStatusInStock,
	})
	store.SeedInventory(entity.SiteInventory{
		SiteID: origen, ItemID: varilla,
		Quantity: decimal.NewFromInt(40),
		Status:   entity.StockStatusInStock,
	})

	repos := store.Repos()
	ledgerUC := ledger.NewLedgerUseCase(store, repos.Inventory, repos.Movements, repos.Sites, repos.Items)
	notifier := &recordingNotifier{}
	uc := issue.NewIssueUseCase(store, ledgerUC, repos.Issues, repos.Sites, repos.Items, notifier)
	return store, uc, notifier
}

func newTransferIssue(t *testing.T, uc *issue.IssueUseCase, qty int64) *entity.MaterialIssue {
	t.Helper()
	dest := destino
	created, err := uc.Create(context.Background(), issue.CreateIssueInput{
		IssueType:         entity.IssueTypeSiteTransfer,
		SiteID:            origen,
		DestinationSiteID: &dest,
		ActorID:           bodeguero,
		Lines: []issue.CreateIssueLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(qty)},
		},
	})
	require.NoError(t, err)
	return created
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ReservaCadaLineaYQuedaPendiente(t *testing.T) {
	store, uc, notifier := newIssueFixture(t)

	created, err := uc.Create(context.Background(), issue.CreateIssueInput{
		IssueType: entity.IssueTypeConsumption,
		SiteID:    origen,
		ActorID:   bodeguero,
		Lines: []issue.CreateIssueLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(30)},
			{ItemID: varilla, Quantity: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.IssueStatusPending, created.Status)
	assert.Equal(t, "MI-000001", created.Code, "código legible generado en la misma transacción")
	assert.True(t, store.Inventory(origen, cemento).LockedQuantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, store.Inventory(origen, varilla).LockedQuantity.Equal(decimal.NewFromInt(10)))

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "material_issue", notifier.events[0].EventType)
	assert.Equal(t, "created", notifier.events[0].EventAction)
}

// Si una sola línea no tiene disponibilidad, ninguna reserva sobrevive: el
// create es todo-o-nada.
func TestCreate_FallaUnaLineaNoSobreviveNinguna(t *testing.T) {
	store, uc, _ := newIssueFixture(t)

	_, err := uc.Create(context.Background(), issue.CreateIssueInput{
		IssueType: entity.IssueTypeConsumption,
		SiteID:    origen,
		ActorID:   bodeguero,
		Lines: []issue.CreateIssueLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(30)},
			{ItemID: varilla, Quantity: decimal.NewFromInt(41)}, // solo hay 40
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, store.Inventory(origen, cemento).LockedQuantity.IsZero(),
		"la reserva de la primera línea debe revertirse")
	assert.True(t, store.Inventory(origen, varilla).LockedQuantity.IsZero())
}

func TestCreate_ValidacionesDeTipo(t *testing.T) {
	_, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	dest := destino
	mismaObra := origen

	// CONSUMPTION no admite obra destino
	_, err := uc.Create(ctx, issue.CreateIssueInput{
		IssueType:         entity.IssueTypeConsumption,
		SiteID:            origen,
		DestinationSiteID: &dest,
		ActorID:           bodeguero,
		Lines:             []issue.CreateIssueLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// SITE_TRANSFER exige destino distinto del origen
	_, err = uc.Create(ctx, issue.CreateIssueInput{
		IssueType:         entity.IssueTypeSiteTransfer,
		SiteID:            origen,
		DestinationSiteID: &mismaObra,
		ActorID:           bodeguero,
		Lines:             []issue.CreateIssueLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// SITE_TRANSFER sin destino
	_, err = uc.Create(ctx, issue.CreateIssueInput{
		IssueType: entity.IssueTypeSiteTransfer,
		SiteID:    origen,
		ActorID:   bodeguero,
		Lines:     []issue.CreateIssueLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslado entre obras: ciclo completo y conservación
// ──────────────────────────────────────────────────────────────────────────────

func TestSiteTransfer_CicloCompletoConservaElTotal(t *testing.T) {
	store, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	created := newTransferIssue(t, uc, 25)

	_, err := uc.Approve(ctx, created.ID, ingeniero)
	require.NoError(t, err)

	// Despacho: débito en origen liquidando la reserva; abre la ventana en vuelo
	dispatched, err := uc.Dispatch(ctx, created.ID, bodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusDispatched, dispatched.Status)

	invOrigen := store.Inventory(origen, cemento)
	assert.True(t, invOrigen.Quantity.Equal(decimal.NewFromInt(75)))
	assert.True(t, invOrigen.LockedQuantity.IsZero(), "la reserva se liquida con el débito")
	assert.True(t, store.Inventory(destino, cemento).Quantity.IsZero(),
		"en vuelo: la cantidad no figura en ninguna obra")

	// Recepción: crédito en destino, cierra la ventana
	received, err := uc.Receive(ctx, created.ID, bodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusReceived, received.Status)

	total := store.Inventory(origen, cemento).Quantity.Add(store.Inventory(destino, cemento).Quantity)
	assert.True(t, total.Equal(decimal.NewFromInt(100)), "el traslado conserva el total entre obras")
	assert.True(t, store.Inventory(destino, cemento).Quantity.Equal(decimal.NewFromInt(25)))

	// El log muestra ambos tramos: débito en origen y crédito en destino. El
	// saldo sembrado no pasa por el log, así que se comparan los deltas.
	assert.True(t, store.SumChanges(origen, cemento).Equal(decimal.NewFromInt(-25)))
	assert.True(t, store.SumChanges(destino, cemento).Equal(decimal.NewFromInt(25)))
	deltaTotal := store.SumChanges(origen, cemento).Add(store.SumChanges(destino, cemento))
	assert.True(t, deltaTotal.IsZero(), "los tramos del traslado se anulan entre sí")
}

// Con el saldo inicial entrando por ajuste, el replay del log reproduce la
// cantidad exacta de cada obra tras el traslado.
func TestSiteTransfer_ReplayDelLogReproduceCadaObra(t *testing.T) {
	store := memory.NewStore()
	store.SeedSite(entity.Site{ID: origen, Name: "Obra Origen", Kind: entity.SiteKindPhysical})
	store.SeedSite(entity.Site{ID: destino, Name: "Obra Destino", Kind: entity.SiteKindPhysical})
	store.SeedItem(entity.Item{ID: cemento, SKU: "CEM-001", Name: "Cemento gris", Unit: "saco"})

	repos := store.Repos()
	ledgerUC := ledger.NewLedgerUseCase(store, repos.Inventory, repos.Movements, repos.Sites, repos.Items)
	uc := issue.NewIssueUseCase(store, ledgerUC, repos.Issues, repos.Sites, repos.Items, nil)
	ctx := context.Background()

	_, err := ledgerUC.RegisterAdjustment(ctx, ledger.AdjustmentInputDTO{
		SiteID:    origen,
		ItemID:    cemento,
		Direction: entity.MovementDirectionIn,
		Quantity:  decimal.NewFromInt(100),
		ActorID:   bodeguero,
	})
	require.NoError(t, err)

	created := newTransferIssue(t, uc, 25)
	_, err = uc.Approve(ctx, created.ID, ingeniero)
	require.NoError(t, err)
	_, err = uc.Dispatch(ctx, created.ID, bodeguero)
	require.NoError(t, err)
	_, err = uc.Receive(ctx, created.ID, bodeguero)
	require.NoError(t, err)

	assert.True(t, store.SumChanges(origen, cemento).Equal(store.Inventory(origen, cemento).Quantity))
	assert.True(t, store.SumChanges(destino, cemento).Equal(store.Inventory(destino, cemento).Quantity))
	assert.True(t, store.SumChanges(origen, cemento).Equal(decimal.NewFromInt(75)))
	assert.True(t, store.SumChanges(destino, cemento).Equal(decimal.NewFromInt(25)))
}

func TestSiteTransfer_TransicionesFueraDeOrden(t *testing.T) {
	_, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	created := newTransferIssue(t, uc, 10)

	// Despachar sin aprobar
	_, err := uc.Dispatch(ctx, created.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Recibir sin despachar
	_, err = uc.Receive(ctx, created.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Aprobar dos veces
	_, err = uc.Approve(ctx, created.ID, ingeniero)
	require.NoError(t, err)
	_, err = uc.Approve(ctx, created.ID, ingeniero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo en la propia obra
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumption_DebitaLaObraYLiquidaLaReserva(t *testing.T) {
	store, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	machine := "machine-retro"

	created, err := uc.Create(ctx, issue.CreateIssueInput{
		IssueType: entity.IssueTypeConsumption,
		SiteID:    origen,
		ActorID:   bodeguero,
		Lines: []issue.CreateIssueLineInput{
			{ItemID: cemento, Quantity: decimal.NewFromInt(20), MachineID: &machine},
		},
	})
	require.NoError(t, err)
	_, err = uc.Approve(ctx, created.ID, ingeniero)
	require.NoError(t, err)

	consumed, err := uc.Consume(ctx, created.ID, bodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusConsumed, consumed.Status)

	inv := store.Inventory(origen, cemento)
	assert.True(t, inv.Quantity.Equal(decimal.NewFromInt(80)))
	assert.True(t, inv.LockedQuantity.IsZero())

	movs := store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementSourceConsumption, movs[0].SourceType)
	assert.Equal(t, created.ID, movs[0].SourceID)
}

// Las guardas de tipo: despachar un consumo o consumir un traslado es ilegal
// aunque el estado sea el esperado.
func TestGuardasDeTipo(t *testing.T) {
	_, uc, _ := newIssueFixture(t)
	ctx := context.Background()

	consumo, err := uc.Create(ctx, issue.CreateIssueInput{
		IssueType: entity.IssueTypeConsumption,
		SiteID:    origen,
		ActorID:   bodeguero,
		Lines:     []issue.CreateIssueLineInput{{ItemID: cemento, Quantity: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	_, err = uc.Approve(ctx, consumo.ID, ingeniero)
	require.NoError(t, err)

	_, err = uc.Dispatch(ctx, consumo.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "un consumo no se despacha")

	traslado := newTransferIssue(t, uc, 5)
	_, err = uc.Approve(ctx, traslado.ID, ingeniero)
	require.NoError(t, err)

	_, err = uc.Consume(ctx, traslado.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "un traslado no se consume")
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazo
// ──────────────────────────────────────────────────────────────────────────────

func TestReject_LiberaLasReservas(t *testing.T) {
	store, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	created := newTransferIssue(t, uc, 15)
	require.True(t, store.Inventory(origen, cemento).LockedQuantity.Equal(decimal.NewFromInt(15)))

	rejected, err := uc.Reject(ctx, created.ID, ingeniero)
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusRejected, rejected.Status)

	inv := store.Inventory(origen, cemento)
	assert.True(t, inv.LockedQuantity.IsZero(), "el rechazo libera la reserva completa")
	assert.True(t, inv.Quantity.Equal(decimal.NewFromInt(100)), "la existencia física no cambió")
}

func TestReject_TambienDesdeApproved(t *testing.T) {
	store, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	created := newTransferIssue(t, uc, 15)
	_, err := uc.Approve(ctx, created.ID, ingeniero)
	require.NoError(t, err)

	_, err = uc.Reject(ctx, created.ID, ingeniero)
	require.NoError(t, err)
	assert.True(t, store.Inventory(origen, cemento).LockedQuantity.IsZero())
}

// Tras el despacho la reserva ya se liquidó y el material está en vuelo:
// rechazar dejaría la cantidad perdida, por eso es ilegal.
func TestReject_ProhibidoTrasElDespacho(t *testing.T) {
	_, uc, _ := newIssueFixture(t)
	ctx := context.Background()
	created := newTransferIssue(t, uc, 15)
	_, err := uc.Approve(ctx, created.ID, ingeniero)
	require.NoError(t, err)
	_, err = uc.Dispatch(ctx, created.ID, bodeguero)
	require.NoError(t, err)

	_, err = uc.Reject(ctx, created.ID, ingeniero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_DevuelveCabeceraConLineas(t *testing.T) {
	_, uc, _ := newIssueFixture(t)
	created := newTransferIssue(t, uc, 5)

	header, lines, err := uc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, header.ID)
	require.Len(t, lines, 1)
	assert.Equal(t, cemento, lines[0].ItemID)
	assert.Equal(t, origen, lines[0].SourceSiteID)

	_, _, err = uc.Get(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
