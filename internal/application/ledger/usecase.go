package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

// LedgerUseCase es el dueño exclusivo de las filas SiteInventory. Expone las
// primitivas reserve/release/debit/credit que consumen todos los flujos,
// siempre bajo bloqueo de fila (SELECT FOR UPDATE) y dentro de una transacción
// que muta el inventario y anexa la entrada del log de movimientos como un
// todo atómico.
type LedgerUseCase struct {
	txRunner TxRunner
	invRepo  repository.SiteInventoryRepository
	movRepo  repository.StockMovementRepository
	siteRepo repository.SiteRepository
	itemRepo repository.ItemRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	invRepo repository.SiteInventoryRepository,
	movRepo repository.StockMovementRepository,
	siteRepo repository.SiteRepository,
	itemRepo repository.ItemRepository,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner: txRunner,
		invRepo:  invRepo,
		movRepo:  movRepo,
		siteRepo: siteRepo,
		itemRepo: itemRepo,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Primitivas en transacción (las consumen los flujos desde su propia tx)
// ──────────────────────────────────────────────────────────────────────────────

// lockRow crea la fila con saldos en cero si no existe y la bloquea.
// Una fila inexistente no se puede bloquear, por eso Ensure va primero.
func lockRow(r Repos, siteID, itemID string) (*entity.SiteInventory, error) {
	if err := r.Inventory.Ensure(siteID, itemID); err != nil {
		return nil, err
	}
	return r.Inventory.GetForUpdate(siteID, itemID)
}

// ReserveInTx incrementa LockedQuantity si hay disponibilidad suficiente
// (Quantity - LockedQuantity >= qty, comparado bajo bloqueo de fila).
// Dos reservas concurrentes sobre el mismo par no pueden aprobarse ambas
// contra el mismo excedente.
func (uc *LedgerUseCase) ReserveInTx(r Repos, siteID, itemID string, qty decimal.Decimal) (*entity.SiteInventory, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	inv, err := lockRow(r, siteID, itemID)
	if err != nil {
		return nil, err
	}
	if inv.Available().LessThan(qty) {
		return nil, domain.ErrInsufficientStock
	}
	inv.LockedQuantity = inv.LockedQuantity.Add(qty)
	inv.UpdatedAt = time.Now()
	if err := r.Inventory.Upsert(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ReleaseInTx decrementa LockedQuantity. El resultado se restablece en cero
// como paso explícito de restauración del invariante LockedQuantity >= 0.
// No genera entrada en el log: la cantidad física no cambió.
func (uc *LedgerUseCase) ReleaseInTx(r Repos, siteID, itemID string, qty decimal.Decimal) (*entity.SiteInventory, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	inv, err := lockRow(r, siteID, itemID)
	if err != nil {
		return nil, err
	}
	inv.LockedQuantity = inv.LockedQuantity.Sub(qty)
	inv.RestoreLockedInvariant()
	inv.UpdatedAt = time.Now()
	if err := r.Inventory.Upsert(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// DebitInTx resta qty de la existencia física y anexa la entrada OUT del log.
// Con settleReservation la resta también liquida la reserva previa; sin ella
// es un débito directo (ej. despacho de compras desde el almacén virtual).
// Falla con ErrInsufficientStock si la cantidad resultante quedaría negativa
// o por debajo de lo que otros flujos mantienen reservado.
func (uc *LedgerUseCase) DebitInTx(r Repos, siteID, itemID string, qty decimal.Decimal, settleReservation bool, sourceType, sourceID, actor string) (*entity.SiteInventory, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	inv, err := lockRow(r, siteID, itemID)
	if err != nil {
		return nil, err
	}
	if inv.Quantity.LessThan(qty) {
		return nil, domain.ErrInsufficientStock
	}
	remaining := inv.Quantity.Sub(qty)
	locked := inv.LockedQuantity
	if settleReservation {
		locked = locked.Sub(qty)
	}
	// Un débito directo no puede comerse stock reservado por otros flujos.
	if remaining.LessThan(locked) {
		return nil, domain.ErrInsufficientStock
	}
	now := time.Now()
	inv.Quantity = remaining
	inv.LockedQuantity = locked
	inv.RestoreLockedInvariant()
	inv.RecomputeStatus()
	inv.UpdatedAt = now
	if err := r.Inventory.Upsert(inv); err != nil {
		return nil, err
	}
	entry := &entity.StockMovementLogEntry{
		ID:         uuid.New().String(),
		SiteID:     siteID,
		ItemID:     itemID,
		Change:     qty.Neg(),
		Direction:  entity.MovementDirectionOut,
		SourceType: sourceType,
		SourceID:   sourceID,
		CreatedBy:  actor,
		CreatedAt:  now,
	}
	if err := r.Movements.Append(entry); err != nil {
		return nil, err
	}
	return inv, nil
}

// CreditInTx suma qty a la existencia física y anexa la entrada IN del log.
// Siempre tiene éxito: crea la fila si no existe.
func (uc *LedgerUseCase) CreditInTx(r Repos, siteID, itemID string, qty decimal.Decimal, sourceType, sourceID, actor string) (*entity.SiteInventory, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	inv, err := lockRow(r, siteID, itemID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	inv.Quantity = inv.Quantity.Add(qty)
	inv.RecomputeStatus()
	inv.UpdatedAt = now
	if err := r.Inventory.Upsert(inv); err != nil {
		return nil, err
	}
	entry := &entity.StockMovementLogEntry{
		ID:         uuid.New().String(),
		SiteID:     siteID,
		ItemID:     itemID,
		Change:     qty,
		Direction:  entity.MovementDirectionIn,
		SourceType: sourceType,
		SourceID:   sourceID,
		CreatedBy:  actor,
		CreatedAt:  now,
	}
	if err := r.Movements.Append(entry); err != nil {
		return nil, err
	}
	return inv, nil
}

// VirtualSiteInTx devuelve la obra virtual de tránsito, creándola en la
// primera llamada. El índice único parcial sobre kind='virtual' garantiza que
// dos primeros llamadores concurrentes no creen dos: el perdedor recibe
// ErrDuplicate y relee.
func (uc *LedgerUseCase) VirtualSiteInTx(r Repos) (*entity.Site, error) {
	site, err := r.Sites.GetVirtual()
	if err != nil {
		return nil, err
	}
	if site != nil {
		return site, nil
	}
	now := time.Now()
	site = &entity.Site{
		ID:        uuid.New().String(),
		Name:      "Almacén Virtual de Tránsito",
		Kind:      entity.SiteKindVirtual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Sites.Create(site); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return r.Sites.GetVirtual()
		}
		return nil, err
	}
	return site, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Operaciones públicas (controllers)
// ──────────────────────────────────────────────────────────────────────────────

// AdjustmentInputDTO entrada para un ajuste manual de inventario.
type AdjustmentInputDTO struct {
	SiteID    string
	ItemID    string
	Direction string // IN | OUT
	Quantity  decimal.Decimal
	ActorID   string
	Reference string
}

// RegisterAdjustment aplica un ajuste manual (entrada o salida) como su propia
// transacción, con la misma disciplina de bloqueo y log que los flujos.
func (uc *LedgerUseCase) RegisterAdjustment(ctx context.Context, input AdjustmentInputDTO) (*entity.SiteInventory, error) {
	if input.SiteID == "" || input.ItemID == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if input.Direction != entity.MovementDirectionIn && input.Direction != entity.MovementDirectionOut {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.requireSiteAndItem(input.SiteID, input.ItemID); err != nil {
		return nil, err
	}
	ref := input.Reference
	if ref == "" {
		ref = uuid.New().String()
	}
	var snapshot *entity.SiteInventory
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		if input.Direction == entity.MovementDirectionIn {
			snapshot, err = uc.CreditInTx(r, input.SiteID, input.ItemID, input.Quantity, entity.MovementSourceAdjustment, ref, input.ActorID)
		} else {
			snapshot, err = uc.DebitInTx(r, input.SiteID, input.ItemID, input.Quantity, false, entity.MovementSourceAdjustment, ref, input.ActorID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Reserve reserva qty contra la disponibilidad de (obra, ítem) en su propia transacción.
func (uc *LedgerUseCase) Reserve(ctx context.Context, siteID, itemID string, qty decimal.Decimal) (*entity.SiteInventory, error) {
	var snapshot *entity.SiteInventory
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		snapshot, err = uc.ReserveInTx(r, siteID, itemID, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Release libera qty de la reserva de (obra, ítem) en su propia transacción.
func (uc *LedgerUseCase) Release(ctx context.Context, siteID, itemID string, qty decimal.Decimal) (*entity.SiteInventory, error) {
	var snapshot *entity.SiteInventory
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		snapshot, err = uc.ReleaseInTx(r, siteID, itemID, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// VirtualSite devuelve (creando si hace falta) la obra virtual de tránsito.
func (uc *LedgerUseCase) VirtualSite(ctx context.Context) (*entity.Site, error) {
	var site *entity.Site
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		site, err = uc.VirtualSiteInTx(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// Levels lista el inventario de una obra (lectura, sin transacción).
func (uc *LedgerUseCase) Levels(ctx context.Context, siteID string, limit, offset int) ([]*entity.SiteInventory, error) {
	if siteID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.invRepo.ListBySite(siteID, limit, offset)
}

// Movements lista el log de movimientos de una obra (y opcionalmente un ítem).
func (uc *LedgerUseCase) Movements(ctx context.Context, siteID, itemID string, limit, offset int) ([]*entity.StockMovementLogEntry, error) {
	if siteID == "" {
		return nil, domain.ErrInvalidInput
	}
	if itemID != "" {
		return uc.movRepo.ListBySiteItem(siteID, itemID, limit, offset)
	}
	return uc.movRepo.ListBySite(siteID, limit, offset)
}

// Reconcile compara la Quantity actual de (obra, ítem) contra la suma de los
// Change del log (equivalencia por replay). Devuelve ambas cifras.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, siteID, itemID string) (current, replayed decimal.Decimal, err error) {
	inv, err := uc.invRepo.Get(siteID, itemID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	current = decimal.Zero
	if inv != nil {
		current = inv.Quantity
	}
	sum, err := uc.movRepo.SumChanges(siteID, itemID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return current, sum, nil
}

func (uc *LedgerUseCase) requireSiteAndItem(siteID, itemID string) error {
	site, err := uc.siteRepo.GetByID(siteID)
	if err != nil || site == nil {
		return domain.ErrNotFound
	}
	item, err := uc.itemRepo.GetByID(itemID)
	if err != nil || item == nil {
		return domain.ErrNotFound
	}
	return nil
}
