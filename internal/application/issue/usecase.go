package issue

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

// IssueUseCase implementa el flujo de salidas de material (consumo o traslado
// entre obras). Cada transición corre en una sola transacción que valida el
// estado bajo bloqueo de fila, aplica los efectos sobre el ledger y avanza el
// estado con compare-and-swap; una transición contra un estado obsoleto falla
// en lugar de aplicar efectos dos veces.
type IssueUseCase struct {
	txRunner  ledger.TxRunner
	ledgerUC  *ledger.LedgerUseCase
	issueRepo repository.MaterialIssueRepository
	siteRepo  repository.SiteRepository
	itemRepo  repository.ItemRepository
	notifier  ports.Notifier
}

// NewIssueUseCase construye el caso de uso.
func NewIssueUseCase(
	txRunner ledger.TxRunner,
	ledgerUC *ledger.LedgerUseCase,
	issueRepo repository.MaterialIssueRepository,
	siteRepo repository.SiteRepository,
	itemRepo repository.ItemRepository,
	notifier ports.Notifier,
) *IssueUseCase {
	return &IssueUseCase{
		txRunner:  txRunner,
		ledgerUC:  ledgerUC,
		issueRepo: issueRepo,
		siteRepo:  siteRepo,
		itemRepo:  itemRepo,
		notifier:  notifier,
	}
}

// CreateIssueLineInput línea de una salida de material.
type CreateIssueLineInput struct {
	ItemID    string
	Quantity  decimal.Decimal
	MachineID *string
}

// CreateIssueInput entrada para crear una salida de material.
// Para SITE_TRANSFER, DestinationSiteID es obligatorio y distinto del origen.
type CreateIssueInput struct {
	IssueType         string
	SiteID            string
	DestinationSiteID *string
	RequisitionID     *string
	ActorID           string
	Lines             []CreateIssueLineInput
}

// Create valida, reserva cada línea contra la obra origen y persiste la
// cabecera con sus líneas en PENDING — todo en una transacción: si una sola
// reserva falla, ninguna sobrevive.
func (uc *IssueUseCase) Create(ctx context.Context, input CreateIssueInput) (*entity.MaterialIssue, error) {
	if input.SiteID == "" || input.ActorID == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	switch input.IssueType {
	case entity.IssueTypeConsumption:
		if input.DestinationSiteID != nil {
			return nil, domain.ErrInvalidInput
		}
	case entity.IssueTypeSiteTransfer:
		if input.DestinationSiteID == nil || *input.DestinationSiteID == "" || *input.DestinationSiteID == input.SiteID {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	// Validaciones de existencia fuera de la tx (solo lectura)
	if site, err := uc.siteRepo.GetByID(input.SiteID); err != nil || site == nil {
		return nil, domain.ErrNotFound
	}
	if input.DestinationSiteID != nil {
		if dest, err := uc.siteRepo.GetByID(*input.DestinationSiteID); err != nil || dest == nil {
			return nil, domain.ErrNotFound
		}
	}
	for _, line := range input.Lines {
		if line.ItemID == "" || !line.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		if item, err := uc.itemRepo.GetByID(line.ItemID); err != nil || item == nil {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	issue := &entity.MaterialIssue{
		ID:                uuid.New().String(),
		IssueType:         input.IssueType,
		Status:            entity.IssueStatusPending,
		SiteID:            input.SiteID,
		DestinationSiteID: input.DestinationSiteID,
		RequisitionID:     input.RequisitionID,
		RequestedBy:       input.ActorID,
		RequestedAt:       now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		// Código legible generado como paso explícito dentro de la misma tx del create
		seq, err := r.Issues.NextCode()
		if err != nil {
			return err
		}
		issue.Code = fmt.Sprintf("MI-%06d", seq)
		if err := r.Issues.Create(issue); err != nil {
			return err
		}
		for _, line := range input.Lines {
			if _, err := uc.ledgerUC.ReserveInTx(r, input.SiteID, line.ItemID, line.Quantity); err != nil {
				return err
			}
			item := &entity.MaterialIssueItem{
				ID:                uuid.New().String(),
				IssueID:           issue.ID,
				ItemID:            line.ItemID,
				Quantity:          line.Quantity,
				SourceSiteID:      input.SiteID,
				DestinationSiteID: input.DestinationSiteID,
				MachineID:         line.MachineID,
			}
			if err := r.Issues.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, issue, "created", "Salida de material creada")
	return issue, nil
}

// Approve avanza PENDING -> APPROVED. Sin efecto sobre el ledger.
func (uc *IssueUseCase) Approve(ctx context.Context, id, actorID string) (*entity.MaterialIssue, error) {
	issue, err := uc.transition(ctx, id, entity.IssueStatusPending, func(r ledger.Repos, issue *entity.MaterialIssue, now time.Time) error {
		issue.Status = entity.IssueStatusApproved
		issue.ApprovedBy = &actorID
		issue.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, issue, "approved", "Salida de material aprobada")
	return issue, nil
}

// Dispatch avanza APPROVED -> DISPATCHED (solo SITE_TRANSFER): debita cada
// línea en la obra origen liquidando su reserva. Abre la ventana "en vuelo":
// la cantidad deja de figurar en el inventario de cualquier obra hasta el receive.
func (uc *IssueUseCase) Dispatch(ctx context.Context, id, actorID string) (*entity.MaterialIssue, error) {
	issue, err := uc.transition(ctx, id, entity.IssueStatusApproved, func(r ledger.Repos, issue *entity.MaterialIssue, now time.Time) error {
		if issue.IssueType != entity.IssueTypeSiteTransfer {
			return domain.ErrInvalidTransition
		}
		lines, err := r.Issues.GetItems(issue.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := uc.ledgerUC.DebitInTx(r, line.SourceSiteID, line.ItemID, line.Quantity, true, entity.MovementSourceIssue, issue.ID, actorID); err != nil {
				return err
			}
		}
		issue.Status = entity.IssueStatusDispatched
		issue.DispatchedBy = &actorID
		issue.DispatchedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, issue, "dispatched", "Material despachado hacia la obra destino")
	return issue, nil
}

// Receive avanza DISPATCHED -> RECEIVED (solo SITE_TRANSFER): acredita cada
// línea en la obra destino y cierra la ventana en vuelo.
func (uc *IssueUseCase) Receive(ctx context.Context, id, actorID string) (*entity.MaterialIssue, error) {
	issue, err := uc.transition(ctx, id, entity.IssueStatusDispatched, func(r ledger.Repos, issue *entity.MaterialIssue, now time.Time) error {
		if issue.IssueType != entity.IssueTypeSiteTransfer {
			return domain.ErrInvalidTransition
		}
		lines, err := r.Issues.GetItems(issue.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			dest := issue.DestinationSiteID
			if line.DestinationSiteID != nil {
				dest = line.DestinationSiteID
			}
			if dest == nil {
				return domain.ErrInvalidInput
			}
			if _, err := uc.ledgerUC.CreditInTx(r, *dest, line.ItemID, line.Quantity, entity.MovementSourceIssue, issue.ID, actorID); err != nil {
				return err
			}
		}
		issue.Status = entity.IssueStatusReceived
		issue.ReceivedBy = &actorID
		issue.ReceivedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, issue, "received", "Material recibido en la obra destino")
	return issue, nil
}

// Consume avanza APPROVED -> CONSUMED (solo CONSUMPTION): debita cada línea
// en la obra origen liquidando su reserva.
func (uc *IssueUseCase) Consume(ctx context.Context, id, actorID string) (*entity.MaterialIssue, error) {
	issue, err := uc.transition(ctx, id, entity.IssueStatusApproved, func(r ledger.Repos, issue *entity.MaterialIssue, now time.Time) error {
		if issue.IssueType != entity.IssueTypeConsumption {
			return domain.ErrInvalidTransition
		}
		lines, err := r.Issues.GetItems(issue.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := uc.ledgerUC.DebitInTx(r, line.SourceSiteID, line.ItemID, line.Quantity, true, entity.MovementSourceConsumption, issue.ID, actorID); err != nil {
				return err
			}
		}
		issue.Status = entity.IssueStatusConsumed
		issue.ReceivedBy = &actorID
		issue.ReceivedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, issue, "consumed", "Material consumido en obra")
	return issue, nil
}

// Reject rechaza la salida y libera la reserva viva de cada línea. Solo es
// legal mientras la reserva existe (PENDING o APPROVED): tras el despacho el
// material está en vuelo y la única salida es el receive o una reversión
// compensatoria del operador.
func (uc *IssueUseCase) Reject(ctx context.Context, id, actorID string) (*entity.MaterialIssue, error) {
	var issue *entity.MaterialIssue
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		var err error
		issue, err = r.Issues.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if issue == nil {
			return domain.ErrNotFound
		}
		if !issue.HasOutstandingReservation() {
			return domain.ErrInvalidTransition
		}
		expected := issue.Status
		lines, err := r.Issues.GetItems(issue.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := uc.ledgerUC.ReleaseInTx(r, line.SourceSiteID, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		now := time.Now()
		issue.Status = entity.IssueStatusRejected
		issue.RejectedBy = &actorID
		issue.RejectedAt = &now
		issue.UpdatedAt = now
		return r.Issues.UpdateIf(issue, expected)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, issue, "rejected", "Salida de material rechazada")
	return issue, nil
}

// Get devuelve la cabecera con sus líneas.
func (uc *IssueUseCase) Get(ctx context.Context, id string) (*entity.MaterialIssue, []*entity.MaterialIssueItem, error) {
	issue, err := uc.issueRepo.GetByID(id)
	if err != nil || issue == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := uc.issueRepo.GetItems(id)
	if err != nil {
		return nil, nil, err
	}
	return issue, items, nil
}

// ListBySite lista las salidas de una obra.
func (uc *IssueUseCase) ListBySite(ctx context.Context, siteID string, limit, offset int) ([]*entity.MaterialIssue, error) {
	return uc.issueRepo.ListBySite(siteID, limit, offset)
}

// transition ejecuta una transición bajo bloqueo de fila + CAS sobre el estado
// leído dentro de la misma transacción que los efectos.
func (uc *IssueUseCase) transition(ctx context.Context, id, expected string, apply func(r ledger.Repos, issue *entity.MaterialIssue, now time.Time) error) (*entity.MaterialIssue, error) {
	var issue *entity.MaterialIssue
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		var err error
		issue, err = r.Issues.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if issue == nil {
			return domain.ErrNotFound
		}
		if issue.Status != expected {
			return domain.ErrInvalidTransition
		}
		now := time.Now()
		if err := apply(r, issue, now); err != nil {
			return err
		}
		issue.UpdatedAt = now
		return r.Issues.UpdateIf(issue, expected)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (uc *IssueUseCase) notify(ctx context.Context, issue *entity.MaterialIssue, action, title string) {
	if uc.notifier == nil || issue == nil {
		return
	}
	uc.notifier.Notify(ctx, entity.TransitionEvent{
		EventType:   "material_issue",
		EventAction: action,
		ReferenceID: issue.ID,
		SiteID:      issue.SiteID,
		Title:       title,
		Description: fmt.Sprintf("%s (%s)", title, issue.Code),
		Roles:       []string{"admin", "almacenista"},
	})
}
