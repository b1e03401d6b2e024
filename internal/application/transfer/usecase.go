package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Obras-api/internal/application/ledger"
	"github.com/jhoicas/Obras-api/internal/application/ports"
	"github.com/jhoicas/Obras-api/internal/domain"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/internal/domain/repository"
)

// TransferUseCase implementa el flujo de traslado, venta o baja de maquinaria.
// No mueve cantidades: espeja el estado de la máquina, con la misma disciplina
// de bloqueo + compare-and-swap que los flujos de inventario. Despacho y
// recepción son transacciones independientes: entre ambas la máquina está en
// vuelo y solo es visible por el registro abierto del traslado.
type TransferUseCase struct {
	txRunner     ledger.TxRunner
	transferRepo repository.MachineTransferRepository
	machineRepo  repository.MachineRepository
	siteRepo     repository.SiteRepository
	notifier     ports.Notifier
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner ledger.TxRunner,
	transferRepo repository.MachineTransferRepository,
	machineRepo repository.MachineRepository,
	siteRepo repository.SiteRepository,
	notifier ports.Notifier,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:     txRunner,
		transferRepo: transferRepo,
		machineRepo:  machineRepo,
		siteRepo:     siteRepo,
		notifier:     notifier,
	}
}

// RequestInput entrada para solicitar un traslado/venta/baja de máquina.
type RequestInput struct {
	MachineID         string
	RequestType       string
	DestinationSiteID *string
	ActorID           string
}

// Request crea la solicitud en PENDING. Para SITE_TRANSFER la máquina queda
// marcada IN_TRANSFER de inmediato, lo que impide solicitudes concurrentes
// sobre el mismo activo (la máquina debe estar IN_USE para ser solicitada).
func (uc *TransferUseCase) Request(ctx context.Context, input RequestInput) (*entity.MachineTransfer, error) {
	if input.MachineID == "" || input.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch input.RequestType {
	case entity.TransferTypeSiteTransfer:
		if input.DestinationSiteID == nil || *input.DestinationSiteID == "" {
			return nil, domain.ErrInvalidInput
		}
		if dest, err := uc.siteRepo.GetByID(*input.DestinationSiteID); err != nil || dest == nil {
			return nil, domain.ErrNotFound
		}
	case entity.TransferTypeSellMachine, entity.TransferTypeScrapMachine:
		if input.DestinationSiteID != nil {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	var transfer *entity.MachineTransfer
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		machine, err := r.Machines.GetByIDForUpdate(input.MachineID)
		if err != nil {
			return err
		}
		if machine == nil {
			return domain.ErrNotFound
		}
		if machine.Status != entity.MachineStatusInUse || machine.SiteID == nil {
			return domain.ErrInvalidTransition
		}
		if input.DestinationSiteID != nil && *input.DestinationSiteID == *machine.SiteID {
			return domain.ErrInvalidInput
		}
		seq, err := r.Transfers.NextCode()
		if err != nil {
			return err
		}
		now := time.Now()
		transfer = &entity.MachineTransfer{
			ID:                uuid.New().String(),
			Code:              fmt.Sprintf("MT-%06d", seq),
			MachineID:         machine.ID,
			CurrentSiteID:     *machine.SiteID,
			DestinationSiteID: input.DestinationSiteID,
			RequestType:       input.RequestType,
			Status:            entity.TransferStatusPending,
			RequestedBy:       input.ActorID,
			RequestedAt:       now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := r.Transfers.Create(transfer); err != nil {
			return err
		}
		if input.RequestType == entity.TransferTypeSiteTransfer {
			return r.Machines.UpdateStatus(machine.ID, entity.MachineStatusInTransfer, machine.SiteID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, transfer, "requested", "Solicitud de traslado de maquinaria creada")
	return transfer, nil
}

// Approve avanza PENDING -> APPROVED. Venta y baja terminan aquí: la máquina
// pasa a SOLD/SCRAP y se desvincula de su obra (no hay despacho ni recepción).
func (uc *TransferUseCase) Approve(ctx context.Context, id, actorID string) (*entity.MachineTransfer, error) {
	transfer, err := uc.transition(ctx, id, entity.TransferStatusPending, func(r ledger.Repos, t *entity.MachineTransfer, now time.Time) error {
		t.Status = entity.TransferStatusApproved
		t.ApprovedBy = &actorID
		t.ApprovedAt = &now
		switch t.RequestType {
		case entity.TransferTypeSellMachine:
			return r.Machines.UpdateStatus(t.MachineID, entity.MachineStatusSold, nil)
		case entity.TransferTypeScrapMachine:
			return r.Machines.UpdateStatus(t.MachineID, entity.MachineStatusScrap, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, transfer, "approved", "Traslado de maquinaria aprobado")
	return transfer, nil
}

// Dispatch avanza APPROVED -> DISPATCHED (solo SITE_TRANSFER). Precondición de
// autorización: solo la obra actual puede despachar su propia máquina.
func (uc *TransferUseCase) Dispatch(ctx context.Context, id, actorID, actorSiteID string) (*entity.MachineTransfer, error) {
	transfer, err := uc.transition(ctx, id, entity.TransferStatusApproved, func(r ledger.Repos, t *entity.MachineTransfer, now time.Time) error {
		if t.RequestType != entity.TransferTypeSiteTransfer {
			return domain.ErrInvalidTransition
		}
		if actorSiteID == "" || actorSiteID != t.CurrentSiteID {
			return domain.ErrForbidden
		}
		t.Status = entity.TransferStatusDispatched
		t.DispatchedBy = &actorID
		t.DispatchedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, transfer, "dispatched", "Máquina despachada hacia la obra destino")
	return transfer, nil
}

// Receive avanza DISPATCHED -> RECEIVED. Solo la obra destino puede recibir;
// la máquina queda IN_USE y asignada a la obra destino.
func (uc *TransferUseCase) Receive(ctx context.Context, id, actorID, actorSiteID string) (*entity.MachineTransfer, error) {
	transfer, err := uc.transition(ctx, id, entity.TransferStatusDispatched, func(r ledger.Repos, t *entity.MachineTransfer, now time.Time) error {
		if t.DestinationSiteID == nil {
			return domain.ErrInvalidTransition
		}
		if actorSiteID == "" || actorSiteID != *t.DestinationSiteID {
			return domain.ErrForbidden
		}
		t.Status = entity.TransferStatusReceived
		t.ReceivedBy = &actorID
		t.ReceivedAt = &now
		return r.Machines.UpdateStatus(t.MachineID, entity.MachineStatusInUse, t.DestinationSiteID)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, transfer, "received", "Máquina recibida en la obra destino")
	return transfer, nil
}

// Reject rechaza la solicitud (solo PENDING) y revierte la máquina a IN_USE.
func (uc *TransferUseCase) Reject(ctx context.Context, id, actorID string) (*entity.MachineTransfer, error) {
	transfer, err := uc.transition(ctx, id, entity.TransferStatusPending, func(r ledger.Repos, t *entity.MachineTransfer, now time.Time) error {
		t.Status = entity.TransferStatusRejected
		t.RejectedBy = &actorID
		t.RejectedAt = &now
		return r.Machines.UpdateStatus(t.MachineID, entity.MachineStatusInUse, &t.CurrentSiteID)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, transfer, "rejected", "Traslado de maquinaria rechazado")
	return transfer, nil
}

// Get devuelve la solicitud por ID.
func (uc *TransferUseCase) Get(ctx context.Context, id string) (*entity.MachineTransfer, error) {
	transfer, err := uc.transferRepo.GetByID(id)
	if err != nil || transfer == nil {
		return nil, domain.ErrNotFound
	}
	return transfer, nil
}

// ListBySite lista las solicitudes originadas en una obra.
func (uc *TransferUseCase) ListBySite(ctx context.Context, siteID string, limit, offset int) ([]*entity.MachineTransfer, error) {
	return uc.transferRepo.ListBySite(siteID, limit, offset)
}

func (uc *TransferUseCase) transition(ctx context.Context, id, expected string, apply func(r ledger.Repos, t *entity.MachineTransfer, now time.Time) error) (*entity.MachineTransfer, error) {
	var transfer *entity.MachineTransfer
	err := uc.txRunner.Run(ctx, func(r ledger.Repos) error {
		var err error
		transfer, err = r.Transfers.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if transfer.Status != expected {
			return domain.ErrInvalidTransition
		}
		now := time.Now()
		if err := apply(r, transfer, now); err != nil {
			return err
		}
		transfer.UpdatedAt = now
		return r.Transfers.UpdateIf(transfer, expected)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (uc *TransferUseCase) notify(ctx context.Context, t *entity.MachineTransfer, action, title string) {
	if uc.notifier == nil || t == nil {
		return
	}
	uc.notifier.Notify(ctx, entity.TransitionEvent{
		EventType:   "machine_transfer",
		EventAction: action,
		ReferenceID: t.ID,
		SiteID:      t.CurrentSiteID,
		Title:       title,
		Description: fmt.Sprintf("%s (%s)", title, t.Code),
		Roles:       []string{"admin", "ingeniero"},
	})
}
