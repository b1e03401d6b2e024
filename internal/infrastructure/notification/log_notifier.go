package notification

import (
	"context"

	"github.com/jhoicas/Obras-api/internal/application/ports"
	"github.com/jhoicas/Obras-api/internal/domain/entity"
	"github.com/jhoicas/Obras-api/pkg/logger"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier publica los eventos de transición en el log estructurado.
// La entrega real (correo, push, websockets) es un colaborador externo que
// consume estos mismos eventos; el core solo los emite.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador basado en zerolog.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Component("notifier")}
}

// Notify registra el evento ya confirmado (se invoca después del commit).
func (n *LogNotifier) Notify(_ context.Context, ev entity.TransitionEvent) {
	n.log.Info().
		Str("event_type", ev.EventType).
		Str("event_action", ev.EventAction).
		Str("reference_id", ev.ReferenceID).
		Str("site_id", ev.SiteID).
		Strs("roles", ev.Roles).
		Str("title", ev.Title).
		Msg(ev.Description)
}
