package ports

import (
	"context"

	"github.com/jhoicas/Obras-api/internal/domain/entity"
)

// Notifier recibe los eventos de transición que produce el núcleo.
// La entrega (push, email, persistencia) es responsabilidad del colaborador
// externo; el núcleo solo construye el payload y lo entrega ya confirmada
// la transacción.
type Notifier interface {
	Notify(ctx context.Context, event entity.TransitionEvent)
}
