package entity

// TransitionEvent es la carga que el núcleo produce en cada transición
// exitosa para el colaborador de notificaciones. La entrega y el
// almacenamiento son externos: aquí solo se construye el payload.
type TransitionEvent struct {
	EventType   string   // ej. "material_issue", "machine_transfer", "procurement"
	EventAction string   // ej. "approved", "dispatched", "received"
	ReferenceID string   // ID del registro del flujo
	SiteID      string   // obra interesada
	Title       string
	Description string
	Roles       []string // roles destinatarios
}
