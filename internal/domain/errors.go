package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrInvalidTransition: la operación no es válida desde el estado actual
	// o para el sub-tipo del flujo (ej. consumir una salida por traslado).
	ErrInvalidTransition = errors.New("transición de estado inválida")
	// ErrConflict: la fila cambió entre lectura y escritura; el caller puede reintentar con backoff.
	ErrConflict = errors.New("conflicto con el estado actual")
)
