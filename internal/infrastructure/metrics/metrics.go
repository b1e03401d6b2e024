package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores Prometheus del servicio. Se registran en el registry global y se
// exponen en /metrics.
var (
	// LedgerOps cuenta operaciones del ledger por tipo y resultado.
	LedgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obras",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Operaciones del ledger de inventario (reserve, release, debit, credit).",
	}, []string{"operation", "result"})

	// WorkflowTransitions cuenta transiciones de estado por flujo y acción.
	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "obras",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Transiciones de estado de los flujos (issue, transfer, procurement).",
	}, []string{"workflow", "action", "result"})

	// TxConflicts cuenta los compare-and-swap perdidos (reintentables).
	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obras",
		Subsystem: "workflow",
		Name:      "cas_conflicts_total",
		Help:      "Transiciones rechazadas por conflicto de concurrencia (estado esperado distinto).",
	})
)

// ObserveLedgerOp registra el resultado de una operación del ledger.
func ObserveLedgerOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	LedgerOps.WithLabelValues(operation, result).Inc()
}

// ObserveTransition registra el resultado de una transición de flujo.
func ObserveTransition(workflow, action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	WorkflowTransitions.WithLabelValues(workflow, action, result).Inc()
}
