// Package metrics exposes Prometheus collectors for the ledger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LoansRecalculated counts loans whose accrued amount was re-derived and persisted.
var LoansRecalculated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledgerbook",
	Name:      "loans_recalculated_total",
	Help:      "Loans whose accrued amount was recalculated and written back.",
})

// RecalcWriteFailures counts recalculated loans that could not be written back.
var RecalcWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "ledgerbook",
	Name:      "recalc_write_failures_total",
	Help:      "Recalculated loans whose write to the store failed.",
})

// Settlements counts settlements by kind ("loan" or "group").
var Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledgerbook",
	Name:      "settlements_total",
	Help:      "Settlements recorded, by kind.",
}, []string{"kind"})

// StoreErrors counts failed store calls by operation.
var StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ledgerbook",
	Name:      "store_errors_total",
	Help:      "Failed document store calls, by operation.",
}, []string{"op"})

// LastRecalcLoans records how many loans the most recent recalculation run touched.
var LastRecalcLoans = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "ledgerbook",
	Name:      "last_recalc_loans",
	Help:      "Loans updated by the most recent recalculation run.",
})
