package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noormeds",
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noormeds",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	journalDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "noormeds",
			Name:      "activity_journal_depth",
			Help:      "Undelivered activity records in the local journal.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ledgerOps, httpRequests, journalDepth)
	})
}

// IncOp increments the ledger operation counter.
func IncOp(action, outcome string) {
	ledgerOps.WithLabelValues(action, outcome).Inc()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// SetJournalDepth records the current journal backlog size.
func SetJournalDepth(depth int) {
	journalDepth.Set(float64(depth))
}
