package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"skillswap/internal/apperr"
)

var (
	// Labels: operation, result (ok, rejected, error)
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillswap",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Ledger operations by outcome",
	}, []string{"operation", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skillswap",
		Subsystem: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Ledger operation latency in seconds",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.IsDomain(err):
		return "rejected"
	default:
		return "error"
	}
}

// observe is deferred at the top of every operation with a pointer to its
// named error result. Rejections are logged at debug, failures at error.
func (s *Service) observe(op string, start time.Time, errp *error) {
	err := *errp
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	operationsTotal.WithLabelValues(op, resultLabel(err)).Inc()

	switch resultLabel(err) {
	case "rejected":
		s.log.Debug("Operation rejected", "operation", op, "reason", err)
	case "error":
		s.log.Error("Operation failed", "operation", op, "error", err)
	}
}
