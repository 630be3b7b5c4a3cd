package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	transitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiftlog",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Lifecycle operations grouped by action and outcome.",
	}, []string{"action", "result"})

	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shiftlog",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent record written to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(transitionCounter, recordPersistGauge)
}

// RecordTransition counts a lifecycle operation outcome.
func RecordTransition(action, result string) {
	transitionCounter.WithLabelValues(action, result).Inc()
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}
