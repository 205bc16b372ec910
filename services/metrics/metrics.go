package metricsvc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/roster"
)

var (
	rosterRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_rows_total",
			Help: "Total number of roster rows processed, by account kind and result",
		},
		[]string{"kind", "result"},
	)

	rosterImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_imports_total",
			Help: "Total number of roster imports, by account kind and result",
		},
		[]string{"kind", "result"},
	)

	rosterImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roster_import_duration_seconds",
			Help:    "Roster import duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)
)

// PrometheusRecorder exports roster import metrics.
type PrometheusRecorder struct{}

var _ roster.Recorder = (*PrometheusRecorder)(nil)

func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{}
}

// RowProcessed records the result of one roster row
func (PrometheusRecorder) RowProcessed(kind account.Kind, result string) {
	rosterRowsTotal.WithLabelValues(string(kind), result).Inc()
}

// ImportFinished records a finished import and how long it took
func (PrometheusRecorder) ImportFinished(kind account.Kind, result string, elapsed time.Duration) {
	rosterImportsTotal.WithLabelValues(string(kind), result).Inc()
	rosterImportDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
