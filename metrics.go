package slipway

import (
	"bytes"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
)

// MetricsPath is where a DevServer with metrics enabled exposes the
// Prometheus text exposition.
const MetricsPath = "/_slipway/metrics"

// The tracer resolves against the global OpenTelemetry provider, so spans
// are no-ops until the embedding program installs one.
var tracer = otel.Tracer("github.com/slipway-dev/slipway")

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slipway",
		Subsystem: "devserver",
		Name:      "requests_total",
		Help:      "Requests served, by response status.",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "slipway",
		Subsystem: "devserver",
		Name:      "request_duration_seconds",
		Help:      "Request handling duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	watchEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "slipway",
		Subsystem: "watch",
		Name:      "events_total",
		Help:      "Filesystem events observed, by outcome.",
	}, []string{"outcome"})

	respawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "slipway",
		Subsystem: "watch",
		Name:      "respawns_total",
		Help:      "Times the supervised command was respawned.",
	})
)

const (
	outcomeExcluded  = "excluded"
	outcomeHidden    = "hidden"
	outcomeDebounced = "debounced"
	outcomeRespawned = "respawned"
	outcomeError     = "error"
)

// renderMetrics encodes the default gatherer's metric families in the
// Prometheus text format and returns the body and its content type.
func renderMetrics() (io.Reader, string, int64, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, "", 0, err
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return nil, "", 0, err
		}
	}
	return &buf, string(format), int64(buf.Len()), nil
}
