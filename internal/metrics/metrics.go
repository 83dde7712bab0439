// Package metrics holds the Prometheus collectors for loading, linking and
// route synthesis.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry holds every hubnet collector. It is separate from the default
// registry so a dump contains only hubnet series.
var Registry = prometheus.NewRegistry()

var (
	unitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubnet",
			Subsystem: "loader",
			Name:      "units_total",
			Help:      "Discovered units by load result",
		},
		[]string{"result"},
	)

	linkHooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubnet",
			Subsystem: "linker",
			Name:      "hooks_total",
			Help:      "Link hook invocations by result",
		},
		[]string{"result"},
	)

	routesSynthesized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubnet",
			Subsystem: "routing",
			Name:      "routes_total",
			Help:      "Routes synthesized by table role",
		},
		[]string{"role"},
	)

	resourcesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubnet",
			Subsystem: "graph",
			Name:      "resources_total",
			Help:      "Resources committed to the deploy graph by kind",
		},
		[]string{"kind"},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hubnet",
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Duration of pipeline phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
		},
		[]string{"phase", "result"},
	)
)

func init() {
	Registry.MustRegister(
		unitsTotal,
		linkHooksTotal,
		routesSynthesized,
		resourcesTotal,
		phaseDuration,
	)
}

// Load results.
const (
	ResultLoaded  = "loaded"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
	ResultLinked  = "linked"
	ResultNoop    = "noop"
	ResultSuccess = "success"
)

// RecordUnit counts one discovered unit.
func RecordUnit(result string) {
	unitsTotal.WithLabelValues(result).Inc()
}

// RecordLinkHook counts one link hook outcome.
func RecordLinkHook(result string) {
	linkHooksTotal.WithLabelValues(result).Inc()
}

// RecordRoutes adds n synthesized routes for a table role (hub or spoke).
func RecordRoutes(role string, n int) {
	routesSynthesized.WithLabelValues(role).Add(float64(n))
}

// RecordResource counts one committed resource.
func RecordResource(kind string) {
	resourcesTotal.WithLabelValues(kind).Inc()
}

// ObservePhase records how long a pipeline phase took.
func ObservePhase(phase, result string, d time.Duration) {
	phaseDuration.WithLabelValues(phase, result).Observe(d.Seconds())
}

// WriteText writes every hubnet series in the Prometheus text format.
func WriteText(w io.Writer) error {
	families, err := Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
