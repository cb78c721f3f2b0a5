// Package metrics provides Prometheus counters for blockout operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so tests and multiple sessions never
// collide on global collectors.
type Recorder struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	modifiersCreated  *prometheus.CounterVec
	modifiersMoved    prometheus.Counter
	bakedEdges        *prometheus.CounterVec
	assetImports      *prometheus.CounterVec
	sliderSyncs       *prometheus.CounterVec
}

// New registers every blockout collector on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockout_operations_total",
				Help: "Entry point invocations by outcome",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockout_operation_duration_seconds",
				Help:    "Time spent inside entry points",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		modifiersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockout_modifiers_created_total",
				Help: "Managed modifiers created",
			},
			[]string{"kind"},
		),
		modifiersMoved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "blockout_modifiers_reordered_total",
				Help: "User modifiers promoted ahead of the managed stack",
			},
		),
		bakedEdges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockout_baked_edges_total",
				Help: "Edges collapsed into geometry by apply",
			},
			[]string{"attribute"},
		),
		assetImports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockout_asset_imports_total",
				Help: "Node group reimports by outcome",
			},
			[]string{"group", "status"},
		),
		sliderSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockout_slider_syncs_total",
				Help: "Slider synchronisation passes that wrote a value",
			},
			[]string{"direction"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Operation records one entry point call.
func (r *Recorder) Operation(name string, started time.Time, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.operations.WithLabelValues(name, status).Inc()
	r.operationDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}

// ModifierCreated counts a new managed modifier.
func (r *Recorder) ModifierCreated(kind string) {
	if r == nil {
		return
	}
	r.modifiersCreated.WithLabelValues(kind).Inc()
}

// ModifiersReordered counts promoted user modifiers.
func (r *Recorder) ModifiersReordered(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.modifiersMoved.Add(float64(n))
}

// EdgesBaked counts edges collapsed by apply.
func (r *Recorder) EdgesBaked(attr string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.bakedEdges.WithLabelValues(attr).Add(float64(n))
}

// AssetImport counts one reimport attempt.
func (r *Recorder) AssetImport(group, status string) {
	if r == nil {
		return
	}
	r.assetImports.WithLabelValues(group, status).Inc()
}

// SliderSync counts one slider pass that wrote.
func (r *Recorder) SliderSync(direction string) {
	if r == nil {
		return
	}
	r.sliderSyncs.WithLabelValues(direction).Inc()
}
