// Package metrics exposes Prometheus metrics for the resolver.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdok/tilefinder/resolver"
)

type Provider struct {
	reg        *prometheus.Registry
	resolves   *prometheus.CounterVec
	candidates prometheus.Histogram
	latency    prometheus.Histogram
}

// New registers the standard Go and process collectors, the build info and the resolver metrics
func New(version string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tilefinder_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version"},
	)
	if version == "" {
		version = "dev"
	}
	build.WithLabelValues(version).Set(1)

	p := &Provider{
		reg: reg,
		resolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tilefinder_resolves_total",
				Help: "Tile resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tilefinder_resolve_candidates",
			Help:    "Number of tiles whose bounding box contained the point.",
			Buckets: []float64{0, 1, 2, 3, 4, 8},
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tilefinder_resolve_duration_seconds",
			Help:    "Duration of a single resolution in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~0.26s
		}),
	}
	reg.MustRegister(build, p.resolves, p.candidates, p.latency)
	// outcomes show up as 0 before the first resolution
	for _, kind := range []resolver.FailureKind{resolver.None, resolver.NoTileFound, resolver.PointNotInTile, resolver.CoordinateTransform} {
		p.resolves.WithLabelValues(kind.String())
	}
	return p
}

// ObserveResolve implements resolver.Observer
func (p *Provider) ObserveResolve(kind resolver.FailureKind, candidates int, duration time.Duration) {
	p.resolves.WithLabelValues(kind.String()).Inc()
	if kind != resolver.CoordinateTransform {
		p.candidates.Observe(float64(candidates))
	}
	p.latency.Observe(duration.Seconds())
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	p.reg.MustRegister(cs...)
}
