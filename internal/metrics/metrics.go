// Package metrics records compile metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/filterplay/diag"
	"github.com/gogpu/filterplay/kernel"
)

const namespace = "filterplay"

// Compile holds the compile metrics. It implements
// filterplay.CompileObserver.
type Compile struct {
	duration    *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec
}

// NewCompile returns unregistered compile metrics.
func NewCompile() *Compile {
	return &Compile{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "compile",
				Name:      "duration_seconds",
				Help:      "Kernel compile time in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"type", "result"},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "compile",
				Name:      "diagnostics_total",
				Help:      "Diagnostics reported by kernel compiles.",
			},
			[]string{"type", "severity"},
		),
	}
}

// ObserveCompile records one compile attempt.
func (m *Compile) ObserveCompile(t kernel.Type, elapsed time.Duration, r diag.Result) {
	m.duration.WithLabelValues(string(t), r.String()).Observe(elapsed.Seconds())
	for _, e := range r.Diagnostics() {
		m.diagnostics.WithLabelValues(string(t), string(e.Type)).Inc()
	}
}

// MustRegister registers the metrics with registry.
func (m *Compile) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.duration)
	registry.MustRegister(m.diagnostics)
}

// BuildCache exports kernel build cache counters. The counters are read
// from stats on every scrape.
type BuildCache struct {
	hits      prometheus.CounterFunc
	misses    prometheus.CounterFunc
	evictions prometheus.CounterFunc
	entries   prometheus.GaugeFunc
	hitRatio  prometheus.GaugeFunc
}

// NewBuildCache returns unregistered build cache metrics.
func NewBuildCache(stats func() kernel.CacheStats) *BuildCache {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: "build_cache", Name: name, Help: help}
	}
	counter := func(name, help string, f func(kernel.CacheStats) uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts(opts(name, help)), func() float64 {
			return float64(f(stats()))
		})
	}
	return &BuildCache{
		hits: counter("hits_total", "Kernel builds served from the cache.",
			func(s kernel.CacheStats) uint64 { return s.Hits }),
		misses: counter("misses_total", "Kernel builds that ran the toolchain.",
			func(s kernel.CacheStats) uint64 { return s.Misses }),
		evictions: counter("evictions_total", "Cached kernel builds evicted.",
			func(s kernel.CacheStats) uint64 { return s.Evictions }),
		entries: prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("entries", "Cached kernel builds.")),
			func() float64 { return float64(stats().Len) }),
		hitRatio: prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("hit_ratio", "Share of builds served from the cache.")),
			func() float64 { return stats().HitRate() }),
	}
}

// MustRegister registers the metrics with registry.
func (m *BuildCache) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.hits, m.misses, m.evictions, m.entries, m.hitRatio)
}
