// Package metrics exposes build metrics for watch mode.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives build outcomes. The daemon records through this
// interface so one-shot builds can pass a Noop.
type Recorder interface {
	RecordBuild(duration time.Duration, pages, stale, brokenLinks int, failed bool)
}

// Noop discards all recordings.
type Noop struct{}

func (Noop) RecordBuild(time.Duration, int, int, int, bool) {}

// Prometheus is a Recorder backed by an instance-scoped registry.
type Prometheus struct {
	registry      *prom.Registry
	buildsTotal   prom.Counter
	buildsFailed  prom.Counter
	buildDuration prom.Histogram
	pages         prom.Gauge
	stalePages    prom.Gauge
	brokenLinks   prom.Gauge
}

// NewPrometheus creates a recorder with its own registry, including Go
// runtime and process collectors.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prom.NewRegistry(),
		buildsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "doctool", Name: "builds_total",
			Help: "Total builds processed in watch mode"}),
		buildsFailed: prom.NewCounter(prom.CounterOpts{
			Namespace: "doctool", Name: "builds_failed_total",
			Help: "Builds that ended in error"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "doctool", Name: "build_duration_seconds",
			Help:    "Wall-clock duration of complete builds",
			Buckets: prom.DefBuckets}),
		pages: prom.NewGauge(prom.GaugeOpts{
			Namespace: "doctool", Name: "pages",
			Help: "Pages in the tree after the last build"}),
		stalePages: prom.NewGauge(prom.GaugeOpts{
			Namespace: "doctool", Name: "stale_pages",
			Help: "Pages reformatted by the last build"}),
		brokenLinks: prom.NewGauge(prom.GaugeOpts{
			Namespace: "doctool", Name: "broken_links",
			Help: "Broken internal links found by the last audit"}),
	}
	p.registry.MustRegister(
		p.buildsTotal, p.buildsFailed, p.buildDuration,
		p.pages, p.stalePages, p.brokenLinks,
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)
	return p
}

// RecordBuild implements Recorder.
func (p *Prometheus) RecordBuild(duration time.Duration, pages, stale, brokenLinks int, failed bool) {
	p.buildsTotal.Inc()
	if failed {
		p.buildsFailed.Inc()
	}
	p.buildDuration.Observe(duration.Seconds())
	p.pages.Set(float64(pages))
	p.stalePages.Set(float64(stale))
	p.brokenLinks.Set(float64(brokenLinks))
}

// Handler serves the registry in Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
