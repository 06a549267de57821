// Package daemon implements watch mode: it keeps a page tree alive
// across builds, rebuilding when sources change on disk or on a
// configured schedule, and optionally serving build metrics.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/metrics"
)

// BuildResult summarizes one completed build for metrics.
type BuildResult struct {
	Pages       int
	Stale       int
	BrokenLinks int
}

// BuildFunc runs one full incremental build.
type BuildFunc func(ctx context.Context) (BuildResult, error)

// Config tunes the daemon.
type Config struct {
	IncludePaths []string
	Debounce     time.Duration
	// RebuildInterval schedules unconditional periodic rebuilds; zero
	// disables the schedule.
	RebuildInterval time.Duration
	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string
	Logger      *slog.Logger
}

// Daemon watches source directories and reruns builds.
type Daemon struct {
	cfg      Config
	build    BuildFunc
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New creates a daemon. The build function is invoked serially; builds
// never overlap.
func New(cfg Config, build BuildFunc) (*Daemon, error) {
	if build == nil {
		return nil, doterrors.ValidationError("daemon requires a build function")
	}
	if len(cfg.IncludePaths) == 0 {
		return nil, doterrors.ValidationError("daemon requires include paths to watch")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	d := &Daemon{cfg: cfg, build: build, logger: cfg.Logger, recorder: metrics.Noop{}}
	if cfg.MetricsAddr != "" {
		d.recorder = metrics.NewPrometheus()
	}
	return d, nil
}

// Run builds once, then blocks rebuilding on changes until ctx is
// cancelled. A failing build logs and waits for the next trigger; only
// setup errors abort the daemon.
func (d *Daemon) Run(ctx context.Context) error {
	w, err := newWatcher(d.cfg.IncludePaths, d.logger)
	if err != nil {
		return err
	}
	defer w.close()

	debouncer := NewDebouncer(d.cfg.Debounce, 10*d.cfg.Debounce)
	defer debouncer.Stop()

	var scheduler gocron.Scheduler
	if d.cfg.RebuildInterval > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return doterrors.Wrap(err, doterrors.CategoryInternal, doterrors.SeverityFatal,
				"create scheduler")
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(d.cfg.RebuildInterval),
			gocron.NewTask(debouncer.Trigger),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return doterrors.Wrap(err, doterrors.CategoryInternal, doterrors.SeverityFatal,
				"schedule periodic rebuild")
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	if d.cfg.MetricsAddr != "" {
		d.serveMetrics(ctx)
	}

	d.runBuild(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Watch mode stopping")
			return nil
		case ev, ok := <-w.events():
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				d.logger.Debug("Source changed", logfields.Path(ev.Name))
				debouncer.Trigger()
			}
		case err, ok := <-w.errors():
			if !ok {
				return nil
			}
			d.logger.Warn("Watcher error", logfields.Error(err))
		case <-debouncer.C():
			d.runBuild(ctx)
		}
	}
}

func (d *Daemon) runBuild(ctx context.Context) {
	started := time.Now()
	result, err := d.build(ctx)
	duration := time.Since(started)
	d.recorder.RecordBuild(duration, result.Pages, result.Stale, result.BrokenLinks, err != nil)
	if err != nil {
		d.logger.Error("Build failed", logfields.Error(err))
		return
	}
	d.logger.Info("Build complete",
		logfields.PageCount(result.Pages),
		logfields.StaleCount(result.Stale),
		logfields.DurationMS(float64(duration.Milliseconds())))
}

func (d *Daemon) serveMetrics(ctx context.Context) {
	prom, ok := d.recorder.(*metrics.Prometheus)
	if !ok {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	srv := &http.Server{Addr: d.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		d.logger.Info("Serving metrics", logfields.Path(d.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
