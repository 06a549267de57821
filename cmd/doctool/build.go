package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MathieuDuponchelle/better-doctool/internal/bus"
	"github.com/MathieuDuponchelle/better-doctool/internal/config"
	"github.com/MathieuDuponchelle/better-doctool/internal/daemon"
	"github.com/MathieuDuponchelle/better-doctool/internal/format"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/sitemap"
	"github.com/MathieuDuponchelle/better-doctool/internal/state"
	"github.com/MathieuDuponchelle/better-doctool/internal/symbols"
	"github.com/MathieuDuponchelle/better-doctool/internal/tree"
)

// runOneBuild performs one complete incremental build: reconcile the page
// tree against the sitemap and previous state, resolve symbols, format
// stale pages, audit links, then persist.
func runOneBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger) (daemon.BuildResult, error) {
	runID := uuid.NewString()
	startedAt := time.Now()
	logger = logger.With(logfields.RunID(runID))
	logger.Info("Starting build")

	sm, err := sitemap.Load(cfg.Sitemap)
	if err != nil {
		return daemon.BuildResult{}, err
	}

	store, err := state.Open(cfg.StateFile)
	if err != nil {
		return daemon.BuildResult{}, err
	}
	defer func() { _ = store.Close() }()

	events := bus.New()
	syms := symbols.NewMemoryStore(events).WithLogger(logger)

	t, err := tree.New(ctx, tree.Config{
		SiteMap:      sm,
		Symbols:      syms,
		Store:        store,
		Events:       events,
		IncludePaths: cfg.IncludePaths,
		Logger:       logger,
	})
	if err != nil {
		return daemon.BuildResult{}, err
	}
	t.RegisterFormatter(tree.CoreExtensionName, format.NewHTMLFormatter().WithLogger(logger))

	if err := t.Reconcile(); err != nil {
		return daemon.BuildResult{}, err
	}
	if err := t.ResolveSymbols(); err != nil {
		return daemon.BuildResult{}, err
	}

	result := daemon.BuildResult{Pages: t.PageCount(), Stale: t.StaleCount()}
	if err := t.Format(cfg.OutputDir); err != nil {
		return result, err
	}

	broken, err := format.AuditLinks(cfg.OutputDir)
	if err != nil {
		return result, err
	}
	result.BrokenLinks = len(broken)
	for _, b := range broken {
		logger.Warn("Broken internal link",
			logfields.Page(b.Page), logfields.Path(b.Target))
	}

	if err := t.Persist(ctx, runID, startedAt); err != nil {
		return result, err
	}
	logger.Info("Build persisted",
		logfields.PageCount(result.Pages),
		logfields.StaleCount(result.Stale),
		logfields.DurationMS(float64(time.Since(startedAt).Milliseconds())))
	return result, nil
}
