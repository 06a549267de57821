package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/MathieuDuponchelle/better-doctool/internal/config"
	"github.com/MathieuDuponchelle/better-doctool/internal/daemon"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"doctool.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override the configured output directory"`
	} `cmd:"" help:"Build the documentation once"`

	Watch struct {
		Output string `short:"o" help:"Override the configured output directory"`
	} `cmd:"" help:"Build, then rebuild whenever sources change"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	switch kctx.Command() {
	case "build":
		runOrExit(cmdBuild)
	case "watch":
		runOrExit(cmdWatch)
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", CLI.Config)
	case "version":
		fmt.Printf("doctool %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	}
}

func runOrExit(cmd func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	if CLI.Verbose {
		cfg.Logging.Level = "debug"
	}
	logger := cfg.Logging.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, cfg, logger); err != nil {
		logger.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func cmdBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if CLI.Build.Output != "" {
		cfg.OutputDir = CLI.Build.Output
	}
	_, err := runOneBuild(ctx, cfg, logger)
	return err
}

func cmdWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if CLI.Watch.Output != "" {
		cfg.OutputDir = CLI.Watch.Output
	}
	debounce, err := cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}
	interval, err := cfg.Watch.RebuildIntervalDuration()
	if err != nil {
		return err
	}

	d, err := daemon.New(daemon.Config{
		IncludePaths:    cfg.IncludePaths,
		Debounce:        debounce,
		RebuildInterval: interval,
		MetricsAddr:     cfg.Watch.MetricsAddr,
		Logger:          logger,
	}, func(ctx context.Context) (daemon.BuildResult, error) {
		return runOneBuild(ctx, cfg, logger)
	})
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
