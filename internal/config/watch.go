package config

import (
	"fmt"
	"time"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
)

// WatchConfig tunes watch mode. Durations are Go duration strings.
type WatchConfig struct {
	// Debounce is how long to coalesce filesystem events before
	// triggering a rebuild.
	Debounce string `yaml:"debounce,omitempty"`

	// RebuildInterval schedules full periodic rebuilds. Zero disables the
	// schedule; filesystem events still trigger builds.
	RebuildInterval string `yaml:"rebuild_interval,omitempty"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g.
	// "127.0.0.1:9090".
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

func (w *WatchConfig) applyDefaults() {
	if w.Debounce == "" {
		w.Debounce = "300ms"
	}
	if w.RebuildInterval == "" {
		w.RebuildInterval = "0s"
	}
}

// DebounceDuration parses the debounce window.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration("watch.debounce", w.Debounce)
}

// RebuildIntervalDuration parses the periodic rebuild interval.
func (w WatchConfig) RebuildIntervalDuration() (time.Duration, error) {
	return parseDuration("watch.rebuild_interval", w.RebuildInterval)
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, doterrors.New(doterrors.CategoryConfig, doterrors.SeverityFatal,
			fmt.Sprintf("%s: invalid duration %q", field, raw))
	}
	if d < 0 {
		return 0, doterrors.New(doterrors.CategoryConfig, doterrors.SeverityFatal,
			fmt.Sprintf("%s: negative duration %q", field, raw))
	}
	return d, nil
}
