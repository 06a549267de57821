// Package tracker implements mtime-based change tracking across runs.
//
// Each category owns a mapping from file path to the modification time
// recorded when the file was last processed. Diff compares the recorded
// baseline against the current filesystem state; the new baseline is
// staged in memory and only becomes authoritative when the run persists,
// so a failed run never corrupts the recorded state.
package tracker

import (
	"log/slog"
	"os"
	"sort"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
)

// Baseline maps category -> path -> mtime (unix nanoseconds).
type Baseline map[string]map[string]int64

// ChangeTracker reports stale and unlisted files per category.
type ChangeTracker struct {
	baseline Baseline
	pending  Baseline
	logger   *slog.Logger
}

// New creates a tracker over a previous run's baseline. A nil baseline
// means no incremental history: everything diffs as stale.
func New(baseline Baseline) *ChangeTracker {
	if baseline == nil {
		baseline = Baseline{}
	}
	return &ChangeTracker{
		baseline: baseline,
		pending:  Baseline{},
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (t *ChangeTracker) WithLogger(logger *slog.Logger) *ChangeTracker {
	t.logger = logger
	return t
}

// Diff compares current paths against the category's recorded baseline.
//
// A path is stale when it has no recorded mtime or its mtime changed. A
// recorded path absent from paths is unlisted. The observed mtimes are
// staged as the category's next baseline; call Pending at persistence
// time to commit them. A stat failure is fatal for the run.
func (t *ChangeTracker) Diff(category string, paths []string) (stale, unlisted []string, err error) {
	prev := t.baseline[category]
	next := make(map[string]int64, len(paths))

	for _, path := range paths {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, nil, doterrors.FatalIO(statErr, path)
		}
		mtime := info.ModTime().UnixNano()
		next[path] = mtime

		recorded, known := prev[path]
		if !known || recorded != mtime {
			stale = append(stale, path)
		}
	}

	for path := range prev {
		if _, listed := next[path]; !listed {
			unlisted = append(unlisted, path)
		}
	}
	sort.Strings(unlisted)

	t.pending[category] = next
	t.logger.Debug("Diffed tracked files",
		logfields.Category(category),
		logfields.StaleCount(len(stale)),
		slog.Int("unlisted", len(unlisted)))
	return stale, unlisted, nil
}

// Pending returns the staged baseline for all categories diffed this run,
// merged over the previous baseline for categories that were not touched.
// The result is what the state store should persist.
func (t *ChangeTracker) Pending() Baseline {
	out := Baseline{}
	for cat, m := range t.baseline {
		cp := make(map[string]int64, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[cat] = cp
	}
	for cat, m := range t.pending {
		cp := make(map[string]int64, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[cat] = cp
	}
	return out
}
