package tree

import (
	"log/slog"
	"time"

	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
)

// Format renders every stale page through its extension's formatter, in
// pre-order, then renders the navigation through the core formatter.
// Non-stale pages are skipped entirely; their previous output on disk is
// still current. Runs after ResolveSymbols.
func (t *Tree) Format(outputDir string) error {
	started := time.Now()
	formatted := 0

	err := t.Walk(func(p *Page) error {
		if !p.IsStale {
			return nil
		}
		f := t.formatterFor(p.ExtensionName)
		if f == nil {
			t.logger.Warn("No formatter for extension",
				logfields.Extension(p.ExtensionName), logfields.Page(p.SourceID))
			return nil
		}
		if err := f.FormatPage(p, t, outputDir); err != nil {
			return err
		}
		formatted++
		return nil
	})
	if err != nil {
		return err
	}

	// Navigation is rendered last and unconditionally: any formatted page
	// may have changed a title the navigation displays.
	if core := t.formatters[CoreExtensionName]; core != nil && t.root != nil {
		if _, err := core.FormatNavigation(t.root, t, outputDir); err != nil {
			return err
		}
	}

	t.logger.Info("Formatted stale pages",
		slog.Int("formatted", formatted),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return nil
}

// formatterFor falls back to the core formatter when an extension has not
// registered its own.
func (t *Tree) formatterFor(extension string) Formatter {
	if f, ok := t.formatters[extension]; ok {
		return f
	}
	return t.formatters[CoreExtensionName]
}
