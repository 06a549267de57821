// Package tree implements the incremental page-tree builder: the
// component that decides, across repeated runs, which source pages must
// be reparsed, how symbol ownership changes propagate staleness, and how
// the persisted page graph is reconciled with the current source layout.
//
// A build is strictly phased: Reconcile completes fully before
// ResolveSymbols, which completes fully before Format. Resolution may
// mark additional pages stale (moved-symbol detection happens during
// reconciliation, symbol-update notifications at any point before the
// build), and formatting must see final staleness and final symbol sets.
package tree

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/MathieuDuponchelle/better-doctool/internal/bus"
	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/markdown"
	"github.com/MathieuDuponchelle/better-doctool/internal/state"
	"github.com/MathieuDuponchelle/better-doctool/internal/symbols"
	"github.com/MathieuDuponchelle/better-doctool/internal/tracker"
)

// CategoryUserPages is the change-tracker category for standalone
// markdown pages.
const CategoryUserPages = "user-pages"

// SiteMap supplies the declared hierarchy: the full set of source
// identifiers and each page's declared subpages. The tree does its own
// recursive traversals over Subpages, so no walk callback is consumed.
type SiteMap interface {
	Index() string
	Sources() []string
	Subpages(id string) []string
}

// StateStore persists the page map and tracker baseline between runs.
type StateStore interface {
	// Load returns the previous run's pages and baseline together:
	// corrupt or absent history loads as empty on both sides, never as
	// one intact half, and never as an error that stops the run.
	Load(ctx context.Context) ([]state.PageRecord, tracker.Baseline, error)
	Persist(ctx context.Context, pages []state.PageRecord, baseline tracker.Baseline, run state.RunRecord) error
}

// LinkResolver resolves a page identifier or symbol name to a link. The
// tree itself implements it over the page map and the dependency map.
type LinkResolver interface {
	// LinkFor returns ok=false for names nothing owns; a missing link is
	// a soft miss, not an error.
	LinkFor(name string) (Link, bool)
}

// Formatter renders pages for one extension.
type Formatter interface {
	FormatPage(page *Page, resolver LinkResolver, outputDir string) error
	// FormatNavigation runs after every page has been formatted, because
	// navigation reads titles and links other extensions may have just set.
	FormatNavigation(root *Page, tree *Tree, outputDir string) (string, error)
}

// ExtraSymbolsHook lets an extension expand a resolved symbol into
// additional symbol names to document on the same page.
type ExtraSymbolsHook func(page *Page, sym *symbols.Symbol) []string

// Tree owns the persisted page map and the symbol-to-page dependency map,
// and runs the three-phase build. The page map and dependency map are
// exclusively owned by the Tree for the duration of a run.
type Tree struct {
	logger       *slog.Logger
	events       *bus.Bus
	parser       *markdown.Parser
	symbols      symbols.Store
	store        StateStore
	sitemap      SiteMap
	includePaths []string

	formatters map[string]Formatter
	resolvers  []PlaceholderResolver
	extraHooks []ExtraSymbolsHook

	pages        map[string]*Page
	deps         map[string]string // symbol name -> owning page id
	placeholders map[string]Resolution
	root         *Page
	tracker      *tracker.ChangeTracker
	orphaned     []string
}

// Config wires the Tree's collaborators. SiteMap, Symbols and Events are
// required; a nil Store disables persistence (full rebuild every run).
type Config struct {
	SiteMap      SiteMap
	Symbols      symbols.Store
	Store        StateStore
	Events       *bus.Bus
	IncludePaths []string
	Logger       *slog.Logger
}

// New loads the persisted page map, rebuilds the dependency map from it,
// and subscribes to symbol-update notifications.
func New(ctx context.Context, cfg Config) (*Tree, error) {
	if cfg.SiteMap == nil {
		return nil, doterrors.New(doterrors.CategoryInternal, doterrors.SeverityFatal, "tree requires a site map")
	}
	if cfg.Symbols == nil {
		return nil, doterrors.New(doterrors.CategoryInternal, doterrors.SeverityFatal, "tree requires a symbol store")
	}
	if cfg.Events == nil {
		cfg.Events = bus.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	t := &Tree{
		logger:       cfg.Logger,
		events:       cfg.Events,
		parser:       markdown.NewParser(),
		symbols:      cfg.Symbols,
		store:        cfg.Store,
		sitemap:      cfg.SiteMap,
		includePaths: cfg.IncludePaths,
		formatters:   map[string]Formatter{},
		pages:        map[string]*Page{},
		deps:         map[string]string{},
		placeholders: map[string]Resolution{},
	}

	var baseline tracker.Baseline
	if t.store != nil {
		records, loaded, err := t.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			t.pages[r.SourceID] = pageFromRecord(r)
		}
		baseline = loaded
	}
	t.tracker = tracker.New(baseline).WithLogger(t.logger)
	t.rebuildDeps()

	// Symbol and comment updates arrive outside the main build pass and
	// only touch staleness, never the page map structure.
	t.events.Subscribe(bus.EventSymbolUpdated, func(e bus.Event) error {
		if ev, ok := e.(bus.SymbolUpdated); ok {
			t.staleSymbolPage(ev.Symbol)
		}
		return nil
	})
	t.events.Subscribe(bus.EventCommentUpdated, func(e bus.Event) error {
		if ev, ok := e.(bus.CommentUpdated); ok {
			t.staleSymbolPage(ev.Symbol)
		}
		return nil
	})

	return t, nil
}

// RegisterFormatter installs the formatter for an extension. The
// CoreExtensionName formatter also renders the site navigation.
func (t *Tree) RegisterFormatter(extensionName string, f Formatter) {
	t.formatters[extensionName] = f
}

// RegisterExtraSymbolsHook appends a symbol-expansion hook.
func (t *Tree) RegisterExtraSymbolsHook(h ExtraSymbolsHook) {
	if h != nil {
		t.extraHooks = append(t.extraHooks, h)
	}
}

// GetPage returns the page for a source identifier, or nil.
func (t *Tree) GetPage(id string) *Page { return t.pages[id] }

// Root returns the index page, or nil before Reconcile has run.
func (t *Tree) Root() *Page { return t.root }

// PageCount returns the number of live pages.
func (t *Tree) PageCount() int { return len(t.pages) }

// StaleCount returns the number of pages currently marked stale.
func (t *Tree) StaleCount() int {
	n := 0
	for _, p := range t.pages {
		if p.IsStale {
			n++
		}
	}
	return n
}

// Orphaned returns the symbols orphaned by the last Reconcile.
func (t *Tree) Orphaned() []string {
	out := make([]string, len(t.orphaned))
	copy(out, t.orphaned)
	return out
}

// OwnerOf returns the page currently owning a symbol name.
func (t *Tree) OwnerOf(symbol string) (string, bool) {
	id, ok := t.deps[symbol]
	return id, ok
}

// LinkFor implements LinkResolver: page identifiers resolve to the page
// link, symbol names to their owning page with an anchor.
func (t *Tree) LinkFor(name string) (Link, bool) {
	if p, ok := t.pages[name]; ok {
		return p.Link, true
	}
	if owner, ok := t.deps[name]; ok {
		if p := t.pages[owner]; p != nil {
			return Link{Ref: p.Link.Ref + "#" + name, Name: name, Title: name}, true
		}
	}
	return Link{}, false
}

// Walk visits pages in pre-order: the root first, then each subpage's own
// subtree in declared order. The subpage graph must be acyclic; a page
// reachable from itself is a caller error the traversal does not guard
// against.
func (t *Tree) Walk(visit func(*Page) error) error {
	if t.root == nil {
		return nil
	}
	return t.walkPage(t.root, visit)
}

func (t *Tree) walkPage(p *Page, visit func(*Page) error) error {
	if err := visit(p); err != nil {
		return err
	}
	for _, sub := range p.Subpages.Values() {
		if cp := t.pages[sub]; cp != nil {
			if err := t.walkPage(cp, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Persist serializes the page map with transients cleared and staleness
// reset, commits the tracker baseline, and appends the run record. The
// dependency map and placeholder table are derived state and are not
// persisted. After a successful persist the runtime pages are reset too,
// so a long-lived tree (watch mode) starts the next run clean.
func (t *Tree) Persist(ctx context.Context, runID string, startedAt time.Time) error {
	if t.store == nil {
		return nil
	}

	ids := make([]string, 0, len(t.pages))
	for id := range t.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	records := make([]state.PageRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, t.pages[id].toRecord())
	}

	run := state.RunRecord{
		ID:         runID,
		StartedAt:  startedAt,
		DurationMS: float64(time.Since(startedAt).Milliseconds()),
		PageCount:  len(t.pages),
		StaleCount: t.StaleCount(),
	}
	if err := t.store.Persist(ctx, records, t.tracker.Pending(), run); err != nil {
		return err
	}

	for _, p := range t.pages {
		p.clearTransients()
		p.IsStale = false
	}
	t.tracker = tracker.New(t.tracker.Pending()).WithLogger(t.logger)
	return nil
}

// rebuildDeps derives the symbol-to-page dependency map from the loaded
// page set. Cheap to rebuild, so never persisted.
func (t *Tree) rebuildDeps() {
	t.deps = map[string]string{}
	for id, p := range t.pages {
		for _, name := range p.SymbolNames.Values() {
			t.deps[name] = id
		}
	}
}

func (t *Tree) staleSymbolPage(name string) {
	owner, ok := t.deps[name]
	if !ok {
		return
	}
	if p := t.pages[owner]; p != nil {
		p.IsStale = true
		t.logger.Debug("Symbol update staled page",
			logfields.Symbol(name), logfields.Page(owner))
	}
}

// locate finds the file backing a source identifier by probing the
// include paths in order.
func (t *Tree) locate(id string) (string, bool) {
	if len(t.includePaths) == 0 {
		if _, err := os.Stat(id); err == nil {
			return id, true
		}
		return "", false
	}
	for _, ip := range t.includePaths {
		candidate := filepath.Join(ip, id)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// idForPath is the inverse of locate: the identifier of a file path
// relative to the known include roots.
func (t *Tree) idForPath(path string) string {
	for _, ip := range t.includePaths {
		rel, err := filepath.Rel(ip, path)
		if err == nil && rel != ".." && !filepath.IsAbs(rel) && !isOutside(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func isOutside(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == "../"
}
