package tree

import (
	"log/slog"
	"sort"

	"github.com/MathieuDuponchelle/better-doctool/internal/bus"
	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/util/sets"
)

// Reconcile merges the previous run's page map with the current sitemap:
// it reparses stale sources, propagates staleness for symbols that moved
// between pages, drops unlisted pages, reports orphaned symbols, and tags
// extension ownership. Runs once per build, before symbol resolution.
func (t *Tree) Reconcile() error {
	sources := t.sitemap.Sources()
	sourceSet := sets.New(sources...)

	// Phase 1: split sitemap entries into real files to parse and pure
	// placeholders, consulting the registered resolvers.
	toParse := make([]string, 0, len(sources))
	pathToID := map[string]string{}
	t.placeholders = map[string]Resolution{}

	for _, id := range sources {
		res, claimed := t.resolvePlaceholder(id)
		if claimed {
			t.placeholders[id] = res
			if res.Generated {
				if p, known := t.pages[id]; known {
					p.Generated = true
				} else {
					p := NewPage(id, CoreExtensionName)
					p.Generated = true
					p.IsStale = true
					t.pages[id] = p
				}
				continue
			}
			if res.Path != "" {
				toParse = append(toParse, res.Path)
				pathToID[res.Path] = id
				continue
			}
		}
		if path, found := t.locate(id); found {
			toParse = append(toParse, path)
			pathToID[path] = id
			continue
		}
		// No resolver and no backing file: a dead entry, kept as an empty
		// page so navigation still shows the declared structure.
		if _, known := t.pages[id]; !known {
			p := NewPage(id, CoreExtensionName)
			p.IsStale = true
			t.pages[id] = p
		}
		t.logger.Debug("No source found for sitemap entry", logfields.Page(id))
	}

	// Phase 2: mtime diff over the real files.
	stale, unlisted, err := t.tracker.Diff(CategoryUserPages, toParse)
	if err != nil {
		return err
	}

	// Phase 3: reparse stale files. Symbols newly listed on a page are
	// detached from their former owner, which is marked stale even though
	// its own source did not change; this is how a symbol moving between
	// pages invalidates its former host.
	previousSymbols := sets.New[string]()
	for _, path := range stale {
		id := pathToID[path]
		prevNames := sets.New[string]()
		if prev, ok := t.pages[id]; ok {
			for _, n := range prev.SymbolNames.Values() {
				prevNames.Add(n)
				previousSymbols.Add(n)
			}
		}

		doc, err := t.parser.ParseFile(path)
		if err != nil {
			return doterrors.FatalIO(err, path)
		}
		page := NewPage(id, CoreExtensionName)
		page.sourcePath = path
		page.SetDoc(doc)
		page.IsStale = true
		for _, name := range doc.SymbolNames {
			page.SymbolNames.Add(name)
			if !prevNames.Has(name) {
				if oldID, owned := t.deps[name]; owned && oldID != id {
					if old := t.pages[oldID]; old != nil {
						old.IsStale = true
						old.SymbolNames.Delete(name)
						t.logger.Debug("Symbol moved between pages",
							logfields.Symbol(name),
							slog.String("from", oldID), slog.String("to", id))
					}
				}
			}
			t.deps[name] = id
		}
		// Symbols the new version stopped declaring must not keep
		// resolving to this page for the rest of the run.
		for name := range prevNames {
			if !page.SymbolNames.Has(name) && t.deps[name] == id {
				delete(t.deps, name)
			}
		}
		t.pages[id] = page
	}

	// Phase 4: drop pages whose source is gone or which the sitemap no
	// longer lists, releasing their symbols.
	dropped := sets.New[string]()
	for _, path := range unlisted {
		t.dropPage(t.idForPath(path), previousSymbols, dropped)
	}
	for id := range t.pages {
		if !sourceSet.Has(id) {
			t.dropPage(id, previousSymbols, dropped)
		}
	}

	// Phase 5: attach declared subpages, minus anything just dropped.
	for _, id := range sources {
		p := t.pages[id]
		if p == nil {
			continue
		}
		subs := sets.NewOrdered[string]()
		for _, sub := range t.sitemap.Subpages(id) {
			if !dropped.Has(sub) {
				subs.Add(sub)
			}
		}
		p.Subpages = subs
	}

	// Phase 6: symbols that existed before and are accounted for by no
	// current page are orphaned. The symbol store prunes them; the tree
	// only tracks where symbols live.
	current := sets.New[string]()
	for _, p := range t.pages {
		for _, n := range p.SymbolNames.Values() {
			current.Add(n)
		}
	}
	t.orphaned = previousSymbols.Difference(current).Values()
	sort.Strings(t.orphaned)
	if len(t.orphaned) > 0 {
		if err := t.events.Publish(bus.SymbolsOrphaned{Symbols: t.orphaned}); err != nil {
			return err
		}
	}

	// Phase 7: tag extension ownership. The recursion carries the active
	// extension context as a parameter: entering a placeholder-owned
	// branch switches the context for the whole subtree, and it reverts
	// naturally at the placeholder's siblings.
	t.tagOwnership(t.sitemap.Index(), CoreExtensionName)

	// Phase 8: the root is the sitemap's declared index.
	t.root = t.pages[t.sitemap.Index()]
	if t.root == nil {
		return doterrors.New(doterrors.CategorySitemap, doterrors.SeverityFatal,
			"sitemap index has no page: "+t.sitemap.Index())
	}

	t.logger.Info("Reconciled page tree",
		logfields.PageCount(len(t.pages)),
		logfields.StaleCount(t.StaleCount()),
		slog.Int("orphaned", len(t.orphaned)))
	return nil
}

func (t *Tree) dropPage(id string, previousSymbols, dropped sets.Set[string]) {
	prev, ok := t.pages[id]
	if !ok {
		return
	}
	for _, n := range prev.SymbolNames.Values() {
		previousSymbols.Add(n)
		if t.deps[n] == id {
			delete(t.deps, n)
		}
	}
	delete(t.pages, id)
	dropped.Add(id)
	t.logger.Debug("Dropped unlisted page", logfields.Page(id))
}

func (t *Tree) tagOwnership(id, extension string) {
	if res, ok := t.placeholders[id]; ok && res.Extension != "" {
		extension = res.Extension
	}
	if p := t.pages[id]; p != nil {
		p.ExtensionName = extension
	}
	for _, sub := range t.sitemap.Subpages(id) {
		t.tagOwnership(sub, extension)
	}
}
