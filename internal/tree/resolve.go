package tree

import (
	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/symbols"
	"github.com/MathieuDuponchelle/better-doctool/internal/util/sets"
)

// ResolveSymbols attaches live symbol objects to every stale page,
// expanding member symbols and extension-provided extras transitively.
// Pages that are not stale keep their persisted symbol lists untouched.
// Runs after Reconcile and before Format.
func (t *Tree) ResolveSymbols() error {
	return t.Walk(func(p *Page) error {
		if !p.IsStale {
			return nil
		}
		return t.resolvePage(p)
	})
}

func (t *Tree) resolvePage(p *Page) error {
	// A page can be stale without having been reparsed during
	// reconciliation (moved symbol, symbol-update notification). Rebuild
	// its document lazily so formatting has something to render.
	if p.Doc() == nil && !p.Generated {
		path := p.sourcePath
		if path == "" {
			located, found := t.locate(p.SourceID)
			if !found {
				t.logger.Debug("Stale page has no backing file", logfields.Page(p.SourceID))
			}
			path = located
		}
		if path != "" {
			doc, err := t.parser.ParseFile(path)
			if err != nil {
				return doterrors.FatalIO(err, path)
			}
			p.sourcePath = path
			p.SetDoc(doc)
		}
	}

	p.Symbols = nil
	p.TypedSymbols = nil

	// The seen set breaks cycles: a symbol whose members loop back to it
	// is attached once and the expansion stops there.
	seen := sets.New[string]()
	for _, name := range p.SymbolNames.Values() {
		t.resolveName(p, name, seen)
	}
	return nil
}

func (t *Tree) resolveName(p *Page, name string, seen sets.Set[string]) {
	if seen.Has(name) {
		return
	}
	seen.Add(name)

	sym := t.symbols.Get(name)
	if sym == nil {
		// Soft miss: the symbol may be produced by a later source scan.
		t.logger.Debug("Symbol not yet known",
			logfields.Symbol(name), logfields.Page(p.SourceID))
		return
	}
	p.attachSymbol(sym)

	for _, extra := range t.extraNames(p, sym) {
		p.SymbolNames.Add(extra)
		t.deps[extra] = p.SourceID
		t.resolveName(p, extra, seen)
	}
}

// extraNames collects the additional symbols a resolved symbol pulls onto
// its page: declared members first, then whatever the registered hooks add.
func (t *Tree) extraNames(p *Page, sym *symbols.Symbol) []string {
	extras := make([]string, 0, len(sym.Members))
	extras = append(extras, sym.Members...)
	for _, hook := range t.extraHooks {
		extras = append(extras, hook(p, sym)...)
	}
	return extras
}
