package tree

import (
	"path"
	"strings"

	"github.com/MathieuDuponchelle/better-doctool/internal/markdown"
	"github.com/MathieuDuponchelle/better-doctool/internal/state"
	"github.com/MathieuDuponchelle/better-doctool/internal/symbols"
	"github.com/MathieuDuponchelle/better-doctool/internal/util/sets"
)

// CoreExtensionName is the sentinel extension name for pages owned by the
// tool itself rather than by an extension.
const CoreExtensionName = "core"

// Link describes how a page or symbol is referred to from navigation and
// from other pages.
type Link struct {
	Ref   string // output-relative target, e.g. "tutorial/setup.html"
	Name  string
	Title string
}

// Page is one node of the documentation tree: a markdown source (real or
// synthesized) plus its extracted symbol references, child links, and
// staleness state.
//
// A source identifier maps to exactly one live Page at any time. The
// fields below the transient marker never survive persistence; they are
// rebuilt lazily when the page is next needed.
type Page struct {
	SourceID      string
	Link          Link
	Subpages      *sets.Ordered[string]
	SymbolNames   *sets.Ordered[string]
	IsStale       bool
	ExtensionName string
	Generated     bool

	// transient, run-scoped state
	doc               *markdown.Document
	sourcePath        string
	Symbols           []*symbols.Symbol
	TypedSymbols      map[symbols.Kind][]*symbols.Symbol
	FormattedContents string
}

// NewPage creates a fresh page for a source identifier.
func NewPage(sourceID, extensionName string) *Page {
	name := strings.TrimSuffix(path.Base(sourceID), path.Ext(sourceID))
	ref := strings.TrimSuffix(sourceID, path.Ext(sourceID)) + ".html"
	return &Page{
		SourceID:      sourceID,
		Link:          Link{Ref: ref, Name: name, Title: name},
		Subpages:      sets.NewOrdered[string](),
		SymbolNames:   sets.NewOrdered[string](),
		ExtensionName: extensionName,
	}
}

// Doc returns the parsed document, or nil when it was dropped after a
// previous run and has not been rebuilt yet.
func (p *Page) Doc() *markdown.Document { return p.doc }

// SetDoc attaches a parsed document.
func (p *Page) SetDoc(doc *markdown.Document) { p.doc = doc }

// SourcePath returns the file the page was last parsed from, or "" for
// generated pages.
func (p *Page) SourcePath() string { return p.sourcePath }

// Title returns the preferred display name: the first header of the
// source when parsed, the link title otherwise.
func (p *Page) Title() string {
	if p.doc != nil && p.doc.FirstHeader != "" {
		return p.doc.FirstHeader
	}
	return p.Link.Title
}

// ShortDescription returns a summary suitable for navigation, or "".
func (p *Page) ShortDescription() string {
	if p.doc == nil {
		return ""
	}
	return p.doc.FirstParagraph
}

// attachSymbol appends a resolved symbol to the flat list and to its
// per-kind grouping.
func (p *Page) attachSymbol(sym *symbols.Symbol) {
	if p.TypedSymbols == nil {
		p.TypedSymbols = map[symbols.Kind][]*symbols.Symbol{}
	}
	p.Symbols = append(p.Symbols, sym)
	p.TypedSymbols[sym.Kind] = append(p.TypedSymbols[sym.Kind], sym)
}

// clearTransients drops everything that must not survive a run.
func (p *Page) clearTransients() {
	p.doc = nil
	p.Symbols = nil
	p.TypedSymbols = nil
	p.FormattedContents = ""
}

// toRecord maps the runtime page to its persisted form. Transients are
// not represented; staleness is implicitly reset on load.
func (p *Page) toRecord() state.PageRecord {
	return state.PageRecord{
		SourceID:      p.SourceID,
		ExtensionName: p.ExtensionName,
		Generated:     p.Generated,
		LinkTarget:    p.Link.Ref,
		LinkName:      p.Link.Name,
		LinkTitle:     p.Link.Title,
		Subpages:      p.Subpages.Values(),
		SymbolNames:   p.SymbolNames.Values(),
	}
}

// pageFromRecord maps a persisted record back to a runtime page. Loaded
// pages always start non-stale with transients unset.
func pageFromRecord(r state.PageRecord) *Page {
	return &Page{
		SourceID:      r.SourceID,
		Link:          Link{Ref: r.LinkTarget, Name: r.LinkName, Title: r.LinkTitle},
		Subpages:      sets.NewOrdered(r.Subpages...),
		SymbolNames:   sets.NewOrdered(r.SymbolNames...),
		ExtensionName: r.ExtensionName,
		Generated:     r.Generated,
	}
}
