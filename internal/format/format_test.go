package format

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MathieuDuponchelle/better-doctool/internal/bus"
	"github.com/MathieuDuponchelle/better-doctool/internal/markdown"
	"github.com/MathieuDuponchelle/better-doctool/internal/sitemap"
	"github.com/MathieuDuponchelle/better-doctool/internal/symbols"
	"github.com/MathieuDuponchelle/better-doctool/internal/tree"
)

func quietFormatter() *HTMLFormatter {
	return NewHTMLFormatter().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type mapResolver map[string]tree.Link

func (m mapResolver) LinkFor(name string) (tree.Link, bool) {
	l, ok := m[name]
	return l, ok
}

func TestFormatPageResolvesEmptyLinks(t *testing.T) {
	out := t.TempDir()
	page := tree.NewPage("index.md", tree.CoreExtensionName)
	page.SetDoc(markdown.NewParser().Parse([]byte("# Welcome\n\nSee [do_thing]() for details.\n")))

	resolver := mapResolver{"do_thing": {Ref: "api.html#do_thing", Name: "do_thing"}}
	require.NoError(t, quietFormatter().FormatPage(page, resolver, out))

	rendered, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), `href="api.html#do_thing"`)
	assert.Contains(t, string(rendered), "<title>Welcome</title>")
	assert.Equal(t, string(rendered), page.FormattedContents)
}

func TestFormatPageRendersSymbolSections(t *testing.T) {
	out := t.TempDir()
	page := tree.NewPage("api.md", tree.CoreExtensionName)
	page.SetDoc(markdown.NewParser().Parse([]byte("# API\n\n* [do_thing]()\n")))
	page.TypedSymbols = map[symbols.Kind][]*symbols.Symbol{
		symbols.KindFunction: {{
			UniqueName: "do_thing",
			Kind:       symbols.KindFunction,
			Comment:    "Does *the* thing.",
		}},
	}

	require.NoError(t, quietFormatter().FormatPage(page, mapResolver{}, out))

	rendered, err := os.ReadFile(filepath.Join(out, "api.html"))
	require.NoError(t, err)
	html := string(rendered)
	assert.Contains(t, html, "<h2>Functions</h2>")
	assert.Contains(t, html, `id="do_thing"`)
	assert.Contains(t, html, "<em>the</em> thing")
	// The declaration list item renders as a section, not as a body list.
	assert.NotContains(t, html, "<li>")
}

func TestFormatPageHumanizesBareTitles(t *testing.T) {
	out := t.TempDir()
	page := tree.NewPage("getting-started.md", tree.CoreExtensionName)

	require.NoError(t, quietFormatter().FormatPage(page, mapResolver{}, out))

	rendered, err := os.ReadFile(filepath.Join(out, "getting-started.html"))
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "<title>Getting Started</title>")
}

func TestFormatNavigationNestsSubpages(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	mtime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, content := range map[string]string{
		"index.md":    "# Welcome\n",
		"tutorial.md": "# Tutorial\n",
		"setup.md":    "# Setup\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	sm, err := sitemap.Parse("index.md\n\ttutorial.md\n\t\tsetup.md\n")
	require.NoError(t, err)
	tr, err := tree.New(context.Background(), tree.Config{
		SiteMap:      sm,
		Symbols:      symbols.NewMemoryStore(bus.New()),
		IncludePaths: []string{dir},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.NoError(t, tr.Reconcile())

	navPath, err := quietFormatter().FormatNavigation(tr.Root(), tr, out)
	require.NoError(t, err)

	nav, err := os.ReadFile(navPath)
	require.NoError(t, err)
	html := string(nav)
	assert.Contains(t, html, `href="index.html"`)
	assert.Contains(t, html, `href="setup.html"`)
	assert.Less(t, strings.Index(html, "Tutorial"), strings.Index(html, "Setup"),
		"children render inside their parent's entry")

	_, err = os.Stat(filepath.Join(out, StyleFile))
	assert.NoError(t, err)
}

func TestAuditLinksReportsMissingTargets(t *testing.T) {
	out := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(out, name), []byte(content), 0o644))
	}
	write("good.html", `<a href="other.html">ok</a>`)
	write("other.html", `<a href="https://example.com/x">external</a><a href="#frag">anchor</a>`)
	write("bad.html", `<a href="missing.html#sec">broken</a><img src="img/gone.png">`)

	broken, err := AuditLinks(out)
	require.NoError(t, err)
	require.Len(t, broken, 2)
	assert.Equal(t, "bad.html", broken[0].Page)
	assert.Equal(t, "img/gone.png", broken[0].Target)
	assert.Equal(t, "missing.html#sec", broken[1].Target)
}
