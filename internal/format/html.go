// Package format renders resolved pages to static HTML.
//
// The core formatter covers markdown-backed and generated pages alike:
// the page body is rendered with Goldmark, symbol documentation is
// grouped per kind below the body, and empty-destination links are
// rewritten against the tree's link resolver. Navigation is rendered
// last, once every page of the run has its final title.
package format

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/tree"
)

// HTMLFormatter implements tree.Formatter for static HTML output.
type HTMLFormatter struct {
	logger *slog.Logger
	md     goldmark.Markdown
	titler cases.Caser
}

// NewHTMLFormatter creates a formatter with default Goldmark settings and
// the link-rewriting transformer installed.
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{
		logger: slog.Default(),
		md: goldmark.New(goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(&linkTransformer{}, 100)),
		)),
		titler: cases.Title(language.English),
	}
}

// WithLogger sets a custom logger.
func (f *HTMLFormatter) WithLogger(logger *slog.Logger) *HTMLFormatter {
	f.logger = logger
	return f
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.StylePath}}">
</head>
<body>
<main>
{{.Body}}
{{.Sections}}
</main>
</body>
</html>
`))

type pageData struct {
	Title     string
	StylePath string
	Body      template.HTML
	Sections  template.HTML
}

// FormatPage renders one page and writes it under outputDir at the page's
// link target. The rendered document is also kept on the page for the
// rest of the run.
func (f *HTMLFormatter) FormatPage(page *tree.Page, resolver tree.LinkResolver, outputDir string) error {
	var body bytes.Buffer
	if doc := page.Doc(); doc != nil {
		pc := parser.NewContext()
		pc.Set(resolverKey, resolver)
		if err := f.md.Convert(doc.Body, &body, parser.WithContext(pc)); err != nil {
			return doterrors.Wrap(err, doterrors.CategoryFormat, doterrors.SeverityError,
				fmt.Sprintf("render page %s", page.SourceID))
		}
	}

	sections, err := f.renderSymbolSections(page)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	err = pageTemplate.Execute(&out, pageData{
		Title:     f.pageTitle(page),
		StylePath: stylePathFor(page.Link.Ref),
		Body:      template.HTML(body.String()),
		Sections:  sections,
	})
	if err != nil {
		return doterrors.Wrap(err, doterrors.CategoryFormat, doterrors.SeverityError,
			fmt.Sprintf("execute page template for %s", page.SourceID))
	}

	page.FormattedContents = out.String()
	target := filepath.Join(outputDir, filepath.FromSlash(page.Link.Ref))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return doterrors.FatalIO(err, filepath.Dir(target))
	}
	if err := os.WriteFile(target, out.Bytes(), 0o644); err != nil {
		return doterrors.FatalIO(err, target)
	}

	f.logger.Debug("Formatted page",
		logfields.Page(page.SourceID), logfields.Path(target))
	return nil
}

// pageTitle prefers the parsed first header, then a humanized link name.
// "getting-started" becomes "Getting Started".
func (f *HTMLFormatter) pageTitle(page *tree.Page) string {
	if t := page.Title(); t != "" && t != page.Link.Name {
		return t
	}
	name := strings.NewReplacer("-", " ", "_", " ").Replace(page.Link.Name)
	return f.titler.String(name)
}

// stylePathFor computes the relative path from a page's output location
// back to the root stylesheet.
func stylePathFor(ref string) string {
	depth := strings.Count(ref, "/")
	return strings.Repeat("../", depth) + "style.css"
}
