package format

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/tree"
)

// NavigationFile is the name of the rendered navigation fragment.
const NavigationFile = "navigation.html"

// StyleFile is the name of the shared stylesheet written alongside pages.
const StyleFile = "style.css"

const styleSheet = `body { margin: 0 auto; max-width: 52rem; padding: 1rem; font-family: sans-serif; }
nav ul { list-style: none; padding-left: 1rem; }
article.symbol { border-top: 1px solid #ddd; padding: 0.5rem 0; }
`

// FormatNavigation renders the full page hierarchy as a nested list and
// writes it with the stylesheet under outputDir. Always regenerated: any
// page formatted this run may have changed a displayed title.
func (f *HTMLFormatter) FormatNavigation(root *tree.Page, t *tree.Tree, outputDir string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("<nav>\n<ul>\n")
	if err := f.writeNavEntry(&buf, root, t); err != nil {
		return "", err
	}
	buf.WriteString("</ul>\n</nav>\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", doterrors.FatalIO(err, outputDir)
	}
	target := filepath.Join(outputDir, NavigationFile)
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", doterrors.FatalIO(err, target)
	}
	stylePath := filepath.Join(outputDir, StyleFile)
	if err := os.WriteFile(stylePath, []byte(styleSheet), 0o644); err != nil {
		return "", doterrors.FatalIO(err, stylePath)
	}

	f.logger.Debug("Rendered navigation", logfields.Path(target))
	return target, nil
}

func (f *HTMLFormatter) writeNavEntry(buf *bytes.Buffer, page *tree.Page, t *tree.Tree) error {
	buf.WriteString("<li><a href=\"")
	template.HTMLEscape(buf, []byte(page.Link.Ref))
	buf.WriteString("\">")
	template.HTMLEscape(buf, []byte(f.pageTitle(page)))
	buf.WriteString("</a>")

	subs := page.Subpages.Values()
	if len(subs) > 0 {
		buf.WriteString("\n<ul>\n")
		for _, id := range subs {
			sub := t.GetPage(id)
			if sub == nil {
				continue
			}
			if err := f.writeNavEntry(buf, sub, t); err != nil {
				return err
			}
		}
		buf.WriteString("</ul>\n")
	}
	buf.WriteString("</li>\n")
	return nil
}
