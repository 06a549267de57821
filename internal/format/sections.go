package format

import (
	"bytes"
	"fmt"
	"html/template"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/symbols"
	"github.com/MathieuDuponchelle/better-doctool/internal/tree"
)

// kindOrder fixes the display order of symbol sections on a page.
var kindOrder = []symbols.Kind{
	symbols.KindClass,
	symbols.KindStruct,
	symbols.KindEnum,
	symbols.KindAlias,
	symbols.KindFunction,
	symbols.KindMacro,
	symbols.KindConstant,
	symbols.KindVariable,
	symbols.KindOther,
}

var sectionTemplate = template.Must(template.New("section").Parse(
	`<section class="symbols">
<h2>{{.Caption}}</h2>
{{range .Symbols}}<article class="symbol" id="{{.Anchor}}">
<h3>{{.Name}}</h3>
{{.Comment}}
</article>
{{end}}</section>
`))

type sectionData struct {
	Caption string
	Symbols []symbolData
}

type symbolData struct {
	Anchor  string
	Name    string
	Comment template.HTML
}

// renderSymbolSections renders the page's resolved symbols grouped by
// kind, in kindOrder, keeping resolution order within each group.
func (f *HTMLFormatter) renderSymbolSections(page *tree.Page) (template.HTML, error) {
	var out bytes.Buffer
	for _, kind := range kindOrder {
		group := page.TypedSymbols[kind]
		if len(group) == 0 {
			continue
		}
		data := sectionData{Caption: kind.SectionTitle()}
		for _, sym := range group {
			comment, err := f.renderComment(sym)
			if err != nil {
				return "", err
			}
			name := sym.DisplayName
			if name == "" {
				name = sym.UniqueName
			}
			data.Symbols = append(data.Symbols, symbolData{
				Anchor:  sym.UniqueName,
				Name:    name,
				Comment: comment,
			})
		}
		if err := sectionTemplate.Execute(&out, data); err != nil {
			return "", doterrors.Wrap(err, doterrors.CategoryFormat, doterrors.SeverityError,
				fmt.Sprintf("render %s section for %s", kind, page.SourceID))
		}
	}
	return template.HTML(out.String()), nil
}

// renderComment treats symbol comments as markdown.
func (f *HTMLFormatter) renderComment(sym *symbols.Symbol) (template.HTML, error) {
	if sym.Comment == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(sym.Comment), &buf); err != nil {
		return "", doterrors.Wrap(err, doterrors.CategoryFormat, doterrors.SeverityError,
			fmt.Sprintf("render comment for %s", sym.UniqueName))
	}
	return template.HTML(buf.String()), nil
}
