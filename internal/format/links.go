package format

import (
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/MathieuDuponchelle/better-doctool/internal/tree"
)

var resolverKey = parser.NewContextKey()

// linkTransformer rewrites the page AST before rendering:
//   - symbol declarations (a list item holding only an empty link) are
//     removed from the body, the symbol sections render them instead
//   - remaining empty-destination links are resolved to page or symbol
//     targets via the tree's link resolver
type linkTransformer struct{}

func (linkTransformer) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	resolver, _ := pc.Get(resolverKey).(tree.LinkResolver)
	source := reader.Source()

	var declarations []gmast.Node
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		link, ok := n.(*gmast.Link)
		if !ok || len(link.Destination) != 0 {
			return gmast.WalkContinue, nil
		}
		if item := soleListItem(link); item != nil {
			declarations = append(declarations, item)
			return gmast.WalkSkipChildren, nil
		}
		if resolver == nil {
			return gmast.WalkContinue, nil
		}
		if target, found := resolver.LinkFor(linkText(link, source)); found {
			link.Destination = []byte(target.Ref)
		}
		return gmast.WalkContinue, nil
	})

	for _, item := range declarations {
		list := item.Parent()
		list.RemoveChild(list, item)
		if list.ChildCount() == 0 && list.Parent() != nil {
			list.Parent().RemoveChild(list.Parent(), list)
		}
	}
}

// soleListItem returns the enclosing list item when the link is its only
// content, nil otherwise.
func soleListItem(link *gmast.Link) gmast.Node {
	para := link.Parent()
	if para == nil || para.Kind() != gmast.KindParagraph || para.ChildCount() != 1 {
		return nil
	}
	item := para.Parent()
	if item == nil || item.Kind() != gmast.KindListItem {
		return nil
	}
	return item
}

func linkText(n gmast.Node, source []byte) string {
	var out []byte
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := c.(*gmast.Text); ok {
			out = append(out, t.Segment.Value(source)...)
		}
		return gmast.WalkContinue, nil
	})
	return string(out)
}
