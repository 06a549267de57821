// Package markdown parses documentation source pages with Goldmark and
// extracts the constructs the page tree cares about: declared symbol
// references, the first header, and the first paragraph.
//
// A symbol reference is a list item whose sole content is a link with an
// empty destination:
//
//	* [my_function]()
//
// The link label is the symbol's unique name. The list item is removed
// from the rendered output; the symbol's formatted documentation is
// appended to the page body instead.
package markdown

import (
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is one parsed source page.
type Document struct {
	Source         string   // path the page was read from ("" for synthesized content)
	Body           []byte   // raw markdown body
	SymbolNames    []string // declared symbol references, in declaration order
	FirstHeader    string
	FirstParagraph string
	Links          []Link
}

// Link is a link-like construct found in a page body.
type Link struct {
	Destination string
	Label       string
}

// Parser turns markdown sources into Documents. Safe to reuse across pages.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a parser with default Goldmark settings.
func NewParser() *Parser {
	return &Parser{md: goldmark.New()}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*Document, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page source: %w", err)
	}
	doc := p.Parse(body)
	doc.Source = path
	return doc, nil
}

// Parse parses a markdown body.
func (p *Parser) Parse(body []byte) *Document {
	root := p.md.Parser().Parse(text.NewReader(body))
	doc := &Document{Body: body}

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			if doc.FirstHeader == "" {
				doc.FirstHeader = nodeText(node, body)
			}
		case *gmast.Paragraph:
			// Paragraphs inside list items are link carriers, not prose.
			if doc.FirstParagraph == "" && n.Parent() != nil && n.Parent().Kind() == gmast.KindDocument {
				doc.FirstParagraph = nodeText(node, body)
			}
		case *gmast.Link:
			label := nodeText(node, body)
			dest := string(node.Destination)
			if dest == "" && label != "" && isSoleListItemLink(node) {
				doc.SymbolNames = append(doc.SymbolNames, label)
				return gmast.WalkSkipChildren, nil
			}
			doc.Links = append(doc.Links, Link{Destination: dest, Label: label})
		}
		return gmast.WalkContinue, nil
	})

	return doc
}

// isSoleListItemLink reports whether the link is the only content of a
// list item (list item > paragraph > link, no siblings).
func isSoleListItemLink(link *gmast.Link) bool {
	para := link.Parent()
	if para == nil || para.Kind() != gmast.KindParagraph {
		return false
	}
	if para.ChildCount() != 1 {
		return false
	}
	item := para.Parent()
	return item != nil && item.Kind() == gmast.KindListItem
}

// nodeText collects the literal text under a node.
func nodeText(n gmast.Node, source []byte) string {
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
