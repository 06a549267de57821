// Package sitemap parses the declared page hierarchy.
//
// The sitemap file lists one source identifier per line; nesting is
// declared by indentation (tabs, or a consistent number of spaces). The
// first line is the index page:
//
//	index.md
//		tutorial.md
//			setup.md
//		python-api
//
// Identifiers need not be backed by a file on disk: placeholder resolvers
// may claim them at build time.
package sitemap

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
)

// Map is the parsed, authoritative hierarchy of page identifiers.
type Map struct {
	index    string
	order    []string            // all identifiers in declaration order
	subpages map[string][]string // parent -> ordered children
}

// Parse parses sitemap content.
func Parse(content string) (*Map, error) {
	m := &Map{subpages: map[string][]string{}}

	type frame struct {
		id     string
		indent int
	}
	var stack []frame

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		indent := countIndent(line)
		id := strings.TrimSpace(line)
		if _, seen := m.subpages[id]; seen {
			return nil, doterrors.New(doterrors.CategorySitemap, doterrors.SeverityFatal,
				fmt.Sprintf("duplicate identifier %q at line %d", id, lineno))
		}

		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			if m.index != "" {
				return nil, doterrors.New(doterrors.CategorySitemap, doterrors.SeverityFatal,
					fmt.Sprintf("multiple root entries: %q at line %d", id, lineno))
			}
			m.index = id
		} else {
			parent := stack[len(stack)-1].id
			m.subpages[parent] = append(m.subpages[parent], id)
		}

		m.order = append(m.order, id)
		m.subpages[id] = nil
		stack = append(stack, frame{id: id, indent: indent})
	}
	if err := scanner.Err(); err != nil {
		return nil, doterrors.Wrap(err, doterrors.CategorySitemap, doterrors.SeverityFatal, "read sitemap")
	}
	if m.index == "" {
		return nil, doterrors.New(doterrors.CategorySitemap, doterrors.SeverityFatal, "sitemap is empty")
	}
	return m, nil
}

// Load parses a sitemap file.
func Load(path string) (*Map, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, doterrors.FatalIO(err, path)
	}
	return Parse(string(content))
}

// Index returns the root page identifier (the first sitemap line).
func (m *Map) Index() string { return m.index }

// Sources returns all declared identifiers in declaration order.
func (m *Map) Sources() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Subpages returns the ordered children declared under id.
func (m *Map) Subpages(id string) []string {
	children := m.subpages[id]
	out := make([]string, len(children))
	copy(out, children)
	return out
}

// Walk traverses the hierarchy depth-first in declaration order, calling
// visit with each identifier and its nesting level (index is level 0).
func (m *Map) Walk(visit func(id string, level int)) {
	m.walk(m.index, 0, visit)
}

func (m *Map) walk(id string, level int, visit func(string, int)) {
	visit(id, level)
	for _, child := range m.subpages[id] {
		m.walk(child, level+1, visit)
	}
}

// countIndent measures leading whitespace. A tab counts as one level
// marker; runs of spaces count one per space, which is consistent as long
// as the file does not mix tabs and spaces.
func countIndent(line string) int {
	n := 0
	for _, r := range line {
		if r == '\t' || r == ' ' {
			n++
			continue
		}
		break
	}
	return n
}
