package markdown

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymbolDeclarations(t *testing.T) {
	body := []byte(`# My API

Reference for the public API.

* [my_function]()
* [my_struct]()
* [see the guide](guide.md)
`)
	doc := NewParser().Parse(body)

	assert.Equal(t, []string{"my_function", "my_struct"}, doc.SymbolNames)
	assert.Equal(t, "My API", doc.FirstHeader)
	assert.Equal(t, "Reference for the public API.", doc.FirstParagraph)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, "guide.md", doc.Links[0].Destination)
}

func TestParseSymbolOrderPreserved(t *testing.T) {
	body := []byte(`* [zeta]()
* [alpha]()
* [mid]()
`)
	doc := NewParser().Parse(body)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, doc.SymbolNames)
}

func TestParseEmptyLinkOutsideListIsNotSymbol(t *testing.T) {
	body := []byte("Some [label]() inline link in prose.\n")
	doc := NewParser().Parse(body)
	assert.Empty(t, doc.SymbolNames)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.md")
	require.NoError(t, os.WriteFile(path, []byte("# Index\n\n* [foo]()\n"), 0o644))

	doc, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, []string{"foo"}, doc.SymbolNames)
}

func TestParseFileMissing(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "nope.md"))
	require.Error(t, err)
}
