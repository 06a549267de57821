package sitemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `index.md
	tutorial.md
		setup.md
	python-api
	faq.md
`

func TestParseHierarchy(t *testing.T) {
	m, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "index.md", m.Index())
	assert.Equal(t, []string{"index.md", "tutorial.md", "setup.md", "python-api", "faq.md"}, m.Sources())
	assert.Equal(t, []string{"tutorial.md", "python-api", "faq.md"}, m.Subpages("index.md"))
	assert.Equal(t, []string{"setup.md"}, m.Subpages("tutorial.md"))
	assert.Empty(t, m.Subpages("faq.md"))
}

func TestWalkDepthFirst(t *testing.T) {
	m, err := Parse(sample)
	require.NoError(t, err)

	var ids []string
	var levels []int
	m.Walk(func(id string, level int) {
		ids = append(ids, id)
		levels = append(levels, level)
	})
	assert.Equal(t, []string{"index.md", "tutorial.md", "setup.md", "python-api", "faq.md"}, ids)
	assert.Equal(t, []int{0, 1, 2, 1, 1}, levels)
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	m, err := Parse("# site layout\n\nindex.md\n\n\tchild.md\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"child.md"}, m.Subpages("index.md"))
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
}

func TestParseMultipleRoots(t *testing.T) {
	_, err := Parse("index.md\nother.md\n")
	require.Error(t, err)
}

func TestParseDuplicateIdentifier(t *testing.T) {
	_, err := Parse("index.md\n\ta.md\n\ta.md\n")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitemap.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "index.md", m.Index())
}

func TestLoadMissingIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
