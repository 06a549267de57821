package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MathieuDuponchelle/better-doctool/internal/tracker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "doctool.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pages := []PageRecord{
		{
			SourceID:      "index.md",
			ExtensionName: "core",
			LinkTarget:    "index.html",
			LinkName:      "index",
			LinkTitle:     "Index",
			Subpages:      []string{"tutorial.md", "api.md"},
			SymbolNames:   []string{"foo", "bar"},
		},
		{
			SourceID:      "api.md",
			ExtensionName: "c-extension",
			Generated:     true,
			LinkTarget:    "api.html",
			LinkName:      "api",
			LinkTitle:     "API",
		},
	}
	baseline := tracker.Baseline{"user-pages": {"/docs/index.md": 1234}}
	run := RunRecord{ID: "run-1", StartedAt: time.Now(), DurationMS: 12.5, PageCount: 2, StaleCount: 2}

	require.NoError(t, s.Persist(ctx, pages, baseline, run))

	loaded, gotBaseline, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byID := map[string]PageRecord{}
	for _, r := range loaded {
		byID[r.SourceID] = r
	}
	idx := byID["index.md"]
	assert.Equal(t, []string{"tutorial.md", "api.md"}, idx.Subpages)
	assert.Equal(t, []string{"foo", "bar"}, idx.SymbolNames)
	assert.False(t, idx.Generated)
	api := byID["api.md"]
	assert.True(t, api.Generated)
	assert.Equal(t, "c-extension", api.ExtensionName)
	assert.Empty(t, api.Subpages)

	assert.Equal(t, int64(1234), gotBaseline["user-pages"]["/docs/index.md"])

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestPersistReplacesPreviousState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []PageRecord{{SourceID: "old.md", ExtensionName: "core", Subpages: []string{}, SymbolNames: []string{}}}
	require.NoError(t, s.Persist(ctx, first, tracker.Baseline{}, RunRecord{ID: "r1", StartedAt: time.Now()}))

	second := []PageRecord{{SourceID: "new.md", ExtensionName: "core", Subpages: []string{}, SymbolNames: []string{}}}
	require.NoError(t, s.Persist(ctx, second, tracker.Baseline{}, RunRecord{ID: "r2", StartedAt: time.Now()}))

	loaded, _, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new.md", loaded[0].SourceID)
}

func TestLoadFromEmptyStore(t *testing.T) {
	s := openTestStore(t)

	pages, baseline, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, baseline)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doctool.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	pages := []PageRecord{{SourceID: "index.md", ExtensionName: "core", Subpages: []string{}, SymbolNames: []string{"foo"}}}
	require.NoError(t, s.Persist(ctx, pages, tracker.Baseline{}, RunRecord{ID: "r1", StartedAt: time.Now()}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	loaded, _, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, []string{"foo"}, loaded[0].SymbolNames)
}

func TestGarbageDatabaseFileIsRecreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doctool.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite file"), 0o644))
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	pages, baseline, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, baseline)

	// The recreated database is fully usable.
	records := []PageRecord{{SourceID: "index.md", ExtensionName: "core", Subpages: []string{}, SymbolNames: []string{}}}
	require.NoError(t, s.Persist(ctx, records, tracker.Baseline{}, RunRecord{ID: "r1", StartedAt: time.Now()}))
	loaded, _, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestCorruptPageRowDiscardsBaselineToo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pages := []PageRecord{{SourceID: "index.md", ExtensionName: "core", Subpages: []string{}, SymbolNames: []string{"foo"}}}
	baseline := tracker.Baseline{"user-pages": {"/docs/index.md": 1234}}
	require.NoError(t, s.Persist(ctx, pages, baseline, RunRecord{ID: "r1", StartedAt: time.Now()}))

	_, err := s.db.ExecContext(ctx, "UPDATE pages SET subpages = 'not-json' WHERE source_id = 'index.md'")
	require.NoError(t, err)

	// An intact baseline over unloadable pages would diff to zero stale
	// files and the pages would never be rebuilt: corruption anywhere
	// yields empty history on both sides.
	loaded, gotBaseline, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Empty(t, gotBaseline)
}
