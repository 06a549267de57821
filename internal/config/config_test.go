package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "include_paths:\n  - markdown\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sitemap.txt", cfg.Sitemap)
	assert.Equal(t, "built_doc", cfg.OutputDir)
	assert.Equal(t, "doctool.db", cfg.StateFile)
	assert.Equal(t, "info", cfg.Logging.Level)

	d, err := cfg.Watch.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, d)
	interval, err := cfg.Watch.RebuildIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), interval)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCS_ROOT", "/srv/docs")
	path := writeConfig(t, "include_paths:\n  - ${DOCS_ROOT}/markdown\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/docs/markdown"}, cfg.IncludePaths)
}

func TestLoadRejectsMissingIncludePaths(t *testing.T) {
	path := writeConfig(t, "output_dir: out\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, doterrors.IsCategory(err, doterrors.CategoryConfig))
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "include_paths: [markdown]\nwatch:\n  debounce: soon\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFileIsFilesystemError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, doterrors.IsCategory(err, doterrors.CategoryFileSystem))
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doctool.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"markdown"}, cfg.IncludePaths)
}

func TestLoggerLevels(t *testing.T) {
	logger := LoggingConfig{Level: "debug", Format: "json"}.Logger()
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))

	logger = LoggingConfig{Level: "warn", Format: "text"}.Logger()
	assert.False(t, logger.Enabled(nil, slog.LevelInfo))
}
