package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, 500*time.Millisecond)
	defer d.Stop()

	for range 10 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("expected a fire after the quiet window")
	}
	select {
	case <-d.C():
		t.Fatal("burst must fire exactly once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerMaxDelayBoundsPostponement(t *testing.T) {
	d := NewDebouncer(50*time.Millisecond, 150*time.Millisecond)
	defer d.Stop()

	// A steady trigger stream keeps resetting the quiet window; the max
	// delay still forces a fire.
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.Trigger()
			}
		}
	}()
	defer close(stop)

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("max delay did not force a fire")
	}
}

func TestDaemonRebuildsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("# Hi\n"), 0o644))

	var builds atomic.Int32
	d, err := New(Config{
		IncludePaths: []string{dir},
		Debounce:     20 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, func(ctx context.Context) (BuildResult, error) {
		builds.Add(1)
		return BuildResult{Pages: 1}, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Initial build.
	require.Eventually(t, func() bool { return builds.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("# Changed\n"), 0o644))
	require.Eventually(t, func() bool { return builds.Load() >= 2 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop on cancellation")
	}
}

func TestDaemonPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	var builds atomic.Int32
	d, err := New(Config{
		IncludePaths: []string{dir},
		Debounce:     20 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, func(ctx context.Context) (BuildResult, error) {
		builds.Add(1)
		return BuildResult{}, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()
	require.Eventually(t, func() bool { return builds.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)

	sub := filepath.Join(dir, "chapter")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return builds.Load() >= 2 },
		2*time.Second, 10*time.Millisecond)

	// A file inside the new directory still triggers builds.
	before := builds.Load()
	require.NoError(t, os.WriteFile(filepath.Join(sub, "new.md"), []byte("# New\n"), 0o644))
	require.Eventually(t, func() bool { return builds.Load() > before },
		2*time.Second, 10*time.Millisecond)
}

func TestNewRejectsMissingBuildFunc(t *testing.T) {
	_, err := New(Config{IncludePaths: []string{"."}}, nil)
	require.Error(t, err)
	_, err = New(Config{}, func(context.Context) (BuildResult, error) { return BuildResult{}, nil })
	require.Error(t, err)
}
