// Package state persists the private build state between runs: the page
// map, the change-tracker baselines, and a run log. Everything lives in a
// single SQLite database file under the project's private directory.
//
// Reads are permissive: a corrupt or absent database yields empty state
// and the run proceeds as a full rebuild. Writes are not: a failed
// Persist aborts the run with nothing committed.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
	"github.com/MathieuDuponchelle/better-doctool/internal/tracker"
)

// Store is the SQLite-backed private state store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the state database at path. A file that is not
// a usable database is stale history, not a fatal condition: it is
// recreated empty and the run proceeds as a full rebuild.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	s := &Store{logger: slog.Default()}
	db, err := s.openAndInit(path)
	if err != nil {
		if path == ":memory:" {
			return nil, doterrors.StateError(err, "initialize state schema")
		}
		s.logger.Warn("Unusable state database, recreating from scratch",
			logfields.Path(path), logfields.Error(err))
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, doterrors.StateError(rmErr, "recreate state database")
		}
		db, err = s.openAndInit(path)
		if err != nil {
			return nil, doterrors.StateError(err, "initialize state schema")
		}
	}
	s.db = db
	return s, nil
}

func (s *Store) openAndInit(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s.db = db
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WithLogger sets a custom logger.
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	s.logger = logger
	return s
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		source_id TEXT PRIMARY KEY,
		extension_name TEXT NOT NULL,
		generated INTEGER NOT NULL,
		link_target TEXT NOT NULL,
		link_name TEXT NOT NULL,
		link_title TEXT NOT NULL,
		subpages TEXT NOT NULL,
		symbol_names TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS mtimes (
		category TEXT NOT NULL,
		path TEXT NOT NULL,
		mtime_ns INTEGER NOT NULL,
		PRIMARY KEY (category, path)
	);
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms REAL NOT NULL,
		page_count INTEGER NOT NULL,
		stale_count INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the persisted page records and change-tracker baseline.
// The database is one unit of incremental history: corruption in either
// table discards both, otherwise an intact baseline over missing pages
// would report zero stale files and the tree would never rebuild them.
func (s *Store) Load(ctx context.Context) ([]PageRecord, tracker.Baseline, error) {
	records, ok := s.loadPages(ctx)
	if !ok {
		return nil, nil, nil
	}
	baseline, ok := s.loadBaseline(ctx)
	if !ok {
		return nil, nil, nil
	}
	return records, baseline, nil
}

func (s *Store) loadPages(ctx context.Context) ([]PageRecord, bool) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_id, extension_name, generated, link_target, link_name, link_title, subpages, symbol_names FROM pages")
	if err != nil {
		s.logger.Warn("Unreadable page state, rebuilding from scratch", logfields.Error(err))
		return nil, false
	}
	defer rows.Close()

	var records []PageRecord
	for rows.Next() {
		var r PageRecord
		var generated int
		var subpagesJSON, symbolsJSON []byte
		if err := rows.Scan(&r.SourceID, &r.ExtensionName, &generated,
			&r.LinkTarget, &r.LinkName, &r.LinkTitle, &subpagesJSON, &symbolsJSON); err != nil {
			s.logger.Warn("Corrupt page record, rebuilding from scratch", logfields.Error(err))
			return nil, false
		}
		r.Generated = generated != 0
		if err := json.Unmarshal(subpagesJSON, &r.Subpages); err != nil {
			s.logger.Warn("Corrupt subpage list, rebuilding from scratch",
				logfields.Page(r.SourceID), logfields.Error(err))
			return nil, false
		}
		if err := json.Unmarshal(symbolsJSON, &r.SymbolNames); err != nil {
			s.logger.Warn("Corrupt symbol list, rebuilding from scratch",
				logfields.Page(r.SourceID), logfields.Error(err))
			return nil, false
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("Unreadable page state, rebuilding from scratch", logfields.Error(err))
		return nil, false
	}
	return records, true
}

func (s *Store) loadBaseline(ctx context.Context) (tracker.Baseline, bool) {
	rows, err := s.db.QueryContext(ctx, "SELECT category, path, mtime_ns FROM mtimes")
	if err != nil {
		s.logger.Warn("Unreadable tracker baseline, rebuilding from scratch", logfields.Error(err))
		return nil, false
	}
	defer rows.Close()

	baseline := tracker.Baseline{}
	for rows.Next() {
		var category, path string
		var mtime int64
		if err := rows.Scan(&category, &path, &mtime); err != nil {
			s.logger.Warn("Corrupt baseline record, rebuilding from scratch", logfields.Error(err))
			return nil, false
		}
		if baseline[category] == nil {
			baseline[category] = map[string]int64{}
		}
		baseline[category][path] = mtime
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("Unreadable tracker baseline, rebuilding from scratch", logfields.Error(err))
		return nil, false
	}
	return baseline, true
}

// Persist atomically replaces the page map and tracker baseline and
// appends the run record. Any failure leaves the previous state intact.
func (s *Store) Persist(ctx context.Context, pages []PageRecord, baseline tracker.Baseline, run RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return doterrors.StateError(err, "begin state transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages"); err != nil {
		return doterrors.StateError(err, "clear page state")
	}
	for _, r := range pages {
		subpagesJSON, err := json.Marshal(emptyIfNil(r.Subpages))
		if err != nil {
			return doterrors.StateError(err, fmt.Sprintf("marshal subpages of %s", r.SourceID))
		}
		symbolsJSON, err := json.Marshal(emptyIfNil(r.SymbolNames))
		if err != nil {
			return doterrors.StateError(err, fmt.Sprintf("marshal symbols of %s", r.SourceID))
		}
		generated := 0
		if r.Generated {
			generated = 1
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO pages (source_id, extension_name, generated, link_target, link_name, link_title, subpages, symbol_names) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			r.SourceID, r.ExtensionName, generated, r.LinkTarget, r.LinkName, r.LinkTitle, subpagesJSON, symbolsJSON); err != nil {
			return doterrors.StateError(err, fmt.Sprintf("insert page %s", r.SourceID))
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM mtimes"); err != nil {
		return doterrors.StateError(err, "clear tracker baseline")
	}
	for category, paths := range baseline {
		for path, mtime := range paths {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO mtimes (category, path, mtime_ns) VALUES (?, ?, ?)",
				category, path, mtime); err != nil {
				return doterrors.StateError(err, fmt.Sprintf("insert baseline for %s", path))
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, duration_ms, page_count, stale_count) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.Unix(), run.DurationMS, run.PageCount, run.StaleCount); err != nil {
		return doterrors.StateError(err, "insert run record")
	}

	if err := tx.Commit(); err != nil {
		return doterrors.StateError(err, "commit state transaction")
	}
	s.logger.Debug("Persisted build state",
		logfields.RunID(run.ID),
		logfields.PageCount(run.PageCount),
		logfields.StaleCount(run.StaleCount))
	return nil
}

// Runs returns the run log, most recent first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, duration_ms, page_count, stale_count FROM runs ORDER BY started_at DESC")
	if err != nil {
		return nil, doterrors.StateError(err, "query run log")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.DurationMS, &r.PageCount, &r.StaleCount); err != nil {
			return nil, doterrors.StateError(err, "scan run record")
		}
		r.StartedAt = time.Unix(started, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
