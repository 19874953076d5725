/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DBFileName = "drawings.sqlite"

	// schemaVersion tracks the SQLite schema. Bump it together with a step in runMigrations.
	schemaVersion = 2

	// DefaultThumbsMaxBytes caps the thumbnail cache when Options leaves it unset.
	DefaultThumbsMaxBytes = 64 * 1024 * 1024
)

// ErrNotFound is returned when a drawing id is unknown.
var ErrNotFound = errors.New("drawing not found")

type Options struct {
	// ThumbsMaxBytes caps the total thumbnail size; <0 disables eviction.
	ThumbsMaxBytes int64
}

// Store is safe for concurrent use.
type Store struct {
	db        *sql.DB
	path      string
	thumbsMax int64
	log       *slog.Logger

	clockMu sync.Mutex
	last    int64
}

// Path returns the database file for a store directory.
func Path(dir string) string { return filepath.Join(dir, DBFileName) }

// Open creates or opens the store in dir, enables WAL and brings the schema up to date.
func Open(ctx context.Context, dir string, opts Options) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create store dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	path := Path(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	for _, step := range []func(context.Context, *sql.DB) error{ensureVersion, ensureSchema, runMigrations} {
		if err := step(ctx, db); err != nil {
			_ = db.Close()
			l.Error("prepare schema failed", slog.Any("err", err))
			return nil, err
		}
	}
	thumbs := opts.ThumbsMaxBytes
	if thumbs == 0 {
		thumbs = DefaultThumbsMaxBytes
	}
	l.Info("drawing store ready", slog.String("path", path))
	return &Store{db: db, path: path, thumbsMax: thumbs, log: applog.WithComponent("storage")}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DBPath is the database file backing the store.
func (s *Store) DBPath() string { return s.path }

// tick returns a strictly increasing timestamp in unix nanoseconds so that
// LRU and autosave ordering never ties.
func (s *Store) tick() int64 {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	now := time.Now().UnixNano()
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return now
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at 1 and migrate forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// kind is 'drawing' or 'autosave'; autosaves point at their drawing via source_id
		`CREATE TABLE IF NOT EXISTS drawings (
			id            TEXT    PRIMARY KEY,
			kind          TEXT    NOT NULL DEFAULT 'drawing',
			source_id     TEXT,
			name          TEXT    NOT NULL,
			width         INTEGER NOT NULL,
			height        INTEGER NOT NULL,
			active_layer  TEXT,
			created_at    INTEGER NOT NULL,
			updated_at    INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_drawings_kind_updated ON drawings(kind, updated_at);`,
		`CREATE TABLE IF NOT EXISTS layers (
			drawing_id  TEXT    NOT NULL,
			idx         INTEGER NOT NULL,
			layer_id    TEXT    NOT NULL,
			name        TEXT    NOT NULL,
			visible     INTEGER NOT NULL,
			locked      INTEGER NOT NULL,
			opacity     REAL    NOT NULL,
			blend_mode  TEXT    NOT NULL,
			png         BLOB    NOT NULL,
			PRIMARY KEY(drawing_id, idx),
			FOREIGN KEY(drawing_id) REFERENCES drawings(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS thumbs (
			drawing_id  TEXT    NOT NULL,
			max_side    INTEGER NOT NULL,
			png         BLOB    NOT NULL,
			size        INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL,
			last_access INTEGER NOT NULL,
			PRIMARY KEY(drawing_id, max_side)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_thumbs_access ON thumbs(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_drawings_source ON drawings(source_id, updated_at);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
