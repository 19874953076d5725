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

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
)

// DefaultAutosaveKeep is the number of autosaves kept per drawing.
const DefaultAutosaveKeep = 5

// language=SQL
// dialect=SQLite
const pruneAutosavesSQL = `
DELETE FROM drawings
WHERE kind = 'autosave' AND source_id = ? AND id NOT IN (
	SELECT id FROM drawings
	WHERE kind = 'autosave' AND source_id = ?
	ORDER BY updated_at DESC
	LIMIT ?
)`

// Autosave stores a snapshot of doc as a new autosave linked to doc.ID and
// prunes older autosaves of the same drawing beyond keep (<=0 uses DefaultAutosaveKeep).
// An empty doc.ID links the snapshot to "unsaved". It returns the autosave id.
func (s *Store) Autosave(ctx context.Context, doc Document, keep int) (string, error) {
	if keep <= 0 {
		keep = DefaultAutosaveKeep
	}
	source := doc.ID
	if source == "" {
		source = "unsaved"
	}
	snap := doc
	snap.ID = ""
	id, err := s.save(ctx, snap, kindAutosave, source)
	if err != nil {
		return "", fmt.Errorf("autosave: %w", err)
	}
	res, err := s.db.ExecContext(ctx, pruneAutosavesSQL, source, source, keep)
	if err != nil {
		return id, fmt.Errorf("prune autosaves: %w", err)
	}
	n, _ := res.RowsAffected()
	applog.WithOperation(s.log, "autosave").Debug("autosaved",
		slog.String("source", source), slog.String("id", id), slog.Int64("pruned", n))
	return id, nil
}

// LatestAutosave loads the newest autosave of a drawing ("" for unsaved work).
func (s *Store) LatestAutosave(ctx context.Context, sourceID string) (Document, error) {
	if sourceID == "" {
		sourceID = "unsaved"
	}
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM drawings WHERE kind='autosave' AND source_id=? ORDER BY updated_at DESC LIMIT 1`, sourceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("find autosave: %w", err)
	}
	return s.Load(ctx, id)
}

// CountAutosaves returns how many autosaves exist for a drawing.
func (s *Store) CountAutosaves(ctx context.Context, sourceID string) (int, error) {
	if sourceID == "" {
		sourceID = "unsaved"
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drawings WHERE kind='autosave' AND source_id=?`, sourceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count autosaves: %w", err)
	}
	return n, nil
}
