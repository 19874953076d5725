/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

const (
	kindDrawing  = "drawing"
	kindAutosave = "autosave"
)

// Document is a saved layer stack.
type Document struct {
	ID            string
	Name          string
	Width, Height int
	ActiveLayerID string
	// Layers are bottom-to-top and must all match Width x Height.
	Layers    []*layers.Layer
	UpdatedAt time.Time
}

// Summary is the metadata List returns without decoding pixels.
type Summary struct {
	ID            string
	Name          string
	Width, Height int
	LayerCount    int
	UpdatedAt     time.Time
}

// language=SQL
// dialect=SQLite
const upsertDrawingSQL = `
INSERT INTO drawings(id, kind, source_id, name, width, height, active_layer, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name, width=excluded.width, height=excluded.height,
	active_layer=excluded.active_layer, updated_at=excluded.updated_at`

// language=SQL
// dialect=SQLite
const insertLayerSQL = `
INSERT INTO layers(drawing_id, idx, layer_id, name, visible, locked, opacity, blend_mode, png)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listDrawingsSQL = `
SELECT d.id, d.name, d.width, d.height, d.updated_at,
       (SELECT COUNT(*) FROM layers l WHERE l.drawing_id = d.id)
FROM drawings d
WHERE d.kind = 'drawing'
ORDER BY d.updated_at DESC, d.id`

// Save writes doc, replacing any previous layers stored under its id. An empty
// ID is assigned a new uuid; the assigned id is returned.
func (s *Store) Save(ctx context.Context, doc Document) (string, error) {
	return s.save(ctx, doc, kindDrawing, "")
}

func (s *Store) save(ctx context.Context, doc Document, kind, sourceID string) (string, error) {
	if err := validateDocument(doc); err != nil {
		return "", err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	l := applog.WithOperation(s.log, "save").With(slog.String("id", doc.ID), slog.String("kind", kind))

	blobs := make([][]byte, len(doc.Layers))
	for i, ly := range doc.Layers {
		b, err := encodePNG(ly.Raster)
		if err != nil {
			return "", fmt.Errorf("encode layer %q: %w", ly.Name, err)
		}
		blobs[i] = b
	}

	now := s.tick()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var src any
	if sourceID != "" {
		src = sourceID
	}
	if _, err := tx.ExecContext(ctx, upsertDrawingSQL, doc.ID, kind, src, doc.Name, doc.Width, doc.Height, doc.ActiveLayerID, now, now); err != nil {
		return "", fmt.Errorf("upsert drawing: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE drawing_id=?`, doc.ID); err != nil {
		return "", fmt.Errorf("clear layers: %w", err)
	}
	for i, ly := range doc.Layers {
		if _, err := tx.ExecContext(ctx, insertLayerSQL, doc.ID, i, ly.ID, ly.Name,
			boolInt(ly.Visible), boolInt(ly.Locked), ly.Opacity, string(ly.BlendMode), blobs[i]); err != nil {
			return "", fmt.Errorf("insert layer %d: %w", i, err)
		}
	}
	// pixels changed, so cached thumbnails are stale
	if _, err := tx.ExecContext(ctx, `DELETE FROM thumbs WHERE drawing_id=?`, doc.ID); err != nil {
		return "", fmt.Errorf("drop stale thumbs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save: %w", err)
	}
	l.Debug("drawing saved", slog.Int("layers", len(doc.Layers)))
	return doc.ID, nil
}

// Load reads a drawing or autosave by id. It returns ErrNotFound for unknown ids.
func (s *Store) Load(ctx context.Context, id string) (Document, error) {
	var (
		doc     Document
		active  sql.NullString
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, width, height, active_layer, updated_at FROM drawings WHERE id=?`, id).
		Scan(&doc.ID, &doc.Name, &doc.Width, &doc.Height, &active, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("load drawing %s: %w", id, err)
	}
	doc.ActiveLayerID = active.String
	doc.UpdatedAt = time.Unix(0, updated)

	rows, err := s.db.QueryContext(ctx, `SELECT layer_id, name, visible, locked, opacity, blend_mode, png FROM layers WHERE drawing_id=? ORDER BY idx`, id)
	if err != nil {
		return Document{}, fmt.Errorf("load layers %s: %w", id, err)
	}
	defer rows.Close()
	bounds := image.Rect(0, 0, doc.Width, doc.Height)
	for rows.Next() {
		var (
			ly              layers.Layer
			visible, locked int
			mode            string
			blob            []byte
		)
		if err := rows.Scan(&ly.ID, &ly.Name, &visible, &locked, &ly.Opacity, &mode, &blob); err != nil {
			return Document{}, fmt.Errorf("scan layer: %w", err)
		}
		ly.Visible, ly.Locked = visible != 0, locked != 0
		ly.BlendMode = raster.BlendMode(mode)
		img, err := decodePNG(blob)
		if err != nil {
			return Document{}, fmt.Errorf("decode layer %q: %w", ly.Name, err)
		}
		if img.Bounds() != bounds {
			return Document{}, fmt.Errorf("layer %q is %v, drawing is %v", ly.Name, img.Bounds(), bounds)
		}
		ly.Raster = img
		doc.Layers = append(doc.Layers, &ly)
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("iterate layers: %w", err)
	}
	return doc, nil
}

// List returns saved drawings, newest first. Autosaves are not listed.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, listDrawingsSQL)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			sm      Summary
			updated int64
		)
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Width, &sm.Height, &updated, &sm.LayerCount); err != nil {
			return nil, fmt.Errorf("scan drawing: %w", err)
		}
		sm.UpdatedAt = time.Unix(0, updated)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Delete removes a drawing with its layers, thumbnails and autosaves.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx, `DELETE FROM drawings WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM drawings WHERE kind='autosave' AND source_id=?`, id); err != nil {
		return fmt.Errorf("delete autosaves: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM thumbs WHERE drawing_id=?`, id); err != nil {
		return fmt.Errorf("delete thumbs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	applog.WithOperation(s.log, "delete").Info("drawing deleted", slog.String("id", id))
	return nil
}

func validateDocument(doc Document) error {
	if doc.Width <= 0 || doc.Height <= 0 {
		return fmt.Errorf("invalid drawing size %dx%d", doc.Width, doc.Height)
	}
	if len(doc.Layers) == 0 {
		return errors.New("drawing has no layers")
	}
	want := image.Rect(0, 0, doc.Width, doc.Height)
	for _, ly := range doc.Layers {
		if ly == nil || ly.Raster == nil || ly.Raster.Bounds() != want {
			return fmt.Errorf("layer does not match drawing size %dx%d", doc.Width, doc.Height)
		}
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodePNG returns the image as a premultiplied surface anchored at the origin.
func decodePNG(b []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	r := img.Bounds()
	out := raster.New(r.Dx(), r.Dy())
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
