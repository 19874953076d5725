/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/preset"
)

var ErrPresetNotFound = errors.New("preset not found")

// PresetInfo describes a stored preset without its body.
type PresetInfo struct {
	Name      string
	Owner     string
	Version   int64
	UpdatedAt time.Time
}

// PutPreset validates p and inserts it, or replaces the stored preset with the
// same name and bumps its version. It returns the new version.
func (s *PresetStore) PutPreset(ctx context.Context, owner string, p paint.BrushPreset) (int64, error) {
	p = p.Normalized()
	doc, err := preset.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("marshal preset: %w", err)
	}
	if err := preset.Validate(doc); err != nil {
		return 0, err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode preset: %w", err)
	}
	var version int64
	// dialect=PostgreSQL
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO brush_presets(name, doc, owner) VALUES($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			doc = EXCLUDED.doc, owner = EXCLUDED.owner,
			version = brush_presets.version + 1, updated_at = now()
		RETURNING version`, p.Name, body, owner).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("upsert preset %q: %w", p.Name, err)
	}
	applog.WithOperation(s.log, "put_preset").Info("preset stored",
		slog.String("name", p.Name), slog.Int64("version", version))
	return version, nil
}

// GetPreset returns the stored preset or ErrPresetNotFound.
func (s *PresetStore) GetPreset(ctx context.Context, name string) (paint.BrushPreset, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM brush_presets WHERE name = $1`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return paint.BrushPreset{}, ErrPresetNotFound
	}
	if err != nil {
		return paint.BrushPreset{}, fmt.Errorf("get preset %q: %w", name, err)
	}
	var p paint.BrushPreset
	if err := json.Unmarshal(body, &p); err != nil {
		return paint.BrushPreset{}, fmt.Errorf("decode preset %q: %w", name, err)
	}
	return p.Normalized(), nil
}

// ListPresets returns the stored presets ordered by name.
func (s *PresetStore) ListPresets(ctx context.Context) ([]PresetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, owner, version, updated_at FROM brush_presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []PresetInfo
	for rows.Next() {
		var pi PresetInfo
		if err := rows.Scan(&pi.Name, &pi.Owner, &pi.Version, &pi.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		out = append(out, pi)
	}
	return out, rows.Err()
}

// DeletePreset removes a preset; it returns ErrPresetNotFound when nothing was stored.
func (s *PresetStore) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM brush_presets WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete preset %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPresetNotFound
	}
	return nil
}

// SyncInto copies every stored preset into lib, skipping ones that fail validation.
func (s *PresetStore) SyncInto(ctx context.Context, lib *preset.Library) (int, error) {
	infos, err := s.ListPresets(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	var errs []error
	for _, pi := range infos {
		p, err := s.GetPreset(ctx, pi.Name)
		if err == nil {
			err = lib.Put(p)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pi.Name, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
