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
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// Thumbnail scales img so that its longer side is at most maxSide (never upscaling).
func Thumbnail(img image.Image, maxSide int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		if w >= h {
			h = max(1, h*maxSide/w)
			w = maxSide
		} else {
			w = max(1, w*maxSide/h)
			h = maxSide
		}
	}
	out := raster.New(w, h)
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// PutThumb renders and caches a thumbnail of img for drawing id, then evicts
// least recently used thumbnails until the cache fits its byte cap.
func (s *Store) PutThumb(ctx context.Context, id string, img image.Image, maxSide int) error {
	blob, err := encodePNG(Thumbnail(img, maxSide))
	if err != nil {
		return fmt.Errorf("encode thumb: %w", err)
	}
	now := s.tick()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO thumbs(drawing_id, max_side, png, size, updated_at, last_access)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(drawing_id, max_side) DO UPDATE SET
			png=excluded.png, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		id, maxSide, blob, len(blob), now, now); err != nil {
		return fmt.Errorf("upsert thumb: %w", err)
	}
	if s.thumbsMax < 0 {
		return nil
	}
	if _, err := s.EvictThumbsToFit(ctx, s.thumbsMax); err != nil {
		return err
	}
	return nil
}

// GetThumb returns the cached PNG bytes and refreshes their recency.
// ok is false when nothing is cached.
func (s *Store) GetThumb(ctx context.Context, id string, maxSide int) (png []byte, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT png FROM thumbs WHERE drawing_id=? AND max_side=?`, id, maxSide).Scan(&png)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get thumb: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE thumbs SET last_access=? WHERE drawing_id=? AND max_side=?`, s.tick(), id, maxSide); err != nil {
		return nil, false, fmt.Errorf("touch thumb: %w", err)
	}
	return png, true, nil
}

// ThumbsSize returns the total cached thumbnail bytes.
func (s *Store) ThumbsSize(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM thumbs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum thumbs: %w", err)
	}
	return total, nil
}

type thumbKey struct {
	id      string
	maxSide int
	size    int64
}

// EvictThumbsToFit deletes the least recently accessed thumbnails until the
// total size is at most maxBytes. It returns the number of rows removed.
func (s *Store) EvictThumbsToFit(ctx context.Context, maxBytes int64) (int, error) {
	total, err := s.ThumbsSize(ctx)
	if err != nil {
		return 0, err
	}
	if total <= maxBytes {
		return 0, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT drawing_id, max_side, size FROM thumbs ORDER BY last_access ASC`)
	if err != nil {
		return 0, fmt.Errorf("select thumbs for eviction: %w", err)
	}
	var victims []thumbKey
	for rows.Next() && total > maxBytes {
		var k thumbKey
		if err := rows.Scan(&k.id, &k.maxSide, &k.size); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan thumb: %w", err)
		}
		victims = append(victims, k)
		total -= k.size
	}
	// release the read cursor before writing on the single connection
	_ = rows.Close()
	for _, k := range victims {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM thumbs WHERE drawing_id=? AND max_side=?`, k.id, k.maxSide); err != nil {
			return 0, fmt.Errorf("evict thumb: %w", err)
		}
	}
	if len(victims) > 0 {
		applog.WithOperation(s.log, "evict_thumbs").Debug("thumbnails evicted",
			slog.Int("count", len(victims)), slog.Int64("max_bytes", maxBytes))
	}
	return len(victims), nil
}

// ThumbsMaxBytesFromEnv reads HP_THUMBS_MAX_BYTES, falling back to def.
func ThumbsMaxBytesFromEnv(def int64) int64 {
	v := strings.TrimSpace(os.Getenv("HP_THUMBS_MAX_BYTES"))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n == 0 {
		return def
	}
	return n
}
