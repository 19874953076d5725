/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petianskiy/gundamaxing-sub000/internal/canvas"
	"github.com/petianskiy/gundamaxing-sub000/internal/storage"
)

// StoreAutosaver snapshots a canvas into the drawing store's autosave slots.
type StoreAutosaver struct {
	Canvas    *canvas.Canvas
	Store     *storage.Store
	DrawingID string // "" for work that was never saved
	Name      string
	Keep      int
	Timeout   time.Duration
}

func (s *StoreAutosaver) CrashAutosave() (string, error) {
	if s.Canvas == nil || s.Store == nil {
		return "", errors.New("autosaver is not configured")
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ls, active := s.Canvas.ExportLayers()
	b := s.Canvas.Bounds()
	id, err := s.Store.Autosave(ctx, storage.Document{
		ID: s.DrawingID, Name: s.Name, Width: b.Dx(), Height: b.Dy(),
		ActiveLayerID: active, Layers: ls,
	}, s.Keep)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("autosave %s in %s", id, s.Store.DBPath()), nil
}
