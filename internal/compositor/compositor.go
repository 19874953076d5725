/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package compositor flattens the layer stack into the display surface,
// redrawing only the dirty region when it can.
package compositor

import (
	"image"

	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// margin widens partial redraws to cover anti-aliased edges.
const margin = 2

type Compositor struct {
	display *image.RGBA
	dirty   bool
}

// New creates a compositor whose first Composite is a full redraw.
func New(width, height int) *Compositor {
	return &Compositor{display: raster.New(width, height), dirty: true}
}

// Display is the composited surface. It is owned by the compositor.
func (c *Compositor) Display() *image.RGBA { return c.display }

// MarkDirty forces the next Composite to redraw everything.
func (c *Compositor) MarkDirty() { c.dirty = true }

func (c *Compositor) NeedsFull() bool { return c.dirty }

// Composite redraws the display from ls (bottom-to-top). With an empty
// region, or when marked dirty, the whole surface is redrawn. It returns
// the redrawn pixel bounds.
func (c *Compositor) Composite(ls []*layers.Layer, region paint.DirtyRect) image.Rectangle {
	r := c.display.Bounds()
	if !c.dirty && !region.Empty() {
		r = region.Image().Inset(-margin).Intersect(r)
		if r.Empty() {
			return r
		}
	}
	raster.Clear(c.display, r)
	drawLayers(c.display, ls, r)
	c.dirty = false
	return r
}

// Flatten returns a new surface with every visible layer composited.
func (c *Compositor) Flatten(ls []*layers.Layer) *image.RGBA {
	out := raster.New(c.display.Rect.Dx(), c.display.Rect.Dy())
	drawLayers(out, ls, out.Bounds())
	return out
}

func drawLayers(dst *image.RGBA, ls []*layers.Layer, r image.Rectangle) {
	for _, l := range ls {
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		raster.Draw(dst, r, l.Raster, r.Min, raster.DrawOptions{Mode: l.BlendMode, Opacity: l.Opacity})
	}
}
