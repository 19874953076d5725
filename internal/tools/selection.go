/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tools

import (
	"image"
	"math"

	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

type SelectionMode string

const (
	SelectRect     SelectionMode = "rect"
	SelectEllipse  SelectionMode = "ellipse"
	SelectFreehand SelectionMode = "freehand"
)

// Selection is a canvas-sized coverage mask plus the bounds of its
// non-zero area.
type Selection struct {
	Mask   *image.Alpha
	Bounds image.Rectangle
}

// Contains reports whether (x, y) is selected for gating purposes.
func (s *Selection) Contains(x, y int) bool {
	return s != nil && s.Mask.AlphaAt(x, y).A > 128
}

// SelectionTool builds a Selection from one drag gesture.
type SelectionTool struct {
	Mode    SelectionMode
	Feather int

	active bool
	path   []raster.Point
}

func NewSelectionTool(mode SelectionMode, feather int) *SelectionTool {
	return &SelectionTool{Mode: mode, Feather: feather}
}

func (t *SelectionTool) Active() bool { return t.active }

func (t *SelectionTool) Begin(x, y float64) {
	t.active = true
	t.path = append(t.path[:0], raster.Point{X: x, Y: y})
}

// Update extends a freehand path, or moves the opposite corner for rect
// and ellipse selections.
func (t *SelectionTool) Update(x, y float64) {
	if !t.active {
		return
	}
	p := raster.Point{X: x, Y: y}
	if t.Mode == SelectFreehand {
		t.path = append(t.path, p)
		return
	}
	if len(t.path) == 1 {
		t.path = append(t.path, p)
	} else {
		t.path[1] = p
	}
}

// End finishes the gesture and returns the selection on a canvas of the
// given bounds. It returns nil when the gesture enclosed no area.
func (t *SelectionTool) End(canvas image.Rectangle) *Selection {
	if !t.active {
		return nil
	}
	t.active = false
	var mask *image.Alpha
	switch t.Mode {
	case SelectFreehand:
		if len(t.path) < 3 {
			return nil
		}
		mask = raster.PolygonMask(canvas, t.path)
	default:
		if len(t.path) < 2 {
			return nil
		}
		a, b := t.path[0], t.path[1]
		r := image.Rect(
			int(math.Round(a.X)), int(math.Round(a.Y)),
			int(math.Round(b.X)), int(math.Round(b.Y)),
		)
		if r.Empty() {
			return nil
		}
		if t.Mode == SelectEllipse {
			mask = raster.EllipseMask(canvas, r)
		} else {
			mask = image.NewAlpha(canvas)
			fillAlpha(mask, r.Intersect(canvas))
		}
	}
	if t.Feather > 0 {
		Feather(mask, t.Feather)
	}
	b := alphaBounds(mask)
	if b.Empty() {
		return nil
	}
	return &Selection{Mask: mask, Bounds: b}
}

func fillAlpha(m *image.Alpha, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := m.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			m.Pix[i+x] = 0xff
		}
	}
}

func alphaBounds(m *image.Alpha) image.Rectangle {
	var out image.Rectangle
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		x0, x1 := -1, -1
		for x := 0; x < b.Dx(); x++ {
			if m.Pix[i+x] != 0 {
				if x0 < 0 {
					x0 = x
				}
				x1 = x
			}
		}
		if x0 >= 0 {
			out = out.Union(image.Rect(b.Min.X+x0, y, b.Min.X+x1+1, y+1))
		}
	}
	return out
}

// Feather softens the mask edge in place with a separable box blur of the
// given radius: one horizontal pass, then one vertical pass. Samples past
// the edge are treated as unselected.
func Feather(m *image.Alpha, radius int) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if radius <= 0 || w == 0 || h == 0 {
		return
	}
	n := float32(2*radius + 1)
	tmp := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+w]
		var sum float32
		for k := -radius; k <= radius; k++ {
			if k >= 0 && k < w {
				sum += float32(row[k])
			}
		}
		for x := 0; x < w; x++ {
			tmp[y*w+x] = sum / n
			if out := x - radius; out >= 0 {
				sum -= float32(row[out])
			}
			if in := x + radius + 1; in < w {
				sum += float32(row[in])
			}
		}
	}
	for x := 0; x < w; x++ {
		var sum float32
		for k := -radius; k <= radius; k++ {
			if k >= 0 && k < h {
				sum += tmp[k*w+x]
			}
		}
		for y := 0; y < h; y++ {
			m.Pix[y*m.Stride+x] = uint8(max(0, min(255, sum/n+0.5)))
			if out := y - radius; out >= 0 {
				sum -= tmp[out*w+x]
			}
			if in := y + radius + 1; in < h {
				sum += tmp[in*w+x]
			}
		}
	}
}
