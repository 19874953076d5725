/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package paint

import (
	"image"
	"math"
)

// DirtyRect is an axis-aligned region in canvas units. The zero value is empty.
type DirtyRect struct {
	X, Y          float64
	Width, Height float64
}

func (r DirtyRect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rect containing both. Empty operands are ignored.
func (r DirtyRect) Union(o DirtyRect) DirtyRect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.X+r.Width, o.X+o.Width)
	y1 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return DirtyRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// AddPoint grows the rect to cover a square of the given radius around (x,y).
func (r DirtyRect) AddPoint(x, y, radius float64) DirtyRect {
	return r.Union(DirtyRect{X: x - radius, Y: y - radius, Width: 2 * radius, Height: 2 * radius})
}

// Image converts to integer pixel bounds, rounding outwards.
func (r DirtyRect) Image() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
}

func FromImage(r image.Rectangle) DirtyRect {
	if r.Empty() {
		return DirtyRect{}
	}
	return DirtyRect{X: float64(r.Min.X), Y: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}
