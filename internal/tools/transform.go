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

	"golang.org/x/image/math/f64"

	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// Handle identifies what a transform drag manipulates.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
	HandleRotate
	HandleMove
)

const (
	// HandleRadius is the hit distance around a handle.
	HandleRadius = 6.0
	// RotateOffset places the rotate handle above the top edge.
	RotateOffset = 24.0
	minBoxSize   = 1.0
)

// Box is the live placement of the floating pixels: center, size and
// rotation in radians.
type Box struct {
	CX, CY   float64
	W, H     float64
	Rotation float64
}

// local maps a canvas point into the box frame, origin at the center.
func (b Box) local(x, y float64) (float64, float64) {
	s, c := math.Sincos(-b.Rotation)
	dx, dy := x-b.CX, y-b.CY
	return dx*c - dy*s, dx*s + dy*c
}

// TransformTool cuts pixels out of a layer, lets them be moved, scaled and
// rotated, and draws them back on commit.
type TransformTool struct {
	active   bool
	before   *image.RGBA
	floating *image.RGBA
	src      image.Rectangle
	box      Box

	drag   Handle
	sx, sy float64
	start  Box

	scratch raster.Scratch
}

func (t *TransformTool) Active() bool { return t.active }

func (t *TransformTool) Box() Box { return t.box }

// Source is the region the pixels were cut from.
func (t *TransformTool) Source() image.Rectangle { return t.src }

// Before returns the layer pixels as they were before the cut.
func (t *TransformTool) Before() *image.RGBA { return t.before }

// Begin cuts the selected pixels (or, without a selection, every non-empty
// pixel) out of layer. It returns false when there is nothing to move.
func (t *TransformTool) Begin(layer *image.RGBA, sel *Selection) bool {
	if t.active {
		return false
	}
	var src image.Rectangle
	if sel != nil {
		src = sel.Bounds.Intersect(layer.Bounds())
	} else {
		src = contentBounds(layer)
	}
	if src.Empty() {
		return false
	}
	t.before = raster.Clone(layer)
	t.floating = raster.New(src.Dx(), src.Dy())
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			m := 255
			if sel != nil {
				m = int(sel.Mask.AlphaAt(x, y).A)
			}
			if m == 0 {
				continue
			}
			li := layer.PixOffset(x, y)
			fi := t.floating.PixOffset(x-src.Min.X, y-src.Min.Y)
			for k := 0; k < 4; k++ {
				v := int(layer.Pix[li+k])
				cut := (v*m + 127) / 255
				t.floating.Pix[fi+k] = uint8(cut)
				layer.Pix[li+k] = uint8(v - cut)
			}
		}
	}
	t.src = src
	t.box = Box{
		CX: float64(src.Min.X+src.Max.X) / 2,
		CY: float64(src.Min.Y+src.Max.Y) / 2,
		W:  float64(src.Dx()),
		H:  float64(src.Dy()),
	}
	t.drag = HandleNone
	t.active = true
	return true
}

// Matrix maps floating-pixel coordinates to canvas coordinates.
func (t *TransformTool) Matrix() f64.Aff3 {
	sw, sh := float64(t.floating.Rect.Dx()), float64(t.floating.Rect.Dy())
	b := t.box
	m := raster.Translate(-sw/2, -sh/2)
	m = raster.Mul(raster.Scale(b.W/sw, b.H/sh), m)
	m = raster.Mul(raster.Rotate(b.Rotation), m)
	return raster.Mul(raster.Translate(b.CX, b.CY), m)
}

// handlePos returns a handle's position in the box frame.
func (b Box) handlePos(h Handle) (float64, float64) {
	hw, hh := b.W/2, b.H/2
	switch h {
	case HandleTopLeft:
		return -hw, -hh
	case HandleTop:
		return 0, -hh
	case HandleTopRight:
		return hw, -hh
	case HandleRight:
		return hw, 0
	case HandleBottomRight:
		return hw, hh
	case HandleBottom:
		return 0, hh
	case HandleBottomLeft:
		return -hw, hh
	case HandleLeft:
		return -hw, 0
	case HandleRotate:
		return 0, -hh - RotateOffset
	}
	return 0, 0
}

// HitTest reports which handle (or the body) is under (x, y).
func (t *TransformTool) HitTest(x, y float64) Handle {
	if !t.active {
		return HandleNone
	}
	lx, ly := t.box.local(x, y)
	for h := HandleTopLeft; h <= HandleRotate; h++ {
		hx, hy := t.box.handlePos(h)
		if math.Hypot(lx-hx, ly-hy) <= HandleRadius {
			return h
		}
	}
	if math.Abs(lx) <= t.box.W/2 && math.Abs(ly) <= t.box.H/2 {
		return HandleMove
	}
	return HandleNone
}

// StartDrag begins manipulating h from the canvas point (x, y).
func (t *TransformTool) StartDrag(h Handle, x, y float64) {
	if !t.active {
		return
	}
	t.drag = h
	t.sx, t.sy = x, y
	t.start = t.box
}

// Update moves the dragged handle to (x, y).
func (t *TransformTool) Update(x, y float64) {
	if !t.active || t.drag == HandleNone {
		return
	}
	s := t.start
	dx, dy := x-t.sx, y-t.sy
	switch t.drag {
	case HandleMove:
		t.box.CX, t.box.CY = s.CX+dx, s.CY+dy
		return
	case HandleRotate:
		a0 := math.Atan2(t.sy-s.CY, t.sx-s.CX)
		a1 := math.Atan2(y-s.CY, x-s.CX)
		t.box.Rotation = s.Rotation + a1 - a0
		return
	}
	sin, cos := math.Sincos(-s.Rotation)
	ldx, ldy := dx*cos-dy*sin, dx*sin+dy*cos
	l, r, top, bot := -s.W/2, s.W/2, -s.H/2, s.H/2
	switch t.drag {
	case HandleTopLeft, HandleLeft, HandleBottomLeft:
		l = math.Min(l+ldx, r-minBoxSize)
	case HandleTopRight, HandleRight, HandleBottomRight:
		r = math.Max(r+ldx, l+minBoxSize)
	}
	switch t.drag {
	case HandleTopLeft, HandleTop, HandleTopRight:
		top = math.Min(top+ldy, bot-minBoxSize)
	case HandleBottomLeft, HandleBottom, HandleBottomRight:
		bot = math.Max(bot+ldy, top+minBoxSize)
	}
	mx, my := (l+r)/2, (top+bot)/2
	sin, cos = math.Sincos(s.Rotation)
	t.box = Box{
		CX:       s.CX + mx*cos - my*sin,
		CY:       s.CY + mx*sin + my*cos,
		W:        r - l,
		H:        bot - top,
		Rotation: s.Rotation,
	}
}

// EndDrag stops the current handle drag; the transform stays open.
func (t *TransformTool) EndDrag() { t.drag = HandleNone }

// Preview draws the floating pixels at their current placement onto dst.
func (t *TransformTool) Preview(dst *image.RGBA) image.Rectangle {
	if !t.active {
		return image.Rectangle{}
	}
	return raster.DrawTransformed(dst, t.floating, t.Matrix(), raster.Over, &t.scratch)
}

// Bounds is the canvas area covered by the floating pixels.
func (t *TransformTool) Bounds() image.Rectangle {
	if !t.active {
		return image.Rectangle{}
	}
	return raster.TransformedBounds(t.Matrix(), t.floating.Bounds())
}

// Commit draws the floating pixels into layer and ends the transform. It
// returns the changed region.
func (t *TransformTool) Commit(layer *image.RGBA) image.Rectangle {
	if !t.active {
		return image.Rectangle{}
	}
	r := raster.DrawTransformed(layer, t.floating, t.Matrix(), raster.Over, &t.scratch)
	r = r.Union(t.src)
	t.reset()
	return r
}

// Cancel puts the original pixels back untouched.
func (t *TransformTool) Cancel(layer *image.RGBA) image.Rectangle {
	if !t.active {
		return image.Rectangle{}
	}
	raster.CopyInto(layer, t.before)
	r := t.src.Union(t.Bounds())
	t.reset()
	return r
}

func (t *TransformTool) reset() {
	t.active = false
	t.before, t.floating = nil, nil
	t.drag = HandleNone
}

func contentBounds(img *image.RGBA) image.Rectangle {
	var out image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			if img.Pix[i+x*4+3] != 0 {
				out = out.Union(image.Rect(b.Min.X+x, y, b.Min.X+x+1, y+1))
			}
		}
	}
	return out
}
