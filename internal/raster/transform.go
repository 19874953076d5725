/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package raster

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Identity is the identity affine matrix.
var Identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Mul returns a·b, applying b first.
func Mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func Translate(tx, ty float64) f64.Aff3 { return f64.Aff3{1, 0, tx, 0, 1, ty} }

func Scale(sx, sy float64) f64.Aff3 { return f64.Aff3{sx, 0, 0, 0, sy, 0} }

// Rotate builds a rotation about the origin; radians.
func Rotate(rad float64) f64.Aff3 {
	s, c := math.Sincos(rad)
	return f64.Aff3{c, -s, 0, s, c, 0}
}

// Apply maps (x,y) through m.
func Apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// TransformedBounds returns the pixel bounds of r after mapping through m.
func TransformedBounds(m f64.Aff3, r image.Rectangle) image.Rectangle {
	xs := [4]float64{float64(r.Min.X), float64(r.Max.X), float64(r.Max.X), float64(r.Min.X)}
	ys := [4]float64{float64(r.Min.Y), float64(r.Min.Y), float64(r.Max.Y), float64(r.Max.Y)}
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		x, y := Apply(m, xs[i], ys[i])
		x0, y0 = math.Min(x0, x), math.Min(y0, y)
		x1, y1 = math.Max(x1, x), math.Max(y1, y)
	}
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}

func integerTranslation(m f64.Aff3) (image.Point, bool) {
	if m[0] != 1 || m[1] != 0 || m[3] != 0 || m[4] != 1 {
		return image.Point{}, false
	}
	if m[2] != math.Trunc(m[2]) || m[5] != math.Trunc(m[5]) {
		return image.Point{}, false
	}
	return image.Pt(int(m[2]), int(m[5])), true
}

// DrawTransformed maps src through m (source pixel space to dst space),
// resamples bilinearly into tmp and composites the result onto dst with the
// given mode and opacity. It returns the touched dst bounds.
func DrawTransformed(dst, src *image.RGBA, m f64.Aff3, opts DrawOptions, tmp *Scratch) image.Rectangle {
	if off, ok := integerTranslation(m); ok {
		r := src.Bounds().Add(off).Intersect(dst.Bounds())
		Draw(dst, r, src, r.Min.Sub(off), opts)
		return r
	}
	b := TransformedBounds(m, src.Bounds()).Intersect(dst.Bounds())
	if b.Empty() {
		return b
	}
	buf := tmp.Get(b.Dx(), b.Dy())
	local := Mul(Translate(-float64(b.Min.X), -float64(b.Min.Y)), m)
	xdraw.BiLinear.Transform(buf, local, src, src.Bounds(), xdraw.Src, nil)
	Draw(dst, b, buf, image.Point{}, opts)
	return b
}
