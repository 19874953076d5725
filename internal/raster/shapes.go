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
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Point is a position in surface coordinates.
type Point struct{ X, Y float64 }

// kappa places cubic control points so four segments approximate a circle.
const kappa = 0.5522847498307936

func boundsOf(pts []Point, pad float64) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	x0, y0, x1, y1 := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		x0, y0 = math.Min(x0, p.X), math.Min(y0, p.Y)
		x1, y1 = math.Max(x1, p.X), math.Max(y1, p.Y)
	}
	return image.Rect(
		int(math.Floor(x0-pad)), int(math.Floor(y0-pad)),
		int(math.Ceil(x1+pad)), int(math.Ceil(y1+pad)),
	)
}

// maskFor prepares an alpha mask covering b and a rasterizer of the same size.
func maskFor(b image.Rectangle) (*image.Alpha, *vector.Rasterizer) {
	return image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy())), vector.NewRasterizer(b.Dx(), b.Dy())
}

func polygonPath(z *vector.Rasterizer, pts []Point, ox, oy float64) {
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()
}

func ellipsePath(z *vector.Rasterizer, cx, cy, rx, ry, rotation, ox, oy float64) {
	sin, cos := math.Sincos(rotation * math.Pi / 180)
	at := func(u, v float64) (float32, float32) {
		x := cx + u*rx*cos - v*ry*sin
		y := cy + u*rx*sin + v*ry*cos
		return float32(x - ox), float32(y - oy)
	}
	// unit circle control points, one quadrant per row
	quads := [4][3][2]float64{
		{{1, kappa}, {kappa, 1}, {0, 1}},
		{{-kappa, 1}, {-1, kappa}, {-1, 0}},
		{{-1, -kappa}, {-kappa, -1}, {0, -1}},
		{{kappa, -1}, {1, -kappa}, {1, 0}},
	}
	x, y := at(1, 0)
	z.MoveTo(x, y)
	for _, q := range quads {
		bx, by := at(q[0][0], q[0][1])
		cx2, cy2 := at(q[1][0], q[1][1])
		dx, dy := at(q[2][0], q[2][1])
		z.CubeTo(bx, by, cx2, cy2, dx, dy)
	}
	z.ClosePath()
}

// EllipseBounds returns the pixel bounds of a rotated ellipse.
func EllipseBounds(cx, cy, rx, ry, rotation float64) image.Rectangle {
	sin, cos := math.Sincos(rotation * math.Pi / 180)
	hw := math.Hypot(rx*cos, ry*sin)
	hh := math.Hypot(rx*sin, ry*cos)
	return image.Rect(
		int(math.Floor(cx-hw)), int(math.Floor(cy-hh)),
		int(math.Ceil(cx+hw)), int(math.Ceil(cy+hh)),
	)
}

// FillEllipse composites an anti-aliased ellipse of color c onto dst and
// returns the touched bounds. Rotation is in degrees.
func FillEllipse(dst *image.RGBA, cx, cy, rx, ry, rotation float64, c color.NRGBA, opts DrawOptions) image.Rectangle {
	if rx <= 0 || ry <= 0 {
		return image.Rectangle{}
	}
	b := EllipseBounds(cx, cy, rx, ry, rotation).Intersect(dst.Bounds())
	if b.Empty() {
		return b
	}
	mask, z := maskFor(b)
	ellipsePath(z, cx, cy, rx, ry, rotation, float64(b.Min.X), float64(b.Min.Y))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	FillMask(dst, b, c, mask, image.Point{}, opts)
	return b
}

// EllipseMask rasterizes an axis-aligned ellipse filling r into a mask
// whose bounds are exactly bounds.
func EllipseMask(bounds, r image.Rectangle) *image.Alpha {
	if r.Dx() <= 0 || r.Dy() <= 0 || bounds.Empty() {
		return image.NewAlpha(bounds)
	}
	mask, z := maskFor(bounds)
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	ellipsePath(z, cx, cy, float64(r.Dx())/2, float64(r.Dy())/2, 0, float64(bounds.Min.X), float64(bounds.Min.Y))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	mask.Rect = bounds
	return mask
}

// PolygonMask rasterizes a closed polygon into a mask the size of bounds.
func PolygonMask(bounds image.Rectangle, pts []Point) *image.Alpha {
	if len(pts) < 3 || bounds.Empty() {
		return image.NewAlpha(bounds)
	}
	mask, z := maskFor(bounds)
	polygonPath(z, pts, float64(bounds.Min.X), float64(bounds.Min.Y))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	mask.Rect = bounds
	return mask
}

// FillPolygon composites a closed, anti-aliased polygon onto dst.
func FillPolygon(dst *image.RGBA, pts []Point, c color.NRGBA, opts DrawOptions) image.Rectangle {
	if len(pts) < 3 {
		return image.Rectangle{}
	}
	b := boundsOf(pts, 1).Intersect(dst.Bounds())
	if b.Empty() {
		return b
	}
	mask, z := maskFor(b)
	polygonPath(z, pts, float64(b.Min.X), float64(b.Min.Y))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	FillMask(dst, b, c, mask, image.Point{}, opts)
	return b
}

// StrokePolyline draws an outline of the given width with round joins.
// Overlapping pieces are unioned in the mask so joins do not double up.
func StrokePolyline(dst *image.RGBA, pts []Point, width float64, closed bool, c color.NRGBA, opts DrawOptions) image.Rectangle {
	if len(pts) == 0 || width <= 0 {
		return image.Rectangle{}
	}
	hw := width / 2
	b := boundsOf(pts, hw+1).Intersect(dst.Bounds())
	if b.Empty() {
		return b
	}
	mask, z := maskFor(b)
	ox, oy := float64(b.Min.X), float64(b.Min.Y)
	segs := len(pts) - 1
	if closed && len(pts) > 2 {
		segs = len(pts)
	}
	for i := 0; i < segs; i++ {
		p0, p1 := pts[i], pts[(i+1)%len(pts)]
		l := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
		if l == 0 {
			continue
		}
		nx, ny := -(p1.Y-p0.Y)/l*hw, (p1.X-p0.X)/l*hw
		z.Reset(b.Dx(), b.Dy())
		z.DrawOp = draw.Over
		polygonPath(z, []Point{
			{p0.X + nx, p0.Y + ny}, {p1.X + nx, p1.Y + ny},
			{p1.X - nx, p1.Y - ny}, {p0.X - nx, p0.Y - ny},
		}, ox, oy)
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}
	for _, p := range pts {
		z.Reset(b.Dx(), b.Dy())
		ellipsePath(z, p.X, p.Y, hw, hw, 0, ox, oy)
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}
	FillMask(dst, b, c, mask, image.Point{}, opts)
	return b
}
