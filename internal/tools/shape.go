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
	"image/color"
	"math"

	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

type ShapeKind string

const (
	ShapeLine     ShapeKind = "line"
	ShapeRect     ShapeKind = "rect"
	ShapeEllipse  ShapeKind = "ellipse"
	ShapePolygon  ShapeKind = "polygon"
	ShapeTriangle ShapeKind = "triangle"
	ShapeStar     ShapeKind = "star"
)

// ellipseSegments is used when an ellipse is outlined rather than filled.
const ellipseSegments = 64

// ShapeOptions configures the shape tool.
type ShapeOptions struct {
	Kind        ShapeKind
	Color       color.NRGBA
	StrokeWidth float64
	Fill        bool
	Opacity     float64
	// Sides applies to polygon (default 6) and star points (default 5).
	Sides int
	// InnerRatio is the star's inner/outer radius ratio (default 0.5).
	InnerRatio float64
}

func (o ShapeOptions) normalized() ShapeOptions {
	if o.Kind == "" {
		o.Kind = ShapeRect
	}
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = 2
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		o.Opacity = 1
	}
	if o.Sides < 3 {
		o.Sides = 6
		if o.Kind == ShapeStar {
			o.Sides = 5
		}
	}
	if o.InnerRatio <= 0 || o.InnerRatio >= 1 {
		o.InnerRatio = 0.5
	}
	return o
}

// ShapeTool tracks one drag gesture from start to end point.
type ShapeTool struct {
	opts   ShapeOptions
	active bool
	x0, y0 float64
	x1, y1 float64
}

func NewShapeTool(opts ShapeOptions) *ShapeTool {
	return &ShapeTool{opts: opts.normalized()}
}

func (t *ShapeTool) Options() ShapeOptions { return t.opts }

func (t *ShapeTool) SetOptions(opts ShapeOptions) { t.opts = opts.normalized() }

func (t *ShapeTool) Active() bool { return t.active }

func (t *ShapeTool) Begin(x, y float64) {
	t.active = true
	t.x0, t.y0, t.x1, t.y1 = x, y, x, y
}

func (t *ShapeTool) Update(x, y float64) {
	if t.active {
		t.x1, t.y1 = x, y
	}
}

// Cancel discards the gesture.
func (t *ShapeTool) Cancel() { t.active = false }

// Commit draws the shape into dst and ends the gesture. A zero-size drag
// draws nothing.
func (t *ShapeTool) Commit(dst *image.RGBA) image.Rectangle {
	if !t.active {
		return image.Rectangle{}
	}
	t.active = false
	return t.draw(dst)
}

// Preview draws the in-progress shape into dst without ending the gesture.
func (t *ShapeTool) Preview(dst *image.RGBA) image.Rectangle {
	if !t.active {
		return image.Rectangle{}
	}
	return t.draw(dst)
}

func (t *ShapeTool) draw(dst *image.RGBA) image.Rectangle {
	o := t.opts
	if t.x0 == t.x1 && t.y0 == t.y1 {
		return image.Rectangle{}
	}
	opts := raster.DrawOptions{Mode: raster.BlendNormal, Opacity: o.Opacity}
	if o.Kind == ShapeLine {
		return raster.StrokePolyline(dst, []raster.Point{{X: t.x0, Y: t.y0}, {X: t.x1, Y: t.y1}}, o.StrokeWidth, false, o.Color, opts)
	}
	if o.Kind == ShapeEllipse && o.Fill {
		cx, cy, rx, ry := t.ellipse()
		return raster.FillEllipse(dst, cx, cy, rx, ry, 0, o.Color, opts)
	}
	pts := ShapePoints(o, t.x0, t.y0, t.x1, t.y1)
	if o.Fill {
		return raster.FillPolygon(dst, pts, o.Color, opts)
	}
	return raster.StrokePolyline(dst, pts, o.StrokeWidth, true, o.Color, opts)
}

func (t *ShapeTool) ellipse() (cx, cy, rx, ry float64) {
	return (t.x0 + t.x1) / 2, (t.y0 + t.y1) / 2, math.Abs(t.x1-t.x0) / 2, math.Abs(t.y1-t.y0) / 2
}

// ShapePoints returns the outline of a closed shape inscribed in the box
// spanned by the two drag points. Lines return their two end points.
func ShapePoints(o ShapeOptions, x0, y0, x1, y1 float64) []raster.Point {
	o = o.normalized()
	if o.Kind == ShapeLine {
		return []raster.Point{{X: x0, Y: y0}, {X: x1, Y: y1}}
	}
	left, right := math.Min(x0, x1), math.Max(x0, x1)
	top, bottom := math.Min(y0, y1), math.Max(y0, y1)
	cx, cy := (left+right)/2, (top+bottom)/2
	rx, ry := (right-left)/2, (bottom-top)/2
	switch o.Kind {
	case ShapeRect:
		return []raster.Point{{X: left, Y: top}, {X: right, Y: top}, {X: right, Y: bottom}, {X: left, Y: bottom}}
	case ShapeTriangle:
		return []raster.Point{{X: cx, Y: top}, {X: right, Y: bottom}, {X: left, Y: bottom}}
	case ShapeEllipse:
		return regular(cx, cy, rx, ry, ellipseSegments, 0)
	case ShapePolygon:
		return regular(cx, cy, rx, ry, o.Sides, -math.Pi/2)
	case ShapeStar:
		pts := make([]raster.Point, 0, 2*o.Sides)
		step := math.Pi / float64(o.Sides)
		for i := 0; i < 2*o.Sides; i++ {
			r := 1.0
			if i%2 == 1 {
				r = o.InnerRatio
			}
			a := -math.Pi/2 + float64(i)*step
			pts = append(pts, raster.Point{X: cx + math.Cos(a)*rx*r, Y: cy + math.Sin(a)*ry*r})
		}
		return pts
	}
	return nil
}

// regular places n vertices evenly on an ellipse starting at angle a0.
func regular(cx, cy, rx, ry float64, n int, a0 float64) []raster.Point {
	pts := make([]raster.Point, n)
	for i := range pts {
		a := a0 + 2*math.Pi*float64(i)/float64(n)
		pts[i] = raster.Point{X: cx + math.Cos(a)*rx, Y: cy + math.Sin(a)*ry}
	}
	return pts
}
