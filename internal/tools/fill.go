/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package tools implements the non-brush editing tools: flood fill,
// parametric shapes, selections and the move/transform tool.
package tools

import (
	"image"
	"image/color"
)

// FillOptions configures FloodFill.
type FillOptions struct {
	// Tolerance is the maximum Euclidean RGBA distance (0..510) from the
	// seed pixel for a pixel to be filled.
	Tolerance float64
	// Selection, when set, restricts the fill to pixels whose mask alpha
	// is above 128.
	Selection *image.Alpha
}

// FloodFill replaces the 4-connected region around (x, y) with c. It
// returns the bounds of the filled pixels and false when nothing changed.
func FloodFill(img *image.RGBA, x, y int, c color.NRGBA, opts FillOptions) (image.Rectangle, bool) {
	b := img.Bounds()
	if !image.Pt(x, y).In(b) {
		return image.Rectangle{}, false
	}
	fill := color.RGBAModel.Convert(c).(color.RGBA)
	seed := img.RGBAAt(x, y)
	if c.A == 255 && seed == fill {
		return image.Rectangle{}, false
	}
	allowed := func(px, py int) bool {
		return opts.Selection == nil || opts.Selection.AlphaAt(px, py).A > 128
	}
	if !allowed(x, y) {
		return image.Rectangle{}, false
	}
	tol2 := opts.Tolerance * opts.Tolerance
	w := b.Dx()
	visited := make([]bool, w*b.Dy())
	seen := func(px, py int) bool { return visited[(py-b.Min.Y)*w+px-b.Min.X] }
	ok := func(px, py int) bool {
		return !seen(px, py) && allowed(px, py) && dist2(img.RGBAAt(px, py), seed) <= tol2
	}

	var filled image.Rectangle
	stack := []image.Point{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !ok(p.X, p.Y) {
			continue
		}
		lx, rx := p.X, p.X
		for lx-1 >= b.Min.X && ok(lx-1, p.Y) {
			lx--
		}
		for rx+1 < b.Max.X && ok(rx+1, p.Y) {
			rx++
		}
		for cx := lx; cx <= rx; cx++ {
			visited[(p.Y-b.Min.Y)*w+cx-b.Min.X] = true
			img.SetRGBA(cx, p.Y, fill)
			if p.Y-1 >= b.Min.Y && !seen(cx, p.Y-1) {
				stack = append(stack, image.Pt(cx, p.Y-1))
			}
			if p.Y+1 < b.Max.Y && !seen(cx, p.Y+1) {
				stack = append(stack, image.Pt(cx, p.Y+1))
			}
		}
		filled = filled.Union(image.Rect(lx, p.Y, rx+1, p.Y+1))
	}
	return filled, !filled.Empty()
}

func dist2(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	da := float64(a.A) - float64(b.A)
	return dr*dr + dg*dg + db*db + da*da
}
