/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package raster implements the 2D raster surface operations used by the
// engine. Surfaces are premultiplied *image.RGBA; every draw call takes an
// explicit blend mode and opacity instead of mutating shared context state.
package raster

import (
	"image"
	"math"
	"strings"
)

// BlendMode selects how a source pixel is combined with the destination.
type BlendMode string

const (
	BlendNormal   BlendMode = "normal"
	BlendMultiply BlendMode = "multiply"
	BlendScreen   BlendMode = "screen"
	BlendOverlay  BlendMode = "overlay"
	BlendDarken   BlendMode = "darken"
	BlendLighten  BlendMode = "lighten"
	// BlendErase removes destination alpha in proportion to source alpha.
	BlendErase BlendMode = "erase"
)

var blendModes = []BlendMode{BlendNormal, BlendMultiply, BlendScreen, BlendOverlay, BlendDarken, BlendLighten, BlendErase}

// ParseBlendMode accepts a mode name case-insensitively. Unknown names
// report false and map to BlendNormal.
func ParseBlendMode(s string) (BlendMode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BlendNormal, true
	}
	for _, m := range blendModes {
		if string(m) == s {
			return m, true
		}
	}
	return BlendNormal, false
}

// DrawOptions carries the per-call compositing state.
type DrawOptions struct {
	Mode    BlendMode
	Opacity float64
}

// Over is plain source-over at full opacity.
var Over = DrawOptions{Mode: BlendNormal, Opacity: 1}

func (o DrawOptions) opacity() float64 {
	if o.Opacity < 0 {
		return 0
	}
	if o.Opacity > 1 {
		return 1
	}
	return o.Opacity
}

// separable returns B(s, d) on unpremultiplied channel values.
func separable(mode BlendMode, s, d float64) float64 {
	switch mode {
	case BlendMultiply:
		return s * d
	case BlendScreen:
		return s + d - s*d
	case BlendOverlay:
		if d <= 0.5 {
			return 2 * s * d
		}
		return 1 - 2*(1-s)*(1-d)
	case BlendDarken:
		return math.Min(s, d)
	case BlendLighten:
		return math.Max(s, d)
	default:
		return s
	}
}

// BlendChannel applies a separable blend function to one unpremultiplied
// channel, s being the source and d the backdrop.
func BlendChannel(mode BlendMode, s, d float64) float64 { return separable(mode, s, d) }

// compose blends premultiplied source over premultiplied destination,
// all components in [0,1].
func compose(mode BlendMode, sr, sg, sb, sa, dr, dg, db, da float64) (r, g, b, a float64) {
	switch mode {
	case BlendErase:
		k := 1 - sa
		return dr * k, dg * k, db * k, da * k
	case BlendNormal, "":
		k := 1 - sa
		return sr + dr*k, sg + dg*k, sb + db*k, sa + da*k
	}
	if sa == 0 {
		return dr, dg, db, da
	}
	if da == 0 {
		return sr, sg, sb, sa
	}
	ch := func(s, d float64) float64 {
		return s*(1-da) + d*(1-sa) + sa*da*separable(mode, s/sa, d/da)
	}
	return ch(sr, dr), ch(sg, dg), ch(sb, db), sa + da - sa*da
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

const inv255 = 1.0 / 255

// blendPixel writes the blend of a premultiplied source pixel (already
// scaled by opacity, in [0,1]) into d.
func blendPixel(d []uint8, sr, sg, sb, sa float64, mode BlendMode) {
	dr := float64(d[0]) * inv255
	dg := float64(d[1]) * inv255
	db := float64(d[2]) * inv255
	da := float64(d[3]) * inv255
	r, g, b, a := compose(mode, sr, sg, sb, sa, dr, dg, db, da)
	r, g, b = math.Min(r, a), math.Min(g, a), math.Min(b, a)
	d[0], d[1], d[2], d[3] = to8(r), to8(g), to8(b), to8(a)
}

// clip narrows r to dst and adjusts sp so that r maps into src.
func clip(dst, src image.Rectangle, r image.Rectangle, sp image.Point) (image.Rectangle, image.Point) {
	orig := r.Min
	r = r.Intersect(dst)
	sp = sp.Add(r.Min.Sub(orig))
	sr := image.Rectangle{Min: sp, Max: sp.Add(r.Size())}
	clipped := sr.Intersect(src)
	if clipped.Empty() {
		return image.Rectangle{}, sp
	}
	r.Min = r.Min.Add(clipped.Min.Sub(sr.Min))
	r.Max = r.Min.Add(clipped.Size())
	return r, clipped.Min
}

// Draw composites the src rectangle starting at sp onto the dst rectangle r.
func Draw(dst *image.RGBA, r image.Rectangle, src *image.RGBA, sp image.Point, opts DrawOptions) {
	op := opts.opacity()
	if op == 0 {
		return
	}
	r, sp = clip(dst.Bounds(), src.Bounds(), r, sp)
	if r.Empty() {
		return
	}
	mode := opts.Mode
	if mode == "" {
		mode = BlendNormal
	}
	w := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		drow := dst.Pix[di : di+w : di+w]
		srow := src.Pix[si : si+w : si+w]
		for i := 0; i < w; i += 4 {
			sa8 := srow[i+3]
			if sa8 == 0 {
				continue
			}
			if mode == BlendNormal && op == 1 && sa8 == 255 {
				copy(drow[i:i+4], srow[i:i+4])
				continue
			}
			blendPixel(drow[i:i+4],
				float64(srow[i])*inv255*op, float64(srow[i+1])*inv255*op,
				float64(srow[i+2])*inv255*op, float64(sa8)*inv255*op, mode)
		}
	}
}
