/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grain

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

func grainMode(m raster.BlendMode) raster.BlendMode {
	switch m {
	case raster.BlendScreen, raster.BlendOverlay:
		return m
	default:
		return raster.BlendMultiply
	}
}

// ApplyGrain modulates the colorized dab with the grain tile. The dab keeps
// its own coverage; multiply additionally thins alpha where the grain is dark.
func (e *Engine) ApplyGrain(dab *image.RGBA, size float64, g paint.GrainSettings, canvasX, canvasY, strokeDistance float64, rng *paint.Rand) {
	k := paint.Clamp01(g.Intensity)
	if k == 0 {
		return
	}
	tile := e.tile(g.URL, g.Scale)
	tw, th := tile.Rect.Dx(), tile.Rect.Dy()
	b := dab.Bounds()
	w, h := b.Dx(), b.Dy()

	var ox, oy float64
	switch g.Movement {
	case paint.GrainRolling:
		ox = strokeDistance
	case paint.GrainRandom:
		if rng != nil {
			ox = rng.Float64() * float64(tw)
			oy = rng.Float64() * float64(th)
		}
	default:
		ox = canvasX - size/2
		oy = canvasY - size/2
	}
	ix := mod(int(math.Floor(ox)), tw)
	iy := mod(int(math.Floor(oy)), th)

	// Large dabs get the tile repeated into scratch first; small ones sample
	// the tile directly with wraparound.
	src, wrap := tile, true
	if w > tw || h > th {
		buf := e.scratch.Get(w, h)
		for y := -iy; y < h; y += th {
			for x := -ix; x < w; x += tw {
				xdraw.Draw(buf, image.Rect(x, y, x+tw, y+th), tile, image.Point{}, xdraw.Src)
			}
		}
		src, wrap, ix, iy = buf, false, 0, 0
	}

	mode := grainMode(g.Blend)
	for j := 0; j < h; j++ {
		di := dab.PixOffset(b.Min.X, b.Min.Y+j)
		sy := iy + j
		if wrap {
			sy %= th
		}
		for i := 0; i < w; i++ {
			px := dab.Pix[di : di+4 : di+4]
			di += 4
			if px[3] == 0 {
				continue
			}
			sx := ix + i
			if wrap {
				sx %= tw
			}
			gv := float64(src.Pix[src.PixOffset(sx, sy)]) / 255
			a := float64(px[3]) / 255
			na := a
			if mode == raster.BlendMultiply {
				na = a * paint.Lerp(1, gv, k)
			}
			for c := 0; c < 3; c++ {
				cu := float64(px[c]) / 255 / a
				v := paint.Lerp(cu, raster.BlendChannel(mode, gv, cu), k)
				px[c] = uint8(paint.Clamp01(v)*na*255 + 0.5)
			}
			px[3] = uint8(na*255 + 0.5)
		}
	}
}
