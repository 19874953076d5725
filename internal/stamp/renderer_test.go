/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package stamp

import (
	"image"
	"image/color"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

var black = color.NRGBA{0, 0, 0, 255}

type countingGrain struct{ calls int }

func (g *countingGrain) ApplyGrain(*image.RGBA, float64, paint.GrainSettings, float64, float64, float64, *paint.Rand) {
	g.calls++
}

func dab(x, y, size float64) paint.DabParams {
	return paint.DabParams{X: x, Y: y, Size: size, Opacity: 1, Flow: 1}
}

func TestMaskKeyQuantization(t *testing.T) {
	a := keyFor(paint.ShapeCircle, 0.52, 19.8)
	b := keyFor(paint.ShapeCircle, 0.48, 20.4)
	if a != b {
		t.Fatalf("expected shared key, got %+v vs %+v", a, b)
	}
	if k := keyFor(paint.ShapeCircle, 0.5, 0.3); k.size != 2 {
		t.Fatalf("tiny sizes should clamp to 2, got %d", k.size)
	}
}

func TestMaskCacheEvictsLRU(t *testing.T) {
	r := NewRenderer(2, nil)
	r.Mask(paint.ShapeCircle, 0.5, 10)
	r.Mask(paint.ShapeCircle, 0.5, 20)
	r.Mask(paint.ShapeCircle, 0.5, 10) // refresh
	r.Mask(paint.ShapeCircle, 0.5, 30)
	if r.CachedMasks() != 2 {
		t.Fatalf("cached=%d", r.CachedMasks())
	}
	if r.masks.Contains(keyFor(paint.ShapeCircle, 0.5, 20)) {
		t.Fatalf("size 20 was least recently used and should be gone")
	}
	if !r.masks.Contains(keyFor(paint.ShapeCircle, 0.5, 10)) {
		t.Fatalf("size 10 should survive")
	}
}

func TestSoftMaskFalloff(t *testing.T) {
	m := buildMask(keyFor(paint.ShapeCircle, 0, 40))
	center := m.AlphaAt(20, 20).A
	edge := m.AlphaAt(20, 1).A
	if center < 250 || edge >= center || m.AlphaAt(0, 0).A != 0 {
		t.Fatalf("falloff wrong: center=%d edge=%d corner=%d", center, edge, m.AlphaAt(0, 0).A)
	}
}

func TestHardRoundFastPath(t *testing.T) {
	g := &countingGrain{}
	r := NewRenderer(4, g)
	dst := raster.New(64, 64)
	p := paint.DefaultPreset()
	b := r.RenderDab(dst, dab(32, 32, 20), Options{Preset: &p, Color: black})
	if b.Empty() || dst.RGBAAt(32, 32).A != 255 {
		t.Fatalf("hard dab not drawn: bounds=%v", b)
	}
	if r.CachedMasks() != 0 || g.calls != 0 {
		t.Fatalf("fast path should not touch masks or grain")
	}
}

func TestSoftDabUsesMaskAndGrain(t *testing.T) {
	g := &countingGrain{}
	r := NewRenderer(4, g)
	dst := raster.New(64, 64)
	p := paint.DefaultPreset()
	p.Hardness = 0.3
	p.Grain.Intensity = 0.5
	r.RenderDab(dst, dab(32, 32, 30), Options{Preset: &p, Color: black, Rand: paint.NewRand(1)})
	if g.calls != 1 || r.CachedMasks() != 1 {
		t.Fatalf("grain calls=%d masks=%d", g.calls, r.CachedMasks())
	}
	c := dst.RGBAAt(32, 32).A
	e := dst.RGBAAt(32, 19).A
	if c == 0 || e >= c {
		t.Fatalf("soft dab alpha center=%d edge=%d", c, e)
	}
}

func TestEraserRemovesPixels(t *testing.T) {
	r := NewRenderer(4, nil)
	dst := raster.New(32, 32)
	raster.Fill(dst, dst.Bounds(), color.NRGBA{200, 10, 10, 255})
	p := paint.DefaultPreset()
	p.Eraser = true
	r.RenderDab(dst, dab(16, 16, 10), Options{Preset: &p, Color: black})
	if dst.RGBAAt(16, 16).A != 0 {
		t.Fatalf("eraser left alpha %d", dst.RGBAAt(16, 16).A)
	}
	if dst.RGBAAt(1, 1).A != 255 {
		t.Fatalf("eraser touched pixels outside the dab")
	}
}

func TestZeroOpacityDrawsNothing(t *testing.T) {
	r := NewRenderer(4, nil)
	dst := raster.New(16, 16)
	p := paint.DefaultPreset()
	d := dab(8, 8, 8)
	d.Opacity = 0
	if b := r.RenderDab(dst, d, Options{Preset: &p, Color: black}); !b.Empty() || !raster.IsBlank(dst) {
		t.Fatalf("expected no-op")
	}
}
