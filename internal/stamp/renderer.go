/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package stamp draws individual brush dabs onto a layer surface.
package stamp

import (
	"image"
	"image/color"
	"math"

	"github.com/petianskiy/gundamaxing-sub000/internal/cache"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// DefaultMaskCacheSize bounds the number of cached tip masks.
const DefaultMaskCacheSize = 64

// fastHardness is the hardness from which a round tip is drawn as a plain
// filled ellipse.
const fastHardness = 0.9

// GrainApplier textures a colorized dab in place before it is composited.
type GrainApplier interface {
	ApplyGrain(dab *image.RGBA, size float64, g paint.GrainSettings, canvasX, canvasY, strokeDistance float64, rng *paint.Rand)
}

// Renderer owns the mask cache and scratch surfaces. It is not safe for
// concurrent use; the canvas serializes access.
type Renderer struct {
	masks    *cache.LRU[maskKey, *image.Alpha]
	dab      raster.Scratch
	resample raster.Scratch
	grain    GrainApplier
}

func NewRenderer(maskCacheSize int, grain GrainApplier) *Renderer {
	if maskCacheSize <= 0 {
		maskCacheSize = DefaultMaskCacheSize
	}
	return &Renderer{masks: cache.New[maskKey, *image.Alpha](maskCacheSize), grain: grain}
}

// Mask returns the cached tip mask for the quantized key, building it on a miss.
func (r *Renderer) Mask(shape paint.BrushShape, hardness, size float64) *image.Alpha {
	k := keyFor(shape, hardness, size)
	if m, ok := r.masks.Get(k); ok {
		return m
	}
	m := buildMask(k)
	r.masks.Put(k, m)
	return m
}

// CachedMasks reports how many masks are resident.
func (r *Renderer) CachedMasks() int { return r.masks.Len() }

// Options carries the per-stroke values a dab needs besides its params.
type Options struct {
	Preset         *paint.BrushPreset
	Color          color.NRGBA
	StrokeDistance float64
	Rand           *paint.Rand
}

func usesGrain(p *paint.BrushPreset) bool { return p.Grain.Intensity > 0 }

// RenderDab composites one dab onto dst and returns the touched bounds.
func (r *Renderer) RenderDab(dst *image.RGBA, d paint.DabParams, o Options) image.Rectangle {
	p := o.Preset
	alpha := paint.Clamp01(d.Opacity * d.Flow)
	if alpha <= 0 || d.Size <= 0 {
		return image.Rectangle{}
	}
	mode := p.BlendMode
	if p.Eraser {
		mode = raster.BlendErase
	}
	opts := raster.DrawOptions{Mode: mode, Opacity: alpha}
	roundness := p.Roundness
	if roundness <= 0 {
		roundness = 1
	}

	if p.Shape != paint.ShapeSquare && p.Hardness >= fastHardness && !usesGrain(p) {
		rx := d.Size / 2
		return raster.FillEllipse(dst, d.X, d.Y, rx, rx*roundness, d.Rotation, o.Color, opts)
	}

	mask := r.Mask(p.Shape, p.Hardness, d.Size)
	ms := mask.Rect.Dx()
	tip := r.dab.Get(ms, ms)
	colorize(tip, mask, o.Color)
	if usesGrain(p) && r.grain != nil {
		r.grain.ApplyGrain(tip, d.Size, p.Grain, d.X, d.Y, o.StrokeDistance, o.Rand)
	}

	half := float64(ms) / 2
	m := raster.Translate(d.X, d.Y)
	m = raster.Mul(m, raster.Rotate(d.Rotation*math.Pi/180))
	m = raster.Mul(m, raster.Scale(d.Size/float64(ms), d.Size*roundness/float64(ms)))
	m = raster.Mul(m, raster.Translate(-half, -half))
	return raster.DrawTransformed(dst, tip, m, opts, &r.resample)
}

// colorize fills tip with c modulated by the mask (premultiplied).
func colorize(tip *image.RGBA, mask *image.Alpha, c color.NRGBA) {
	b := mask.Rect
	for y := 0; y < b.Dy(); y++ {
		ti := tip.PixOffset(0, y)
		mi := y * mask.Stride
		for x := 0; x < b.Dx(); x++ {
			a := uint32(mask.Pix[mi+x]) * uint32(c.A) / 255
			tip.Pix[ti] = uint8(uint32(c.R) * a / 255)
			tip.Pix[ti+1] = uint8(uint32(c.G) * a / 255)
			tip.Pix[ti+2] = uint8(uint32(c.B) * a / 255)
			tip.Pix[ti+3] = uint8(a)
			ti += 4
		}
	}
}
