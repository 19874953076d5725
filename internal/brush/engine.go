/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package brush drives a stroke from pointer samples to dabs on a layer.
// Rendering is streaming: every pointer move draws immediately and reports
// the rectangle it touched.
package brush

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/petianskiy/gundamaxing-sub000/internal/grain"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/stamp"
	"github.com/petianskiy/gundamaxing-sub000/internal/stroke"
)

// dirtyPad is added to the dab radius when growing the dirty rect.
const dirtyPad = 2

// RenderResources bundles the caches a stroke draws with. One instance is
// shared by every stroke of a canvas.
type RenderResources struct {
	Stamps *stamp.Renderer
	Grain  *grain.Engine
}

type ResourceConfig struct {
	MaskCacheSize int
	Grain         grain.Config
}

func NewRenderResources(cfg ResourceConfig) *RenderResources {
	g := grain.NewEngine(cfg.Grain)
	return &RenderResources{Grain: g, Stamps: stamp.NewRenderer(cfg.MaskCacheSize, g)}
}

// StrokeOptions are fixed for the lifetime of one stroke.
type StrokeOptions struct {
	Preset        paint.BrushPreset
	Color         color.NRGBA
	Size          float64
	Opacity       float64
	Stabilization float64 // 0..100
}

// StrokeResult summarizes a finished stroke.
type StrokeResult struct {
	Dirty    paint.DirtyRect
	Dabs     int
	Distance float64
}

type strokeState struct {
	preset   paint.BrushPreset
	color    color.NRGBA
	size     float64
	opacity  float64
	spacing  float64
	stab     *stroke.Stabilizer
	interp   *stroke.Interpolator
	rng      *paint.Rand
	last     paint.StrokePoint
	velocity float64
	dirty    paint.DirtyRect
	dabs     int
}

// Engine holds at most one active stroke.
type Engine struct {
	res *RenderResources
	st  *strokeState
	log *slog.Logger
}

func NewEngine(res *RenderResources, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{res: res, log: log}
}

func (e *Engine) Active() bool { return e.st != nil }

// BeginStroke starts a stroke at p, draws its first dab onto dst and
// returns the touched rect. A stroke already in progress is discarded.
func (e *Engine) BeginStroke(dst *image.RGBA, p paint.StrokePoint, opts StrokeOptions) paint.DirtyRect {
	preset := opts.Preset.Normalized()
	size := paint.Clamp(opts.Size, MinDabSize, MaxDabSize)
	st := &strokeState{
		preset:  preset,
		color:   opts.Color,
		size:    size,
		opacity: paint.Clamp01(opts.Opacity),
		spacing: stroke.SpacingPx(preset.Spacing, size),
		stab:    stroke.NewStabilizer(opts.Stabilization),
		interp:  stroke.NewInterpolator(),
		rng:     paint.NewRand(paint.SeedFromTimestamp(p.Timestamp)),
		last:    p,
	}
	e.st = st
	if preset.Grain.Intensity > 0 {
		e.res.Grain.Prefetch(preset.Grain.URL)
	}
	return e.render(dst, st.interp.Begin(st.stab.Push(p)))
}

// StrokeTo extends the active stroke to p.
func (e *Engine) StrokeTo(dst *image.RGBA, p paint.StrokePoint) paint.DirtyRect {
	st := e.st
	if st == nil {
		return paint.DirtyRect{}
	}
	if dt := (p.Timestamp - st.last.Timestamp) / 1000; dt > 0 {
		st.velocity = paint.Dist(st.last.X, st.last.Y, p.X, p.Y) / dt
	}
	st.last = p
	sp := st.stab.Push(p)
	var samples []stroke.Sample
	if st.preset.RenderMode == paint.RenderStamp {
		samples = []stroke.Sample{st.interp.Advance(sp)}
	} else {
		samples = st.interp.Next(sp, st.spacing)
	}
	return e.render(dst, samples)
}

// EndStroke finishes the active stroke.
func (e *Engine) EndStroke() StrokeResult {
	st := e.st
	if st == nil {
		return StrokeResult{}
	}
	e.st = nil
	res := StrokeResult{Dirty: st.dirty, Dabs: st.dabs, Distance: st.interp.TotalDistance()}
	e.log.Debug("stroke finished",
		slog.String("preset", st.preset.Name),
		slog.Int("dabs", res.Dabs),
		slog.Float64("distance", res.Distance))
	return res
}

func (e *Engine) render(dst *image.RGBA, samples []stroke.Sample) paint.DirtyRect {
	st := e.st
	var seg paint.DirtyRect
	total := st.interp.TotalDistance()
	for _, s := range samples {
		pos := 0.0
		if total > 0 {
			pos = s.Distance / total
		}
		d := ApplyDynamics(DynamicsInput{
			Sample:         s,
			BaseSize:       st.size,
			BaseOpacity:    st.opacity,
			Velocity:       st.velocity,
			StrokePosition: pos,
			Taper:          total > 0,
		}, &st.preset, st.rng)
		touched := e.res.Stamps.RenderDab(dst, d, stamp.Options{
			Preset:         &st.preset,
			Color:          st.color,
			StrokeDistance: s.Distance,
			Rand:           st.rng,
		})
		st.dabs++
		// rotated or elongated tips reach past the size/2 circle
		seg = seg.AddPoint(d.X, d.Y, d.Size/2+dirtyPad)
		if !touched.Empty() {
			seg = seg.Union(paint.FromImage(touched.Inset(-dirtyPad)))
		}
	}
	st.dirty = st.dirty.Union(seg)
	return seg
}
