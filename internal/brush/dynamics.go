/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package brush

import (
	"math"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/stroke"
)

const (
	MinDabSize = 0.5
	MaxDabSize = 2000
	// velocityFull is the speed, in canvas units per second, at which
	// velocity influence saturates.
	velocityFull = 1000.0
)

// DynamicsInput is everything ApplyDynamics needs besides the preset.
type DynamicsInput struct {
	Sample         stroke.Sample
	BaseSize       float64
	BaseOpacity    float64
	Velocity       float64
	StrokePosition float64
	Taper          bool // false disables taper, e.g. for a zero-length stroke
}

func pressureScale(d paint.DynamicsConfig, pressure float64) float64 {
	return paint.Lerp(d.PressureMin, d.PressureMax, paint.Clamp01(pressure))
}

// ApplyDynamics computes the final parameters of one dab. Random draws
// happen in a fixed order so a seeded rng reproduces the stroke.
func ApplyDynamics(in DynamicsInput, p *paint.BrushPreset, rng *paint.Rand) paint.DabParams {
	s := in.Sample
	size := in.BaseSize * pressureScale(p.SizeDynamics, s.Pressure)
	opacity := in.BaseOpacity * pressureScale(p.OpacityDynamics, s.Pressure)
	flow := p.Flow * pressureScale(p.FlowDynamics, s.Pressure)
	rotation := p.Angle * pressureScale(p.AngleDynamics, s.Pressure)

	vf := paint.Clamp01(in.Velocity / velocityFull)
	if vi := p.SizeDynamics.VelocityInfluence; vi > 0 {
		size *= paint.Lerp(1, 1-vf, vi)
	}
	if vi := p.OpacityDynamics.VelocityInfluence; vi > 0 {
		opacity *= paint.Lerp(1, 1-vf, vi)
	}

	if s.TiltX != 0 || s.TiltY != 0 {
		if ti := p.SizeDynamics.TiltInfluence; ti > 0 {
			mag := paint.Clamp01(math.Hypot(s.TiltX, s.TiltY) / 90)
			size *= 1 + mag*ti
		}
		if ti := p.AngleDynamics.TiltInfluence; ti > 0 {
			rotation += math.Atan2(s.TiltY, s.TiltX) * 180 / math.Pi * ti
		}
	}

	if in.Taper {
		pos := paint.Clamp01(in.StrokePosition)
		tp := p.Taper
		if tp.Start > 0 && pos < tp.Start {
			t := pos / tp.Start
			size *= paint.Lerp(tp.SizeMin, 1, t)
			opacity *= t
		}
		if tp.End > 0 && pos > 1-tp.End {
			t := (1 - pos) / tp.End
			size *= paint.Lerp(tp.SizeMin, 1, t)
			opacity *= t
		}
	}

	x, y := s.X, s.Y
	if p.Scatter > 0 && rng != nil {
		r := p.Scatter / 100 * size
		x += rng.Signed() * r
		y += rng.Signed() * r
	}
	if rng != nil {
		if j := p.Jitter.Size; j > 0 {
			size *= 1 + rng.Signed()*j/200
		}
		if j := p.Jitter.Opacity; j > 0 {
			opacity *= 1 + rng.Signed()*j/200
		}
		if j := p.Jitter.Rotation; j > 0 {
			rotation += rng.Signed() * j
		}
	}

	return paint.DabParams{
		X:              x,
		Y:              y,
		Size:           paint.Clamp(size, MinDabSize, MaxDabSize),
		Opacity:        paint.Clamp01(opacity),
		Flow:           paint.Clamp01(flow),
		Rotation:       rotation,
		StrokePosition: in.StrokePosition,
	}
}
