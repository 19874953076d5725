/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package paint holds the value types shared by the brush pipeline: pointer
// samples, dab parameters, brush presets and the dirty rectangle used to
// drive partial recomposition.
package paint

import "github.com/petianskiy/gundamaxing-sub000/internal/raster"

// StrokePoint is one raw pointer sample in canvas units.
// Timestamp is in milliseconds. Tilt is in degrees and zero when the device
// does not report it.
type StrokePoint struct {
	X, Y      float64
	Pressure  float64
	TiltX     float64
	TiltY     float64
	Timestamp float64
}

// DabParams describes a single stamp after dynamics were applied.
type DabParams struct {
	X, Y           float64
	Size           float64
	Opacity        float64
	Flow           float64
	Rotation       float64 // degrees
	StrokePosition float64 // 0..1 along the stroke so far
}

type BrushShape string

const (
	ShapeCircle BrushShape = "circle"
	ShapeSquare BrushShape = "square"
)

type GrainMovement string

const (
	GrainStatic  GrainMovement = "static"
	GrainRolling GrainMovement = "rolling"
	GrainRandom  GrainMovement = "random"
)

// RenderMode selects how pointer samples turn into dabs.
// RenderNormal interpolates along the path with the preset spacing,
// RenderStamp places exactly one dab per stabilized pointer sample.
type RenderMode string

const (
	RenderNormal RenderMode = "normal"
	RenderStamp  RenderMode = "stamp"
)

// DynamicsConfig maps pressure (and optionally velocity and tilt) onto a
// multiplier of a base value.
type DynamicsConfig struct {
	PressureMin       float64 `yaml:"pressure_min" json:"pressure_min"`
	PressureMax       float64 `yaml:"pressure_max" json:"pressure_max"`
	VelocityInfluence float64 `yaml:"velocity_influence,omitempty" json:"velocity_influence,omitempty"`
	TiltInfluence     float64 `yaml:"tilt_influence,omitempty" json:"tilt_influence,omitempty"`
}

// Identity reports whether the config leaves its base value untouched.
func (d DynamicsConfig) Identity() bool {
	return d.PressureMin == 1 && d.PressureMax == 1 && d.VelocityInfluence == 0 && d.TiltInfluence == 0
}

type TaperConfig struct {
	Start   float64 `yaml:"start,omitempty" json:"start,omitempty"` // fraction of the stroke, 0..1
	End     float64 `yaml:"end,omitempty" json:"end,omitempty"`
	SizeMin float64 `yaml:"size_min,omitempty" json:"size_min,omitempty"` // size multiplier at the very tip
}

// JitterConfig randomizes dabs. Size and Opacity are percentages, Rotation is degrees.
type JitterConfig struct {
	Size     float64 `yaml:"size,omitempty" json:"size,omitempty"`
	Opacity  float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty" json:"rotation,omitempty"`
}

type GrainSettings struct {
	URL       string           `yaml:"url,omitempty" json:"url,omitempty"`
	Scale     float64          `yaml:"scale,omitempty" json:"scale,omitempty"`
	Blend     raster.BlendMode `yaml:"blend,omitempty" json:"blend,omitempty"`
	Intensity float64          `yaml:"intensity,omitempty" json:"intensity,omitempty"`
	Movement  GrainMovement    `yaml:"movement,omitempty" json:"movement,omitempty"`
}

// BrushPreset is the immutable description of a brush. Size and opacity are
// not part of it; they are chosen per stroke.
type BrushPreset struct {
	Name      string     `yaml:"name" json:"name"`
	Shape     BrushShape `yaml:"shape" json:"shape"`
	Hardness  float64    `yaml:"hardness" json:"hardness"`
	Roundness float64    `yaml:"roundness" json:"roundness"`
	Angle     float64    `yaml:"angle,omitempty" json:"angle,omitempty"`
	Spacing   float64    `yaml:"spacing" json:"spacing"` // percent of the diameter
	Flow      float64    `yaml:"flow" json:"flow"`

	SizeDynamics    DynamicsConfig `yaml:"size_dynamics" json:"size_dynamics"`
	OpacityDynamics DynamicsConfig `yaml:"opacity_dynamics" json:"opacity_dynamics"`
	FlowDynamics    DynamicsConfig `yaml:"flow_dynamics" json:"flow_dynamics"`
	AngleDynamics   DynamicsConfig `yaml:"angle_dynamics" json:"angle_dynamics"`

	Taper   TaperConfig   `yaml:"taper,omitempty" json:"taper,omitempty"`
	Scatter float64       `yaml:"scatter,omitempty" json:"scatter,omitempty"` // percent of size
	Jitter  JitterConfig  `yaml:"jitter,omitempty" json:"jitter,omitempty"`
	Grain   GrainSettings `yaml:"grain,omitempty" json:"grain,omitempty"`

	RenderMode RenderMode       `yaml:"render_mode,omitempty" json:"render_mode,omitempty"`
	BlendMode  raster.BlendMode `yaml:"blend_mode,omitempty" json:"blend_mode,omitempty"`
	Eraser     bool             `yaml:"eraser,omitempty" json:"eraser,omitempty"`
}

// DefaultPreset is a hard round brush with no dynamics.
func DefaultPreset() BrushPreset {
	id := DynamicsConfig{PressureMin: 1, PressureMax: 1}
	return BrushPreset{
		Name:            "round",
		Shape:           ShapeCircle,
		Hardness:        1,
		Roundness:       1,
		Spacing:         25,
		Flow:            1,
		SizeDynamics:    id,
		OpacityDynamics: id,
		FlowDynamics:    id,
		AngleDynamics:   id,
		Grain:           GrainSettings{Scale: 1, Blend: raster.BlendMultiply, Movement: GrainStatic},
		RenderMode:      RenderNormal,
		BlendMode:       raster.BlendNormal,
	}
}

// Normalized returns a copy with zero-valued fields replaced by usable
// defaults. A dynamics block with both pressure bounds at zero is read as
// "not configured" and becomes the identity.
func (p BrushPreset) Normalized() BrushPreset {
	if p.Shape == "" {
		p.Shape = ShapeCircle
	}
	if p.Roundness <= 0 {
		p.Roundness = 1
	}
	if p.Spacing <= 0 {
		p.Spacing = 25
	}
	if p.Flow <= 0 {
		p.Flow = 1
	}
	p.Hardness = Clamp01(p.Hardness)
	p.Roundness = Clamp01(p.Roundness)
	for _, d := range []*DynamicsConfig{&p.SizeDynamics, &p.OpacityDynamics, &p.FlowDynamics, &p.AngleDynamics} {
		if d.PressureMin == 0 && d.PressureMax == 0 {
			d.PressureMin, d.PressureMax = 1, 1
		}
	}
	if p.Grain.Scale <= 0 {
		p.Grain.Scale = 1
	}
	if p.Grain.Blend == "" {
		p.Grain.Blend = raster.BlendMultiply
	}
	if p.Grain.Movement == "" {
		p.Grain.Movement = GrainStatic
	}
	if p.RenderMode == "" {
		p.RenderMode = RenderNormal
	}
	if p.BlendMode == "" {
		p.BlendMode = raster.BlendNormal
	}
	return p
}
