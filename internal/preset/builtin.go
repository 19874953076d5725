/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package preset

import (
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// Builtins returns the presets every library starts with.
func Builtins() []paint.BrushPreset {
	round := paint.DefaultPreset()
	round.SizeDynamics = paint.DynamicsConfig{PressureMin: 0.2, PressureMax: 1}

	pencil := paint.DefaultPreset()
	pencil.Name = "pencil"
	pencil.Hardness = 0.9
	pencil.Spacing = 10
	pencil.OpacityDynamics = paint.DynamicsConfig{PressureMin: 0.3, PressureMax: 1, TiltInfluence: 0.2}
	pencil.Jitter = paint.JitterConfig{Opacity: 10}
	pencil.Grain = paint.GrainSettings{Scale: 0.5, Blend: raster.BlendMultiply, Intensity: 0.6, Movement: paint.GrainStatic}

	marker := paint.DefaultPreset()
	marker.Name = "marker"
	marker.Shape = paint.ShapeSquare
	marker.Roundness = 0.4
	marker.Angle = 30
	marker.Spacing = 5
	marker.Flow = 0.6
	marker.BlendMode = raster.BlendMultiply

	airbrush := paint.DefaultPreset()
	airbrush.Name = "airbrush"
	airbrush.Hardness = 0
	airbrush.Spacing = 8
	airbrush.Flow = 0.15
	airbrush.FlowDynamics = paint.DynamicsConfig{PressureMin: 0.1, PressureMax: 1}
	airbrush.Scatter = 10

	eraser := paint.DefaultPreset()
	eraser.Name = "eraser"
	eraser.Hardness = 0.8
	eraser.Eraser = true
	eraser.BlendMode = raster.BlendErase
	eraser.Taper = paint.TaperConfig{Start: 0.05, End: 0.05, SizeMin: 0.3}

	return []paint.BrushPreset{round, pencil, marker, airbrush, eraser}
}
