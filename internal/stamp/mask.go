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
	"math"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
)

// maskKey quantizes hardness to tenths and size to even pixels so nearby
// dabs share a mask.
type maskKey struct {
	shape    paint.BrushShape
	hardness int
	size     int
}

func keyFor(shape paint.BrushShape, hardness, size float64) maskKey {
	s := int(math.Round(size/2)) * 2
	if s < 2 {
		s = 2
	}
	return maskKey{shape: shape, hardness: int(math.Round(paint.Clamp01(hardness) * 10)), size: s}
}

// falloff maps a normalized distance to coverage: solid inside the hard
// core, smoothstep to zero at the rim.
func falloff(d, hardness float64) float64 {
	if d >= 1 {
		return 0
	}
	if d <= hardness {
		return 1
	}
	t := (d - hardness) / (1 - hardness)
	return 1 - t*t*(3-2*t)
}

func buildMask(k maskKey) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, k.size, k.size))
	r := float64(k.size) / 2
	h := float64(k.hardness) / 10
	for y := 0; y < k.size; y++ {
		dy := (float64(y) + 0.5 - r) / r
		for x := 0; x < k.size; x++ {
			dx := (float64(x) + 0.5 - r) / r
			var d float64
			if k.shape == paint.ShapeSquare {
				d = math.Max(math.Abs(dx), math.Abs(dy))
			} else {
				d = math.Hypot(dx, dy)
			}
			m.Pix[y*m.Stride+x] = uint8(falloff(d, h)*255 + 0.5)
		}
	}
	return m
}
