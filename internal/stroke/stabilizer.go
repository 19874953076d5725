/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package stroke turns raw pointer samples into evenly spaced dab positions.
package stroke

import (
	"math"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
)

// WindowSize maps a stabilization amount (0..100) to the smoothing window.
func WindowSize(stabilization float64) int {
	s := paint.Clamp(stabilization, 0, 100)
	return int(math.Round(s/100*19)) + 1
}

// Stabilizer smooths positions and pressure with a weighted moving average
// where newer samples weigh more.
type Stabilizer struct {
	window []paint.StrokePoint
	size   int
}

func NewStabilizer(stabilization float64) *Stabilizer {
	n := WindowSize(stabilization)
	return &Stabilizer{size: n, window: make([]paint.StrokePoint, 0, n)}
}

// Push adds a raw sample and returns the smoothed one. The first sample of a
// stroke passes through unchanged. Tilt and timestamp come from the newest
// raw sample.
func (s *Stabilizer) Push(p paint.StrokePoint) paint.StrokePoint {
	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, p)
	if len(s.window) == 1 {
		return p
	}
	var x, y, pr, wsum float64
	for i, q := range s.window {
		w := float64(i + 1)
		x += q.X * w
		y += q.Y * w
		pr += q.Pressure * w
		wsum += w
	}
	out := p
	out.X, out.Y, out.Pressure = x/wsum, y/wsum, pr/wsum
	return out
}

func (s *Stabilizer) Reset() { s.window = s.window[:0] }

func (s *Stabilizer) Size() int { return s.size }
