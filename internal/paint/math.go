/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package paint

import (
	"math"
	"math/rand/v2"
)

func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

func Dist(x0, y0, x1, y1 float64) float64 { return math.Hypot(x1-x0, y1-y0) }

// Rand is the per-stroke random source. It is seeded explicitly so that a
// replayed stroke produces the same scatter and jitter.
type Rand struct{ r *rand.Rand }

func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SeedFromTimestamp derives a seed from a pointer timestamp in milliseconds.
func SeedFromTimestamp(ts float64) uint64 { return math.Float64bits(ts) }

// Float64 returns a value in [0,1).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// Signed returns a value in [-1,1).
func (r *Rand) Signed() float64 { return r.r.Float64()*2 - 1 }
