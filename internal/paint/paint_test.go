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
	"image"
	"testing"
)

func TestDirtyRectUnion(t *testing.T) {
	var r DirtyRect
	if !r.Empty() {
		t.Fatalf("zero rect should be empty")
	}
	r = r.AddPoint(10, 10, 2)
	r = r.AddPoint(20, 5, 1)
	if r.X != 8 || r.Y != 4 || r.Width != 13 || r.Height != 8 {
		t.Fatalf("unexpected union: %+v", r)
	}
	if got := r.Union(DirtyRect{}); got != r {
		t.Fatalf("union with empty changed rect: %+v", got)
	}
	if got := r.Image(); got != image.Rect(8, 4, 21, 12) {
		t.Fatalf("image rect: %v", got)
	}
}

func TestNormalizedFillsDynamics(t *testing.T) {
	p := BrushPreset{Name: "bare"}.Normalized()
	if !p.SizeDynamics.Identity() || !p.OpacityDynamics.Identity() {
		t.Fatalf("expected identity dynamics, got %+v %+v", p.SizeDynamics, p.OpacityDynamics)
	}
	if p.Spacing != 25 || p.Roundness != 1 || p.Flow != 1 {
		t.Fatalf("defaults not applied: %+v", p)
	}
}

func TestRandDeterministic(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 16; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("step %d: %v != %v", i, x, y)
		}
	}
	for i := 0; i < 100; i++ {
		if v := a.Signed(); v < -1 || v >= 1 {
			t.Fatalf("signed out of range: %v", v)
		}
	}
}
