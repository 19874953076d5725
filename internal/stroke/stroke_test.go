/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package stroke

import (
	"math"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
)

func TestWindowSize(t *testing.T) {
	cases := map[float64]int{0: 1, 50: 11, 100: 20, -5: 1, 250: 20}
	for in, want := range cases {
		if got := WindowSize(in); got != want {
			t.Errorf("WindowSize(%v)=%d want %d", in, got, want)
		}
	}
}

func TestStabilizerFirstPointPassesThrough(t *testing.T) {
	s := NewStabilizer(100)
	p := paint.StrokePoint{X: 3, Y: 4, Pressure: 0.7, TiltX: 10, Timestamp: 5}
	if got := s.Push(p); got != p {
		t.Fatalf("first point changed: %+v", got)
	}
}

func TestStabilizerWeightsNewer(t *testing.T) {
	s := NewStabilizer(100)
	s.Push(paint.StrokePoint{X: 0, Pressure: 0})
	got := s.Push(paint.StrokePoint{X: 3, Pressure: 1, TiltY: 7, Timestamp: 9})
	// weights 1 and 2
	if math.Abs(got.X-2) > 1e-9 || math.Abs(got.Pressure-2.0/3) > 1e-9 {
		t.Fatalf("unexpected average %+v", got)
	}
	if got.TiltY != 7 || got.Timestamp != 9 {
		t.Fatalf("tilt/timestamp must come from newest sample: %+v", got)
	}
}

func TestStabilizerZeroIsIdentity(t *testing.T) {
	s := NewStabilizer(0)
	s.Push(paint.StrokePoint{X: 0})
	if got := s.Push(paint.StrokePoint{X: 10}); got.X != 10 {
		t.Fatalf("window of one must not smooth, got %v", got.X)
	}
}

func TestBeginEmitsExactlyOne(t *testing.T) {
	ip := NewInterpolator()
	if n := len(ip.Begin(paint.StrokePoint{X: 1, Y: 1, Pressure: 1})); n != 1 {
		t.Fatalf("expected 1 sample, got %d", n)
	}
}

func collect(ip *Interpolator, pts []paint.StrokePoint, spacing float64) []Sample {
	out := ip.Begin(pts[0])
	for _, p := range pts[1:] {
		out = append(out, ip.Next(p, spacing)...)
	}
	return out
}

func TestSpacingIndependentOfBatching(t *testing.T) {
	const L, S = 200.0, 5.0
	long := collect(NewInterpolator(), []paint.StrokePoint{{X: 0, Pressure: 1}, {X: L, Pressure: 1}}, S)
	steps := []paint.StrokePoint{{X: 0, Pressure: 1}}
	for x := S; x <= L; x += S {
		steps = append(steps, paint.StrokePoint{X: x, Pressure: 1})
	}
	short := collect(NewInterpolator(), steps, S)

	want := int(math.Floor(L/S)) + 1
	if d := len(long) - want; d < -1 || d > 1 {
		t.Fatalf("long move: %d samples, want ~%d", len(long), want)
	}
	if len(long) != len(short) {
		t.Fatalf("batching changed dab count: %d vs %d", len(long), len(short))
	}
	for i := range long {
		if math.Abs(long[i].X-short[i].X) > 1e-6 || math.Abs(long[i].X-float64(i)*S) > 1e-6 {
			t.Fatalf("sample %d at %v / %v", i, long[i].X, short[i].X)
		}
	}
}

func TestCarryOverAcrossShortMoves(t *testing.T) {
	ip := NewInterpolator()
	ip.Begin(paint.StrokePoint{X: 0})
	var n int
	for x := 1.0; x <= 10; x++ {
		n += len(ip.Next(paint.StrokePoint{X: x}, 4))
	}
	if n != 2 {
		t.Fatalf("expected dabs at 4 and 8, got %d", n)
	}
	if math.Abs(ip.TotalDistance()-10) > 1e-6 {
		t.Fatalf("total distance %v", ip.TotalDistance())
	}
}

func TestDegenerateSegmentIgnored(t *testing.T) {
	ip := NewInterpolator()
	ip.Begin(paint.StrokePoint{X: 5, Y: 5})
	if got := ip.Next(paint.StrokePoint{X: 5.0001, Y: 5}, 1); got != nil {
		t.Fatalf("expected no samples, got %d", len(got))
	}
}

func TestPressureInterpolated(t *testing.T) {
	ip := NewInterpolator()
	ip.Begin(paint.StrokePoint{X: 0, Pressure: 0})
	out := ip.Next(paint.StrokePoint{X: 10, Pressure: 1}, 5)
	if len(out) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(out))
	}
	if out[0].Pressure <= 0 || out[0].Pressure >= 1 || out[1].Pressure < 0.99 {
		t.Fatalf("pressure not interpolated: %+v", out)
	}
}

func TestAdvanceStampMode(t *testing.T) {
	ip := NewInterpolator()
	ip.Begin(paint.StrokePoint{X: 0})
	s := ip.Advance(paint.StrokePoint{X: 30, Y: 40})
	if s.X != 30 || s.Distance != 50 {
		t.Fatalf("unexpected stamp sample %+v", s)
	}
}
