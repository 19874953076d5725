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
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
	"github.com/petianskiy/gundamaxing-sub000/internal/stroke"
)

var black = color.NRGBA{0, 0, 0, 255}

func newEngine() *Engine {
	return NewEngine(NewRenderResources(ResourceConfig{MaskCacheSize: 8}), nil)
}

func pt(x, y, ts float64) paint.StrokePoint {
	return paint.StrokePoint{X: x, Y: y, Pressure: 1, Timestamp: ts}
}

func hardRound(size float64) StrokeOptions {
	return StrokeOptions{Preset: paint.DefaultPreset(), Color: black, Size: size, Opacity: 1}
}

func TestSingleTapRendersOneDab(t *testing.T) {
	e := newEngine()
	dst := raster.New(50, 50)
	d := e.BeginStroke(dst, pt(25, 25, 1), hardRound(10))
	res := e.EndStroke()
	if res.Dabs != 1 {
		t.Fatalf("tap produced %d dabs", res.Dabs)
	}
	if d.Empty() || res.Dirty != d {
		t.Fatalf("dirty rect mismatch: seg=%+v total=%+v", d, res.Dirty)
	}
	if dst.RGBAAt(25, 25).A != 255 {
		t.Fatalf("tap left no paint")
	}
	if e.Active() {
		t.Fatalf("engine still active after EndStroke")
	}
}

func TestHorizontalBand(t *testing.T) {
	e := newEngine()
	dst := raster.New(200, 100)
	e.BeginStroke(dst, pt(0, 50, 0), hardRound(20))
	for x := 5; x <= 200; x += 5 {
		e.StrokeTo(dst, pt(float64(x), 50, float64(x)/2))
	}
	res := e.EndStroke()
	if res.Dabs < 40 || res.Dabs > 42 {
		t.Fatalf("expected ~41 dabs, got %d", res.Dabs)
	}
	for x := 15; x < 185; x++ {
		for y := 42; y < 58; y++ {
			if a := dst.RGBAAt(x, y).A; a != 255 {
				t.Fatalf("gap in band at (%d,%d): alpha %d", x, y, a)
			}
		}
		if dst.RGBAAt(x, 30).A != 0 || dst.RGBAAt(x, 70).A != 0 {
			t.Fatalf("paint outside band at x=%d", x)
		}
	}
	r := res.Dirty
	if r.Y > 38 || r.Y+r.Height < 62 || r.X > -10 || r.X+r.Width < 210 {
		t.Fatalf("dirty rect too small: %+v", r)
	}
}

func TestSegmentDirtyUnion(t *testing.T) {
	e := newEngine()
	dst := raster.New(100, 100)
	a := e.BeginStroke(dst, pt(10, 10, 0), hardRound(4))
	b := e.StrokeTo(dst, pt(60, 10, 10))
	c := e.StrokeTo(dst, pt(60, 60, 20))
	res := e.EndStroke()
	if res.Dirty != a.Union(b).Union(c) {
		t.Fatalf("total dirty %+v is not the union of segments", res.Dirty)
	}
}

func TestStampModeOneDabPerSample(t *testing.T) {
	e := newEngine()
	dst := raster.New(100, 100)
	opts := hardRound(6)
	opts.Preset.RenderMode = paint.RenderStamp
	e.BeginStroke(dst, pt(10, 10, 0), opts)
	for i := 1; i <= 3; i++ {
		e.StrokeTo(dst, pt(10+float64(i)*20, 10, float64(i)))
	}
	if res := e.EndStroke(); res.Dabs != 4 {
		t.Fatalf("stamp mode dabs=%d", res.Dabs)
	}
}

func TestStrokeToWithoutBeginIsNoop(t *testing.T) {
	e := newEngine()
	dst := raster.New(10, 10)
	if r := e.StrokeTo(dst, pt(5, 5, 0)); !r.Empty() || !raster.IsBlank(dst) {
		t.Fatalf("expected no-op")
	}
	if res := e.EndStroke(); res.Dabs != 0 {
		t.Fatalf("expected empty result")
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	opts := hardRound(12)
	opts.Preset.Hardness = 0.4
	opts.Preset.Scatter = 50
	opts.Preset.Jitter = paint.JitterConfig{Size: 30, Opacity: 20, Rotation: 15}
	render := func() *image.RGBA {
		e := newEngine()
		dst := raster.New(120, 60)
		e.BeginStroke(dst, pt(10, 30, 7), opts)
		e.StrokeTo(dst, pt(110, 30, 50))
		e.EndStroke()
		return dst
	}
	if !raster.Equal(render(), render()) {
		t.Fatalf("same seed produced different pixels")
	}
}

func TestApplyDynamicsPressure(t *testing.T) {
	p := paint.DefaultPreset()
	p.SizeDynamics = paint.DynamicsConfig{PressureMin: 0.2, PressureMax: 1}
	p.OpacityDynamics = paint.DynamicsConfig{PressureMin: 0.5, PressureMax: 1}
	d := ApplyDynamics(DynamicsInput{Sample: stroke.Sample{Pressure: 0.5}, BaseSize: 10, BaseOpacity: 1}, &p, nil)
	if math.Abs(d.Size-6) > 1e-9 || math.Abs(d.Opacity-0.75) > 1e-9 {
		t.Fatalf("size=%v opacity=%v", d.Size, d.Opacity)
	}
}

func TestApplyDynamicsClampsSize(t *testing.T) {
	p := paint.DefaultPreset()
	if d := ApplyDynamics(DynamicsInput{Sample: stroke.Sample{Pressure: 1}, BaseSize: 5000, BaseOpacity: 1}, &p, nil); d.Size != MaxDabSize {
		t.Fatalf("size=%v", d.Size)
	}
	p.SizeDynamics = paint.DynamicsConfig{PressureMin: 0, PressureMax: 1}
	if d := ApplyDynamics(DynamicsInput{Sample: stroke.Sample{Pressure: 0}, BaseSize: 10, BaseOpacity: 1}, &p, nil); d.Size != MinDabSize {
		t.Fatalf("size=%v", d.Size)
	}
}

func TestApplyDynamicsVelocity(t *testing.T) {
	p := paint.DefaultPreset()
	p.SizeDynamics.VelocityInfluence = 1
	slow := ApplyDynamics(DynamicsInput{Sample: stroke.Sample{Pressure: 1}, BaseSize: 10, BaseOpacity: 1, Velocity: 0}, &p, nil)
	fast := ApplyDynamics(DynamicsInput{Sample: stroke.Sample{Pressure: 1}, BaseSize: 10, BaseOpacity: 1, Velocity: 500}, &p, nil)
	if slow.Size != 10 || math.Abs(fast.Size-5) > 1e-9 {
		t.Fatalf("slow=%v fast=%v", slow.Size, fast.Size)
	}
}

func TestApplyDynamicsTaper(t *testing.T) {
	p := paint.DefaultPreset()
	p.Taper = paint.TaperConfig{Start: 0.2, End: 0.2, SizeMin: 0.5}
	in := DynamicsInput{Sample: stroke.Sample{Pressure: 1}, BaseSize: 10, BaseOpacity: 1, Taper: true}
	in.StrokePosition = 0.1
	head := ApplyDynamics(in, &p, nil)
	in.StrokePosition = 0.5
	mid := ApplyDynamics(in, &p, nil)
	in.StrokePosition = 1
	tail := ApplyDynamics(in, &p, nil)
	if math.Abs(head.Size-7.5) > 1e-9 || math.Abs(head.Opacity-0.5) > 1e-9 {
		t.Fatalf("head %+v", head)
	}
	if mid.Size != 10 || mid.Opacity != 1 {
		t.Fatalf("mid %+v", mid)
	}
	if tail.Size != 5 || tail.Opacity != 0 {
		t.Fatalf("tail %+v", tail)
	}
	in.Taper = false
	if d := ApplyDynamics(in, &p, nil); d.Size != 10 {
		t.Fatalf("taper applied while disabled: %+v", d)
	}
}

func TestApplyDynamicsScatterBounded(t *testing.T) {
	p := paint.DefaultPreset()
	p.Scatter = 100
	rng := paint.NewRand(3)
	for i := 0; i < 200; i++ {
		d := ApplyDynamics(DynamicsInput{Sample: stroke.Sample{X: 50, Y: 50, Pressure: 1}, BaseSize: 10, BaseOpacity: 1}, &p, rng)
		if math.Abs(d.X-50) > 10 || math.Abs(d.Y-50) > 10 {
			t.Fatalf("scatter escaped radius: %+v", d)
		}
	}
}
