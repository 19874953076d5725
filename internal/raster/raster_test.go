/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package raster

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.RGBA {
	img := New(w, h)
	Fill(img, img.Bounds(), c)
	return img
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

func TestDrawNormalHalfOpacity(t *testing.T) {
	dst := solid(4, 4, color.NRGBA{255, 0, 0, 255})
	src := solid(4, 4, color.NRGBA{0, 0, 255, 255})
	Draw(dst, dst.Bounds(), src, image.Point{}, DrawOptions{Mode: BlendNormal, Opacity: 0.5})
	got := dst.RGBAAt(1, 1)
	if !near(got.R, 128, 1) || got.G != 0 || !near(got.B, 128, 1) || got.A != 255 {
		t.Fatalf("expected half red / half blue, got %+v", got)
	}
}

func TestBlendModes(t *testing.T) {
	grey := color.NRGBA{128, 128, 128, 255}
	cases := []struct {
		mode BlendMode
		src  color.NRGBA
		want uint8
	}{
		{BlendMultiply, color.NRGBA{255, 255, 255, 255}, 128},
		{BlendMultiply, color.NRGBA{0, 0, 0, 255}, 0},
		{BlendScreen, color.NRGBA{0, 0, 0, 255}, 128},
		{BlendScreen, color.NRGBA{255, 255, 255, 255}, 255},
		{BlendDarken, color.NRGBA{64, 64, 64, 255}, 64},
		{BlendLighten, color.NRGBA{64, 64, 64, 255}, 128},
		{BlendOverlay, color.NRGBA{128, 128, 128, 255}, 128},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			dst := solid(2, 2, grey)
			Draw(dst, dst.Bounds(), solid(2, 2, tc.src), image.Point{}, DrawOptions{Mode: tc.mode, Opacity: 1})
			if got := dst.RGBAAt(0, 0); !near(got.R, tc.want, 1) || got.A != 255 {
				t.Fatalf("%s: got %+v want R=%d", tc.mode, got, tc.want)
			}
		})
	}
}

func TestEraseRemovesAlpha(t *testing.T) {
	dst := solid(2, 2, color.NRGBA{10, 20, 30, 255})
	Draw(dst, dst.Bounds(), solid(2, 2, color.NRGBA{0, 0, 0, 255}), image.Point{}, DrawOptions{Mode: BlendErase, Opacity: 1})
	if !IsBlank(dst) {
		t.Fatalf("erase at full strength should clear, got %+v", dst.RGBAAt(0, 0))
	}
}

func TestDrawClipsToBounds(t *testing.T) {
	dst := New(4, 4)
	src := solid(4, 4, color.NRGBA{255, 255, 255, 255})
	Draw(dst, image.Rect(2, 2, 6, 6), src, image.Point{}, Over)
	if dst.RGBAAt(1, 1).A != 0 || dst.RGBAAt(3, 3).A != 255 {
		t.Fatalf("unexpected clip result")
	}
}

func TestFillEllipseCoversCenter(t *testing.T) {
	dst := New(40, 40)
	r := FillEllipse(dst, 20, 20, 10, 10, 0, color.NRGBA{0, 0, 0, 255}, Over)
	if r.Empty() {
		t.Fatalf("expected non-empty bounds")
	}
	if dst.RGBAAt(20, 20).A != 255 {
		t.Fatalf("center not covered")
	}
	if dst.RGBAAt(2, 2).A != 0 {
		t.Fatalf("corner should stay clear")
	}
}

func TestStrokePolylineUnionsJoins(t *testing.T) {
	dst := New(50, 50)
	c := color.NRGBA{0, 0, 0, 255}
	StrokePolyline(dst, []Point{{10, 10}, {40, 10}, {40, 40}}, 4, false, c, DrawOptions{Mode: BlendNormal, Opacity: 0.5})
	// the join at (40,10) is covered by two segments and a cap; union keeps it at one layer of opacity
	if got := dst.RGBAAt(40, 10).A; !near(got, 128, 1) {
		t.Fatalf("join alpha=%d, want ~128", got)
	}
}

func TestScratchGrowsNeverShrinks(t *testing.T) {
	var s Scratch
	a := s.Get(10, 5)
	a.SetRGBA(1, 1, color.RGBA{1, 2, 3, 4})
	s.Get(20, 20)
	b := s.Get(4, 4)
	if s.Cap() != image.Pt(20, 20) {
		t.Fatalf("cap=%v", s.Cap())
	}
	if b.RGBAAt(1, 1).A != 0 {
		t.Fatalf("scratch not cleared")
	}
}

func TestDrawTransformedTranslation(t *testing.T) {
	dst := New(10, 10)
	src := solid(2, 2, color.NRGBA{255, 0, 0, 255})
	var tmp Scratch
	r := DrawTransformed(dst, src, Translate(3, 4), Over, &tmp)
	if r != image.Rect(3, 4, 5, 6) {
		t.Fatalf("bounds=%v", r)
	}
	if dst.RGBAAt(3, 4).R != 255 || dst.RGBAAt(2, 4).A != 0 {
		t.Fatalf("translation blit misplaced")
	}
}
