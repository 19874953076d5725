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
	"bytes"
	"image"
	"image/color"
)

// New allocates a transparent surface of the given size.
func New(w, h int) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, w, h)) }

// Clone returns a deep copy of img.
func Clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	CopyInto(out, img)
	return out
}

// CopyInto replaces the pixels of dst with those of src where the two overlap.
func CopyInto(dst, src *image.RGBA) {
	r := dst.Bounds().Intersect(src.Bounds())
	if r.Empty() {
		return
	}
	w := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X, y)
		copy(dst.Pix[di:di+w], src.Pix[si:si+w])
	}
}

// Clear makes r fully transparent.
func Clear(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	w := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		clear(img.Pix[i : i+w])
	}
}

// Fill replaces every pixel in r with c.
func Fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	p := color.RGBAModel.Convert(c).(color.RGBA)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = p.R, p.G, p.B, p.A
			i += 4
		}
	}
}

// Equal reports whether both surfaces have the same bounds and pixels.
func Equal(a, b *image.RGBA) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	w := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		ai := a.PixOffset(r.Min.X, y)
		bi := b.PixOffset(r.Min.X, y)
		if !bytes.Equal(a.Pix[ai:ai+w], b.Pix[bi:bi+w]) {
			return false
		}
	}
	return true
}

// IsBlank reports whether every pixel is fully transparent.
func IsBlank(img *image.RGBA) bool {
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			if img.Pix[i+3] != 0 {
				return false
			}
			i += 4
		}
	}
	return true
}

// FillMask composites the uniform color c through mask onto the dst
// rectangle r. The mask pixel at mp maps to r.Min. A nil mask means full
// coverage.
func FillMask(dst *image.RGBA, r image.Rectangle, c color.NRGBA, mask *image.Alpha, mp image.Point, opts DrawOptions) {
	op := opts.opacity()
	if op == 0 || c.A == 0 {
		return
	}
	orig := r.Min
	r = r.Intersect(dst.Bounds())
	mp = mp.Add(r.Min.Sub(orig))
	if mask != nil {
		mr := image.Rectangle{Min: mp, Max: mp.Add(r.Size())}
		cl := mr.Intersect(mask.Bounds())
		if cl.Empty() {
			return
		}
		r.Min = r.Min.Add(cl.Min.Sub(mr.Min))
		r.Max = r.Min.Add(cl.Size())
		mp = cl.Min
	}
	if r.Empty() {
		return
	}
	mode := opts.Mode
	if mode == "" {
		mode = BlendNormal
	}
	base := float64(c.A) * inv255 * op
	cr := float64(c.R) * inv255
	cg := float64(c.G) * inv255
	cb := float64(c.B) * inv255
	for y := 0; y < r.Dy(); y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		mi := 0
		if mask != nil {
			mi = mask.PixOffset(mp.X, mp.Y+y)
		}
		for x := 0; x < r.Dx(); x++ {
			cov := 1.0
			if mask != nil {
				m := mask.Pix[mi+x]
				if m == 0 {
					di += 4
					continue
				}
				cov = float64(m) * inv255
			}
			sa := base * cov
			blendPixel(dst.Pix[di:di+4:di+4], cr*sa, cg*sa, cb*sa, sa, mode)
			di += 4
		}
	}
}

// FillRect composites c over r.
func FillRect(dst *image.RGBA, r image.Rectangle, c color.NRGBA, opts DrawOptions) {
	FillMask(dst, r, c, nil, image.Point{}, opts)
}

// Scratch is a reusable surface that grows to the largest requested size
// and never shrinks.
type Scratch struct {
	buf *image.RGBA
}

// Get returns a cleared w×h view anchored at the origin.
func (s *Scratch) Get(w, h int) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if s.buf == nil || s.buf.Rect.Dx() < w || s.buf.Rect.Dy() < h {
		bw, bh := w, h
		if s.buf != nil {
			bw = max(bw, s.buf.Rect.Dx())
			bh = max(bh, s.buf.Rect.Dy())
		}
		s.buf = image.NewRGBA(image.Rect(0, 0, bw, bh))
	}
	v := s.buf.SubImage(image.Rect(0, 0, w, h)).(*image.RGBA)
	Clear(v, v.Bounds())
	return v
}

// Cap reports the current backing size.
func (s *Scratch) Cap() image.Point {
	if s.buf == nil {
		return image.Point{}
	}
	return s.buf.Rect.Size()
}
