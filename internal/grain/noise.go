/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grain

import "image"

// ProceduralSize is the edge length of the fallback tile.
const ProceduralSize = 128

func hash2(x, y, seed uint32) float64 {
	h := x*374761393 + y*668265263 + seed*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h&0xffff) / 0xffff
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

// valueNoise samples a periodic lattice with the given number of cells per
// tile edge, so the result tiles seamlessly.
func valueNoise(x, y, cells int, seed uint32) float64 {
	cs := float64(ProceduralSize) / float64(cells)
	fx, fy := float64(x)/cs, float64(y)/cs
	x0, y0 := int(fx), int(fy)
	tx, ty := smooth(fx-float64(x0)), smooth(fy-float64(y0))
	x1, y1 := (x0+1)%cells, (y0+1)%cells
	x0, y0 = x0%cells, y0%cells
	a := hash2(uint32(x0), uint32(y0), seed)
	b := hash2(uint32(x1), uint32(y0), seed)
	c := hash2(uint32(x0), uint32(y1), seed)
	d := hash2(uint32(x1), uint32(y1), seed)
	top := a + (b-a)*tx
	bot := c + (d-c)*tx
	return top + (bot-top)*ty
}

// Procedural builds the deterministic grayscale noise tile used when no
// texture is available.
func Procedural() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ProceduralSize, ProceduralSize))
	for y := 0; y < ProceduralSize; y++ {
		for x := 0; x < ProceduralSize; x++ {
			v, amp, norm := 0.0, 0.5, 0.0
			for o, cells := 0, 8; o < 4; o, cells = o+1, cells*2 {
				v += amp * valueNoise(x, y, cells, uint32(o+1))
				norm += amp
				amp /= 2
			}
			g := uint8(v/norm*255 + 0.5)
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = g, g, g, 255
		}
	}
	return img
}
