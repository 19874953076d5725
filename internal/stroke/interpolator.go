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

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
)

const (
	subStep    = 0.5
	minSegment = 1e-3
	spacingEps = 1e-9
)

// Sample is an interpolated dab position. Distance is the arc length from
// the start of the stroke.
type Sample struct {
	X, Y         float64
	Pressure     float64
	TiltX, TiltY float64
	Distance     float64
}

// SpacingPx converts a spacing percentage of the brush diameter to pixels.
func SpacingPx(spacingPercent, size float64) float64 {
	return math.Max(1, spacingPercent/100*size)
}

// Interpolator walks a Catmull-Rom spline through the stabilized points and
// emits samples at a fixed arc-length spacing. Leftover distance carries
// over between calls, so the result does not depend on how the pointer
// events were batched.
type Interpolator struct {
	points    []paint.StrokePoint
	sinceLast float64
	total     float64
}

func NewInterpolator() *Interpolator { return &Interpolator{} }

// Begin starts a stroke and always yields exactly one sample at p.
func (ip *Interpolator) Begin(p paint.StrokePoint) []Sample {
	ip.points = append(ip.points[:0], p)
	ip.sinceLast = 0
	ip.total = 0
	return []Sample{sampleAt(p, 0)}
}

// Next extends the stroke to p and returns the samples that fell on the new
// segment. Segments shorter than a thousandth of a unit are dropped.
func (ip *Interpolator) Next(p paint.StrokePoint, spacing float64) []Sample {
	if len(ip.points) == 0 {
		return ip.Begin(p)
	}
	p1 := ip.points[len(ip.points)-1]
	if paint.Dist(p1.X, p1.Y, p.X, p.Y) < minSegment {
		return nil
	}
	p0 := p1
	if n := len(ip.points); n >= 2 {
		p0 = ip.points[n-2]
	}
	ip.points = append(ip.points, p)
	if len(ip.points) > 3 {
		ip.points = append(ip.points[:0], ip.points[len(ip.points)-3:]...)
	}
	spacing = math.Max(1, spacing)
	return ip.walk(p0, p1, p, p, spacing)
}

// Advance records p without interpolating and returns one sample at p.
func (ip *Interpolator) Advance(p paint.StrokePoint) Sample {
	if len(ip.points) == 0 {
		return ip.Begin(p)[0]
	}
	last := ip.points[len(ip.points)-1]
	ip.total += paint.Dist(last.X, last.Y, p.X, p.Y)
	ip.points = append(ip.points[:0], last, p)
	ip.sinceLast = 0
	return sampleAt(p, ip.total)
}

func (ip *Interpolator) TotalDistance() float64 { return ip.total }

func (ip *Interpolator) Reset() {
	ip.points = ip.points[:0]
	ip.sinceLast = 0
	ip.total = 0
}

func (ip *Interpolator) walk(p0, p1, p2, p3 paint.StrokePoint, spacing float64) []Sample {
	chord := paint.Dist(p1.X, p1.Y, p2.X, p2.Y)
	steps := int(math.Ceil(chord / subStep))
	if steps < 1 {
		steps = 1
	}
	var out []Sample
	px, py, pt := p1.X, p1.Y, 0.0
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		qx := catmullRom(p0.X, p1.X, p2.X, p3.X, t)
		qy := catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, t)
		seg := paint.Dist(px, py, qx, qy)
		for seg > 0 && ip.sinceLast+seg >= spacing-spacingEps {
			need := math.Max(0, spacing-ip.sinceLast)
			f := math.Min(1, need/seg)
			px += (qx - px) * f
			py += (qy - py) * f
			pt += (t - pt) * f
			ip.total += need
			out = append(out, Sample{
				X: px, Y: py,
				Pressure: paint.Lerp(p1.Pressure, p2.Pressure, pt),
				TiltX:    paint.Lerp(p1.TiltX, p2.TiltX, pt),
				TiltY:    paint.Lerp(p1.TiltY, p2.TiltY, pt),
				Distance: ip.total,
			})
			seg -= need
			ip.sinceLast = 0
			if seg < spacingEps {
				seg = 0
			}
		}
		ip.sinceLast += seg
		ip.total += seg
		px, py, pt = qx, qy, t
	}
	return out
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*p1 + (-p0+p2)*t + (2*p0-5*p1+4*p2-p3)*t2 + (-p0+3*p1-3*p2+p3)*t3)
}

func sampleAt(p paint.StrokePoint, dist float64) Sample {
	return Sample{X: p.X, Y: p.Y, Pressure: p.Pressure, TiltX: p.TiltX, TiltY: p.TiltY, Distance: dist}
}
