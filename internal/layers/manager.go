/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layers keeps the ordered layer stack of a drawing.
//
// Invariants: there is always at least one layer, and the active layer id
// always names a layer in the stack.
package layers

import (
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

var ErrLayerNotFound = errors.New("layer not found")

// Layer is one raster in the stack. Raster always has the canvas size.
type Layer struct {
	ID        string
	Name      string
	Visible   bool
	Locked    bool
	Opacity   float64
	BlendMode raster.BlendMode
	Raster    *image.RGBA
}

// Clone deep-copies the layer including its pixels.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Raster = raster.Clone(l.Raster)
	return &c
}

// Direction moves a layer within the stack.
type Direction int

const (
	Up Direction = iota + 1
	Down
)

// Manager owns the layers bottom-to-top. It is not safe for concurrent use.
type Manager struct {
	width, height int
	layers        []*Layer
	active        string
	seq           int
}

// NewManager creates a stack with a single empty layer.
func NewManager(width, height int) *Manager {
	m := &Manager{width: width, height: height}
	l := m.newLayer("")
	m.layers = []*Layer{l}
	m.active = l.ID
	return m
}

func (m *Manager) Width() int  { return m.width }
func (m *Manager) Height() int { return m.height }

func (m *Manager) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

func (m *Manager) newLayer(name string) *Layer {
	m.seq++
	if name == "" {
		name = fmt.Sprintf("Layer %d", m.seq)
	}
	return &Layer{
		ID:        uuid.NewString(),
		Name:      name,
		Visible:   true,
		Opacity:   1,
		BlendMode: raster.BlendNormal,
		Raster:    raster.New(m.width, m.height),
	}
}

// Layers returns the stack bottom-to-top. The slice is a copy; the layers are not.
func (m *Manager) Layers() []*Layer { return append([]*Layer(nil), m.layers...) }

func (m *Manager) Count() int { return len(m.layers) }

func (m *Manager) Index(id string) int {
	for i, l := range m.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) Get(id string) (*Layer, bool) {
	if i := m.Index(id); i >= 0 {
		return m.layers[i], true
	}
	return nil, false
}

func (m *Manager) Active() *Layer {
	l, _ := m.Get(m.active)
	return l
}

func (m *Manager) ActiveID() string { return m.active }

func (m *Manager) SetActive(id string) bool {
	if m.Index(id) < 0 {
		return false
	}
	m.active = id
	return true
}

// AddLayer inserts an empty layer directly above the active one and makes it active.
func (m *Manager) AddLayer(name string) *Layer {
	l := m.newLayer(name)
	m.insert(m.Index(m.active)+1, l)
	m.active = l.ID
	return l
}

// NewLayerAt inserts an empty layer at index (clamped) and makes it active.
func (m *Manager) NewLayerAt(index int, name string) *Layer {
	l := m.newLayer(name)
	m.insert(index, l)
	m.active = l.ID
	return l
}

// InsertLayer puts l at index (clamped) and makes it active. It is used to
// restore a layer that was removed, so l keeps its id.
func (m *Manager) InsertLayer(index int, l *Layer) error {
	if l == nil || l.Raster == nil {
		return errors.New("insert layer: nil layer")
	}
	if m.Index(l.ID) >= 0 {
		return fmt.Errorf("insert layer: duplicate id %s", l.ID)
	}
	if l.Raster.Bounds() != m.Bounds() {
		return fmt.Errorf("insert layer: raster %v does not match canvas %v", l.Raster.Bounds(), m.Bounds())
	}
	m.insert(index, l)
	m.active = l.ID
	return nil
}

func (m *Manager) insert(index int, l *Layer) {
	index = max(0, min(index, len(m.layers)))
	m.layers = append(m.layers, nil)
	copy(m.layers[index+1:], m.layers[index:])
	m.layers[index] = l
}

// DeleteLayer removes a layer unless it is the last one. When the active
// layer goes, the neighbour below (or else above) becomes active.
func (m *Manager) DeleteLayer(id string) bool {
	i := m.Index(id)
	if i < 0 || len(m.layers) <= 1 {
		return false
	}
	m.layers = append(m.layers[:i], m.layers[i+1:]...)
	if m.active == id {
		m.active = m.layers[max(0, i-1)].ID
	}
	return true
}

// DuplicateLayer copies a layer (pixels included) directly above it.
func (m *Manager) DuplicateLayer(id string) (*Layer, bool) {
	i := m.Index(id)
	if i < 0 {
		return nil, false
	}
	src := m.layers[i]
	dup := src.Clone()
	dup.ID = uuid.NewString()
	dup.Name = src.Name + " copy"
	m.insert(i+1, dup)
	m.active = dup.ID
	return dup, true
}

// MergeDown composites a layer onto the one below using its own opacity and
// blend mode, then removes it. A hidden layer contributes nothing. The
// lower layer becomes active.
func (m *Manager) MergeDown(id string) bool {
	i := m.Index(id)
	if i <= 0 {
		return false
	}
	upper, lower := m.layers[i], m.layers[i-1]
	if upper.Visible {
		raster.Draw(lower.Raster, lower.Raster.Bounds(), upper.Raster, image.Point{},
			raster.DrawOptions{Mode: upper.BlendMode, Opacity: upper.Opacity})
	}
	m.layers = append(m.layers[:i], m.layers[i+1:]...)
	m.active = lower.ID
	return true
}

// MoveLayer swaps a layer with its neighbour; false at the stack edges.
func (m *Manager) MoveLayer(id string, dir Direction) bool {
	i := m.Index(id)
	if i < 0 {
		return false
	}
	j := i + 1
	if dir == Down {
		j = i - 1
	}
	if j < 0 || j >= len(m.layers) {
		return false
	}
	m.layers[i], m.layers[j] = m.layers[j], m.layers[i]
	return true
}

func (m *Manager) ToggleVisibility(id string) bool {
	l, ok := m.Get(id)
	if ok {
		l.Visible = !l.Visible
	}
	return ok
}

func (m *Manager) ToggleLock(id string) bool {
	l, ok := m.Get(id)
	if ok {
		l.Locked = !l.Locked
	}
	return ok
}

func (m *Manager) SetVisible(id string, v bool) bool {
	l, ok := m.Get(id)
	if ok {
		l.Visible = v
	}
	return ok
}

func (m *Manager) SetLocked(id string, v bool) bool {
	l, ok := m.Get(id)
	if ok {
		l.Locked = v
	}
	return ok
}

// SetOpacity clamps v to [0,1].
func (m *Manager) SetOpacity(id string, v float64) bool {
	l, ok := m.Get(id)
	if ok {
		l.Opacity = min(1, max(0, v))
	}
	return ok
}

func (m *Manager) SetBlendMode(id string, mode raster.BlendMode) bool {
	l, ok := m.Get(id)
	if ok {
		l.BlendMode = mode
	}
	return ok
}

func (m *Manager) Rename(id, name string) bool {
	l, ok := m.Get(id)
	if ok {
		l.Name = name
	}
	return ok
}

// ClearLayer makes every pixel of the layer transparent.
func (m *Manager) ClearLayer(id string) bool {
	l, ok := m.Get(id)
	if ok {
		raster.Clear(l.Raster, l.Raster.Bounds())
	}
	return ok
}

// Snapshot returns a copy of the layer's pixels.
func (m *Manager) Snapshot(id string) (*image.RGBA, bool) {
	l, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	return raster.Clone(l.Raster), true
}

// RestoreSnapshot overwrites the layer's pixels with img.
func (m *Manager) RestoreSnapshot(id string, img *image.RGBA) bool {
	l, ok := m.Get(id)
	if !ok || img == nil {
		return false
	}
	raster.Clear(l.Raster, l.Raster.Bounds())
	raster.CopyInto(l.Raster, img)
	return true
}

// Replace swaps the whole stack, e.g. after loading a drawing. It rejects
// an empty stack or rasters of the wrong size.
func (m *Manager) Replace(ls []*Layer, activeID string) error {
	if len(ls) == 0 {
		return errors.New("replace layers: empty stack")
	}
	for _, l := range ls {
		if l.Raster == nil || l.Raster.Bounds() != m.Bounds() {
			return fmt.Errorf("replace layers: layer %q has wrong raster size", l.Name)
		}
	}
	m.layers = append([]*Layer(nil), ls...)
	m.active = ls[len(ls)-1].ID
	if m.Index(activeID) >= 0 {
		m.active = activeID
	}
	m.seq = len(ls)
	return nil
}
