/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"image"

	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// Action is one reversible edit. The set of actions is closed; the manager
// switches over every concrete type.
type Action interface {
	// bytes estimates retained pixel memory.
	bytes() int
	sealed()
}

// StrokeAction records the layer pixels from before a raster edit (brush
// stroke, fill, shape or transform commit). Only the before state is kept,
// so a stroke cannot be redone.
type StrokeAction struct {
	LayerID string
	Before  *image.RGBA
}

// ClearLayerAction records the pixels of a layer before it was cleared.
type ClearLayerAction struct {
	LayerID string
	Before  *image.RGBA
}

// AddLayerAction records a layer that was added or duplicated.
// Pixels is filled in when the action is undone so redo can restore it.
type AddLayerAction struct {
	LayerID string
	Index   int
	Name    string
	Pixels  *image.RGBA
}

// DeleteLayerAction keeps the removed layer and its position.
type DeleteLayerAction struct {
	Layer LayerState
	Index int
}

// MergeLayersAction keeps the merged upper layer and the lower layer's
// pixels from before the merge.
type MergeLayersAction struct {
	Upper       LayerState
	UpperIndex  int
	LowerID     string
	LowerBefore *image.RGBA
}

// Prop names a layer property change.
type Prop string

const (
	PropVisible   Prop = "visible"
	PropLocked    Prop = "locked"
	PropOpacity   Prop = "opacity"
	PropBlendMode Prop = "blend_mode"
	PropName      Prop = "name"
)

// PropValue holds the value of one property; only the field matching the
// Prop is meaningful.
type PropValue struct {
	Bool  bool
	Float float64
	Str   string
}

type LayerPropAction struct {
	LayerID  string
	Prop     Prop
	Old, New PropValue
}

// LayerState is a detached copy of a layer.
type LayerState struct {
	ID        string
	Name      string
	Visible   bool
	Locked    bool
	Opacity   float64
	BlendMode raster.BlendMode
	Pixels    *image.RGBA
}

// Capture deep-copies l.
func Capture(l *layers.Layer) LayerState {
	return LayerState{
		ID: l.ID, Name: l.Name, Visible: l.Visible, Locked: l.Locked,
		Opacity: l.Opacity, BlendMode: l.BlendMode, Pixels: raster.Clone(l.Raster),
	}
}

func (s LayerState) layer() *layers.Layer {
	return &layers.Layer{
		ID: s.ID, Name: s.Name, Visible: s.Visible, Locked: s.Locked,
		Opacity: s.Opacity, BlendMode: s.BlendMode, Raster: raster.Clone(s.Pixels),
	}
}

func pixBytes(img *image.RGBA) int {
	if img == nil {
		return 0
	}
	return len(img.Pix)
}

func (a *StrokeAction) bytes() int      { return pixBytes(a.Before) }
func (a *ClearLayerAction) bytes() int  { return pixBytes(a.Before) }
func (a *AddLayerAction) bytes() int    { return pixBytes(a.Pixels) }
func (a *DeleteLayerAction) bytes() int { return pixBytes(a.Layer.Pixels) }
func (a *MergeLayersAction) bytes() int {
	return pixBytes(a.Upper.Pixels) + pixBytes(a.LowerBefore)
}
func (a *LayerPropAction) bytes() int { return 0 }

func (*StrokeAction) sealed()      {}
func (*ClearLayerAction) sealed()  {}
func (*AddLayerAction) sealed()    {}
func (*DeleteLayerAction) sealed() {}
func (*MergeLayersAction) sealed() {}
func (*LayerPropAction) sealed()   {}
