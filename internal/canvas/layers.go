/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"
	"log/slog"

	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
	"github.com/petianskiy/gundamaxing-sub000/internal/undo"
)

// LayerInfo is a read-only view of a layer for layer panels.
type LayerInfo struct {
	ID        string
	Name      string
	Visible   bool
	Locked    bool
	Opacity   float64
	BlendMode raster.BlendMode
	Active    bool
}

// Layers lists the stack bottom-to-top.
func (c *Canvas) Layers() []LayerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LayerInfo, 0, c.lm.Count())
	for _, l := range c.lm.Layers() {
		out = append(out, LayerInfo{
			ID: l.ID, Name: l.Name, Visible: l.Visible, Locked: l.Locked,
			Opacity: l.Opacity, BlendMode: l.BlendMode, Active: l.ID == c.lm.ActiveID(),
		})
	}
	return out
}

func (c *Canvas) ActiveLayer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lm.ActiveID()
}

func (c *Canvas) SetActiveLayer(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return false
	}
	return c.lm.SetActive(id)
}

// structural runs a stack change, then forces a full recomposite.
func (c *Canvas) structural(op string, fn func() bool) bool {
	c.abortGesturesLocked()
	if !fn() {
		return false
	}
	c.comp.MarkDirty()
	c.log.Info("layer stack changed", slog.String("op", op), slog.Int("layers", c.lm.Count()))
	return true
}

// AddLayer inserts an empty layer above the active one and returns its id.
func (c *Canvas) AddLayer(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var id string
	c.structural("add", func() bool {
		l := c.lm.AddLayer(name)
		c.hist.Push(&undo.AddLayerAction{LayerID: l.ID, Index: c.lm.Index(l.ID), Name: l.Name})
		id = l.ID
		return true
	})
	return id
}

func (c *Canvas) DuplicateLayer(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dupID string
	ok := c.structural("duplicate", func() bool {
		l, ok := c.lm.DuplicateLayer(id)
		if !ok {
			return false
		}
		c.hist.Push(&undo.AddLayerAction{LayerID: l.ID, Index: c.lm.Index(l.ID), Name: l.Name})
		dupID = l.ID
		return true
	})
	return dupID, ok
}

// DeleteLayer removes a layer; the last remaining layer cannot be deleted.
func (c *Canvas) DeleteLayer(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.structural("delete", func() bool {
		l, ok := c.lm.Get(id)
		if !ok || c.lm.Count() <= 1 {
			return false
		}
		a := &undo.DeleteLayerAction{Layer: undo.Capture(l), Index: c.lm.Index(id)}
		if !c.lm.DeleteLayer(id) {
			return false
		}
		c.hist.Push(a)
		return true
	})
}

// MergeDown merges a layer into the one below it.
func (c *Canvas) MergeDown(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.structural("merge", func() bool {
		i := c.lm.Index(id)
		if i <= 0 {
			return false
		}
		upper := c.lm.Layers()[i]
		lower := c.lm.Layers()[i-1]
		a := &undo.MergeLayersAction{
			Upper:       undo.Capture(upper),
			UpperIndex:  i,
			LowerID:     lower.ID,
			LowerBefore: raster.Clone(lower.Raster),
		}
		if !c.lm.MergeDown(id) {
			return false
		}
		c.hist.Push(a)
		return true
	})
}

// MoveLayer reorders the stack. Reordering is not recorded for undo.
func (c *Canvas) MoveLayer(id string, dir layers.Direction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.structural("move", func() bool { return c.lm.MoveLayer(id, dir) })
}

// ClearLayer makes a layer transparent.
func (c *Canvas) ClearLayer(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortGesturesLocked()
	l, ok := c.lm.Get(id)
	if !ok || l.Locked {
		return false
	}
	before := raster.Clone(l.Raster)
	c.lm.ClearLayer(id)
	c.hist.Push(&undo.ClearLayerAction{LayerID: id, Before: before})
	c.touch(l.Raster.Bounds())
	return true
}

// setProp applies a property change and records the old and new values.
func (c *Canvas) setProp(id string, p undo.Prop, v undo.PropValue) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setPropLocked(id, p, v)
}

func (c *Canvas) setPropLocked(id string, p undo.Prop, v undo.PropValue) bool {
	l, ok := c.lm.Get(id)
	if !ok {
		return false
	}
	old := propOf(l, p)
	a := &undo.LayerPropAction{LayerID: id, Prop: p, Old: old}
	switch p {
	case undo.PropVisible:
		c.lm.SetVisible(id, v.Bool)
	case undo.PropLocked:
		c.lm.SetLocked(id, v.Bool)
	case undo.PropOpacity:
		c.lm.SetOpacity(id, v.Float)
	case undo.PropBlendMode:
		c.lm.SetBlendMode(id, raster.BlendMode(v.Str))
	case undo.PropName:
		c.lm.Rename(id, v.Str)
	default:
		panic(fmt.Sprintf("canvas: unknown layer property %q", p))
	}
	a.New = propOf(l, p)
	if a.New == old {
		return true
	}
	c.hist.Push(a)
	if p != undo.PropLocked && p != undo.PropName {
		c.touch(l.Raster.Bounds())
	}
	return true
}

func propOf(l *layers.Layer, p undo.Prop) undo.PropValue {
	switch p {
	case undo.PropVisible:
		return undo.PropValue{Bool: l.Visible}
	case undo.PropLocked:
		return undo.PropValue{Bool: l.Locked}
	case undo.PropOpacity:
		return undo.PropValue{Float: l.Opacity}
	case undo.PropBlendMode:
		return undo.PropValue{Str: string(l.BlendMode)}
	case undo.PropName:
		return undo.PropValue{Str: l.Name}
	}
	return undo.PropValue{}
}

func (c *Canvas) SetVisible(id string, v bool) bool {
	return c.setProp(id, undo.PropVisible, undo.PropValue{Bool: v})
}

// ToggleVisibility flips a layer's visibility.
func (c *Canvas) ToggleVisibility(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lm.Get(id)
	return ok && c.setPropLocked(id, undo.PropVisible, undo.PropValue{Bool: !l.Visible})
}

func (c *Canvas) SetLocked(id string, v bool) bool {
	return c.setProp(id, undo.PropLocked, undo.PropValue{Bool: v})
}

func (c *Canvas) ToggleLock(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lm.Get(id)
	return ok && c.setPropLocked(id, undo.PropLocked, undo.PropValue{Bool: !l.Locked})
}

// SetOpacity clamps v to [0,1].
func (c *Canvas) SetOpacity(id string, v float64) bool {
	return c.setProp(id, undo.PropOpacity, undo.PropValue{Float: v})
}

func (c *Canvas) SetBlendMode(id string, m raster.BlendMode) bool {
	return c.setProp(id, undo.PropBlendMode, undo.PropValue{Str: string(m)})
}

func (c *Canvas) RenameLayer(id, name string) bool {
	return c.setProp(id, undo.PropName, undo.PropValue{Str: name})
}

// ExportLayers returns deep copies of the stack and the active layer id,
// for saving.
func (c *Canvas) ExportLayers() ([]*layers.Layer, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ls := c.lm.Layers()
	out := make([]*layers.Layer, len(ls))
	for i, l := range ls {
		out[i] = l.Clone()
	}
	return out, c.lm.ActiveID()
}

// ImportLayers replaces the whole stack, e.g. after loading a drawing. The
// undo history is dropped.
func (c *Canvas) ImportLayers(ls []*layers.Layer, activeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortGesturesLocked()
	if err := c.lm.Replace(ls, activeID); err != nil {
		return fmt.Errorf("import layers: %w", err)
	}
	c.hist.Clear()
	c.selection = nil
	c.comp.MarkDirty()
	c.log.Info("layers imported", slog.Int("layers", len(ls)))
	return nil
}
