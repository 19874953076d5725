/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps a linear undo/redo history of layer edits.
package undo

import (
	"fmt"
	"sync"

	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// DefaultMaxDepth is the number of actions kept when Config.MaxDepth is unset.
const DefaultMaxDepth = 50

// Config controls depth and memory caps.
type Config struct {
	// MaxDepth limits the undo stack; the oldest action is dropped on overflow.
	MaxDepth int
	// MaxBytes is a soft cap on retained pixel memory (0 means unlimited).
	// Older actions are pruned when exceeded, but the newest is always kept.
	MaxBytes int
}

// Result describes what an Undo or Redo changed.
type Result struct {
	OK bool
	// Structural is set when layers were added, removed or reordered.
	Structural bool
	// LayerID is the layer whose pixels or properties changed.
	LayerID string
}

// Manager provides a single linear undo stack with a redo stack that is
// cleared on every push. It is safe for concurrent use.
type Manager struct {
	cfg        Config
	mu         sync.Mutex
	undo       []Action
	redo       []Action
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Manager{cfg: cfg}
}

// Push records a new action and invalidates redo.
func (m *Manager) Push(a Action) {
	if a == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, a)
	m.totalBytes += a.bytes()
	m.redo = nil
	m.enforceCapsLocked()
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Undo reverts the newest action against lm and moves it to the redo stack.
func (m *Manager) Undo(lm *layers.Manager) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return Result{}
	}
	a := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.totalBytes -= a.bytes()
	res, inv := revert(lm, a)
	if inv != nil {
		m.redo = append(m.redo, inv)
	}
	return res
}

// Redo re-applies the newest undone action. A stroke cannot be redone: it
// goes back onto the undo stack unchanged and Redo reports false.
func (m *Manager) Redo(lm *layers.Manager) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return Result{}
	}
	a := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	res, next := reapply(lm, a)
	if next != nil {
		m.undo = append(m.undo, next)
		m.totalBytes += next.bytes()
		m.enforceCapsLocked()
	}
	return res
}

// Clear drops both stacks, e.g. after loading another drawing.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo, m.redo = nil, nil
	m.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, undoDepth int, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes, len(m.undo), len(m.redo)
}

func (m *Manager) enforceCapsLocked() {
	if n := len(m.undo); n > m.cfg.MaxDepth {
		drop := n - m.cfg.MaxDepth
		for _, a := range m.undo[:drop] {
			m.totalBytes -= a.bytes()
		}
		m.undo = append([]Action(nil), m.undo[drop:]...)
	}
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes && len(m.undo) > 1 {
		m.totalBytes -= m.undo[0].bytes()
		m.undo = m.undo[1:]
	}
}

// revert undoes a and returns the action to keep for redo.
func revert(lm *layers.Manager, a Action) (Result, Action) {
	switch a := a.(type) {
	case *StrokeAction:
		ok := lm.RestoreSnapshot(a.LayerID, a.Before)
		return Result{OK: ok, LayerID: a.LayerID}, a
	case *ClearLayerAction:
		ok := lm.RestoreSnapshot(a.LayerID, a.Before)
		return Result{OK: ok, LayerID: a.LayerID}, a
	case *AddLayerAction:
		i := lm.Index(a.LayerID)
		if i < 0 {
			return Result{}, nil
		}
		pix, _ := lm.Snapshot(a.LayerID)
		if !lm.DeleteLayer(a.LayerID) {
			return Result{}, nil
		}
		if raster.IsBlank(pix) {
			pix = nil
		}
		return Result{OK: true, Structural: true, LayerID: a.LayerID},
			&AddLayerAction{LayerID: a.LayerID, Index: i, Name: a.Name, Pixels: pix}
	case *DeleteLayerAction:
		if err := lm.InsertLayer(a.Index, a.Layer.layer()); err != nil {
			return Result{}, nil
		}
		return Result{OK: true, Structural: true, LayerID: a.Layer.ID}, a
	case *MergeLayersAction:
		if !lm.RestoreSnapshot(a.LowerID, a.LowerBefore) {
			return Result{}, nil
		}
		if err := lm.InsertLayer(a.UpperIndex, a.Upper.layer()); err != nil {
			return Result{}, nil
		}
		return Result{OK: true, Structural: true, LayerID: a.Upper.ID}, a
	case *LayerPropAction:
		ok := setProp(lm, a.LayerID, a.Prop, a.Old)
		return Result{OK: ok, LayerID: a.LayerID}, a
	default:
		panic(fmt.Sprintf("undo: unknown action %T", a))
	}
}

// reapply redoes a and returns the action to push back for undo.
func reapply(lm *layers.Manager, a Action) (Result, Action) {
	switch a := a.(type) {
	case *StrokeAction:
		return Result{LayerID: a.LayerID}, a
	case *ClearLayerAction:
		before, ok := lm.Snapshot(a.LayerID)
		if !ok {
			return Result{}, nil
		}
		lm.ClearLayer(a.LayerID)
		return Result{OK: true, LayerID: a.LayerID}, &ClearLayerAction{LayerID: a.LayerID, Before: before}
	case *AddLayerAction:
		l := lm.NewLayerAt(a.Index, a.Name)
		if a.Pixels != nil {
			lm.RestoreSnapshot(l.ID, a.Pixels)
		}
		return Result{OK: true, Structural: true, LayerID: l.ID},
			&AddLayerAction{LayerID: l.ID, Index: a.Index, Name: a.Name}
	case *DeleteLayerAction:
		l, ok := lm.Get(a.Layer.ID)
		if !ok {
			return Result{}, nil
		}
		st, i := Capture(l), lm.Index(l.ID)
		if !lm.DeleteLayer(l.ID) {
			return Result{}, nil
		}
		return Result{OK: true, Structural: true, LayerID: st.ID}, &DeleteLayerAction{Layer: st, Index: i}
	case *MergeLayersAction:
		u, ok := lm.Get(a.Upper.ID)
		i := lm.Index(a.Upper.ID)
		if !ok || i <= 0 {
			return Result{}, nil
		}
		lowerID := lm.Layers()[i-1].ID
		before, _ := lm.Snapshot(lowerID)
		st := Capture(u)
		if !lm.MergeDown(u.ID) {
			return Result{}, nil
		}
		return Result{OK: true, Structural: true, LayerID: lowerID},
			&MergeLayersAction{Upper: st, UpperIndex: i, LowerID: lowerID, LowerBefore: before}
	case *LayerPropAction:
		ok := setProp(lm, a.LayerID, a.Prop, a.New)
		return Result{OK: ok, LayerID: a.LayerID}, a
	default:
		panic(fmt.Sprintf("undo: unknown action %T", a))
	}
}

func setProp(lm *layers.Manager, id string, p Prop, v PropValue) bool {
	switch p {
	case PropVisible:
		return lm.SetVisible(id, v.Bool)
	case PropLocked:
		return lm.SetLocked(id, v.Bool)
	case PropOpacity:
		return lm.SetOpacity(id, v.Float)
	case PropBlendMode:
		return lm.SetBlendMode(id, raster.BlendMode(v.Str))
	case PropName:
		return lm.Rename(id, v.Str)
	}
	return false
}
