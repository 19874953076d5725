/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas is the entry point for a host editor. A Canvas owns the
// layer stack, the display surface, the undo history and the tools, and
// serializes every mutation behind one mutex so that exactly one operation
// touches a layer at a time and undo snapshots are taken atomically with
// the edit they guard.
package canvas

import (
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/petianskiy/gundamaxing-sub000/internal/brush"
	"github.com/petianskiy/gundamaxing-sub000/internal/compositor"
	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
	"github.com/petianskiy/gundamaxing-sub000/internal/tools"
	"github.com/petianskiy/gundamaxing-sub000/internal/undo"
)

type Config struct {
	Width, Height int
	UndoLimit     int
	UndoMaxBytes  int
	// Resources may be shared between canvases; nil creates a private set.
	Resources *brush.RenderResources
	Logger    *slog.Logger
}

type Canvas struct {
	mu   sync.Mutex
	log  *slog.Logger
	lm   *layers.Manager
	comp *compositor.Compositor
	hist *undo.Manager

	brush     *brush.Engine
	brushOpts brush.StrokeOptions

	// stroke in progress
	strokeLayer  string
	strokeBefore *image.RGBA

	shape      *tools.ShapeTool
	selTool    *tools.SelectionTool
	selection  *tools.Selection
	transform  tools.TransformTool
	xformLayer string

	pending paint.DirtyRect
	preview image.Rectangle
}

// New creates a canvas with one empty layer and the default round brush.
func New(cfg Config) *Canvas {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	res := cfg.Resources
	if res == nil {
		res = brush.NewRenderResources(brush.ResourceConfig{})
	}
	return &Canvas{
		log:   log,
		lm:    layers.NewManager(cfg.Width, cfg.Height),
		comp:  compositor.New(cfg.Width, cfg.Height),
		hist:  undo.NewManager(undo.Config{MaxDepth: cfg.UndoLimit, MaxBytes: cfg.UndoMaxBytes}),
		brush: brush.NewEngine(res, log),
		brushOpts: brush.StrokeOptions{
			Preset:  paint.DefaultPreset(),
			Color:   color.NRGBA{0, 0, 0, 255},
			Size:    12,
			Opacity: 1,
		},
		shape: tools.NewShapeTool(tools.ShapeOptions{}),
	}
}

func (c *Canvas) Bounds() image.Rectangle { return c.lm.Bounds() }

// SetBrush replaces the brush used by the next stroke.
func (c *Canvas) SetBrush(opts brush.StrokeOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brushOpts = opts
}

func (c *Canvas) Brush() brush.StrokeOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brushOpts
}

func (c *Canvas) touch(r image.Rectangle) {
	if !r.Empty() {
		c.pending = c.pending.Union(paint.FromImage(r))
	}
}

// busy reports whether a gesture owns the active layer.
func (c *Canvas) busy() bool {
	return c.brush.Active() || c.transform.Active() || c.shape.Active()
}

// editable returns the active layer if it may be painted on.
func (c *Canvas) editable() (*layers.Layer, bool) {
	l := c.lm.Active()
	if l == nil || l.Locked {
		return nil, false
	}
	return l, true
}

// PointerDown starts a brush stroke on the active layer. It returns false
// when the layer is locked or another gesture is in progress.
func (c *Canvas) PointerDown(p paint.StrokePoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return false
	}
	l, ok := c.editable()
	if !ok {
		return false
	}
	c.strokeLayer = l.ID
	c.strokeBefore = raster.Clone(l.Raster)
	r := c.brush.BeginStroke(l.Raster, p, c.brushOpts)
	c.pending = c.pending.Union(r)
	return true
}

func (c *Canvas) PointerMove(p paint.StrokePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.brush.Active() {
		return
	}
	l, ok := c.lm.Get(c.strokeLayer)
	if !ok {
		return
	}
	c.pending = c.pending.Union(c.brush.StrokeTo(l.Raster, p))
}

// PointerUp ends the stroke and records it for undo.
func (c *Canvas) PointerUp() brush.StrokeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endStrokeLocked()
}

// PointerLeave ends the stroke exactly like PointerUp.
func (c *Canvas) PointerLeave() brush.StrokeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endStrokeLocked()
}

func (c *Canvas) endStrokeLocked() brush.StrokeResult {
	if !c.brush.Active() {
		return brush.StrokeResult{}
	}
	res := c.brush.EndStroke()
	if res.Dabs > 0 {
		c.hist.Push(&undo.StrokeAction{LayerID: c.strokeLayer, Before: c.strokeBefore})
	}
	c.strokeLayer, c.strokeBefore = "", nil
	return res
}

// Fill flood-fills the active layer from (x, y), gated by the current
// selection if there is one.
func (c *Canvas) Fill(x, y int, col color.NRGBA, tolerance float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return false
	}
	l, ok := c.editable()
	if !ok {
		return false
	}
	before := raster.Clone(l.Raster)
	opts := tools.FillOptions{Tolerance: tolerance}
	if c.selection != nil {
		opts.Selection = c.selection.Mask
	}
	r, changed := tools.FloodFill(l.Raster, x, y, col, opts)
	if !changed {
		return false
	}
	c.hist.Push(&undo.StrokeAction{LayerID: l.ID, Before: before})
	c.touch(r)
	return true
}

// BeginShape starts a shape drag at (x, y).
func (c *Canvas) BeginShape(opts tools.ShapeOptions, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return false
	}
	if _, ok := c.editable(); !ok {
		return false
	}
	c.shape.SetOptions(opts)
	c.shape.Begin(x, y)
	return true
}

func (c *Canvas) UpdateShape(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shape.Update(x, y)
}

// CommitShape draws the shape into the active layer and records it.
func (c *Canvas) CommitShape() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.shape.Active() {
		return false
	}
	l, ok := c.editable()
	if !ok {
		c.shape.Cancel()
		return false
	}
	before := raster.Clone(l.Raster)
	r := c.shape.Commit(l.Raster)
	if r.Empty() {
		return false
	}
	c.hist.Push(&undo.StrokeAction{LayerID: l.ID, Before: before})
	c.touch(r)
	return true
}

func (c *Canvas) CancelShape() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shape.Cancel()
}

func (c *Canvas) BeginSelection(mode tools.SelectionMode, feather int, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selTool = tools.NewSelectionTool(mode, feather)
	c.selTool.Begin(x, y)
}

func (c *Canvas) UpdateSelection(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selTool != nil {
		c.selTool.Update(x, y)
	}
}

// EndSelection finishes the gesture and makes the result the current
// selection. A gesture that encloses nothing clears the selection.
func (c *Canvas) EndSelection() *tools.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selTool == nil {
		return c.selection
	}
	c.selection = c.selTool.End(c.lm.Bounds())
	c.selTool = nil
	return c.selection
}

func (c *Canvas) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = nil
}

func (c *Canvas) Selection() *tools.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// BeginTransform cuts the selection (or the whole layer content) out of
// the active layer into a floating transform.
func (c *Canvas) BeginTransform() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy() {
		return false
	}
	l, ok := c.editable()
	if !ok || !c.transform.Begin(l.Raster, c.selection) {
		return false
	}
	c.xformLayer = l.ID
	c.touch(c.transform.Source())
	return true
}

func (c *Canvas) TransformHitTest(x, y float64) tools.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform.HitTest(x, y)
}

func (c *Canvas) StartTransformDrag(h tools.Handle, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform.StartDrag(h, x, y)
}

func (c *Canvas) UpdateTransform(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform.Update(x, y)
}

func (c *Canvas) EndTransformDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform.EndDrag()
}

// CommitTransform draws the floating pixels back into their layer and
// records the whole cut-and-place as one undoable edit.
func (c *Canvas) CommitTransform() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.transform.Active() {
		return false
	}
	l, ok := c.lm.Get(c.xformLayer)
	if !ok {
		c.transform = tools.TransformTool{}
		return false
	}
	before := c.transform.Before()
	c.touch(c.transform.Commit(l.Raster))
	c.hist.Push(&undo.StrokeAction{LayerID: l.ID, Before: before})
	c.selection = nil
	c.xformLayer = ""
	return true
}

// CancelTransform restores the layer to its pre-cut pixels.
func (c *Canvas) CancelTransform() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTransformLocked()
}

func (c *Canvas) cancelTransformLocked() {
	if !c.transform.Active() {
		return
	}
	if l, ok := c.lm.Get(c.xformLayer); ok {
		c.touch(c.transform.Cancel(l.Raster))
	}
	c.transform = tools.TransformTool{}
	c.xformLayer = ""
}

// abortGesturesLocked ends whatever gesture is open before a structural
// change or history step. An open stroke is kept as an edit.
func (c *Canvas) abortGesturesLocked() {
	c.endStrokeLocked()
	c.cancelTransformLocked()
	c.shape.Cancel()
}

func (c *Canvas) CanUndo() bool { return c.hist.CanUndo() }

func (c *Canvas) CanRedo() bool { return c.hist.CanRedo() }

// Undo reverts the newest edit. Every history step redraws the full display.
func (c *Canvas) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortGesturesLocked()
	res := c.hist.Undo(c.lm)
	if res.OK {
		c.comp.MarkDirty()
	}
	return res.OK
}

// Redo re-applies the newest undone edit. Strokes cannot be redone and
// report false.
func (c *Canvas) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abortGesturesLocked()
	res := c.hist.Redo(c.lm)
	if res.OK {
		c.comp.MarkDirty()
	}
	return res.OK
}

// Render brings the display up to date and returns it together with the
// redrawn region. Shape and transform previews are drawn on top.
func (c *Canvas) Render() (*image.RGBA, image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked()
}

// Display is Render without the region.
func (c *Canvas) Display() *image.RGBA {
	img, _ := c.Render()
	return img
}

func (c *Canvas) renderLocked() (*image.RGBA, image.Rectangle) {
	region := c.pending
	if !c.preview.Empty() {
		region = region.Union(paint.FromImage(c.preview))
	}
	var r image.Rectangle
	if c.comp.NeedsFull() || !region.Empty() {
		r = c.comp.Composite(c.lm.Layers(), region)
	}
	c.pending = paint.DirtyRect{}
	c.preview = image.Rectangle{}
	disp := c.comp.Display()
	if c.shape.Active() {
		c.preview = c.shape.Preview(disp)
	}
	if c.transform.Active() {
		c.preview = c.preview.Union(c.transform.Preview(disp))
	}
	return disp, r.Union(c.preview)
}

// Flatten composites every visible layer into a new image.
func (c *Canvas) Flatten() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.comp.Flatten(c.lm.Layers())
}
