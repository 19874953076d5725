/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package replay

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/petianskiy/gundamaxing-sub000/internal/brush"
	"github.com/petianskiy/gundamaxing-sub000/internal/canvas"
	"github.com/petianskiy/gundamaxing-sub000/internal/layers"
	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/preset"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
	"github.com/petianskiy/gundamaxing-sub000/internal/tools"
)

// sampleInterval is the synthetic time between stroke points, in ms.
const sampleInterval = 8

// Stats summarizes a replay.
type Stats struct {
	Ops     int
	Strokes int
	Dabs    int
	// Skipped counts ops the canvas refused, e.g. painting on a locked layer.
	Skipped int
}

// Runner plays scripts into a canvas. Ops the canvas refuses are skipped and
// logged; malformed references (unknown preset or layer) stop the run.
type Runner struct {
	Canvas  *canvas.Canvas
	Presets *preset.Library
	Logger  *slog.Logger
	// DefaultStabilization applies to strokes that do not set one.
	DefaultStabilization float64
	// AfterOp, when set, is called after every op.
	AfterOp func(i int, op Op)
}

// Run plays every op in order, stopping early when ctx is done.
func (r *Runner) Run(ctx context.Context, s Script) (Stats, error) {
	log := r.Logger
	if log == nil {
		log = applog.WithComponent("replay")
	}
	log = applog.WithOperation(log, "run")
	lib := r.Presets
	if lib == nil {
		lib = preset.NewLibrary()
	}
	var st Stats
	for i, op := range s.Ops {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		ok, err := r.apply(lib, op, &st)
		if err != nil {
			return st, Error{Line: op.Line, Msg: err.Error()}
		}
		st.Ops++
		if !ok {
			st.Skipped++
			log.Warn("op skipped", slog.Int("line", op.Line), slog.String("kind", op.kind()))
		}
		if r.AfterOp != nil {
			r.AfterOp(i, op)
		}
	}
	log.Debug("replay finished", slog.Int("ops", st.Ops), slog.Int("strokes", st.Strokes),
		slog.Int("dabs", st.Dabs), slog.Int("skipped", st.Skipped))
	return st, nil
}

func (op Op) kind() string {
	switch {
	case op.Stroke != nil:
		return "stroke"
	case op.Fill != nil:
		return "fill"
	case op.Shape != nil:
		return "shape"
	case op.Layer != nil:
		return "layer." + op.Layer.Op
	case op.Select != nil:
		return "select"
	case op.Move != nil:
		return "move"
	case op.Undo > 0:
		return "undo"
	case op.Redo > 0:
		return "redo"
	default:
		return "clear_selection"
	}
}

func (r *Runner) apply(lib *preset.Library, op Op, st *Stats) (bool, error) {
	c := r.Canvas
	switch {
	case op.Stroke != nil:
		return r.stroke(lib, op.Stroke, st)
	case op.Fill != nil:
		f := op.Fill
		return c.Fill(f.X, f.Y, colorOr(f.Color, color.NRGBA{A: 255}), f.Tolerance), nil
	case op.Shape != nil:
		sh := op.Shape
		opts := tools.ShapeOptions{
			Kind: tools.ShapeKind(sh.Kind), Color: colorOr(sh.Color, color.NRGBA{A: 255}),
			StrokeWidth: sh.StrokeWidth, Fill: sh.Fill, Opacity: sh.Opacity,
			Sides: sh.Sides, InnerRatio: sh.InnerRatio,
		}
		if !c.BeginShape(opts, sh.From[0], sh.From[1]) {
			return false, nil
		}
		c.UpdateShape(sh.To[0], sh.To[1])
		return c.CommitShape(), nil
	case op.Layer != nil:
		return r.layer(op.Layer)
	case op.Select != nil:
		sel := op.Select
		mode := tools.SelectionMode(sel.Mode)
		if mode == "" {
			mode = tools.SelectRect
		}
		if mode == tools.SelectFreehand {
			c.BeginSelection(mode, sel.Feather, sel.Points[0][0], sel.Points[0][1])
			for _, p := range sel.Points[1:] {
				c.UpdateSelection(p[0], p[1])
			}
		} else {
			c.BeginSelection(mode, sel.Feather, sel.From[0], sel.From[1])
			c.UpdateSelection(sel.To[0], sel.To[1])
		}
		return c.EndSelection() != nil, nil
	case op.Move != nil:
		return r.move(op.Move)
	case op.Undo > 0:
		ok := true
		for range op.Undo {
			ok = c.Undo() && ok
		}
		return ok, nil
	case op.Redo > 0:
		ok := true
		for range op.Redo {
			ok = c.Redo() && ok
		}
		return ok, nil
	default:
		c.ClearSelection()
		return true, nil
	}
}

func (r *Runner) stroke(lib *preset.Library, s *StrokeOp, st *Stats) (bool, error) {
	name := s.Preset
	if name == "" {
		name = "round"
	}
	p, ok := lib.Get(name)
	if !ok {
		return false, fmt.Errorf("unknown preset %q", name)
	}
	opts := brush.StrokeOptions{
		Preset:        p,
		Color:         colorOr(s.Color, color.NRGBA{A: 255}),
		Size:          s.Size,
		Opacity:       s.Opacity,
		Stabilization: s.Stabilization,
	}
	if opts.Size <= 0 {
		opts.Size = 12
	}
	if opts.Opacity <= 0 {
		opts.Opacity = 1
	}
	if opts.Stabilization == 0 {
		opts.Stabilization = r.DefaultStabilization
	}
	c := r.Canvas
	c.SetBrush(opts)
	if !c.PointerDown(samplePoint(s.Points[0], 0)) {
		return false, nil
	}
	for i, pt := range s.Points[1:] {
		c.PointerMove(samplePoint(pt, float64((i+1)*sampleInterval)))
	}
	var res brush.StrokeResult
	if s.Leave {
		res = c.PointerLeave()
	} else {
		res = c.PointerUp()
	}
	st.Strokes++
	st.Dabs += res.Dabs
	return true, nil
}

func samplePoint(p Point, ts float64) paint.StrokePoint {
	sp := paint.StrokePoint{X: p[0], Y: p[1], Pressure: 1, Timestamp: ts}
	if len(p) > 2 {
		sp.Pressure = p[2]
	}
	return sp
}

// resolveLayer maps a layer name to its id, searching top-down; "" is the active layer.
func (r *Runner) resolveLayer(name string) (string, error) {
	if name == "" {
		return r.Canvas.ActiveLayer(), nil
	}
	ls := r.Canvas.Layers()
	for i := len(ls) - 1; i >= 0; i-- {
		if ls[i].Name == name {
			return ls[i].ID, nil
		}
	}
	return "", fmt.Errorf("no layer named %q", name)
}

func (r *Runner) layer(op *LayerOp) (bool, error) {
	c := r.Canvas
	if op.Op == "add" {
		return c.AddLayer(op.Name) != "", nil
	}
	id, err := r.resolveLayer(op.Target)
	if err != nil {
		return false, err
	}
	toggle := func(set func(string, bool) bool, flip func(string) bool) bool {
		if op.On == nil {
			return flip(id)
		}
		return set(id, *op.On)
	}
	switch op.Op {
	case "delete":
		return c.DeleteLayer(id), nil
	case "duplicate":
		_, ok := c.DuplicateLayer(id)
		return ok, nil
	case "merge_down":
		return c.MergeDown(id), nil
	case "move_up":
		return c.MoveLayer(id, layers.Up), nil
	case "move_down":
		return c.MoveLayer(id, layers.Down), nil
	case "clear":
		return c.ClearLayer(id), nil
	case "select":
		return c.SetActiveLayer(id), nil
	case "visible":
		return toggle(c.SetVisible, c.ToggleVisibility), nil
	case "locked":
		return toggle(c.SetLocked, c.ToggleLock), nil
	case "opacity":
		return c.SetOpacity(id, op.Value), nil
	case "blend":
		mode, ok := raster.ParseBlendMode(op.Mode)
		if !ok {
			return false, fmt.Errorf("unknown blend mode %q", op.Mode)
		}
		return c.SetBlendMode(id, mode), nil
	case "rename":
		return c.RenameLayer(id, op.Name), nil
	}
	return false, fmt.Errorf("unknown layer op %q", op.Op)
}

var handles = map[string]tools.Handle{
	"move": tools.HandleMove, "rotate": tools.HandleRotate,
	"top_left": tools.HandleTopLeft, "top": tools.HandleTop, "top_right": tools.HandleTopRight,
	"right": tools.HandleRight, "bottom_right": tools.HandleBottomRight, "bottom": tools.HandleBottom,
	"bottom_left": tools.HandleBottomLeft, "left": tools.HandleLeft,
}

func (r *Runner) move(m *MoveOp) (bool, error) {
	c := r.Canvas
	if !c.BeginTransform() {
		return false, nil
	}
	h := c.TransformHitTest(m.From[0], m.From[1])
	if m.Handle != "" {
		var ok bool
		if h, ok = handles[m.Handle]; !ok {
			c.CancelTransform()
			return false, fmt.Errorf("unknown handle %q", m.Handle)
		}
	}
	if h == tools.HandleNone {
		c.CancelTransform()
		return false, nil
	}
	c.StartTransformDrag(h, m.From[0], m.From[1])
	c.UpdateTransform(m.To[0], m.To[1])
	c.EndTransformDrag()
	if m.Cancel {
		c.CancelTransform()
		return true, nil
	}
	return c.CommitTransform(), nil
}
