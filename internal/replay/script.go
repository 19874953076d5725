/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package replay reads YAML pointer scripts and plays them into a canvas.
//
// A script looks like:
//
//	name: demo
//	width: 256
//	height: 256
//	background: "#ffffff"
//	ops:
//	  - stroke: {preset: pencil, color: "#d02020", size: 8, points: [[10, 10], [120, 90, 0.4]]}
//	  - fill: {x: 5, y: 5, color: "#20a0ff", tolerance: 24}
//	  - shape: {kind: star, from: [40, 40], to: [100, 100], color: "#000000", fill: true}
//	  - layer: {op: add, name: ink}
//	  - select: {mode: ellipse, from: [0, 0], to: [64, 64], feather: 2}
//	  - move: {from: [32, 32], to: [80, 40]}
//	  - undo: 1
package replay

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is a parsed replay file.
type Script struct {
	Name       string `yaml:"name"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`
	Ops        []Op   `yaml:"-"`
}

// Op is one step. Exactly one field is set.
type Op struct {
	Line           int       `yaml:"-"`
	Stroke         *StrokeOp `yaml:"stroke"`
	Fill           *FillOp   `yaml:"fill"`
	Shape          *ShapeOp  `yaml:"shape"`
	Layer          *LayerOp  `yaml:"layer"`
	Select         *SelectOp `yaml:"select"`
	Move           *MoveOp   `yaml:"move"`
	Undo           int       `yaml:"undo"`
	Redo           int       `yaml:"redo"`
	ClearSelection bool      `yaml:"clear_selection"`
}

// Point is [x, y] or [x, y, pressure].
type Point []float64

type StrokeOp struct {
	Preset        string  `yaml:"preset"`
	Color         string  `yaml:"color"`
	Size          float64 `yaml:"size"`
	Opacity       float64 `yaml:"opacity"`
	Stabilization float64 `yaml:"stabilization"`
	Points        []Point `yaml:"points"`
	// Leave ends the stroke as if the pointer left the canvas.
	Leave bool `yaml:"leave"`
}

type FillOp struct {
	X         int     `yaml:"x"`
	Y         int     `yaml:"y"`
	Color     string  `yaml:"color"`
	Tolerance float64 `yaml:"tolerance"`
}

type ShapeOp struct {
	Kind        string  `yaml:"kind"`
	From        Point   `yaml:"from"`
	To          Point   `yaml:"to"`
	Color       string  `yaml:"color"`
	StrokeWidth float64 `yaml:"width"`
	Fill        bool    `yaml:"fill"`
	Opacity     float64 `yaml:"opacity"`
	Sides       int     `yaml:"sides"`
	InnerRatio  float64 `yaml:"inner_ratio"`
}

// LayerOp targets the active layer unless Target names another one.
type LayerOp struct {
	Op     string  `yaml:"op"`
	Name   string  `yaml:"name"`
	Target string  `yaml:"target"`
	Value  float64 `yaml:"value"`
	Mode   string  `yaml:"mode"`
	On     *bool   `yaml:"on"`
}

type SelectOp struct {
	Mode    string  `yaml:"mode"`
	From    Point   `yaml:"from"`
	To      Point   `yaml:"to"`
	Points  []Point `yaml:"points"`
	Feather int     `yaml:"feather"`
}

// MoveOp lifts the selection (or the whole layer) and drags it from one
// point to another, optionally resizing by dragging a handle.
type MoveOp struct {
	From   Point  `yaml:"from"`
	To     Point  `yaml:"to"`
	Handle string `yaml:"handle"`
	Cancel bool   `yaml:"cancel"`
}

// Error carries the script line of a bad op.
type Error struct {
	Line int
	Msg  string
}

func (e Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

var layerOps = map[string]bool{
	"add": true, "delete": true, "duplicate": true, "merge_down": true, "move_up": true, "move_down": true,
	"clear": true, "select": true, "visible": true, "locked": true, "opacity": true, "blend": true, "rename": true,
}

// Parse decodes and checks a script. Size defaults to 512x512.
func Parse(data []byte) (Script, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	if len(root.Content) == 0 {
		return Script{}, fmt.Errorf("parse script: empty document")
	}
	doc := root.Content[0]
	var s Script
	if err := doc.Decode(&s); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	if s.Width == 0 {
		s.Width = 512
	}
	if s.Height == 0 {
		s.Height = 512
	}
	if s.Width < 0 || s.Height < 0 || s.Width > 16384 || s.Height > 16384 {
		return Script{}, fmt.Errorf("parse script: invalid size %dx%d", s.Width, s.Height)
	}
	if s.Background != "" {
		if _, err := ParseColor(s.Background); err != nil {
			return Script{}, fmt.Errorf("parse script: background: %w", err)
		}
	}

	var errs []string
	ops := mappingValue(doc, "ops")
	if ops != nil {
		if ops.Kind != yaml.SequenceNode {
			return Script{}, Error{Line: ops.Line, Msg: "ops must be a list"}
		}
		for _, n := range ops.Content {
			var op Op
			if err := n.Decode(&op); err != nil {
				errs = append(errs, Error{Line: n.Line, Msg: err.Error()}.Error())
				continue
			}
			op.Line = n.Line
			if err := op.check(); err != nil {
				errs = append(errs, Error{Line: n.Line, Msg: err.Error()}.Error())
				continue
			}
			s.Ops = append(s.Ops, op)
		}
	}
	if len(errs) > 0 {
		return Script{}, fmt.Errorf("parse script: %s", strings.Join(errs, "; "))
	}
	return s, nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func (op Op) kinds() int {
	n := 0
	for _, set := range []bool{op.Stroke != nil, op.Fill != nil, op.Shape != nil, op.Layer != nil,
		op.Select != nil, op.Move != nil, op.Undo > 0, op.Redo > 0, op.ClearSelection} {
		if set {
			n++
		}
	}
	return n
}

func (op Op) check() error {
	if op.kinds() != 1 {
		return fmt.Errorf("each op needs exactly one action")
	}
	checkColor := func(c string) error {
		if c == "" {
			return nil
		}
		_, err := ParseColor(c)
		return err
	}
	switch {
	case op.Stroke != nil:
		if len(op.Stroke.Points) == 0 {
			return fmt.Errorf("stroke needs points")
		}
		for _, p := range op.Stroke.Points {
			if len(p) < 2 || len(p) > 3 {
				return fmt.Errorf("stroke point must be [x, y] or [x, y, pressure]")
			}
		}
		return checkColor(op.Stroke.Color)
	case op.Fill != nil:
		return checkColor(op.Fill.Color)
	case op.Shape != nil:
		if len(op.Shape.From) != 2 || len(op.Shape.To) != 2 {
			return fmt.Errorf("shape needs from and to as [x, y]")
		}
		return checkColor(op.Shape.Color)
	case op.Layer != nil:
		if !layerOps[op.Layer.Op] {
			return fmt.Errorf("unknown layer op %q", op.Layer.Op)
		}
	case op.Select != nil:
		if op.Select.Mode == "freehand" {
			if len(op.Select.Points) < 3 {
				return fmt.Errorf("freehand selection needs at least 3 points")
			}
		} else if len(op.Select.From) != 2 || len(op.Select.To) != 2 {
			return fmt.Errorf("selection needs from and to as [x, y]")
		}
	case op.Move != nil:
		if len(op.Move.From) != 2 || len(op.Move.To) != 2 {
			return fmt.Errorf("move needs from and to as [x, y]")
		}
	}
	return nil
}
