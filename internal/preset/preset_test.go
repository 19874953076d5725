/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package preset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
)

func TestBuiltinsAreValid(t *testing.T) {
	for _, p := range Builtins() {
		data, err := Marshal(p.Normalized())
		if err != nil {
			t.Fatalf("marshal %s: %v", p.Name, err)
		}
		if err := Validate(data); err != nil {
			t.Fatalf("builtin %s invalid: %v", p.Name, err)
		}
	}
	lib := NewLibrary()
	if got := lib.Names(); len(got) != 5 || got[0] != "airbrush" || got[4] != "round" {
		t.Fatalf("names %v", got)
	}
	if e, ok := lib.Get("eraser"); !ok || !e.Eraser {
		t.Fatalf("eraser preset missing")
	}
}

func TestParseYAMLAndJSON(t *testing.T) {
	y := []byte("name: ink\nshape: square\nhardness: 0.5\nspacing: 12\nsize_dynamics:\n  pressure_min: 0.1\n  pressure_max: 1\n")
	p, err := Parse(y)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if p.Name != "ink" || p.Shape != paint.ShapeSquare || p.SizeDynamics.PressureMin != 0.1 {
		t.Fatalf("decoded %+v", p)
	}
	j := []byte(`{"name": "wash", "flow": 0.2, "grain": {"intensity": 0.5, "movement": "rolling"}}`)
	p, err = Parse(j)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if p.Grain.Movement != paint.GrainRolling || p.Flow != 0.2 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing name":  "shape: circle\n",
		"bad shape":     "name: x\nshape: hexagon\n",
		"out of range":  "name: x\nhardness: 2\n",
		"unknown field": "name: x\ncolour: red\n",
		"bad blend":     "name: x\nblend_mode: dodge\n",
		"not a map":     "- a\n- b\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalidPreset) {
			t.Errorf("%s: expected ErrInvalidPreset, got %v", name, err)
		}
	}
}

func TestLoadDirSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("good.yaml", "name: good\nhardness: 0.3\n")
	write("bad.yml", "name: bad\nshape: blob\n")
	write("notes.txt", "ignored")

	lib := NewLibrary()
	n, err := lib.LoadDir(dir)
	if n != 1 || !errors.Is(err, ErrInvalidPreset) {
		t.Fatalf("loaded %d err=%v", n, err)
	}
	if p, ok := lib.Get("good"); !ok || p.Hardness != 0.3 {
		t.Fatalf("good preset not loaded")
	}
	res, err := ValidateDir(dir)
	if err != nil || len(res) != 2 || res["good.yaml"] != nil || res["bad.yml"] == nil {
		t.Fatalf("validate dir: %v %v", res, err)
	}
}

func TestPutValidates(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Put(paint.BrushPreset{}); !errors.Is(err, ErrInvalidPreset) {
		t.Fatalf("nameless preset accepted: %v", err)
	}
	if err := lib.Put(paint.BrushPreset{Name: "mine", Spacing: 40}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if p, _ := lib.Get("mine"); p.Spacing != 40 || p.Shape != paint.ShapeCircle {
		t.Fatalf("stored %+v", p)
	}
}
