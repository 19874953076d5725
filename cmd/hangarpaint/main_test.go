/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/config"
	"github.com/petianskiy/gundamaxing-sub000/internal/crash"
	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
)

const demoScript = `
name: demo
width: 48
height: 32
background: "#ffffff"
ops:
  - shape: {kind: rect, from: [4, 4], to: [20, 20], color: "#ff0000", fill: true}
  - stroke:
      color: "#0000ff"
      size: 6
      points: [[24, 16], [30, 16], [40, 18]]
`

func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.Dir = t.TempDir()
	out := &bytes.Buffer{}
	return &app{
		cfg:   cfg,
		log:   applog.Discard(),
		out:   out,
		saver: &crash.StoreAutosaver{},
	}, out
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestUnknownCommandIsUsage(t *testing.T) {
	a, _ := testApp(t)
	for _, args := range [][]string{nil, {"frobnicate"}, {"store"}, {"replay", "only-one"}} {
		if err := a.run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Fatalf("%v: expected usage error, got %v", args, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	a, out := testApp(t)
	if err := a.run(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "hangarpaint ") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestReplaySaveListExport(t *testing.T) {
	a, out := testApp(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "demo.yaml", demoScript)
	target := filepath.Join(dir, "demo.png")
	ctx := context.Background()

	if err := a.run(ctx, []string{"replay", "-save", script, target}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if a.saver.DrawingID == "" || a.saver.Canvas == nil {
		t.Fatalf("autosaver not wired: %+v", a.saver)
	}

	f, err := os.Open(target)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	img, err := png.Decode(f)
	_ = f.Close()
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Fatalf("export size %v", b)
	}
	// background is white, the rect is red
	if r, g, b, _ := img.At(1, 1).RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Fatalf("background not applied")
	}
	if r, g, _, _ := img.At(10, 10).RGBA(); r>>8 != 255 || g>>8 != 0 {
		t.Fatalf("rect not painted")
	}

	out.Reset()
	if err := a.run(ctx, []string{"store", "list"}); err != nil {
		t.Fatalf("store list: %v", err)
	}
	if !strings.Contains(out.String(), a.saver.DrawingID) || !strings.Contains(out.String(), "demo") {
		t.Fatalf("store list missing drawing: %q", out.String())
	}

	pdf := filepath.Join(dir, "again.pdf")
	if err := a.run(ctx, []string{"store", "export", a.saver.DrawingID, pdf}); err != nil {
		t.Fatalf("store export: %v", err)
	}
	data, err := os.ReadFile(pdf)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("pdf export missing or invalid: %v", err)
	}

	if err := a.run(ctx, []string{"store", "delete", a.saver.DrawingID}); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	if err := a.run(ctx, []string{"store", "delete", a.saver.DrawingID}); err == nil {
		t.Fatalf("second delete should fail")
	}
}

func TestReplayRejectsBadScript(t *testing.T) {
	a, _ := testApp(t)
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.yaml", "ops:\n  - fill: {x: 1, y: 1, color: nope}\n")
	err := a.run(context.Background(), []string{"replay", script, filepath.Join(dir, "x.png")})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected a line-numbered parse error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "x.png")); !os.IsNotExist(statErr) {
		t.Fatalf("output written for a bad script")
	}
}

func TestValidatePresets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", "name: soft\nshape: circle\nhardness: 0.2\nspacing: 10\nflow: 1\n")
	writeFile(t, dir, "bad.yaml", "name: broken\nshape: hexagon\n")
	var buf bytes.Buffer
	err := validatePresets(&buf, dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected one invalid file, got %v", err)
	}
	if !strings.Contains(buf.String(), "FAIL bad.yaml") || !strings.Contains(buf.String(), "ok   good.yaml") {
		t.Fatalf("unexpected report %q", buf.String())
	}
}

func TestPresetsListIncludesBuiltins(t *testing.T) {
	a, out := testApp(t)
	if err := a.run(context.Background(), []string{"presets", "list"}); err != nil {
		t.Fatalf("presets list: %v", err)
	}
	for _, name := range []string{"round", "pencil", "eraser"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("missing %s in %q", name, out.String())
		}
	}
}
