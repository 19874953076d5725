/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

func sampleCanvas() *image.RGBA {
	img := raster.New(40, 30)
	raster.Fill(img, image.Rect(5, 5, 20, 20), color.NRGBA{200, 0, 0, 255})
	return img
}

func TestWritePNGRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sampleCanvas()); err != nil {
		t.Fatalf("write: %v", err)
	}
	dec, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Fatalf("bounds %v", dec.Bounds())
	}
	if _, _, _, a := dec.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("background should stay transparent")
	}
	if r, _, _, a := dec.At(10, 10).RGBA(); r>>8 != 200 || a>>8 != 255 {
		t.Fatalf("painted pixel lost: r=%d a=%d", r>>8, a>>8)
	}
}

func TestExportPNGLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "out.png")
	if err := ExportPNG(out, sampleCanvas()); err != nil {
		t.Fatalf("export: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 || entries[0].Name() != "out.png" {
		t.Fatalf("unexpected files: %v", entries)
	}
}

func TestOnBackground(t *testing.T) {
	out := OnBackground(sampleCanvas(), color.White)
	if got := out.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("background pixel %+v", got)
	}
	if got := out.RGBAAt(10, 10); got != (color.RGBA{200, 0, 0, 255}) {
		t.Fatalf("painted pixel %+v", got)
	}
}

func TestExportPDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "drawing.pdf")
	if err := ExportPDF(out, sampleCanvas(), PDFOptions{Title: "Sketch", DPI: 72, Background: color.White}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "%PDF-") {
		t.Fatalf("not a pdf: %q", b[:min(len(b), 8)])
	}
}

func TestBuildPDFPageGeometry(t *testing.T) {
	pages := []*image.RGBA{sampleCanvas(), raster.New(72, 144)}
	pdf, err := buildPDF(pages, PDFOptions{DPI: 144})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n := pdf.PageCount(); n != 2 {
		t.Fatalf("pages = %d", n)
	}
	// 72x144 px at 144 dpi is 36x72 pt
	wd, ht, _ := pdf.PageSize(2)
	if wd != 36 || ht != 72 {
		t.Fatalf("page 2 size %vx%v", wd, ht)
	}
}

func TestBuildPDFRejectsEmpty(t *testing.T) {
	if _, err := buildPDF(nil, PDFOptions{}); err == nil {
		t.Fatalf("expected error for no pages")
	}
}
