/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a flattened canvas to PNG and PDF files.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

// WritePNG encodes img as PNG. Premultiplied surfaces are un-premultiplied by the encoder.
func WritePNG(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	if err := png.Encode(bw, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush png: %w", err)
	}
	return nil
}

// ExportPNG writes img to path. The file is written next to its final
// location and renamed into place so readers never see a partial file.
func ExportPNG(path string, img image.Image) error {
	return writeAtomic(path, func(w io.Writer) error { return WritePNG(w, img) })
}

// OnBackground returns an opaque copy of img composited over bg.
func OnBackground(img *image.RGBA, bg color.Color) *image.RGBA {
	r := img.Bounds()
	out := raster.New(r.Dx(), r.Dy())
	raster.Fill(out, out.Bounds(), bg)
	raster.Draw(out, out.Bounds(), img, r.Min, raster.Over)
	return out
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
