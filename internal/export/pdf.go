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
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/petianskiy/gundamaxing-sub000/internal/version"
)

// PDFOptions controls PDF export. Pages are sized so that one image pixel
// maps to 72/DPI points.
type PDFOptions struct {
	Title  string
	Author string
	// DPI defaults to 150.
	DPI float64
	// Background, when set, is painted behind each image; otherwise
	// transparent pixels stay transparent (PNG soft mask).
	Background color.Color
}

const defaultDPI = 150

// ExportPDF writes img as a single page PDF.
func ExportPDF(path string, img *image.RGBA, opt PDFOptions) error {
	return ExportPDFPages(path, []*image.RGBA{img}, opt)
}

// ExportPDFPages writes one page per image, e.g. one per layer.
func ExportPDFPages(path string, pages []*image.RGBA, opt PDFOptions) error {
	pdf, err := buildPDF(pages, opt)
	if err != nil {
		return err
	}
	return writeAtomic(path, func(w io.Writer) error {
		if err := pdf.Output(w); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		return nil
	})
}

func buildPDF(pages []*image.RGBA, opt PDFOptions) (*gofpdf.Fpdf, error) {
	if len(pages) == 0 {
		return nil, errors.New("pdf export: no pages")
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	scale := 72 / dpi
	first := pages[0].Bounds()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(first.Dx()) * scale, Ht: float64(first.Dy()) * scale},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	author := opt.Author
	if author == "" {
		author = "hangarpaint"
	}
	pdf.SetAuthor(author, true)
	pdf.SetCreator(version.String(), true)

	for i, img := range pages {
		r := img.Bounds()
		if r.Empty() {
			return nil, fmt.Errorf("pdf export: page %d is empty", i+1)
		}
		wd, ht := float64(r.Dx())*scale, float64(r.Dy())*scale
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: wd, Ht: ht})
		src := img
		if opt.Background != nil {
			src = OnBackground(img, opt.Background)
		}
		var buf bytes.Buffer
		if err := WritePNG(&buf, src); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
		pdf.ImageOptions(name, 0, 0, wd, ht, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i+1, err)
		}
	}
	return pdf, nil
}
