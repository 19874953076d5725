/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grain

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

type fakeLoader struct {
	calls atomic.Int32
	gate  chan struct{}
	fail  map[string]bool
	gray  uint8
}

func (f *fakeLoader) Load(ctx context.Context, url string) (image.Image, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[url] {
		return nil, errors.New("boom")
	}
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = f.gray
	}
	return img, nil
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	fl := &fakeLoader{gate: make(chan struct{}), gray: 100}
	e := NewEngine(Config{Loader: fl})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Load(context.Background(), "paper"); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	close(fl.gate)
	wg.Wait()
	if n := fl.calls.Load(); n < 1 || n > 8 {
		t.Fatalf("unexpected call count %d", n)
	}
	before := fl.calls.Load()
	if _, err := e.Load(context.Background(), "paper"); err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if fl.calls.Load() != before {
		t.Fatalf("cached texture was fetched again")
	}
}

func TestFailedLoadFallsBackWithoutRetry(t *testing.T) {
	fl := &fakeLoader{fail: map[string]bool{"bad": true}}
	e := NewEngine(Config{Loader: fl})
	if got := e.Texture("bad"); got != e.procedural {
		t.Fatalf("expected procedural fallback while loading")
	}
	e.Wait()
	if !e.Failed("bad") {
		t.Fatalf("failure not recorded")
	}
	e.Prefetch("bad")
	e.Texture("bad")
	e.Wait()
	if n := fl.calls.Load(); n != 1 {
		t.Fatalf("failed url fetched %d times", n)
	}
	if _, ok := e.GetSync("bad"); ok {
		t.Fatalf("failed url must not be cached")
	}
}

func TestTextureCacheEvictsLRU(t *testing.T) {
	fl := &fakeLoader{gray: 10}
	e := NewEngine(Config{Loader: fl, Capacity: 2})
	ctx := context.Background()
	for _, u := range []string{"a", "b"} {
		if _, err := e.Load(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	e.GetSync("a")
	if _, err := e.Load(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.GetSync("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := e.GetSync("a"); !ok {
		t.Fatalf("a should still be cached")
	}
}

func TestNoLoaderUsesProcedural(t *testing.T) {
	e := NewEngine(Config{})
	if _, err := e.Load(context.Background(), "x"); !errors.Is(err, ErrNoLoader) {
		t.Fatalf("err=%v", err)
	}
	if tex, ok := e.GetSync(""); !ok || tex.Rect.Dx() != ProceduralSize {
		t.Fatalf("empty url should resolve to procedural tile")
	}
}

func TestProceduralIsDeterministicAndVaried(t *testing.T) {
	a, b := Procedural(), Procedural()
	if !raster.Equal(a, b) {
		t.Fatalf("procedural tile not deterministic")
	}
	seen := map[uint8]bool{}
	for i := 0; i < len(a.Pix); i += 4 {
		seen[a.Pix[i]] = true
	}
	if len(seen) < 16 {
		t.Fatalf("noise too flat: %d distinct values", len(seen))
	}
}

func whiteDab(n int) *image.RGBA {
	d := raster.New(n, n)
	raster.Fill(d, d.Bounds(), color.NRGBA{255, 255, 255, 255})
	return d
}

func TestApplyGrainMultiply(t *testing.T) {
	fl := &fakeLoader{gray: 128}
	e := NewEngine(Config{Loader: fl})
	if _, err := e.Load(context.Background(), "g"); err != nil {
		t.Fatal(err)
	}
	g := paint.GrainSettings{URL: "g", Scale: 1, Blend: raster.BlendMultiply, Intensity: 1, Movement: paint.GrainStatic}
	for _, n := range []int{4, 20} { // direct sampling and tiled scratch
		d := whiteDab(n)
		e.ApplyGrain(d, float64(n), g, 10, 10, 0, nil)
		px := d.RGBAAt(1, 1)
		if px.A < 126 || px.A > 130 || px.R > px.A {
			t.Fatalf("n=%d: unexpected pixel %+v", n, px)
		}
	}
}

func TestApplyGrainZeroIntensityNoop(t *testing.T) {
	e := NewEngine(Config{})
	d := whiteDab(6)
	e.ApplyGrain(d, 6, paint.GrainSettings{Intensity: 0}, 0, 0, 0, nil)
	if !raster.Equal(d, whiteDab(6)) {
		t.Fatalf("dab changed at zero intensity")
	}
}

func TestFetcherHTTPAndFile(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := &Fetcher{BaseURL: srv.URL, Token: "s3cret"}
	got, err := f.Load(context.Background(), "paper.png")
	if err != nil {
		t.Fatalf("http load: %v", err)
	}
	if got.Bounds().Dx() != 3 {
		t.Fatalf("bounds %v", got.Bounds())
	}
	if _, err := (&Fetcher{}).Load(context.Background(), srv.URL+"/x.png"); err == nil {
		t.Fatalf("expected 401 error without token")
	}

	p := filepath.Join(t.TempDir(), "t.png")
	if err := os.WriteFile(p, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (&Fetcher{}).Load(context.Background(), "file://"+p); err != nil {
		t.Fatalf("file load: %v", err)
	}
}
