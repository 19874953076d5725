/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package grain textures brush dabs with a tiling paper/grain image.
//
// Textures are fetched asynchronously and kept in a small LRU. Until a
// texture is available, and forever if it fails to load, dabs are textured
// with a procedural noise tile instead, so painting never blocks on I/O.
package grain

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	"github.com/petianskiy/gundamaxing-sub000/internal/cache"
	"github.com/petianskiy/gundamaxing-sub000/internal/raster"
)

const (
	DefaultCapacity     = 16
	DefaultFetchTimeout = 5 * time.Second
	scaledCapacity      = 8
)

// ErrNoLoader is reported for every URL when the engine has no loader.
var ErrNoLoader = errors.New("grain: no texture loader configured")

// Loader fetches and decodes a texture.
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

type Config struct {
	Loader       Loader
	Capacity     int
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

type scaledKey struct {
	url   string
	scale int // hundredths
}

// Engine is safe for concurrent Load/Prefetch; ApplyGrain must be called
// from a single goroutine at a time.
type Engine struct {
	loader  Loader
	timeout time.Duration
	log     *slog.Logger

	textures *cache.LRU[string, *image.RGBA]
	scaled   *cache.LRU[scaledKey, *image.RGBA]
	group    singleflight.Group

	mu       sync.Mutex
	failed   map[string]error
	inflight map[string]bool
	pending  sync.WaitGroup

	procedural *image.RGBA
	scratch    raster.Scratch
}

func NewEngine(cfg Config) *Engine {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		loader:     cfg.Loader,
		timeout:    cfg.FetchTimeout,
		log:        cfg.Logger,
		textures:   cache.New[string, *image.RGBA](cfg.Capacity),
		scaled:     cache.New[scaledKey, *image.RGBA](scaledCapacity),
		failed:     make(map[string]error),
		inflight:   make(map[string]bool),
		procedural: Procedural(),
	}
}

// Load returns the texture for url, fetching it if needed. Concurrent calls
// for the same url share one fetch. A url that failed once keeps failing
// without another fetch.
func (e *Engine) Load(ctx context.Context, url string) (*image.RGBA, error) {
	if url == "" {
		return e.procedural, nil
	}
	if t, ok := e.textures.Get(url); ok {
		return t, nil
	}
	if err := e.failure(url); err != nil {
		return nil, err
	}
	v, err, _ := e.group.Do(url, func() (any, error) {
		if t, ok := e.textures.Get(url); ok {
			return t, nil
		}
		if e.loader == nil {
			e.markFailed(url, ErrNoLoader)
			return nil, ErrNoLoader
		}
		img, err := e.loader.Load(ctx, url)
		if err != nil {
			e.markFailed(url, err)
			return nil, err
		}
		t := toRGBA(img)
		if t.Rect.Empty() {
			err := errors.New("grain: empty texture")
			e.markFailed(url, err)
			return nil, err
		}
		e.textures.Put(url, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*image.RGBA), nil
}

// Prefetch starts a background load unless the url is cached, failed or
// already loading.
func (e *Engine) Prefetch(url string) {
	if url == "" || e.textures.Contains(url) {
		return
	}
	e.mu.Lock()
	if e.failed[url] != nil || e.inflight[url] {
		e.mu.Unlock()
		return
	}
	e.inflight[url] = true
	e.pending.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.pending.Done()
		defer func() {
			e.mu.Lock()
			delete(e.inflight, url)
			e.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if _, err := e.Load(ctx, url); err != nil {
			e.log.Warn("grain texture unavailable, using procedural fallback", slog.String("url", url), slog.Any("err", err))
			return
		}
		e.log.Debug("grain texture loaded", slog.String("url", url))
	}()
}

// Wait blocks until every background load has finished.
func (e *Engine) Wait() { e.pending.Wait() }

// GetSync returns a cached texture without loading. The empty url maps to
// the procedural tile.
func (e *Engine) GetSync(url string) (*image.RGBA, bool) {
	if url == "" {
		return e.procedural, true
	}
	return e.textures.Get(url)
}

// Texture returns the cached texture or, while it is missing, starts a
// prefetch and returns the procedural tile.
func (e *Engine) Texture(url string) *image.RGBA {
	if t, ok := e.GetSync(url); ok {
		return t
	}
	e.Prefetch(url)
	return e.procedural
}

// Failed reports whether a fetch for url has failed.
func (e *Engine) Failed(url string) bool { return e.failure(url) != nil }

// Cached lists resident texture urls, most recent first.
func (e *Engine) Cached() []string { return e.textures.Keys() }

func (e *Engine) failure(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed[url]
}

func (e *Engine) markFailed(url string, err error) {
	e.mu.Lock()
	e.failed[url] = err
	e.mu.Unlock()
}

// tile returns the texture for url resampled by scale.
func (e *Engine) tile(url string, scale float64) *image.RGBA {
	src := e.Texture(url)
	if scale <= 0 {
		scale = 1
	}
	q := int(math.Round(scale * 100))
	if q == 100 || q <= 0 {
		return src
	}
	key := scaledKey{url: url, scale: q}
	if src == e.procedural {
		key.url = ""
	}
	if t, ok := e.scaled.Get(key); ok {
		return t
	}
	w := max(1, int(math.Round(float64(src.Rect.Dx())*scale)))
	h := max(1, int(math.Round(float64(src.Rect.Dy())*scale)))
	t := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(t, t.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	e.scaled.Put(key, t)
	return t
}

func toRGBA(img image.Image) *image.RGBA {
	if t, ok := img.(*image.RGBA); ok && t.Rect.Min == (image.Point{}) {
		return t
	}
	b := img.Bounds()
	t := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(t, t.Bounds(), img, b.Min, xdraw.Src)
	return t
}
