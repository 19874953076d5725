/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package preset loads, validates and serves brush presets. Preset files
// are YAML or JSON and are checked against an embedded JSON schema before
// they are decoded.
package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/paint"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidPreset wraps every validation failure.
var ErrInvalidPreset = errors.New("invalid brush preset")

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiled() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Schema returns the JSON schema preset documents must satisfy.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Validate checks a YAML or JSON preset document against the schema.
func Validate(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidPreset)
	}
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compile preset schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPreset, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates and decodes one preset document.
func Parse(data []byte) (paint.BrushPreset, error) {
	if err := Validate(data); err != nil {
		return paint.BrushPreset{}, err
	}
	var p paint.BrushPreset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return paint.BrushPreset{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return p, nil
}

// Marshal encodes p as YAML.
func Marshal(p paint.BrushPreset) ([]byte, error) {
	b, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal preset %q: %w", p.Name, err)
	}
	return b, nil
}

// Library is a named set of presets, seeded with the built-ins. It is safe
// for concurrent use.
type Library struct {
	mu      sync.RWMutex
	presets map[string]paint.BrushPreset
}

func NewLibrary() *Library {
	lib := &Library{presets: make(map[string]paint.BrushPreset)}
	for _, p := range Builtins() {
		lib.presets[p.Name] = p
	}
	return lib
}

// Get returns the named preset, normalized.
func (l *Library) Get(name string) (paint.BrushPreset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.presets[name]
	if !ok {
		return paint.BrushPreset{}, false
	}
	return p.Normalized(), true
}

// Put adds or replaces a preset after checking it against the schema.
func (l *Library) Put(p paint.BrushPreset) error {
	p = p.Normalized()
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := Validate(data); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.presets[p.Name] = p
	return nil
}

// Names lists preset names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.presets))
	for n := range l.presets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func isPresetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadDir adds every preset file in dir. Invalid files are skipped and
// reported together in the returned error; valid ones are still loaded.
func (l *Library) LoadDir(dir string) (int, error) {
	log := applog.WithOperation(applog.WithComponent("preset"), "load_dir").With(slog.String("dir", dir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read preset dir: %w", err)
	}
	var errs []error
	n := 0
	for _, e := range entries {
		if e.IsDir() || !isPresetFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		p, err := Parse(data)
		if err != nil {
			log.Warn("skipping preset", slog.String("file", e.Name()), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		l.mu.Lock()
		l.presets[p.Name] = p
		l.mu.Unlock()
		n++
	}
	log.Debug("presets loaded", slog.Int("count", n))
	return n, errors.Join(errs...)
}

// ValidateDir checks every preset file in dir without loading it and
// returns the failures keyed by file name.
func ValidateDir(dir string) (map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read preset dir: %w", err)
	}
	out := make(map[string]error)
	for _, e := range entries {
		if e.IsDir() || !isPresetFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err == nil {
			err = Validate(data)
		}
		out[e.Name()] = err
	}
	return out, nil
}
