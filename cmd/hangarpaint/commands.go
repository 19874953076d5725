/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/petianskiy/gundamaxing-sub000/internal/backend"
	"github.com/petianskiy/gundamaxing-sub000/internal/brush"
	"github.com/petianskiy/gundamaxing-sub000/internal/canvas"
	"github.com/petianskiy/gundamaxing-sub000/internal/config"
	"github.com/petianskiy/gundamaxing-sub000/internal/crash"
	"github.com/petianskiy/gundamaxing-sub000/internal/export"
	"github.com/petianskiy/gundamaxing-sub000/internal/grain"
	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/preset"
	"github.com/petianskiy/gundamaxing-sub000/internal/replay"
	"github.com/petianskiy/gundamaxing-sub000/internal/storage"
)

const thumbSide = 256

type app struct {
	cfg   config.AppConfig
	token string
	log   *slog.Logger
	out   io.Writer
	saver *crash.StoreAutosaver
}

func (a *app) resources() *brush.RenderResources {
	e := a.cfg.Engine
	loader := &grain.Fetcher{
		Client:  &http.Client{Timeout: e.FetchTimeout()},
		BaseURL: a.cfg.Backend.AssetBaseURL,
		Token:   a.token,
	}
	return brush.NewRenderResources(brush.ResourceConfig{
		MaskCacheSize: e.MaskCacheSize,
		Grain: grain.Config{
			Loader:       loader,
			Capacity:     e.GrainCacheSize,
			FetchTimeout: e.FetchTimeout(),
			Logger:       applog.WithComponent("grain"),
		},
	})
}

func (a *app) newCanvas(w, h int) *canvas.Canvas {
	return canvas.New(canvas.Config{
		Width: w, Height: h,
		UndoLimit:    a.cfg.Engine.UndoLimit,
		UndoMaxBytes: int(a.cfg.Engine.UndoMaxBytes),
		Resources:    a.resources(),
		Logger:       applog.WithComponent("canvas"),
	})
}

func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	return storage.Open(ctx, a.cfg.Storage.Dir, storage.Options{ThumbsMaxBytes: a.cfg.Storage.ThumbsMaxBytes})
}

// exportImage writes img as PDF when path ends in .pdf and as PNG otherwise.
func exportImage(path string, img *image.RGBA, title string, dpi float64) error {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return export.ExportPDF(path, img, export.PDFOptions{Title: title, DPI: dpi})
	}
	return export.ExportPNG(path, img)
}

func (a *app) replay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	presetDir := fs.String("presets", "", "")
	save := fs.Bool("save", false, "")
	dpi := fs.Float64("dpi", 0, "")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}
	scriptPath, outPath := fs.Arg(0), fs.Arg(1)
	l := applog.WithOperation(a.log, "replay").With(slog.String("script", scriptPath))

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	s, err := replay.Parse(data)
	if err != nil {
		return err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	}

	lib := preset.NewLibrary()
	if *presetDir != "" {
		n, err := lib.LoadDir(*presetDir)
		if err != nil {
			// invalid files are reported but the valid ones stay usable
			l.Warn("some presets failed to load", slog.Any("err", err))
		}
		l.Info("presets loaded", slog.Int("count", n))
	}

	c := a.newCanvas(s.Width, s.Height)
	a.saver.Canvas = c
	a.saver.Name = s.Name

	var store *storage.Store
	if *save {
		if store, err = a.openStore(ctx); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		a.saver.Store = store
	}

	r := &replay.Runner{
		Canvas:               c,
		Presets:              lib,
		Logger:               applog.WithComponent("replay"),
		DefaultStabilization: float64(a.cfg.Engine.DefaultStabilization),
	}
	start := time.Now()
	st, err := r.Run(ctx, s)
	if err != nil {
		return err
	}
	l.Info("replay done", slog.Int("ops", st.Ops), slog.Int("dabs", st.Dabs),
		slog.Int("skipped", st.Skipped), slog.Duration("took", time.Since(start)))

	flat := c.Flatten()
	if s.Background != "" {
		bg, err := replay.ParseColor(s.Background)
		if err != nil {
			return err
		}
		flat = export.OnBackground(flat, bg)
	}
	if err := exportImage(outPath, flat, s.Name, *dpi); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "Wrote %s (%d ops, %d strokes, %d skipped)\n", outPath, st.Ops, st.Strokes, st.Skipped)

	if store == nil {
		return nil
	}
	ls, active := c.ExportLayers()
	id, err := store.Save(ctx, storage.Document{
		Name: s.Name, Width: s.Width, Height: s.Height, ActiveLayerID: active, Layers: ls,
	})
	if err != nil {
		return err
	}
	a.saver.DrawingID = id
	if err := store.PutThumb(ctx, id, c.Flatten(), thumbSide); err != nil {
		l.Warn("thumbnail not stored", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(a.out, "Saved drawing %s\n", id)
	return nil
}

func (a *app) presets(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		lib := preset.NewLibrary()
		if len(args) > 1 {
			if _, err := lib.LoadDir(args[1]); err != nil {
				a.log.Warn("some presets failed to load", slog.Any("err", err))
			}
		}
		for _, name := range lib.Names() {
			p, _ := lib.Get(name)
			_, _ = fmt.Fprintf(a.out, "%-16s %-8s hardness %.2f spacing %.0f%%\n", name, p.Shape, p.Hardness, p.Spacing)
		}
		return nil
	case "validate":
		if len(args) < 2 {
			return errUsage
		}
		return validatePresets(a.out, args[1])
	case "push":
		if len(args) < 2 {
			return errUsage
		}
		owner := ""
		if len(args) > 2 {
			owner = args[2]
		}
		return a.pushPresets(ctx, args[1], owner)
	case "pull":
		return a.pullPresets(ctx)
	default:
		return errUsage
	}
}

func validatePresets(w io.Writer, dir string) error {
	res, err := preset.ValidateDir(dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(res))
	for n := range res {
		names = append(names, n)
	}
	sort.Strings(names)
	bad := 0
	for _, n := range names {
		if e := res[n]; e != nil {
			bad++
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", n, e)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok   %s\n", n)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d preset files are invalid", bad, len(names))
	}
	return nil
}

func (a *app) presetStore(ctx context.Context) (*backend.PresetStore, error) {
	dsn := a.cfg.Backend.DSN
	if dsn == "" {
		dsn = backend.DSNFromEnv()
	}
	ps, err := backend.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := ps.Migrate(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}

func (a *app) pushPresets(ctx context.Context, dir, owner string) error {
	lib := preset.NewLibrary()
	n, err := lib.LoadDir(dir)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no presets in %s", dir)
	}
	ps, err := a.presetStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ps.Close() }()

	// only the files from dir, not the built-ins
	builtin := map[string]bool{}
	for _, p := range preset.Builtins() {
		builtin[p.Name] = true
	}
	for _, name := range lib.Names() {
		if builtin[name] {
			continue
		}
		p, _ := lib.Get(name)
		v, err := ps.PutPreset(ctx, owner, p)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "pushed %s (version %d)\n", name, v)
	}
	return nil
}

func (a *app) pullPresets(ctx context.Context) error {
	ps, err := a.presetStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ps.Close() }()
	infos, err := ps.ListPresets(ctx)
	if err != nil {
		return err
	}
	for _, in := range infos {
		_, _ = fmt.Fprintf(a.out, "%-16s v%-3d %-12s %s\n", in.Name, in.Version, in.Owner, in.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func (a *app) store(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	switch args[0] {
	case "list":
		sums, err := st.List(ctx)
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			_, _ = fmt.Fprintln(a.out, "No drawings in", st.DBPath())
		}
		for _, s := range sums {
			_, _ = fmt.Fprintf(a.out, "%s  %-20s %4dx%-4d %d layers  %s\n",
				s.ID, s.Name, s.Width, s.Height, s.LayerCount, s.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	case "export":
		if len(args) < 3 {
			return errUsage
		}
		doc, err := st.Load(ctx, args[1])
		if err != nil {
			return err
		}
		c := a.newCanvas(doc.Width, doc.Height)
		if err := c.ImportLayers(doc.Layers, doc.ActiveLayerID); err != nil {
			return err
		}
		if err := exportImage(args[2], c.Flatten(), doc.Name, 0); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Wrote %s\n", args[2])
		return nil
	case "delete":
		if len(args) < 2 {
			return errUsage
		}
		if err := st.Delete(ctx, args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Deleted %s\n", args[1])
		return nil
	default:
		return errUsage
	}
}

func (a *app) tokenCmd(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "set":
		if len(args) < 2 || args[1] == "" {
			return errUsage
		}
		if err := config.Save(a.cfg, args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Asset token stored in the system keychain.")
		return nil
	case "clear":
		if err := config.ClearToken(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, "Asset token removed.")
		return nil
	default:
		return errUsage
	}
}
