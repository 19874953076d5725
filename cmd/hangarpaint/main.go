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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/petianskiy/gundamaxing-sub000/internal/config"
	"github.com/petianskiy/gundamaxing-sub000/internal/crash"
	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/version"
)

// errUsage makes main print the usage text and exit with status 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "HangarPaint raster engine")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  hangarpaint version|-v|--version                 Show version")
	_, _ = fmt.Fprintln(w, "  hangarpaint replay [flags] <script.yaml> <out>    Play a pointer script and export PNG or PDF")
	_, _ = fmt.Fprintln(w, "      -presets <dir>   load extra brush presets")
	_, _ = fmt.Fprintln(w, "      -save            store the result in the drawing store")
	_, _ = fmt.Fprintln(w, "      -dpi <n>         PDF resolution (default 150)")
	_, _ = fmt.Fprintln(w, "  hangarpaint presets list [<dir>]                 List built-in (and <dir>) presets")
	_, _ = fmt.Fprintln(w, "  hangarpaint presets validate <dir>               Validate preset files")
	_, _ = fmt.Fprintln(w, "  hangarpaint presets push <dir> [<owner>]         Upload presets to the shared library")
	_, _ = fmt.Fprintln(w, "  hangarpaint presets pull                         List presets from the shared library")
	_, _ = fmt.Fprintln(w, "  hangarpaint store list                           List stored drawings")
	_, _ = fmt.Fprintln(w, "  hangarpaint store export <id> <out>              Export a stored drawing")
	_, _ = fmt.Fprintln(w, "  hangarpaint store delete <id>                    Delete a stored drawing")
	_, _ = fmt.Fprintln(w, "  hangarpaint token set <value>|clear              Manage the asset token in the keychain")
}

func main() {
	cfg, token, cfgErr := config.Load()
	applog.Init(cfg.Logging.LogOptions())
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded; using defaults", slog.Any("err", cfgErr))
	}

	// Filled in once a canvas exists, so a panic mid-replay still autosaves.
	saver := &crash.StoreAutosaver{Keep: cfg.Storage.AutosaveKeep}
	defer crash.Recover(saver, "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{cfg: cfg, token: token, log: l, out: os.Stdout, saver: saver}
	args := os.Args[1:]
	l.Debug("start", slog.Int("args", len(args)))

	err := a.run(ctx, args)
	switch {
	case err == nil:
		return
	case errors.Is(err, errUsage):
		usage(os.Stderr)
		stop()
		os.Exit(2)
	default:
		l.Error("command failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(a.out, version.String())
		return nil
	case "replay":
		return a.replay(ctx, args[1:])
	case "presets":
		return a.presets(ctx, args[1:])
	case "store":
		return a.store(ctx, args[1:])
	case "token":
		return a.tokenCmd(args[1:])
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	default:
		return errUsage
	}
}
