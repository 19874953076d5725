/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for hangarpaint.
// Records carry the app name and version, the component and operation set by
// WithComponent/WithOperation, and the drawing id stored in the context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"github.com/petianskiy/gundamaxing-sub000/internal/version"
)

// Options configure Init.
//
// Environment (FromEnv):
//   - HP_LOG_LEVEL=debug|info|warn|error
//   - HP_LOG_FORMAT=console|json
//   - HP_LOG_FILE=<path> (adds a rotated JSON log file)
//   - HP_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string

	// Console receives console output; nil means os.Stderr.
	Console io.Writer
}

// AppName is attached to every record as the "app" attribute.
const AppName = "hangarpaint"

// Rotation of the optional log file.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

var (
	current atomic.Pointer[slog.Logger]
	level   = new(slog.LevelVar)
)

// L returns the application logger, configuring it from the environment on
// first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init replaces the application logger and slog.Default.
func Init(opts Options) {
	level.Set(parseLevel(opts.Level))
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(out, hopts)
	} else {
		console = newConsoleHandler(out, hopts)
	}
	hs := fanout{withContext(console)}
	if path := strings.TrimSpace(opts.File); path != "" {
		rot := &lj.Logger{
			Filename:   path,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		}
		hs = append(hs, withContext(slog.NewJSONHandler(rot, hopts)))
	}

	var h slog.Handler = hs
	if len(hs) == 1 {
		h = hs[0]
	}
	l := slog.New(h).With(slog.String("app", AppName), slog.String("ver", version.Version))
	current.Store(l)
	slog.SetDefault(l)
}

// SetLevel changes the level of the running logger.
func SetLevel(s string) { level.Set(parseLevel(s)) }

// FromEnv builds Options from HP_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("HP_LOG_LEVEL", "info"),
		Format:    getenv("HP_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("HP_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("HP_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// Discard returns a logger that drops every record.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

type drawingKey struct{}

// WithDrawing stores a drawing id in ctx; records logged with that context carry it as "drawing".
func WithDrawing(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, drawingKey{}, id)
}

// DrawingFrom returns the drawing id stored by WithDrawing.
func DrawingFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(drawingKey{}).(string)
	return id, ok && id != ""
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
