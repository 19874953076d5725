/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus a best-effort autosave of the open drawing.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
	"github.com/petianskiy/gundamaxing-sub000/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Autosaver persists open work after a panic. Where returns a short
// description of the saved location.
type Autosaver interface {
	CrashAutosave() (where string, err error)
}

// Recover captures a panic, logs it with a stacktrace, writes a report file
// to reportDir (os.TempDir when empty), autosaves through a when non-nil and
// exits with status 2.
//
// Usage: defer crash.Recover(saver, dir)
func Recover(a Autosaver, reportDir string) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	saved := ""
	if a != nil {
		if where, err := autosave(a); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			saved = where
			l.Info("crash autosave written", slog.String("where", where))
		}
	}
	reportPath, err := writeReport(reportDir, r, stack, saved)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	if saved != "" {
		_, _ = fmt.Fprintf(os.Stderr, "Your drawing was autosaved: %s\n", saved)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// autosave shields Recover from a second panic inside the autosaver.
func autosave(a Autosaver) (where string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("autosave panicked: %v", r)
		}
	}()
	return a.CrashAutosave()
}

func writeReport(dir string, panicVal any, stack []byte, saved string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure report dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "HangarPaint Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if saved != "" {
		_, _ = fmt.Fprintf(&buf, "Autosave: %s\n", saved)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
