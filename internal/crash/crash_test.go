/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petianskiy/gundamaxing-sub000/internal/canvas"
	"github.com/petianskiy/gundamaxing-sub000/internal/storage"
)

// silenceStderr swaps os.Stderr for a pipe for the duration of the test.
func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	done := make(chan struct{})
	go func() { _, _ = io.Copy(io.Discard, r); close(done) }()
	t.Cleanup(func() {
		_ = w.Close()
		<-done
		os.Stderr = old
	})
}

func interceptExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func findReport(t *testing.T, dir string) string {
	t.Helper()
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			b, err := os.ReadFile(filepath.Join(dir, f.Name()))
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			return string(b)
		}
	}
	t.Fatalf("no crash report in %s", dir)
	return ""
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path, err := writeReport(dir, "boom", []byte("stacktrace"), "")
	if err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	b, _ := os.ReadFile(path)
	s := string(b)
	if !strings.Contains(s, "HangarPaint Crash Report") || !strings.Contains(s, "Panic: boom") || strings.Contains(s, "Autosave:") {
		t.Fatalf("unexpected report:\n%s", s)
	}
}

type fakeSaver struct {
	calls int
	err   error
	boom  bool
}

func (f *fakeSaver) CrashAutosave() (string, error) {
	f.calls++
	if f.boom {
		panic("again")
	}
	return "slot-1", f.err
}

func TestRecoverWritesReportAndAutosaves(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	dir := t.TempDir()
	saver := &fakeSaver{}

	func() {
		defer Recover(saver, dir)
		panic("boom")
	}()

	if *code != 2 {
		t.Fatalf("exit code %d", *code)
	}
	if saver.calls != 1 {
		t.Fatalf("autosave calls %d", saver.calls)
	}
	report := findReport(t, dir)
	if !strings.Contains(report, "Panic: boom") || !strings.Contains(report, "Autosave: slot-1") {
		t.Fatalf("report content:\n%s", report)
	}
}

func TestRecoverSurvivesFailingAutosaver(t *testing.T) {
	silenceStderr(t)
	code := interceptExit(t)
	dir := t.TempDir()

	func() {
		defer Recover(&fakeSaver{boom: true}, dir)
		panic("first")
	}()
	func() {
		defer Recover(&fakeSaver{err: errors.New("disk full")}, dir)
		panic("second")
	}()
	if *code != 2 {
		t.Fatalf("exit code %d", *code)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	code := interceptExit(t)
	func() {
		defer Recover(nil, t.TempDir())
	}()
	if *code != -1 {
		t.Fatalf("exit called without panic")
	}
}

func TestStoreAutosaver(t *testing.T) {
	ctx := context.Background()
	st, err := storage.Open(ctx, t.TempDir(), storage.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	cv := canvas.New(canvas.Config{Width: 16, Height: 12})
	cv.AddLayer("ink")

	s := &StoreAutosaver{Canvas: cv, Store: st, Name: "crashed"}
	where, err := s.CrashAutosave()
	if err != nil || where == "" {
		t.Fatalf("autosave: %q %v", where, err)
	}
	doc, err := st.LatestAutosave(ctx, "")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if doc.Name != "crashed" || len(doc.Layers) != 2 || doc.Width != 16 || doc.Height != 12 {
		t.Fatalf("autosave content %+v", doc)
	}
	if _, err := (&StoreAutosaver{}).CrashAutosave(); err == nil {
		t.Fatalf("unconfigured autosaver succeeded")
	}
}
