/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/petianskiy/gundamaxing-sub000/internal/preset"
)

func openPGForTest(t *testing.T) *PresetStore {
	t.Helper()
	dsn := DSNFromEnv()
	if dsn == "" {
		t.Skip("HP_PG_DSN / DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// a second run must be a no-op
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	return s
}

func TestMigrationFilesOrdered(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("migration files: %v", err)
	}
	if len(files) < 2 || files[0] != "001_presets.sql" {
		t.Fatalf("unexpected migrations %v", files)
	}
	prev := int64(0)
	for _, f := range files {
		v, err := parseVersion(f)
		if err != nil {
			t.Fatalf("parse %s: %v", f, err)
		}
		if v <= prev {
			t.Fatalf("migration %s out of order", f)
		}
		prev = v
	}
}

func TestParseVersionRejectsBadNames(t *testing.T) {
	for _, name := range []string{"presets.sql", "abc_presets.sql"} {
		if _, err := parseVersion(name); err == nil {
			t.Fatalf("%s accepted", name)
		}
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatalf("empty dsn accepted")
	}
}

func TestPresetRoundTripPG(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()
	lib := preset.NewLibrary()
	p, _ := lib.Get("pencil")
	p.Name = "pencil-" + uuid.NewString()[:8]
	t.Cleanup(func() { _ = s.DeletePreset(context.Background(), p.Name) })

	v1, err := s.PutPreset(ctx, "tester", p)
	if err != nil || v1 != 1 {
		t.Fatalf("put: %d %v", v1, err)
	}
	p.Hardness = 0.5
	v2, err := s.PutPreset(ctx, "tester", p)
	if err != nil || v2 != 2 {
		t.Fatalf("re-put: %d %v", v2, err)
	}
	got, err := s.GetPreset(ctx, p.Name)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Hardness != 0.5 || got.Spacing != p.Spacing || got.Grain.Intensity != p.Grain.Intensity {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	list, err := s.ListPresets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, pi := range list {
		if pi.Name == p.Name && pi.Owner == "tester" && pi.Version == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("preset missing from list")
	}

	into := preset.NewLibrary()
	if n, err := s.SyncInto(ctx, into); err != nil || n == 0 {
		t.Fatalf("sync: %d %v", n, err)
	}
	if _, ok := into.Get(p.Name); !ok {
		t.Fatalf("synced library lacks %s", p.Name)
	}
}

func TestPresetInvalidAndMissingPG(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()
	lib := preset.NewLibrary()
	p, _ := lib.Get("round")
	p.Name = ""
	if _, err := s.PutPreset(ctx, "", p); !errors.Is(err, preset.ErrInvalidPreset) {
		t.Fatalf("want ErrInvalidPreset, got %v", err)
	}
	if _, err := s.GetPreset(ctx, "missing-"+uuid.NewString()); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("want ErrPresetNotFound, got %v", err)
	}
}
