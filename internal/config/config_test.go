/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

// isolate points the config at a temp file and swaps the keyring for the in-memory mock.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, path)
	for _, env := range envKeys {
		t.Setenv(env, "")
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("unexpected token %q", tok)
	}
	if cfg.Engine.UndoLimit != 50 || cfg.Engine.GrainCacheSize != 16 || cfg.Engine.MaskCacheSize != 64 {
		t.Fatalf("engine defaults wrong: %+v", cfg.Engine)
	}
	if cfg.Storage.Dir == "" {
		t.Fatalf("storage dir not defaulted")
	}
}

func TestSaveLoadRoundTripWithToken(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Engine.UndoLimit = 20
	cfg.Storage.Dir = "/tmp/drawings"
	cfg.Backend.AssetBaseURL = "https://assets.example.test/grain"
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok != "s3cret" {
		t.Fatalf("token = %q", tok)
	}
	if got.Engine.UndoLimit != 20 || got.Storage.Dir != "/tmp/drawings" || got.Backend.AssetBaseURL != cfg.Backend.AssetBaseURL {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	data, _ := os.ReadFile(path)
	if len(data) == 0 || strings.Contains(string(data), "s3cret") {
		t.Fatalf("token leaked into config file")
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, tok, _ := Load(); tok != "" {
		t.Fatalf("token survived ClearToken")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvUndoLimit, "12")
	t.Setenv(EnvStorageDir, "/data/hp")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogSource, "yes")
	t.Setenv(EnvGrainTimeoutMs, "not-a-number")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.UndoLimit != 12 || cfg.Storage.Dir != "/data/hp" || cfg.Logging.Level != "debug" || !cfg.Logging.Source {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Engine.GrainFetchTimeoutMs != 5000 {
		t.Fatalf("bad override should keep default, got %d", cfg.Engine.GrainFetchTimeoutMs)
	}
	if env, ok := EnvOverrideFor("engine.undo_limit"); !ok || env != EnvUndoLimit {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("backend.dsn"); ok {
		t.Fatalf("unset override reported")
	}
	if _, ok := EnvOverrideFor("no.such.key"); ok {
		t.Fatalf("unknown key reported")
	}
}

func TestInvalidFileIsAnError(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("engine: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMergeKeepsDefaultsForZeroes(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Engine: EngineConfig{DefaultStabilization: 250}, Logging: LoggingConfig{Format: " JSON "}}
	mergeInto(&dst, &src)
	if dst.Engine.UndoLimit != 50 || dst.Engine.DefaultStabilization != 100 || dst.Logging.Format != "json" {
		t.Fatalf("merge wrong: %+v", dst)
	}
}

func TestHelpers(t *testing.T) {
	cfg := Defaults()
	if cfg.Engine.FetchTimeout() != 5*time.Second {
		t.Fatalf("fetch timeout %v", cfg.Engine.FetchTimeout())
	}
	cfg.Logging.File = "/tmp/hp.log"
	if o := cfg.Logging.LogOptions(); o.File != "/tmp/hp.log" || o.Format != "console" {
		t.Fatalf("log options %+v", o)
	}
}
