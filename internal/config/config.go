/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration from YAML, applies HP_* environment
// overrides and keeps the asset token in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	applog "github.com/petianskiy/gundamaxing-sub000/internal/log"
)

// CurrentVersion is written to new config files.
const CurrentVersion = 1

type EngineConfig struct {
	UndoLimit            int   `yaml:"undo_limit"`
	UndoMaxBytes         int64 `yaml:"undo_max_bytes"`
	MaskCacheSize        int   `yaml:"mask_cache_size"`
	GrainCacheSize       int   `yaml:"grain_cache_size"`
	DefaultStabilization int   `yaml:"default_stabilization"`
	GrainFetchTimeoutMs  int   `yaml:"grain_fetch_timeout_ms"`
}

type StorageConfig struct {
	Dir            string `yaml:"dir"`
	ThumbsMaxBytes int64  `yaml:"thumbs_max_bytes"`
	AutosaveKeep   int    `yaml:"autosave_keep"`
}

type BackendConfig struct {
	DSN          string `yaml:"dsn"`
	AssetBaseURL string `yaml:"asset_base_url"`
	// The asset token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration. Environment variables are
// read-only overrides applied after the file.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Engine        EngineConfig  `yaml:"engine"`
	Storage       StorageConfig `yaml:"storage"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		Engine: EngineConfig{
			UndoLimit:            50,
			UndoMaxBytes:         512 << 20,
			MaskCacheSize:        64,
			GrainCacheSize:       16,
			DefaultStabilization: 30,
			GrainFetchTimeoutMs:  5000,
		},
		Storage: StorageConfig{ThumbsMaxBytes: 64 << 20, AutosaveKeep: 5},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile = "HP_CONFIG"

	EnvUndoLimit      = "HP_UNDO_LIMIT"
	EnvMaskCacheSize  = "HP_MASK_CACHE_SIZE"
	EnvGrainCacheSize = "HP_GRAIN_CACHE_SIZE"
	EnvGrainTimeoutMs = "HP_GRAIN_FETCH_TIMEOUT_MS"
	EnvStorageDir     = "HP_STORE_DIR"
	EnvThumbsMaxBytes = "HP_THUMBS_MAX_BYTES"
	EnvPGDSN          = "HP_PG_DSN"
	EnvAssetBaseURL   = "HP_ASSET_BASE_URL"

	EnvLogLevel  = "HP_LOG_LEVEL"
	EnvLogFormat = "HP_LOG_FORMAT"
	EnvLogSource = "HP_LOG_SOURCE"
	EnvLogFile   = "HP_LOG_FILE"
)

// envKeys maps dotted config keys to their override variable.
var envKeys = map[string]string{
	"engine.undo_limit":             EnvUndoLimit,
	"engine.mask_cache_size":        EnvMaskCacheSize,
	"engine.grain_cache_size":       EnvGrainCacheSize,
	"engine.grain_fetch_timeout_ms": EnvGrainTimeoutMs,
	"storage.dir":                   EnvStorageDir,
	"storage.thumbs_max_bytes":      EnvThumbsMaxBytes,
	"backend.dsn":                   EnvPGDSN,
	"backend.asset_base_url":        EnvAssetBaseURL,
	"logging.level":                 EnvLogLevel,
	"logging.format":                EnvLogFormat,
	"logging.source":                EnvLogSource,
	"logging.file":                  EnvLogFile,
}

const (
	keyringService = "HangarPaint"
	keyringToken   = "asset_token"
)

// appDir returns the per-user application directory for kind ("config" or "data").
func appDir(kind string) (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "HangarPaint")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "HangarPaint")
	default:
		if os.Getenv("HOME") == "" {
			return "", errors.New("cannot resolve user directory: HOME is not set")
		}
		if kind == "data" {
			if x := os.Getenv("XDG_DATA_HOME"); x != "" {
				return filepath.Join(x, "hangarpaint"), nil
			}
			base = filepath.Join(os.Getenv("HOME"), ".local", "share", "hangarpaint")
		} else {
			if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
				return filepath.Join(x, "hangarpaint"), nil
			}
			base = filepath.Join(os.Getenv("HOME"), ".config", "hangarpaint")
		}
	}
	return base, nil
}

// ConfigPath returns the config file path; HP_CONFIG wins over the per-user default.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := appDir("config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultStoreDir is where the drawing store lives when storage.dir is unset.
func DefaultStoreDir() string {
	dir, err := appDir("data")
	if err != nil {
		return filepath.Join(os.TempDir(), "hangarpaint")
	}
	return filepath.Join(dir, "drawings")
}

// Load reads the config file (if present), fills defaults and applies
// environment overrides. The asset token comes from the keyring and is
// returned separately; a missing token is not an error.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = DefaultStoreDir()
	}
	tok, err := keyring.Get(keyringService, keyringToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		applog.WithOperation(applog.WithComponent("config"), "load").
			Warn("keyring unavailable; continuing without asset token", "err", err)
	}
	return cfg, tok, nil
}

// Save writes the config YAML and stores a non-empty token in the OS keyring.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if token != "" {
		if err := keyring.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

// ClearToken removes the asset token from the keyring.
func ClearToken() error {
	if err := keyring.Delete(keyringService, keyringToken); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setInt := func(d *int, v int) {
		if v > 0 {
			*d = v
		}
	}
	setInt(&dst.Engine.UndoLimit, src.Engine.UndoLimit)
	setInt(&dst.Engine.MaskCacheSize, src.Engine.MaskCacheSize)
	setInt(&dst.Engine.GrainCacheSize, src.Engine.GrainCacheSize)
	setInt(&dst.Engine.GrainFetchTimeoutMs, src.Engine.GrainFetchTimeoutMs)
	setInt(&dst.Storage.AutosaveKeep, src.Storage.AutosaveKeep)
	if src.Engine.DefaultStabilization > 0 {
		dst.Engine.DefaultStabilization = min(100, src.Engine.DefaultStabilization)
	}
	if src.Engine.UndoMaxBytes != 0 {
		dst.Engine.UndoMaxBytes = src.Engine.UndoMaxBytes
	}
	if s := strings.TrimSpace(src.Storage.Dir); s != "" {
		dst.Storage.Dir = s
	}
	if src.Storage.ThumbsMaxBytes != 0 {
		dst.Storage.ThumbsMaxBytes = src.Storage.ThumbsMaxBytes
	}
	if s := strings.TrimSpace(src.Backend.DSN); s != "" {
		dst.Backend.DSN = s
	}
	if s := strings.TrimSpace(src.Backend.AssetBaseURL); s != "" {
		dst.Backend.AssetBaseURL = s
	}
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func envBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	ints := []struct {
		env string
		dst *int
	}{
		{EnvUndoLimit, &cfg.Engine.UndoLimit},
		{EnvMaskCacheSize, &cfg.Engine.MaskCacheSize},
		{EnvGrainCacheSize, &cfg.Engine.GrainCacheSize},
		{EnvGrainTimeoutMs, &cfg.Engine.GrainFetchTimeoutMs},
	}
	for _, e := range ints {
		if v := strings.TrimSpace(os.Getenv(e.env)); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*e.dst = n
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvThumbsMaxBytes)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n != 0 {
			cfg.Storage.ThumbsMaxBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDir)); v != "" {
		cfg.Storage.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAssetBaseURL)); v != "" {
		cfg.Backend.AssetBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the dotted key is currently overridden.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// LogOptions converts the logging section for log.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// FetchTimeout is the grain texture download timeout.
func (e EngineConfig) FetchTimeout() time.Duration {
	if e.GrainFetchTimeoutMs <= 0 {
		return time.Duration(Defaults().Engine.GrainFetchTimeoutMs) * time.Millisecond
	}
	return time.Duration(e.GrainFetchTimeoutMs) * time.Millisecond
}
