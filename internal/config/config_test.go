// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/blocklaunch/blocklaunch/internal/issue"
	"github.com/blocklaunch/blocklaunch/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, []byte(content))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.JavaPath != "java" {
		t.Errorf("JavaPath = %q, want java", cfg.JavaPath)
	}
	if cfg.Download.Concurrency != 8 {
		t.Errorf("Download.Concurrency = %d, want 8", cfg.Download.Concurrency)
	}
	if cfg.Download.MaxAttempts != 5 {
		t.Errorf("Download.MaxAttempts = %d, want 5", cfg.Download.MaxAttempts)
	}
	if cfg.Download.Timeout != 2*time.Minute {
		t.Errorf("Download.Timeout = %v, want 2m", cfg.Download.Timeout)
	}
	if cfg.Auth.ClientID != "" {
		t.Errorf("Auth.ClientID = %q, want empty", cfg.Auth.ClientID)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("UI.ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup applies to Linux only")
	}

	testXDGPath := "/tmp/test-xdg-config"
	t.Cleanup(testutil.SetConfigHome(t, testXDGPath))

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join(testXDGPath, AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))
	t.Cleanup(testutil.MustSetenv(t, "XDG_CONFIG_HOME", ""))

	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join(home, ".config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestDataDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup applies to Linux only")
	}

	t.Cleanup(testutil.MustSetenv(t, "XDG_DATA_HOME", "/tmp/test-xdg-data"))

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-data", AppName); dir != want {
		t.Errorf("DataDir() = %s, want %s", dir, want)
	}
}

func TestOverrides(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/custom/config")
	SetDataDirOverride("/custom/data")

	if dir, _ := ConfigDir(); dir != "/custom/config" {
		t.Errorf("ConfigDir() = %s, want override", dir)
	}
	if dir, _ := DataDir(); dir != "/custom/data" {
		t.Errorf("DataDir() = %s, want override", dir)
	}

	cfg := DefaultConfig()
	if dir, _ := cfg.ResolvedGameDir(); dir != "/custom/data" {
		t.Errorf("ResolvedGameDir() = %s, want DataDir fallback", dir)
	}
	if p, _ := cfg.ResolvedSessionFile(); p != filepath.Join("/custom/config", SessionFileName) {
		t.Errorf("ResolvedSessionFile() = %s", p)
	}

	cfg.GameDir = "/games/main"
	cfg.Auth.SessionFile = "/secrets/session.toml"
	if dir, _ := cfg.ResolvedGameDir(); dir != "/games/main" {
		t.Errorf("ResolvedGameDir() = %s, want explicit value", dir)
	}
	if p, _ := cfg.ResolvedSessionFile(); p != "/secrets/session.toml" {
		t.Errorf("ResolvedSessionFile() = %s, want explicit value", p)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
game_dir: "/games/main"
mirror: "https://bmclapi2.bangbang93.com"
download: {
	concurrency: 16
	initial_interval: "250ms"
	retryable_statuses: [429, 503]
}
auth: client_id: "00000000-aaaa-bbbb-cccc-000000000000"
launch: {
	max_memory_mb: 4096
	extra_jvm_args: "-XX:+UseG1GC '-Dname=a b'"
}
ui: verbose: true
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GameDir != "/games/main" {
		t.Errorf("GameDir = %q", cfg.GameDir)
	}
	if cfg.Mirror != "https://bmclapi2.bangbang93.com" {
		t.Errorf("Mirror = %q", cfg.Mirror)
	}
	if cfg.Download.Concurrency != 16 {
		t.Errorf("Download.Concurrency = %d, want 16", cfg.Download.Concurrency)
	}
	if cfg.Download.InitialInterval != 250*time.Millisecond {
		t.Errorf("Download.InitialInterval = %v, want 250ms", cfg.Download.InitialInterval)
	}
	if !reflect.DeepEqual(cfg.Download.RetryableStatuses, []int{429, 503}) {
		t.Errorf("Download.RetryableStatuses = %v", cfg.Download.RetryableStatuses)
	}
	// untouched keys keep their defaults
	if cfg.Download.MaxAttempts != 5 {
		t.Errorf("Download.MaxAttempts = %d, want default 5", cfg.Download.MaxAttempts)
	}
	if cfg.Launch.MinMemoryMB != 512 || cfg.Launch.MaxMemoryMB != 4096 {
		t.Errorf("Launch memory = %d/%d", cfg.Launch.MinMemoryMB, cfg.Launch.MaxMemoryMB)
	}
	if cfg.Auth.ClientID == "" {
		t.Error("Auth.ClientID not loaded")
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose not loaded")
	}

	policy := cfg.Download.RetryPolicy()
	if policy.InitialInterval != 250*time.Millisecond || policy.MaxAttempts != 5 {
		t.Errorf("RetryPolicy() = %+v", policy)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `java_path: "/opt/jdk/bin/java"`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.JavaPath != "/opt/jdk/bin/java" {
		t.Errorf("JavaPath = %q", cfg.JavaPath)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "syntax", content: `download: {`, wantErr: "load configuration"},
		{name: "unknown field", content: `launcher_theme: "dark"`, wantErr: "launcher_theme"},
		{name: "bad color scheme", content: `ui: color_scheme: "neon"`, wantErr: "color_scheme"},
		{name: "bad duration", content: `download: timeout: "soon"`, wantErr: "timeout"},
		{name: "concurrency range", content: `download: concurrency: 0`, wantErr: "concurrency"},
		{name: "bad mirror", content: `mirror: "ftp://mirror.example"`, wantErr: "invalid mirror"},
		{name: "memory order", content: `launch: {min_memory_mb: 4096, max_memory_mb: 1024}`, wantErr: "min_memory_mb"},
		{name: "interval order", content: `download: {initial_interval: "10s", max_interval: "1s"}`, wantErr: "max_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("Load() error = %T, want *issue.ActionableError", err)
			} else if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "absent.cue"),
	})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v, want not found", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoadOptions_Validate(t *testing.T) {
	t.Parallel()

	if err := (LoadOptions{}).Validate(); err != nil {
		t.Errorf("empty options: %v", err)
	}

	err := LoadOptions{ConfigFilePath: "   ", ConfigDirPath: "\t"}.Validate()
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Fatalf("Validate() = %v, want ErrInvalidLoadOptions", err)
	}
	var loadErr *InvalidLoadOptionsError
	if !errors.As(err, &loadErr) || len(loadErr.FieldErrors) != 2 {
		t.Errorf("Validate() = %v, want two field errors", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.GameDir = "/games/main"
	want.Mirror = "https://mirror.example"
	want.Download.Multiplier = 1.5
	want.Auth.ClientID = "client"
	want.Auth.AuthlibInjectorURL = "https://skins.example/authlib-injector/latest.json"
	want.Launch.ExtraJVMArgs = `-Dquote="x"`
	want.Launch.Width = 1280
	want.Launch.Height = 720
	want.UI.ColorScheme = ColorSchemeDark

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(want))

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveAndCreateDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("CreateDefaultConfig() path = %s", path)
	}

	cfg := DefaultConfig()
	cfg.JavaPath = "/usr/lib/jvm/bin/java"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// an existing file is left alone
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "/usr/lib/jvm/bin/java") {
		t.Errorf("saved config was overwritten:\n%s", data)
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.UI.ColorScheme = "neon"
	cfg.Download.Randomization = 2

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() = true, want false")
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Errorf("IsValid() error = %v, want ErrInvalidConfig", errs[0])
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) || len(cfgErr.FieldErrors) != 2 {
		t.Fatalf("IsValid() = %v, want two nested errors", errs)
	}
	if !errors.Is(cfgErr.FieldErrors[0], ErrInvalidDownloadConfig) {
		t.Errorf("first nested error = %v, want download", cfgErr.FieldErrors[0])
	}
	var uiErr *InvalidUIConfigError
	if !errors.As(cfgErr.FieldErrors[1], &uiErr) || !errors.Is(uiErr.FieldErrors[0], ErrInvalidColorScheme) {
		t.Errorf("second nested error = %v, want color scheme", cfgErr.FieldErrors[1])
	}
}
