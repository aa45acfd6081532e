package internal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/slipbox/internal/apperr"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.DefaultNewType != "Inbox" || cfg.DefaultViewType != "Archive" || cfg.TikzFormat != "png" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"absolute notes path", func(c *Config) { c.NotesPath = "/tmp/notes" }},
		{"escaping html path", func(c *Config) { c.HTMLPath = "../html" }},
		{"empty note types", func(c *Config) { c.NoteTypes = nil }},
		{"unknown default type", func(c *Config) { c.DefaultNewType = "Journal" }},
		{"unknown view type", func(c *Config) { c.DefaultViewType = "Journal" }},
		{"bad tikz format", func(c *Config) { c.TikzFormat = "bmp" }},
		{"bad id policy", func(c *Config) { c.IDPolicy = "uuid" }},
		{"bad order", func(c *Config) { c.Order = "title" }},
		{"bad log format", func(c *Config) { c.App.LogFormat = "xml" }},
		{"bad port", func(c *Config) { c.App.HTTP.Port = 70000 }},
	}
	for _, tt := range tests {
		cfg := NewDefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestConfig_Set(t *testing.T) {
	cfg := NewDefaultConfig()
	for key, value := range map[string]string{
		"html_path":     "site",
		"order":         "updated",
		"strict_links":  "true",
		"app.log_level": "debug",
		"app.http.port": "9090",
	} {
		if err := cfg.Set(key, value); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	if cfg.HTMLPath != "site" || cfg.Order != "updated" || !cfg.StrictLinks ||
		cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("settings not applied: %+v", cfg)
	}

	if err := cfg.Set("note_types", "A,B"); !errors.Is(err, ErrImmutableSetting) {
		t.Errorf("note_types: err = %v, want ErrImmutableSetting", err)
	}
	if err := cfg.Set("colour", "blue"); err == nil {
		t.Error("unknown key should fail")
	}
	if err := cfg.Set("app.http.port", "abc"); err == nil {
		t.Error("non-numeric port should fail")
	}
	if err := cfg.Set("default_new_type", "Journal"); err == nil {
		t.Error("invalid value should fail validation")
	}
}

func TestConfig_SettingsListing(t *testing.T) {
	settings := NewDefaultConfig().Settings()
	if settings[0].Key != "notes_path" || settings[0].Value != "notes" {
		t.Errorf("first setting = %+v", settings[0])
	}
	for _, s := range settings {
		if s.Key == "auth.token" {
			t.Error("token must not be listed")
		}
		if s.Key == "note_types" && s.Value != "Inbox, Archive, Reference" {
			t.Errorf("note_types = %q", s.Value)
		}
	}
}

func TestInitRepositoryAndFindRoot(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "box")

	root, err := InitRepository(ctx, dir, nil)
	if err != nil {
		t.Fatalf("InitRepository: %v", err)
	}
	for _, p := range NewDefaultConfig().Paths() {
		if fi, err := os.Stat(filepath.Join(root, p)); err != nil || !fi.IsDir() {
			t.Errorf("directory %s not created: %v", p, err)
		}
	}
	if _, err := InitRepository(ctx, dir, nil); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second init: err = %v, want ErrAlreadyExists", err)
	}

	nested := filepath.Join(root, "notes", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	found, err := FindRoot(nested)
	if err != nil || found != root {
		t.Errorf("FindRoot = %q, %v, want %q", found, err, root)
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.NotesPath != "notes" || len(cfg.NoteTypes) != 3 {
		t.Errorf("loaded config = %+v", cfg)
	}
}

func TestFindRoot_GlobalFallback(t *testing.T) {
	global := t.TempDir()
	if err := os.WriteFile(filepath.Join(global, MarkerFile), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(GlobalDirEnv, global)

	found, err := FindRoot(t.TempDir())
	if err != nil || found != global {
		t.Errorf("FindRoot = %q, %v, want %q", found, err, global)
	}

	t.Setenv(GlobalDirEnv, filepath.Join(global, "missing"))
	if _, err := FindRoot(t.TempDir()); err != nil && !errors.Is(err, apperr.ErrRepositoryNotFound) {
		t.Errorf("err = %v, want ErrRepositoryNotFound", err)
	}
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	root := t.TempDir()
	content := "notes_path: zettel\ndefault_view_type: Inbox\napp:\n  log_level: WARN\n"
	if err := os.WriteFile(filepath.Join(root, MarkerFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.NotesPath != "zettel" || cfg.DefaultViewType != "Inbox" || cfg.HTMLPath != "html" ||
		cfg.App.LogLevel != slog.LevelWarn || cfg.App.HTTP.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}
