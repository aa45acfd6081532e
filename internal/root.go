package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/storage"
	pkgconfig "github.com/starford/slipbox/pkg/config"
)

const (
	// MarkerFile marks a repository root and holds its settings.
	MarkerFile = ".slipbox"
	// GlobalDirEnv names a repository used when none is found above the
	// working directory.
	GlobalDirEnv = "SB_GLOBAL_DIR"
)

// FindRoot walks up from start looking for MarkerFile. Failing that it tries
// $SB_GLOBAL_DIR and then the per-user data directory.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if hasMarker(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if global := os.Getenv(GlobalDirEnv); global != "" && hasMarker(global) {
		return filepath.Abs(global)
	}
	if data := filepath.Join(xdg.DataHome, "slipbox"); hasMarker(data) {
		return data, nil
	}
	return "", fmt.Errorf("%w in %s or any parent; set %s to use a global one", apperr.ErrRepositoryNotFound, start, GlobalDirEnv)
}

func hasMarker(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, MarkerFile))
	return err == nil && fi.Mode().IsRegular()
}

// LoadConfig reads the marker file in root over the defaults. An empty
// marker file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(filepath.Join(root, MarkerFile), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to the marker file under the repository lock and
// creates any directory it names.
func SaveConfig(ctx context.Context, store storage.Provider, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	unlock, err := store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := store.Write(MarkerFile, data); err != nil {
		return err
	}
	return createDirs(store, cfg)
}

// InitRepository creates a repository in dir: the marker file holding cfg
// and every directory cfg names. dir must not already be a repository.
func InitRepository(ctx context.Context, dir string, cfg *Config) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("init: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if hasMarker(root) {
		return "", fmt.Errorf("init: %s: %w", filepath.Join(root, MarkerFile), apperr.ErrAlreadyExists)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := SaveConfig(ctx, store, cfg); err != nil {
		return "", err
	}
	return root, nil
}

func createDirs(store storage.Provider, cfg *Config) error {
	var errs []error
	for _, p := range cfg.Paths() {
		errs = append(errs, store.MkdirAll(p))
	}
	return errors.Join(errs...)
}
