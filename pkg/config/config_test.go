package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_OverDefaultsWithEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	s := sample{Name: "default", Port: 1}
	if err := Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Port != 1 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	if err := Load(writeFile(t, ""), &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "default" || s.Port != 8080 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_Errors(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("missing file should fail")
	}
	s = sample{Port: 1}
	if err := Load(writeFile(t, "nmae: typo\n"), &s); err == nil {
		t.Error("unknown key should fail")
	}
	s = sample{}
	if err := Load(writeFile(t, "name: x\n"), &s); err == nil {
		t.Error("validation failure should be reported")
	}
}
