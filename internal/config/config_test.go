package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crewdeck.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath default is empty")
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFile default is empty")
	}
	if cfg.Assist.Provider != "local" {
		t.Errorf("Assist.Provider = %q, want local", cfg.Assist.Provider)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/custom.db
port: 9000
log_file: /tmp/crewdeck.log
assist:
  provider: anthropic
  api_key: sk-test
  model: some-model
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.LogFile != "/tmp/crewdeck.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.Assist.Provider != "anthropic" || cfg.Assist.APIKey != "sk-test" || cfg.Assist.Model != "some-model" {
		t.Errorf("Assist = %+v", cfg.Assist)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CREWDECK_PORT", "9999")
	t.Setenv("CREWDECK_ASSIST_PROVIDER", "local")

	cfg, err := Load(writeConfig(t, "port: 9000\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want env override 9999", cfg.Port)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	if _, err := Load(writeConfig(t, "assist:\n  provider: cloud\n")); err == nil {
		t.Error("Load() accepted unknown assist provider")
	}
}

func TestAnthropicProviderRequiresKey(t *testing.T) {
	if _, err := Load(writeConfig(t, "assist:\n  provider: anthropic\n")); err == nil {
		t.Fatal("Load() accepted anthropic provider without an api key")
	}

	t.Setenv("CREWDECK_ASSIST_API_KEY", "sk-env")
	cfg, err := Load(writeConfig(t, "assist:\n  provider: anthropic\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Assist.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want value from environment", cfg.Assist.APIKey)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() with a missing explicit file succeeded")
	}
}
