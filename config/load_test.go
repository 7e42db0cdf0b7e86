package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExpandsCredentialEnvRefs(t *testing.T) {
	t.Setenv("CONFSYNC_TEST_PASS", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  product: grafana
  base-url: https://grafana.example.com
  auth:
    basic-auth:
      username: admin
      password: ${CONFSYNC_TEST_PASS}
snapshot:
  path: ./grafana
  commit: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://grafana.example.com" {
		t.Fatalf("unexpected base url %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Auth == nil || cfg.Server.Auth.BasicAuth == nil {
		t.Fatalf("missing basic auth")
	}
	if cfg.Server.Auth.BasicAuth.Password != "s3cret" {
		t.Fatalf("expected env expansion, got %q", cfg.Server.Auth.BasicAuth.Password)
	}
	if !cfg.Snapshot.Commit || cfg.Snapshot.Path != "./grafana" {
		t.Fatalf("unexpected snapshot config %#v", cfg.Snapshot)
	}
	if !cfg.Snapshot.AutoInitEnabled() {
		t.Fatalf("auto-init must default to enabled")
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config path")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}
