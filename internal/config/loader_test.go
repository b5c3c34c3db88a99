package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okravets/volleyball-match-service/internal/config"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestConfigLoad_FromYAMLAndEnv(t *testing.T) {
	yaml := `
app:
  name: volleyball-match-service
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json
  output_target: stdout
  env: test

postgres:
  host: 127.0.0.1
  port: 5432
  user: fileuser
  password: filepass
  dbname: filedb
  sslmode: disable
  max_conns: 5
  min_conns: 1
`
	path := writeTempConfig(t, yaml)

	// Secrets come from ENV using the canonical APP_* names.
	t.Setenv("APP_POSTGRES_USER", "envuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "envpass")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Port != 18080 {
		t.Fatalf("expected app.port 18080, got %d", cfg.App.Port)
	}
	if cfg.Postgres.User != "envuser" || cfg.Postgres.Password != "envpass" {
		t.Fatalf("env overrides not applied: user=%q pass=%q", cfg.Postgres.User, cfg.Postgres.Password)
	}
	if cfg.Postgres.DBName != "filedb" || cfg.Postgres.SSLMode != "disable" {
		t.Fatalf("yaml values not loaded: dbname=%q sslmode=%q", cfg.Postgres.DBName, cfg.Postgres.SSLMode)
	}
}

func TestConfigLoad_DefaultsApplied(t *testing.T) {
	yaml := `
app:
  env: test

logger:
  env: test

postgres:
  host: localhost
  dbname: matches
`
	path := writeTempConfig(t, yaml)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Port != 8080 || cfg.App.Name == "" {
		t.Fatalf("app defaults not applied: %+v", cfg.App)
	}
	if cfg.Postgres.Port != 5432 || cfg.Postgres.MaxConns != 10 || cfg.Postgres.MinConns != 2 {
		t.Fatalf("postgres defaults not applied: %+v", cfg.Postgres)
	}
}

func TestConfigLoad_MissingDBNameFails(t *testing.T) {
	yaml := `
app:
  env: test

logger:
  env: test

postgres:
  host: localhost
`
	path := writeTempConfig(t, yaml)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error without dbname")
	}
}

func TestConfigLoad_MissingFileFails(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}
