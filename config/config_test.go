package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromINIFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "database.ini")
	contents := "[database]\ndefault = primary\n\n[connections.primary]\ndriver = sqlite\ndatabase = :memory:\nlog_queries = true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvConfigPath, path)
	t.Setenv("DATABASE_URL", "")

	configs, defaultName, err := Load("DATABASE_URL")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if defaultName != "primary" {
		t.Errorf("defaultName = %q, want primary", defaultName)
	}
	cfg, ok := configs["primary"]
	if !ok {
		t.Fatal("expected a \"primary\" connection config")
	}
	if cfg.Driver != "sqlite" || cfg.Database != ":memory:" || !cfg.LogQueries {
		t.Errorf("cfg = %+v, want sqlite :memory: with log_queries", cfg)
	}
}

func TestLoadFromDatabaseURLEnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, filepath.Join(dir, "nonexistent.ini"))
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost:5432/app")

	configs, defaultName, err := Load("DATABASE_URL")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if defaultName != "default" {
		t.Errorf("defaultName = %q, want default", defaultName)
	}
	cfg := configs["default"]
	if cfg.Driver != "postgres" || cfg.Host != "localhost" || cfg.Port != 5432 || cfg.Database != "app" {
		t.Errorf("cfg = %+v, want parsed postgres URL", cfg)
	}
}

func TestLoadFailsWithNoConnections(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, filepath.Join(dir, "nonexistent.ini"))
	t.Setenv("DATABASE_URL", "")

	if _, _, err := Load("DATABASE_URL"); err == nil {
		t.Fatal("expected an error when neither the ini file nor DATABASE_URL is set")
	}
}
