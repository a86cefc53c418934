package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("TIMEZONE", "UTC")

	cfg := LoadConfig()

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr default: %q", cfg.ListenAddr)
	}
	if cfg.StorageBackend != "file" {
		t.Fatalf("unexpected storage backend default: %q", cfg.StorageBackend)
	}
	if cfg.StoragePath != "./analytics.json" {
		t.Fatalf("unexpected storage path default: %q", cfg.StoragePath)
	}
	if cfg.AdminSecret != "bex2024" {
		t.Fatalf("unexpected admin secret default: %q", cfg.AdminSecret)
	}
	if cfg.RetentionDays != 30 {
		t.Fatalf("unexpected retention default: %d", cfg.RetentionDays)
	}
	if cfg.PruneSchedule != "0 3 * * *" {
		t.Fatalf("unexpected prune schedule default: %q", cfg.PruneSchedule)
	}
	if cfg.ReportOutputDir != "./reports" {
		t.Fatalf("unexpected report output dir default: %q", cfg.ReportOutputDir)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if cfg.SlackConfigured() {
		t.Fatal("slack should not be configured by default")
	}
}

func TestLoadConfigSQLiteDefaultPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STORAGE_BACKEND", "sqlite")

	cfg := LoadConfig()
	if cfg.StoragePath != "./analytics.db" {
		t.Fatalf("unexpected sqlite storage path default: %q", cfg.StoragePath)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9000"
storage_backend: "sqlite"
storage_path: "/tmp/yaml-analytics.db"
admin_secret: "yaml-secret"
retention_days: 14
report_schedule: "0 8 * * 1-5"
report_output_dir: "/tmp/yaml-reports"
slack_bot_token: "xoxb-yaml"
report_channel_id: "C123"
timezone: "America/Sao_Paulo"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("ADMIN_SECRET", "env-secret")
	t.Setenv("RETENTION_DAYS", "7")

	cfg := LoadConfig()

	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected listen addr from yaml, got %q", cfg.ListenAddr)
	}
	if cfg.StorageBackend != "sqlite" || cfg.StoragePath != "/tmp/yaml-analytics.db" {
		t.Fatalf("expected storage config from yaml, got %q %q", cfg.StorageBackend, cfg.StoragePath)
	}
	if cfg.AdminSecret != "env-secret" {
		t.Fatalf("expected admin secret from env override, got %q", cfg.AdminSecret)
	}
	if cfg.RetentionDays != 7 {
		t.Fatalf("expected retention from env override, got %d", cfg.RetentionDays)
	}
	if cfg.ReportSchedule != "0 8 * * 1-5" {
		t.Fatalf("expected report schedule from yaml, got %q", cfg.ReportSchedule)
	}
	if !cfg.SlackConfigured() {
		t.Fatal("expected slack configured from yaml")
	}
	if cfg.Location == nil || cfg.Location.String() != "America/Sao_Paulo" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("BX_TEST_STR", "value")
	envOverride(&s, "BX_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("BX_TEST_INT", "42")
	envOverrideInt(&i, "BX_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}
}

func TestLoadConfigInvalidBackendFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_BACKEND_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("TIMEZONE", "UTC")
		_ = os.Setenv("STORAGE_BACKEND", "redis")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidBackendFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_BACKEND_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigInvalidScheduleFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_SCHEDULE_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("TIMEZONE", "UTC")
		_ = os.Setenv("PRUNE_SCHEDULE", "not a cron expression")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidScheduleFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_SCHEDULE_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
