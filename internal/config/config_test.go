package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TASKDESK_CONFIG_DIR", dir)
	for _, k := range []string{"TASKDESK_BASE_URL", "TASKDESK_LOG_LEVEL", "TASKDESK_TIMEOUT", "TASKDESK_FORMAT", "TASKDESK_STATE_DIR"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Timeout)
	}
	if cfg.StateDir != dir {
		t.Fatalf("expected state dir %q, got %q", dir, cfg.StateDir)
	}
	if cfg.Format != "json" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected format/log level: %q %q", cfg.Format, cfg.LogLevel)
	}
}

func TestLoad_Precedence_FlagOverEnvOverFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("base_url: http://file:1\ntimeout: 3s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://file:1" || cfg.Timeout != 3*time.Second {
		t.Fatalf("expected file values, got %+v", cfg)
	}

	t.Setenv("TASKDESK_BASE_URL", "http://env:2")
	cfg, err = Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://env:2" {
		t.Fatalf("expected env to win over file, got %q", cfg.BaseURL)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	if err := fs.Parse([]string{"--base-url", "http://flag:3"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err = Load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://flag:3" {
		t.Fatalf("expected flag to win over env, got %q", cfg.BaseURL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".env", []byte("TASKDESK_BASE_URL=http://dotenv:4\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://dotenv:4" {
		t.Fatalf("expected .env value, got %q", cfg.BaseURL)
	}
}

func TestLoad_InvalidTimeout_Errors(t *testing.T) {
	isolate(t)
	t.Setenv("TASKDESK_TIMEOUT", "soon")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for invalid timeout")
	}
}

func TestSet_PersistsAndKeepsOtherKeys(t *testing.T) {
	isolate(t)
	if _, err := Set(KeyBaseURL, "http://saved:5"); err != nil {
		t.Fatalf("set base url: %v", err)
	}
	if _, err := Set(KeyTimeout, "20s"); err != nil {
		t.Fatalf("set timeout: %v", err)
	}
	if _, err := Set("nope", "x"); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://saved:5" || cfg.Timeout != 20*time.Second {
		t.Fatalf("expected saved values, got %+v", cfg)
	}
}
