package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/coordd/internal/memory"
)

// setupTestHome points HOME at a temp directory for the test.
func setupTestHome(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	return tmpHome
}

func writeTestConfig(t *testing.T, home, content string) string {
	t.Helper()
	configDir := filepath.Join(home, ".config", "coordd")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	home := setupTestHome(t)
	configPath := writeTestConfig(t, home, `server:
  http_port: 8088
  shutdown_timeout: 5s

pipeline:
  time_budget: 60ms
  enrichment_limit: 5

memory:
  provider: none

logging:
  level: debug
`)

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Port != 8088 {
		t.Errorf("Server.Port = %d, want 8088", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Pipeline.TimeBudget != 60*time.Millisecond {
		t.Errorf("Pipeline.TimeBudget = %v, want 60ms", cfg.Pipeline.TimeBudget)
	}
	if cfg.Pipeline.EnrichmentLimit != 5 {
		t.Errorf("Pipeline.EnrichmentLimit = %d, want 5", cfg.Pipeline.EnrichmentLimit)
	}
	if cfg.Memory.Provider != memory.ProviderNone {
		t.Errorf("Memory.Provider = %q, want %q", cfg.Memory.Provider, memory.ProviderNone)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	home := setupTestHome(t)
	configPath := writeTestConfig(t, home, `server:
  http_port: 8088
`)

	t.Setenv("SERVER_HTTP_PORT", "7777")

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (from env override)", cfg.Server.Port)
	}
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	home := setupTestHome(t)
	configPath := filepath.Join(home, ".config", "coordd", "config.yaml")

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() should not error on missing file, got: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want default 9090", cfg.Server.Port)
	}
	if cfg.Memory.Provider != memory.ProviderChromem {
		t.Errorf("Memory.Provider = %q, want default chromem", cfg.Memory.Provider)
	}
	if cfg.Pipeline.DisablePolish {
		t.Error("Pipeline.DisablePolish = true, want polish enabled by default")
	}
	if !cfg.Pipeline.Options().EnablePolish {
		t.Error("Options().EnablePolish = false, want true")
	}
}

func TestLoadWithFile_Validation(t *testing.T) {
	home := setupTestHome(t)
	configPath := writeTestConfig(t, home, `server:
  http_port: 99999
`)

	if _, err := LoadWithFile(configPath); err == nil {
		t.Error("LoadWithFile() should error on invalid port, got nil")
	}
}

func TestLoadWithFile_PathTraversal(t *testing.T) {
	setupTestHome(t)

	_, err := LoadWithFile("../../../../etc/passwd")
	if err == nil {
		t.Fatal("Expected error for path traversal, got nil")
	}
	if !strings.Contains(err.Error(), "must be in ~/.config/coordd/ or /etc/coordd/") {
		t.Errorf("Expected path validation error, got: %v", err)
	}
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	home := setupTestHome(t)
	configPath := writeTestConfig(t, home, "server:\n  http_port: 8088\n")
	if err := os.Chmod(configPath, 0o644); err != nil {
		t.Fatalf("Failed to chmod test config: %v", err)
	}

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("Expected error for insecure permissions, got nil")
	}
	if !strings.Contains(err.Error(), "permissions") {
		t.Errorf("Expected permissions error, got: %v", err)
	}
}

func TestLoadWithFile_FileTooLarge(t *testing.T) {
	home := setupTestHome(t)
	large := strings.Repeat("# comment line\n", 150000)
	configPath := writeTestConfig(t, home, large)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("Expected error for large file, got nil")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected 'too large' error, got: %v", err)
	}
}
