package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kotakee/kotakee-core/internal/infrastructure/config"
)

// testConfigYAML is a full startup config with MQTT and InfluxDB disabled.
func testConfigYAML(dbPath string) string {
	return `
home:
  name: "Test Home"
  zip_code: "95051"
  rules_path: "/nonexistent/rules.json"
  rooms:
    - id: 2
      name: "bedroom"
      modules:
        - id: "bed-1"
          address: "127.0.0.1:19999"
          actions:
            - id: 50
              pins: [12]
            - id: 5050

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

weather:
  do_not_query: true

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: info
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 18092
  timeouts:
    read: 30
    write: 60
    idle: 120
`
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("KOTAKEE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	if err := os.WriteFile(configPath, []byte(testConfigYAML("")), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("KOTAKEE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_SuccessfulStartupAndShutdown tests full startup with the optional
// services disabled, then a clean shutdown via context timeout.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	if err := os.WriteFile(configPath, []byte(testConfigYAML(dbPath)), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("KOTAKEE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() error = %v, want clean shutdown", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("KOTAKEE_CONFIG", "")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("KOTAKEE_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestModuleActions verifies the config-to-module translation.
func TestModuleActions(t *testing.T) {
	mc := config.ModuleConfig{
		ID:      "bed-1",
		Address: "10.0.0.21",
		Actions: []config.ActionConfig{
			{ID: 50, Pins: []int{12}},
			{ID: 5050},
		},
	}

	ids, pins := moduleActions(mc)
	if len(ids) != 2 || ids[0] != 50 || ids[1] != 5050 {
		t.Errorf("ids = %v", ids)
	}
	if len(pins) != 1 || len(pins[50]) != 1 || pins[50][0] != 12 {
		t.Errorf("pins = %v", pins)
	}
}
