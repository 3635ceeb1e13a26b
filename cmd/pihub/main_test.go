package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetConfigPath(t *testing.T) {
	original := os.Getenv("PIHUB_CONFIG")
	defer os.Setenv("PIHUB_CONFIG", original)

	os.Setenv("PIHUB_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("PIHUB_CONFIG", "/etc/pihub/config.yaml")
	if got := getConfigPath(); got != "/etc/pihub/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}

func TestRunInvalidConfigPath(t *testing.T) {
	original := os.Getenv("PIHUB_CONFIG")
	defer os.Setenv("PIHUB_CONFIG", original)

	os.Setenv("PIHUB_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with a nonexistent config path")
	}
}

// TestRunSimulated boots the full hub against simulated hardware and
// shuts it down again.
func TestRunSimulated(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
hardware:
  mode: simulated

sensors:
  dht22:
    poll_interval: 1
    aggregate_interval: 1
    units:
      - pin: 4
        name: test_dht
        location: test
  ds18b20:
    poll_interval: 1
    aggregate_interval: 1
    units:
      - id: "000000b239d5"
        name: test_ds
        location: test

relays:
  reconcile_interval: 1
  units:
    - id: relay_17
      pin: 17
      name: test_relay
      active_high: false
      initial: false

api:
  host: 127.0.0.1
  port: 18099

database:
  path: ` + filepath.Join(tmpDir, "pihub.db") + `

logging:
  level: error
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatal(err)
	}

	original := os.Getenv("PIHUB_CONFIG")
	defer os.Setenv("PIHUB_CONFIG", original)
	os.Setenv("PIHUB_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() with simulated hardware: %v", err)
	}
}
