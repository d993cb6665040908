package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr() != "127.0.0.1:7333" {
		t.Errorf("Addr() = %q", cfg.Server.Addr())
	}
	if cfg.Server.Token != DefaultToken {
		t.Errorf("Token = %q", cfg.Server.Token)
	}
	if cfg.Root.Enabled {
		t.Error("root fallback enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
server:
  port: 8080
  token: secret
device:
  mode: adb
  serial: emulator-5554
root:
  enabled: true
  commandTimeoutMs: 1500
log:
  verbose: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Token != "secret" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected default host kept, got %q", cfg.Server.Host)
	}
	if cfg.Device.Mode != ModeADB || cfg.Device.Serial != "emulator-5554" || cfg.Device.DevicePort != 6790 {
		t.Errorf("device = %+v", cfg.Device)
	}
	if !cfg.Root.Enabled || cfg.Root.CommandTimeoutMs != 1500 || cfg.Root.ProbeTimeoutMs != 1200 {
		t.Errorf("root = %+v", cfg.Root)
	}
	if len(cfg.Root.Shell) != 2 || cfg.Root.Shell[0] != "su" {
		t.Errorf("root.shell = %v", cfg.Root.Shell)
	}
	if !cfg.Log.Verbose {
		t.Error("expected verbose logging")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromDir(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantPort int
	}{
		{"yaml", "config.yaml", 9001},
		{"yml", "config.yml", 9002},
		{"none", "", 7333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				content := "server:\n  port: " + map[string]string{"config.yaml": "9001", "config.yml": "9002"}[tt.file] + "\n"
				if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			cfg, err := LoadFromDir(dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Server.Port != tt.wantPort {
				t.Errorf("port = %d, want %d", cfg.Server.Port, tt.wantPort)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHost, "0.0.0.0")
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvToken, "tok")
	t.Setenv(EnvDevice, "R58M")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:9100" || cfg.Server.Token != "tok" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.BaseURL() != "http://127.0.0.1:9100" {
		t.Errorf("BaseURL() = %q", cfg.Server.BaseURL())
	}
	if cfg.Device.Mode != ModeADB || cfg.Device.Serial != "R58M" {
		t.Errorf("device = %+v", cfg.Device)
	}
}

func TestApplyEnv_BadPort(t *testing.T) {
	t.Setenv(EnvPort, "http")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"empty token", func(c *Config) { c.Server.Token = " " }, "server.token"},
		{"bad mode", func(c *Config) { c.Device.Mode = "usb" }, "device.mode"},
		{"bad device port", func(c *Config) { c.Device.DevicePort = 70000 }, "device.devicePort"},
		{"root without shell", func(c *Config) { c.Root.Enabled = true; c.Root.Shell = nil }, "root.shell"},
		{"negative timeout", func(c *Config) { c.Root.CommandTimeoutMs = -1 }, "root timeouts"},
		{"negative delay", func(c *Config) { c.Verify.DelayMs = -5 }, "verify.delayMs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = -1
	cfg.Device.Mode = "usb"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "device.mode") {
		t.Errorf("Validate() = %v", err)
	}
}
