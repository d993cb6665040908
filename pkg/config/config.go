// Package config handles configuration for a11y-kernel.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Device modes
const (
	ModeLocal = "local" // kernel runs on the device itself
	ModeADB   = "adb"   // kernel runs on a workstation and reaches the device over adb
)

// Environment overrides
const (
	EnvHost   = "A11Y_HOST"
	EnvPort   = "A11Y_PORT"
	EnvToken  = "A11Y_TOKEN"
	EnvDevice = "A11Y_DEVICE"
)

// DefaultToken is the development bearer token.
const DefaultToken = "openclaw-dev-token"

// Config represents the kernel configuration (config.yaml).
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Device  DeviceConfig  `yaml:"device"`
	Root    RootConfig    `yaml:"root"`
	Gesture GestureConfig `yaml:"gesture"`
	Verify  VerifyConfig  `yaml:"verify"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig is the local HTTP API.
type ServerConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the URL clients use to reach the API.
func (s ServerConfig) BaseURL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

// DeviceConfig selects how the UIAutomator2 server is reached.
type DeviceConfig struct {
	Mode       string `yaml:"mode"`       // local or adb
	Serial     string `yaml:"serial"`     // adb serial, auto-detected when empty
	DevicePort int    `yaml:"devicePort"` // UIAutomator2 port on the device
	SocketPath string `yaml:"socketPath"` // host-side forward socket (adb mode)
}

// RootConfig controls the privileged fallback.
type RootConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Shell            []string `yaml:"shell"` // argv prefix, command appended last
	ProbeTimeoutMs   int      `yaml:"probeTimeoutMs"`
	CommandTimeoutMs int      `yaml:"commandTimeoutMs"`
}

// GestureConfig controls gesture dispatch.
type GestureConfig struct {
	Enabled bool `yaml:"enabled"`
	WaitMs  int  `yaml:"waitMs"`
}

// VerifyConfig controls post-action checks.
type VerifyConfig struct {
	DelayMs int `yaml:"delayMs"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 7333, Token: DefaultToken},
		Device: DeviceConfig{Mode: ModeLocal, DevicePort: 6790},
		Root: RootConfig{
			Enabled:          false,
			Shell:            []string{"su", "-c"},
			ProbeTimeoutMs:   1200,
			CommandTimeoutMs: 2000,
		},
		Gesture: GestureConfig{Enabled: true, WaitMs: 300},
		Verify:  VerifyConfig{DelayMs: 350},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found
	return Default(), nil
}

// ApplyEnv overrides fields from A11Y_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv(EnvDevice); v != "" {
		c.Device.Mode = ModeADB
		c.Device.Serial = v
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Server.Token) == "" {
		errs = append(errs, errors.New("server.token must not be empty"))
	}
	switch c.Device.Mode {
	case ModeLocal, ModeADB:
	default:
		errs = append(errs, fmt.Errorf("device.mode %q must be %q or %q", c.Device.Mode, ModeLocal, ModeADB))
	}
	if c.Device.DevicePort <= 0 || c.Device.DevicePort > 65535 {
		errs = append(errs, fmt.Errorf("device.devicePort %d out of range", c.Device.DevicePort))
	}
	if c.Root.Enabled && len(c.Root.Shell) == 0 {
		errs = append(errs, errors.New("root.shell must not be empty when root is enabled"))
	}
	if c.Root.ProbeTimeoutMs < 0 || c.Root.CommandTimeoutMs < 0 {
		errs = append(errs, errors.New("root timeouts must not be negative"))
	}
	if c.Gesture.WaitMs < 0 || c.Verify.DelayMs < 0 {
		errs = append(errs, errors.New("gesture.waitMs and verify.delayMs must not be negative"))
	}
	return errors.Join(errs...)
}
