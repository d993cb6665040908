// Package cli provides the command-line interface for a11y-kernel.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/openclaw/a11y-kernel/pkg/config"
	"github.com/openclaw/a11y-kernel/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: <home>/config.yaml when present)",
		EnvVars: []string{"A11Y_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"s"},
		Usage:   "adb serial; selects adb mode",
		EnvVars: []string{config.EnvDevice},
	},
	&cli.StringFlag{
		Name:    "host",
		Usage:   "API host",
		EnvVars: []string{config.EnvHost},
	},
	&cli.IntFlag{
		Name:    "port",
		Usage:   "API port",
		EnvVars: []string{config.EnvPort},
	},
	&cli.StringFlag{
		Name:    "token",
		Usage:   "API bearer token",
		EnvVars: []string{config.EnvToken},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
		EnvVars: []string{"A11Y_VERBOSE"},
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "a11y-kernel",
		Usage:   "Accessibility action kernel for Android agents",
		Version: Version,
		Description: `a11y-kernel executes UI intents (tap, type, scroll, ...) against an
Android device, preferring accessibility actions and falling back to
gestures and root input injection.

Examples:
  a11y-kernel serve
  a11y-kernel --device emulator-5554 serve
  a11y-kernel serve --mock
  a11y-kernel act --action tap --by text --value "Log in" --fallback-x 540 --fallback-y 700
  a11y-kernel screen`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			serveCommand,
			mcpCommand,
			actCommand,
			screenCommand,
			healthCommand,
			capabilitiesCommand,
			probeRootCommand,
			setupCommand,
			runCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, then applies environment and flag
// overrides in that order, and validates the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg, err = config.LoadFromDir(config.GetHome())
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set global flags over cfg.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("token") {
		cfg.Server.Token = c.String("token")
	}
	if c.IsSet("device") {
		cfg.Device.Mode = config.ModeADB
		cfg.Device.Serial = c.String("device")
	}
	if c.Bool("verbose") {
		cfg.Log.Verbose = true
	}
}

// logFileName is the default log file under the home log dir.
const logFileName = "a11y-kernel.log"

// useDefaultLogFile points long-running commands at <home>/logs when no
// log file is configured.
func useDefaultLogFile(cfg *config.Config) {
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(config.GetLogDir(), logFileName)
	}
}

// initLogging sends logs to the configured file, or to stderr.
func initLogging(cfg *config.Config) error {
	logger.SetVerbose(cfg.Log.Verbose)
	if cfg.Log.File == "" {
		logger.InitWriter(os.Stderr)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	return logger.Init(cfg.Log.File)
}
