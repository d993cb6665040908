package cli

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/openclaw/a11y-kernel/pkg/config"
	"github.com/openclaw/a11y-kernel/pkg/device"
	"github.com/openclaw/a11y-kernel/pkg/root"
)

var setupCommand = &cli.Command{
	Name:  "setup",
	Usage: "Install and start the UIAutomator2 server on a device over adb",
	Description: `Installs the UIAutomator2 server APKs from <home>/drivers/android (or
--apks), starts the server, opens a session and checks root.

Examples:
  a11y-kernel setup
  a11y-kernel --device emulator-5554 setup --apks ./drivers/android`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "apks",
			Usage: "Directory containing the UIAutomator2 server APKs",
		},
		&cli.BoolFlag{
			Name:  "keep-running",
			Usage: "Leave the UIAutomator2 server running after the check",
			Value: true,
		},
	},
	Action: runSetup,
}

var probeRootCommand = &cli.Command{
	Name:  "probe-root",
	Usage: "Check whether the privileged shell works",
	Description: `Runs "id" through the configured privileged shell (su -c on the device,
adb shell su -c with --device) and reports whether it ran as uid 0.`,
	Action: runProbeRoot,
}

func runSetup(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	start := time.Now()
	if cfg.Device.Serial != "" {
		printSetupStep(fmt.Sprintf("Connecting to device %s...", cfg.Device.Serial))
	} else {
		printSetupStep("Connecting to device...")
	}
	dev, err := device.New(cfg.Device.Serial)
	if err != nil {
		printSetupFailure(err.Error())
		return fmt.Errorf("connect to device: %w", err)
	}
	info, err := dev.Info()
	if err != nil {
		return fmt.Errorf("get device info: %w", err)
	}
	printSetupSuccess(fmt.Sprintf("Connected to %s %s (SDK %s)", info.Brand, info.Model, info.SDK))

	if !dev.IsInstalled(device.UIAutomator2Server) || !dev.IsInstalled(device.UIAutomator2Test) {
		apks := c.String("apks")
		if apks == "" {
			apks = config.GetDriversDir("android")
		}
		printSetupStep("Installing UIAutomator2 APKs...")
		if err := dev.InstallUIAutomator2(apks); err != nil {
			printSetupFailure(err.Error())
			return fmt.Errorf("install UIAutomator2: %w", err)
		}
		printSetupSuccess("UIAutomator2 installed")
	}

	printSetupStep("Starting UIAutomator2 server...")
	client, err := dev.StartUIAutomator2(c.Context, device.UIAutomator2Config{
		SocketPath: cfg.Device.SocketPath,
		DevicePort: cfg.Device.DevicePort,
		Timeout:    uia2ReadyTimeout,
	})
	if err != nil {
		printSetupFailure(err.Error())
		return fmt.Errorf("start UIAutomator2: %w", err)
	}
	printSetupSuccess(fmt.Sprintf("Session %s created", client.SessionID()))

	printSetupStep("Checking root...")
	if newRunner(cfg, dev.PrivilegedLauncher()).IsAvailable() {
		printSetupSuccess("Root available")
	} else {
		printSetupWarning("Root not available; launch_app, keyevent and swipe will be disabled")
	}

	_ = client.Close()
	if !c.Bool("keep-running") {
		_ = dev.StopUIAutomator2()
	}
	printSetupSuccess("Setup finished in " + elapsedString(time.Since(start)))
	return nil
}

func runProbeRoot(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	launcher := root.Launcher{Argv: cfg.Root.Shell}
	if cfg.Device.Mode == config.ModeADB {
		dev, err := device.New(cfg.Device.Serial)
		if err != nil {
			return fmt.Errorf("connect to device: %w", err)
		}
		launcher = dev.PrivilegedLauncher()
	}

	r := newRunner(cfg, launcher)
	available, out := r.Probe()
	if err := printJSON(c.App.Writer, map[string]interface{}{
		"root_available": available,
		"launcher":       launcher.Argv,
		"stdout":         out.Stdout,
		"stderr":         out.Stderr,
	}); err != nil {
		return err
	}
	if !available {
		return cli.Exit("", 1)
	}
	return nil
}
