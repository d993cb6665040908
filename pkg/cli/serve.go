package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/a11y-kernel/pkg/config"
	"github.com/openclaw/a11y-kernel/pkg/device"
	"github.com/openclaw/a11y-kernel/pkg/driver/mock"
	uia2driver "github.com/openclaw/a11y-kernel/pkg/driver/uiautomator2"
	"github.com/openclaw/a11y-kernel/pkg/executor"
	"github.com/openclaw/a11y-kernel/pkg/gesture"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/mcpserver"
	"github.com/openclaw/a11y-kernel/pkg/root"
	"github.com/openclaw/a11y-kernel/pkg/server"
	"github.com/openclaw/a11y-kernel/pkg/session"
	"github.com/openclaw/a11y-kernel/pkg/uiautomator2"
)

// UIAutomator2 startup and liveness
const (
	uia2ReadyTimeout  = 30 * time.Second
	uia2PollInterval  = 500 * time.Millisecond
	uia2WatchInterval = 30 * time.Second
)

var mockFlag = &cli.BoolFlag{
	Name:  "mock",
	Usage: "Use an in-memory demo screen instead of a device",
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Run the local HTTP API",
	Description: `Serve /health, /capabilities, /screen, /act and /metrics.

In local mode (default) the kernel runs on the device and talks to the
UIAutomator2 server on 127.0.0.1:<devicePort>. With --device it runs on a
workstation and reaches the device over adb.

Examples:
  a11y-kernel serve
  a11y-kernel --device emulator-5554 --port 7333 serve
  a11y-kernel serve --mock`,
	Flags:  []cli.Flag{mockFlag},
	Action: runServe,
}

var mcpCommand = &cli.Command{
	Name:  "mcp",
	Usage: "Serve the kernel as MCP tools over stdio",
	Description: `Expose screen, act and capabilities as MCP tools for agent hosts.

Examples:
  a11y-kernel mcp
  a11y-kernel --device emulator-5554 mcp`,
	Flags:  []cli.Flag{mockFlag},
	Action: runMCP,
}

// kernel is a session plus whatever it holds open on the device.
type kernel struct {
	session *session.Session
	uia2    *uiautomator2.Client
	cleanup func()
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	useDefaultLogFile(cfg)
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()
	fmt.Fprintf(os.Stderr, "logging to %s\n", cfg.Log.File)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	k, err := buildKernel(ctx, cfg, c.Bool("mock"))
	if err != nil {
		return err
	}
	defer k.cleanup()

	caps := k.session.Capabilities()
	logger.Info("capabilities: root_available=%v root_fallback=%v gesture=%v actions=%v",
		caps.RootAvailable, caps.RootFallback, caps.GestureDispatch, caps.Actions)

	srv := server.New(k.session, cfg.Server.Token)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.Addr())
	})
	if k.uia2 != nil {
		g.Go(func() error {
			watchUIAutomator2(gctx, k.uia2, uia2WatchInterval)
			return nil
		})
	}

	fmt.Fprintf(os.Stderr, "a11y-kernel %s listening on %s\n", Version, cfg.Server.BaseURL())
	return g.Wait()
}

func runMCP(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs must go elsewhere.
	useDefaultLogFile(cfg)
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()

	k, err := buildKernel(c.Context, cfg, c.Bool("mock"))
	if err != nil {
		return err
	}
	defer k.cleanup()

	return mcpserver.New(k.session, Version).ServeStdio()
}

// buildKernel wires the host, gesture bridge, privileged runner and
// session for the configured mode.
func buildKernel(ctx context.Context, cfg *config.Config, useMock bool) (*kernel, error) {
	opts := session.Options{
		VerifyDelay: time.Duration(cfg.Verify.DelayMs) * time.Millisecond,
		APIPort:     cfg.Server.Port,
		OnDevice:    cfg.Device.Mode == config.ModeLocal,
	}

	if useMock {
		host := mock.New(mock.Config{})
		engine := executor.New(host, newGestures(cfg, host), nil)
		logger.Info("using mock host")
		return &kernel{session: session.New(engine, host, opts), cleanup: func() {}}, nil
	}

	var (
		client   *uiautomator2.Client
		launcher root.Launcher
		cleanup  func()
	)
	switch cfg.Device.Mode {
	case config.ModeADB:
		dev, err := device.New(cfg.Device.Serial)
		if err != nil {
			return nil, fmt.Errorf("connect to device: %w", err)
		}
		socketPath := cfg.Device.SocketPath
		if socketPath == "" {
			socketPath = dev.DefaultSocketPath()
		}
		if isSocketInUse(socketPath) {
			return nil, fmt.Errorf("device %s is already in use\n"+
				"Another a11y-kernel instance may be serving it.\n"+
				"Socket: %s", dev.Serial(), socketPath)
		}
		client, err = dev.StartUIAutomator2(ctx, device.UIAutomator2Config{
			SocketPath: socketPath,
			DevicePort: cfg.Device.DevicePort,
			Timeout:    uia2ReadyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("start UIAutomator2 (run 'a11y-kernel setup' first?): %w", err)
		}
		launcher = dev.PrivilegedLauncher()
		cleanup = func() {
			_ = client.Close()
			_ = dev.StopUIAutomator2()
		}

	default:
		client = uiautomator2.NewClientTCP(cfg.Device.DevicePort)
		waitCtx, cancel := context.WithTimeout(ctx, uia2ReadyTimeout)
		err := client.WaitReady(waitCtx, uia2PollInterval)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("UIAutomator2 server on port %d: %w", cfg.Device.DevicePort, err)
		}
		if err := client.CreateSession(uiautomator2.Capabilities{PlatformName: "Android"}); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		launcher = root.Launcher{Argv: cfg.Root.Shell}
		cleanup = func() { _ = client.Close() }
	}

	host := uia2driver.New(client)
	var privileged executor.Privileged
	if cfg.Root.Enabled {
		privileged = newRunner(cfg, launcher)
	}
	engine := executor.New(host, newGestures(cfg, host), privileged)

	return &kernel{
		session: session.New(engine, host, opts),
		uia2:    client,
		cleanup: cleanup,
	}, nil
}

// newGestures returns nil when gesture dispatch is disabled.
func newGestures(cfg *config.Config, d gesture.Dispatcher) executor.Gestures {
	if !cfg.Gesture.Enabled {
		return nil
	}
	b := gesture.NewBridge(d)
	b.SetWait(time.Duration(cfg.Gesture.WaitMs) * time.Millisecond)
	return b
}

func newRunner(cfg *config.Config, launcher root.Launcher) *root.Runner {
	r := root.New(launcher)
	r.SetDefaultTimeout(time.Duration(cfg.Root.CommandTimeoutMs) * time.Millisecond)
	r.SetProbeTimeout(time.Duration(cfg.Root.ProbeTimeoutMs) * time.Millisecond)
	return r
}

// watchUIAutomator2 logs when the UIAutomator2 server stops answering.
func watchUIAutomator2(ctx context.Context, client *uiautomator2.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := client.Status()
			switch {
			case (err != nil || !ok) && healthy:
				logger.Warn("UIAutomator2 server not responding: %v", err)
				healthy = false
			case err == nil && ok && !healthy:
				logger.Info("UIAutomator2 server responding again")
				healthy = true
			}
		}
	}
}
