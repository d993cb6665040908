package device

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/uiautomator2"
)

// UIAutomator2 package names
const (
	UIAutomator2Server = "io.appium.uiautomator2.server"
	UIAutomator2Test   = "io.appium.uiautomator2.server.test"
)

// Port range for TCP forwarding (Windows)
const (
	portRangeStart = 6001
	portRangeEnd   = 7001
)

// stopSettle gives force-stopped processes time to exit.
var stopSettle = 300 * time.Millisecond

// UIAutomator2Config holds configuration for the UIAutomator2 server.
type UIAutomator2Config struct {
	SocketPath string        // Unix socket path (Linux/Mac only)
	LocalPort  int           // TCP port (Windows only, default: auto-find free port)
	DevicePort int           // Port on device (default: 6790)
	Timeout    time.Duration // Startup timeout (default: 30s)
}

// DefaultUIAutomator2Config returns default configuration.
func DefaultUIAutomator2Config() UIAutomator2Config {
	return UIAutomator2Config{
		DevicePort: 6790,
		Timeout:    30 * time.Second,
	}
}

// StartUIAutomator2 starts the server, forwards it to the host and opens a
// session. The returned client is ready for use.
func (d *AndroidDevice) StartUIAutomator2(ctx context.Context, cfg UIAutomator2Config) (*uiautomator2.Client, error) {
	if cfg.DevicePort == 0 {
		cfg.DevicePort = DefaultUIAutomator2Config().DevicePort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultUIAutomator2Config().Timeout
	}

	if !d.IsInstalled(UIAutomator2Server) {
		return nil, fmt.Errorf("UIAutomator2 server not installed: %s", UIAutomator2Server)
	}
	if !d.IsInstalled(UIAutomator2Test) {
		return nil, fmt.Errorf("UIAutomator2 test APK not installed: %s", UIAutomator2Test)
	}

	_ = d.StopUIAutomator2()

	var err error
	if runtime.GOOS == "windows" {
		err = d.setupTCPForward(cfg)
	} else {
		err = d.setupSocketForward(cfg)
	}
	if err != nil {
		return nil, err
	}

	instrumentCmd := fmt.Sprintf(
		"nohup am instrument -w -e disableAnalytics true "+
			"%s/androidx.test.runner.AndroidJUnitRunner "+
			"> /dev/null 2>&1 &",
		UIAutomator2Test,
	)
	if _, err := d.Shell(instrumentCmd); err != nil {
		return nil, fmt.Errorf("failed to start instrumentation: %w", err)
	}

	client := d.Client()
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.WaitReady(waitCtx, 500*time.Millisecond); err != nil {
		_ = d.StopUIAutomator2()
		return nil, err
	}
	if err := client.CreateSession(uiautomator2.Capabilities{PlatformName: "Android", DeviceName: d.serial}); err != nil {
		_ = d.StopUIAutomator2()
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Info("UIAutomator2 ready on %s (session %s)", d.serial, client.SessionID())
	return client, nil
}

// Client returns a client bound to the current forward. Before a forward
// is set up it targets the default socket path.
func (d *AndroidDevice) Client() *uiautomator2.Client {
	if d.localPort != 0 {
		return uiautomator2.NewClientTCP(d.localPort)
	}
	socketPath := d.socketPath
	if socketPath == "" {
		socketPath = d.DefaultSocketPath()
	}
	return uiautomator2.NewClient(socketPath)
}

// setupSocketForward sets up Unix socket forwarding (Linux/Mac).
func (d *AndroidDevice) setupSocketForward(cfg UIAutomator2Config) error {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = d.DefaultSocketPath()
	}

	_ = os.Remove(socketPath)

	if err := d.ForwardSocket(socketPath, cfg.DevicePort); err != nil {
		return fmt.Errorf("socket forward failed: %w", err)
	}
	d.socketPath = socketPath
	return nil
}

// setupTCPForward sets up TCP port forwarding (Windows).
func (d *AndroidDevice) setupTCPForward(cfg UIAutomator2Config) error {
	localPort := cfg.LocalPort
	if localPort == 0 {
		port, err := findFreePort(portRangeStart, portRangeEnd)
		if err != nil {
			return err
		}
		localPort = port
	}

	if err := d.Forward(localPort, cfg.DevicePort); err != nil {
		return fmt.Errorf("port forward failed: %w", err)
	}
	d.localPort = localPort
	return nil
}

// findFreePort finds a free TCP port in the given range.
func findFreePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			ln.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free port found in range %d-%d", start, end)
}

// StopUIAutomator2 stops the server and removes its forwards.
func (d *AndroidDevice) StopUIAutomator2() error {
	_, _ = d.Shell("am force-stop " + UIAutomator2Server)
	_, _ = d.Shell("am force-stop " + UIAutomator2Test)

	time.Sleep(stopSettle)

	if d.socketPath != "" {
		_ = d.RemoveSocketForward(d.socketPath)
		_ = os.Remove(d.socketPath)
		d.socketPath = ""
	}
	if d.localPort != 0 {
		_ = d.RemoveForward(d.localPort)
		d.localPort = 0
	}
	return nil
}

// InstallUIAutomator2 installs UIAutomator2 APKs from the given directory.
func (d *AndroidDevice) InstallUIAutomator2(apksDir string) error {
	apks := []struct {
		pkg     string
		pattern string
	}{
		{UIAutomator2Server, "appium-uiautomator2-server-v*.apk"},
		{UIAutomator2Test, "appium-uiautomator2-server-debug-androidTest.apk"},
	}

	for _, apk := range apks {
		if d.IsInstalled(apk.pkg) {
			continue
		}
		apkPath, err := findAPK(apksDir, apk.pattern)
		if err != nil {
			return fmt.Errorf("failed to find APK for %s: %w", apk.pkg, err)
		}
		logger.Info("installing %s", filepath.Base(apkPath))
		if err := d.Install(apkPath); err != nil {
			return fmt.Errorf("failed to install %s: %w", apk.pkg, err)
		}
	}
	return nil
}

// findAPK finds an APK file matching the pattern in the given directory.
func findAPK(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no APK found matching %s", pattern)
	}
	return matches[0], nil
}
