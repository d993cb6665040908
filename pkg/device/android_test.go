package device

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeADB answers adb invocations from a table keyed by the joined
// arguments after the serial.
type fakeADB struct {
	responses map[string]string
	failures  map[string]string
	calls     []string
}

func (f *fakeADB) run(name string, args ...string) (string, string, error) {
	if len(args) >= 2 && args[0] == "-s" {
		args = args[2:]
	}
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if msg, ok := f.failures[key]; ok {
		return "", msg, errors.New("exit status 1")
	}
	return f.responses[key], "", nil
}

func newFakeDevice(t *testing.T, f *fakeADB) *AndroidDevice {
	t.Helper()
	d, err := newDevice("/usr/bin/adb", "emulator-5554", f.run)
	if err != nil {
		t.Fatalf("newDevice() error = %v", err)
	}
	return d
}

func TestParseDevices(t *testing.T) {
	out := `* daemon started successfully
List of devices attached
emulator-5554	device
R58M123	unauthorized
192.168.1.9:5555	device

`
	got := parseDevices(out)
	if len(got) != 2 || got[0] != "emulator-5554" || got[1] != "192.168.1.9:5555" {
		t.Errorf("parseDevices() = %v", got)
	}
	if len(parseDevices("List of devices attached\n")) != 0 {
		t.Error("expected no devices")
	}
}

func TestNewDevice_AutoDetect(t *testing.T) {
	f := &fakeADB{responses: map[string]string{"devices": "List of devices attached\nabc123\tdevice\n"}}
	d, err := newDevice("adb", "", f.run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Serial() != "abc123" {
		t.Errorf("Serial() = %q", d.Serial())
	}
}

func TestNewDevice_NoDevices(t *testing.T) {
	f := &fakeADB{responses: map[string]string{"devices": "List of devices attached\n"}}
	if _, err := newDevice("adb", "", f.run); err == nil {
		t.Fatal("expected error")
	}

	failing := &fakeADB{failures: map[string]string{"devices": "cannot connect to daemon"}}
	if _, err := newDevice("adb", "", failing.run); err == nil || !strings.Contains(err.Error(), "cannot connect") {
		t.Errorf("error = %v", err)
	}
}

func TestShellAndErrors(t *testing.T) {
	f := &fakeADB{
		responses: map[string]string{"shell echo hi": "hi\n"},
		failures:  map[string]string{"shell false": "boom"},
	}
	d := newFakeDevice(t, f)

	out, err := d.Shell("echo hi")
	if err != nil || out != "hi\n" {
		t.Errorf("Shell() = %q, %v", out, err)
	}
	_, err = d.Shell("false")
	if err == nil || !strings.Contains(err.Error(), "boom") || !strings.Contains(err.Error(), "adb shell false") {
		t.Errorf("Shell() error = %v", err)
	}
}

func TestIsInstalled(t *testing.T) {
	f := &fakeADB{responses: map[string]string{
		"shell pm list packages " + UIAutomator2Server: "package:io.appium.uiautomator2.server\npackage:io.appium.uiautomator2.server.test\n",
		"shell pm list packages com.x":                 "package:com.xyz\n",
	}}
	d := newFakeDevice(t, f)
	if !d.IsInstalled(UIAutomator2Server) {
		t.Error("expected server installed")
	}
	if d.IsInstalled("com.x") {
		t.Error("prefix match counted as installed")
	}
}

func TestInfo(t *testing.T) {
	f := &fakeADB{responses: map[string]string{
		"shell getprop ro.product.model":     "Pixel 7\n",
		"shell getprop ro.build.version.sdk": "34\n",
		"shell getprop ro.product.brand":     "google\n",
		"shell getprop ro.kernel.qemu":       "1\n",
	}}
	info, err := newFakeDevice(t, f).Info()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DeviceInfo{Serial: "emulator-5554", Model: "Pixel 7", SDK: "34", Brand: "google", IsEmulator: true}
	if info != want {
		t.Errorf("Info() = %+v, want %+v", info, want)
	}
}

func TestForwards(t *testing.T) {
	f := &fakeADB{}
	d := newFakeDevice(t, f)
	_ = d.Forward(7001, 6790)
	_ = d.ForwardSocket("/tmp/x.sock", 6790)
	_ = d.RemoveForward(7001)
	_ = d.RemoveSocketForward("/tmp/x.sock")

	want := []string{
		"forward tcp:7001 tcp:6790",
		"forward localfilesystem:/tmp/x.sock tcp:6790",
		"forward --remove tcp:7001",
		"forward --remove localfilesystem:/tmp/x.sock",
	}
	if strings.Join(f.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestPrivilegedLauncher(t *testing.T) {
	d := newFakeDevice(t, &fakeADB{})
	l := d.PrivilegedLauncher()
	want := []string{"/usr/bin/adb", "-s", "emulator-5554", "shell", "su", "-c"}
	if strings.Join(l.Argv, " ") != strings.Join(want, " ") || !l.Quote {
		t.Errorf("PrivilegedLauncher() = %+v", l)
	}
}

func TestStartUIAutomator2_NotInstalled(t *testing.T) {
	d := newFakeDevice(t, &fakeADB{})
	_, err := d.StartUIAutomator2(t.Context(), DefaultUIAutomator2Config())
	if err == nil || !strings.Contains(err.Error(), "not installed") {
		t.Errorf("error = %v", err)
	}
}

func TestStopUIAutomator2(t *testing.T) {
	stopSettle = time.Millisecond
	t.Cleanup(func() { stopSettle = 300 * time.Millisecond })

	f := &fakeADB{}
	d := newFakeDevice(t, f)
	d.socketPath = filepath.Join(t.TempDir(), "uia2.sock")
	d.localPort = 7005

	if err := d.StopUIAutomator2(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.SocketPath() != "" || d.LocalPort() != 0 {
		t.Errorf("forwards not cleared: %q %d", d.SocketPath(), d.LocalPort())
	}
	joined := strings.Join(f.calls, "|")
	for _, want := range []string{"shell am force-stop " + UIAutomator2Server, "forward --remove tcp:7005"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing call %q in %v", want, f.calls)
		}
	}
}

func TestClientTargetsForward(t *testing.T) {
	d := newFakeDevice(t, &fakeADB{})
	if d.Client() == nil {
		t.Fatal("Client() = nil")
	}
	d.localPort = 7010
	if d.Client() == nil {
		t.Fatal("Client() = nil with TCP forward")
	}
}

func TestFindAPK(t *testing.T) {
	dir := t.TempDir()
	apk := filepath.Join(dir, "appium-uiautomator2-server-v7.0.0.apk")
	if err := os.WriteFile(apk, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := findAPK(dir, "appium-uiautomator2-server-v*.apk")
	if err != nil || got != apk {
		t.Errorf("findAPK() = %q, %v", got, err)
	}
	if _, err := findAPK(dir, "missing-*.apk"); err == nil {
		t.Error("expected error for missing APK")
	}
}

func TestInstallUIAutomator2(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"appium-uiautomator2-server-v7.0.0.apk", "appium-uiautomator2-server-debug-androidTest.apk"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	f := &fakeADB{}
	if err := newFakeDevice(t, f).InstallUIAutomator2(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	installs := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, "install -r -g ") {
			installs++
		}
	}
	if installs != 2 {
		t.Errorf("installs = %d, calls = %v", installs, f.calls)
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := findFreePort(portRangeStart, portRangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port < portRangeStart || port > portRangeEnd {
		t.Errorf("port %d out of range", port)
	}
}
