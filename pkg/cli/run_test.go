package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/openclaw/a11y-kernel/pkg/flow"
)

func writeFlow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCommand_Passes(t *testing.T) {
	isolateEnv(t)
	port := strconv.Itoa(startAPI(t, "tok"))
	path := writeFlow(t, `name: login
waitAfterMs: 0
---
- tap: "Log in"
- type:
    selector: {by: id, value: username}
    text: alice
    verifyText: alice
- back
- done
`)
	reportPath := filepath.Join(t.TempDir(), "out", "report.json")

	out, err := runApp(t, "--host", "127.0.0.1", "--port", port, "--token", "tok",
		"run", "--report", reportPath, path)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	var report flow.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	if !report.Passed || len(report.Steps) != 4 || report.Name != "login" {
		t.Errorf("report = %+v", report)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report file: %v", err)
	}
	var saved flow.Report
	if err := json.Unmarshal(data, &saved); err != nil || !saved.Passed {
		t.Errorf("saved report = %s (%v)", data, err)
	}
}

func TestRunCommand_FailureExits(t *testing.T) {
	isolateEnv(t)
	port := strconv.Itoa(startAPI(t, "tok"))
	path := writeFlow(t, "- launch_app: com.example.app\n- done\n")

	code := -1
	orig := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = orig })

	out, err := runApp(t, "--host", "127.0.0.1", "--port", port, "--token", "tok", "run", path)
	if err == nil {
		t.Fatal("expected error")
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	var report flow.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	if report.Passed || len(report.Steps) != 1 || report.Steps[0].Line != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunCommand_BadInput(t *testing.T) {
	isolateEnv(t)
	if _, err := runApp(t, "run"); err == nil {
		t.Error("expected error without a file")
	}
	path := writeFlow(t, "- fly: high\n")
	if _, err := runApp(t, "run", path); err == nil {
		t.Error("expected parse error")
	}
}
