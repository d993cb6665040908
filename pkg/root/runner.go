// Package root runs shell commands under an elevated shell with a hard
// timeout.
package root

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/logger"
	"github.com/openclaw/a11y-kernel/pkg/metrics"
)

// Default timeouts
const (
	DefaultTimeout   = 2000 * time.Millisecond
	ProbeTimeout     = 1200 * time.Millisecond
	LaunchTimeout    = 2500 * time.Millisecond
	killGracePeriod  = 500 * time.Millisecond
	timeoutDetail    = "timeout"
	noLauncherDetail = "no privileged shell configured"
)

// Launcher is the argv prefix that runs one command string with elevated
// privileges. The command is appended as the final argument.
type Launcher struct {
	Argv []string
	// Quote single-quotes the command before appending. Needed when the
	// argv goes through a second shell, as with adb shell.
	Quote bool
}

// SuLauncher runs commands through the local su binary.
func SuLauncher() Launcher {
	return Launcher{Argv: []string{"su", "-c"}}
}

// ADBLauncher runs commands through su on a device reached over adb.
func ADBLauncher(adbPath, serial string) Launcher {
	argv := []string{adbPath}
	if serial != "" {
		argv = append(argv, "-s", serial)
	}
	argv = append(argv, "shell", "su", "-c")
	return Launcher{Argv: argv, Quote: true}
}

// Runner executes privileged commands. It holds no state between calls
// and is safe for concurrent use.
type Runner struct {
	launcher       Launcher
	defaultTimeout time.Duration
	probeTimeout   time.Duration
}

// New creates a Runner for the given launcher.
func New(launcher Launcher) *Runner {
	return &Runner{
		launcher:       launcher,
		defaultTimeout: DefaultTimeout,
		probeTimeout:   ProbeTimeout,
	}
}

// SetDefaultTimeout changes the timeout used when Run gets zero.
func (r *Runner) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		r.defaultTimeout = d
	}
}

// SetProbeTimeout changes the timeout of the availability probe.
func (r *Runner) SetProbeTimeout(d time.Duration) {
	if d > 0 {
		r.probeTimeout = d
	}
}

// Launcher returns the configured launcher.
func (r *Runner) Launcher() Launcher {
	return r.launcher
}

// Run executes command and blocks until it exits or the timeout elapses.
// On timeout the whole process group is killed and the outcome is
// {false, "", "timeout"}. Spawn failures become a failed outcome carrying
// the reason in Stderr. Run never returns an error.
func (r *Runner) Run(command string, timeout time.Duration) core.CommandOutcome {
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	if len(r.launcher.Argv) == 0 {
		metrics.ObserveCommand(metrics.CommandSpawnError)
		return core.CommandOutcome{OK: false, Stderr: noLauncherDetail}
	}

	arg := command
	if r.launcher.Quote {
		arg = shellQuote(command)
	}
	args := make([]string, 0, len(r.launcher.Argv))
	args = append(args, r.launcher.Argv[1:]...)
	args = append(args, arg)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.launcher.Argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)
	cmd.WaitDelay = killGracePeriod

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Warn("privileged command timed out after %v: %s", elapsed, command)
		metrics.ObserveCommand(metrics.CommandTimeout)
		return core.CommandOutcome{OK: false, Stderr: timeoutDetail}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Debug("privileged command exited %d in %v: %s", exitErr.ExitCode(), elapsed, command)
			metrics.ObserveCommand(metrics.CommandFailed)
			return core.CommandOutcome{
				OK:     false,
				Stdout: strings.TrimSpace(stdout.String()),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		logger.Warn("privileged command failed to start: %v", err)
		metrics.ObserveCommand(metrics.CommandSpawnError)
		return core.CommandOutcome{OK: false, Stderr: err.Error()}
	}

	logger.Debug("privileged command ok in %v: %s", elapsed, command)
	metrics.ObserveCommand(metrics.CommandOK)
	return core.CommandOutcome{
		OK:     true,
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
