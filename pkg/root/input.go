package root

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openclaw/a11y-kernel/pkg/core"
)

// Input limits
const (
	MinSwipeDuration = 50
	MaxSwipeDuration = 6000
	maxCoordinate    = 32767
	launcherCategory = "android.intent.category.LAUNCHER"
)

var packagePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// IsAvailable probes for a working privileged shell. Any failure means
// unavailable.
func (r *Runner) IsAvailable() bool {
	ok, _ := r.Probe()
	return ok
}

// Probe runs "id" in the privileged shell and reports whether it ran as
// uid 0, along with the command outcome.
func (r *Runner) Probe() (bool, core.CommandOutcome) {
	out := r.Run("id", r.probeTimeout)
	return out.OK && strings.Contains(out.Stdout, "uid=0"), out
}

// Tap injects a tap at (x, y).
func (r *Runner) Tap(x, y int) core.CommandOutcome {
	return r.Run(fmt.Sprintf("input tap %d %d", clampCoord(x), clampCoord(y)), 0)
}

// Swipe injects a swipe. The duration is clamped to [50, 6000] ms.
func (r *Runner) Swipe(x1, y1, x2, y2, durationMs int) core.CommandOutcome {
	cmd := fmt.Sprintf("input swipe %d %d %d %d %d",
		clampCoord(x1), clampCoord(y1), clampCoord(x2), clampCoord(y2),
		clamp(durationMs, MinSwipeDuration, MaxSwipeDuration))
	return r.Run(cmd, 0)
}

// KeyEvent injects a key code. Negative codes are rejected without
// spawning a process.
func (r *Runner) KeyEvent(code int) core.CommandOutcome {
	if code < 0 {
		return core.CommandOutcome{OK: false, Stderr: fmt.Sprintf("invalid keycode %d", code)}
	}
	return r.Run(fmt.Sprintf("input keyevent %d", code), 0)
}

// InputText types text into the focused field.
func (r *Runner) InputText(text string) core.CommandOutcome {
	return r.Run(fmt.Sprintf(`input text "%s"`, EscapeText(text)), 0)
}

// LaunchApp starts the launcher activity of pkg. It tries monkey first,
// then resolves the default activity and starts it directly.
func (r *Runner) LaunchApp(pkg string) core.CommandOutcome {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return core.CommandOutcome{OK: false, Stderr: "empty package"}
	}
	if !packagePattern.MatchString(pkg) {
		return core.CommandOutcome{OK: false, Stderr: fmt.Sprintf("invalid package name %q", pkg)}
	}

	monkey := r.Run(fmt.Sprintf("monkey -p %s -c %s 1", pkg, launcherCategory), LaunchTimeout)
	if monkey.OK {
		return monkey
	}

	resolved := r.Run(fmt.Sprintf("cmd package resolve-activity --brief %s", pkg), 0)
	if !resolved.OK {
		return resolved
	}
	component := lastComponent(resolved.Stdout)
	if component == "" {
		return core.CommandOutcome{OK: false, Stdout: resolved.Stdout, Stderr: "no launchable activity"}
	}
	return r.Run(fmt.Sprintf("am start -n %s", component), 0)
}

// lastComponent picks the "pkg/activity" line from resolve-activity output.
func lastComponent(out string) string {
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(line, "/") && !strings.ContainsAny(line, " \t'\"") {
			return line
		}
	}
	return ""
}

// EscapeText escapes backslash and double quote with one backslash each.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}

func clampCoord(v int) int {
	return clamp(v, 0, maxCoordinate)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
