package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/openclaw/a11y-kernel/pkg/client"
	"github.com/openclaw/a11y-kernel/pkg/config"
	"github.com/openclaw/a11y-kernel/pkg/core"
)

var retriesFlag = &cli.IntFlag{
	Name:  "retries",
	Usage: "Retries for failed requests",
	Value: client.DefaultRetries,
}

var actCommand = &cli.Command{
	Name:  "act",
	Usage: "Send one action to a running kernel (POST /act)",
	Description: `Examples:
  a11y-kernel act --action tap --by text --value "Log in"
  a11y-kernel act --action type --text alice --verify-text alice
  a11y-kernel act --action scroll --direction backward
  a11y-kernel act --action swipe --from 540,1600 --to 540,400 --duration-ms 300
  a11y-kernel act --action keyevent --keycode 66`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Usage: "tap, type, scroll, back, home, launch_app, keyevent, swipe, wait, done", Required: true},
		&cli.StringFlag{Name: "by", Usage: "Selector attribute: id, text, desc, class"},
		&cli.StringFlag{Name: "value", Usage: "Selector substring"},
		&cli.StringFlag{Name: "text", Usage: "Text for type"},
		&cli.StringFlag{Name: "direction", Usage: "Scroll direction: forward or backward"},
		&cli.Int64Flag{Name: "timeout-ms", Usage: "Wait duration in ms"},
		&cli.IntFlag{Name: "fallback-x", Usage: "Fallback tap X"},
		&cli.IntFlag{Name: "fallback-y", Usage: "Fallback tap Y"},
		&cli.StringFlag{Name: "from", Usage: "Swipe start as x,y"},
		&cli.StringFlag{Name: "to", Usage: "Swipe end as x,y"},
		&cli.Int64Flag{Name: "duration-ms", Usage: "Swipe duration in ms"},
		&cli.StringFlag{Name: "package", Usage: "Package for launch_app"},
		&cli.IntFlag{Name: "keycode", Usage: "Android key code for keyevent"},
		&cli.StringFlag{Name: "verify-text", Usage: "Check the screen for this text after the action"},
		&cli.StringFlag{Name: "verify-script", Usage: "JavaScript check evaluated by the kernel after the action"},
		&cli.DurationFlag{Name: "wait-after", Usage: "Pause before --verify-text is checked", Value: client.DefaultWaitAfter},
		retriesFlag,
	},
	Action: runAct,
}

var screenCommand = &cli.Command{
	Name:   "screen",
	Usage:  "Print the interactive elements of the current screen (GET /screen)",
	Flags:  []cli.Flag{retriesFlag},
	Action: runScreen,
}

var healthCommand = &cli.Command{
	Name:   "health",
	Usage:  "Check that a kernel is running (GET /health)",
	Flags:  []cli.Flag{retriesFlag},
	Action: runHealth,
}

var capabilitiesCommand = &cli.Command{
	Name:   "capabilities",
	Usage:  "Print supported actions and root availability (GET /capabilities)",
	Flags:  []cli.Flag{retriesFlag},
	Action: runCapabilities,
}

// clientConfig resolves the API address without requiring device settings.
func clientConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return cfg, initLogging(cfg)
}

func newAPIClient(c *cli.Context, cfg *config.Config) *client.Client {
	cl := client.New(cfg.Server.BaseURL(), cfg.Server.Token)
	cl.SetRetries(c.Int("retries"))
	return cl
}

func runAct(c *cli.Context) error {
	req, err := buildActionRequest(c)
	if err != nil {
		return err
	}
	cfg, err := clientConfig(c)
	if err != nil {
		return err
	}

	res, err := newAPIClient(c, cfg).Step(c.Context, req, c.String("verify-text"), c.Duration("wait-after"))
	if err != nil {
		return err
	}
	if err := printJSON(c.App.Writer, res); err != nil {
		return err
	}
	if !res.Success {
		return cli.Exit("", 1)
	}
	if res.VerifyOK != nil && !*res.VerifyOK {
		return cli.Exit("", 2)
	}
	return nil
}

func runScreen(c *cli.Context) error {
	cfg, err := clientConfig(c)
	if err != nil {
		return err
	}
	screen, err := newAPIClient(c, cfg).Screen(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, screen)
}

func runHealth(c *cli.Context) error {
	cfg, err := clientConfig(c)
	if err != nil {
		return err
	}
	h, err := newAPIClient(c, cfg).Health(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, h)
}

func runCapabilities(c *cli.Context) error {
	cfg, err := clientConfig(c)
	if err != nil {
		return err
	}
	caps, err := newAPIClient(c, cfg).Capabilities(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, caps)
}

// buildActionRequest maps act flags onto a request. Only flags the user
// set are included.
func buildActionRequest(c *cli.Context) (core.ActionRequest, error) {
	req := core.ActionRequest{
		Action:      c.String("action"),
		Direction:   c.String("direction"),
		PackageName: c.String("package"),
	}

	by, value := c.String("by"), c.String("value")
	if (by == "") != (value == "") {
		return req, fmt.Errorf("--by and --value must be used together")
	}
	if by != "" {
		req.Selector = &core.Selector{By: core.SelectorField(by), Value: value}
	}

	if c.IsSet("text") {
		req.Text = core.StringPtr(c.String("text"))
	}
	if c.IsSet("timeout-ms") {
		req.TimeoutMs = core.Int64Ptr(c.Int64("timeout-ms"))
	}
	if c.IsSet("duration-ms") {
		req.DurationMs = core.Int64Ptr(c.Int64("duration-ms"))
	}
	if c.IsSet("keycode") {
		req.Keycode = core.IntPtr(c.Int("keycode"))
	}
	if c.IsSet("fallback-x") != c.IsSet("fallback-y") {
		return req, fmt.Errorf("--fallback-x and --fallback-y must be used together")
	}
	if c.IsSet("fallback-x") {
		req.FallbackCoordinates = []int{c.Int("fallback-x"), c.Int("fallback-y")}
	}

	if c.IsSet("from") || c.IsSet("to") {
		from, err := parsePoint(c.String("from"))
		if err != nil {
			return req, fmt.Errorf("--from: %w", err)
		}
		to, err := parsePoint(c.String("to"))
		if err != nil {
			return req, fmt.Errorf("--to: %w", err)
		}
		req.From, req.To = from, to
	}

	if script := c.String("verify-script"); script != "" {
		req.ExpectedAfter = &core.ExpectedAfter{Script: script}
	}
	return req, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) ([]int, error) {
	var x, y int
	if _, err := fmt.Sscanf(s, "%d,%d", &x, &y); err != nil {
		return nil, fmt.Errorf("expected x,y, got %q", s)
	}
	return []int{x, y}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// elapsedString formats a duration the way setup output does.
func elapsedString(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
