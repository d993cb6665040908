package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/openclaw/a11y-kernel/pkg/flow"
	"github.com/openclaw/a11y-kernel/pkg/logger"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run a YAML step script against a running kernel",
	ArgsUsage: "<flow.yaml>",
	Description: `A flow is an optional config document, "---", then a list of steps:

  name: login
  waitAfterMs: 200
  ---
  - tap: "Sign in"
  - type:
      selector: {by: id, value: username}
      text: alice
      verifyText: alice
  - keyevent: 66
  - done

Examples:
  a11y-kernel run login.yaml
  a11y-kernel run login.yaml --report out/login.json`,
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "report", Usage: "Also write the JSON report to this file"},
		&cli.BoolFlag{Name: "continue-on-failure", Usage: "Run every step even after a failure"},
		retriesFlag,
	},
	Action: runFlow,
}

func runFlow(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("run needs exactly one flow file")
	}
	f, err := flow.ParseFile(c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool("continue-on-failure") {
		f.Config.ContinueOnFailure = true
	}

	cfg, err := clientConfig(c)
	if err != nil {
		return err
	}

	logger.Info("running flow %s (%d steps)", f.SourcePath, len(f.Steps))
	report := flow.Run(c.Context, newAPIClient(c, cfg), f)

	if path := c.String("report"); path != "" {
		if err := writeReport(path, report); err != nil {
			return err
		}
	}
	if err := printJSON(c.App.Writer, report); err != nil {
		return err
	}
	if !report.Passed {
		return cli.Exit("", 1)
	}
	return nil
}

func writeReport(path string, report flow.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
