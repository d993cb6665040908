// Package flow parses and runs YAML step scripts against a running kernel.
package flow

import (
	"github.com/openclaw/a11y-kernel/pkg/core"
)

// Flow represents a parsed step script.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Flow configuration
	Steps      []Step // Steps to execute
}

// Config represents flow-level configuration (the optional first YAML
// document).
type Config struct {
	Name              string   `yaml:"name"`
	Tags              []string `yaml:"tags"`
	WaitAfterMs       *int     `yaml:"waitAfterMs"`       // pause after each step, default 120
	ContinueOnFailure bool     `yaml:"continueOnFailure"` // keep going after a failed step
}

// Step is one action plus its client-side check.
type Step struct {
	Line       int
	Request    core.ActionRequest
	VerifyText string
}
