package flow

import (
	"context"
	"time"

	"github.com/openclaw/a11y-kernel/pkg/client"
	"github.com/openclaw/a11y-kernel/pkg/core"
	"github.com/openclaw/a11y-kernel/pkg/logger"
)

// Stepper executes one step. *client.Client implements it.
type Stepper interface {
	Step(ctx context.Context, req core.ActionRequest, verifyText string, waitAfter time.Duration) (client.StepResult, error)
}

// StepReport is the outcome of one step.
type StepReport struct {
	Index  int                `json:"index"`
	Line   int                `json:"line"`
	Action string             `json:"action"`
	Passed bool               `json:"passed"`
	Error  string             `json:"error,omitempty"`
	Result *client.StepResult `json:"result,omitempty"`
}

// Report is the outcome of a whole flow.
type Report struct {
	Name       string       `json:"name,omitempty"`
	SourcePath string       `json:"source"`
	Passed     bool         `json:"passed"`
	DurationMs int64        `json:"duration_ms"`
	Steps      []StepReport `json:"steps"`
}

// Run executes the steps in order. It stops at the first failed step
// unless the flow continues on failure; skipped steps are not reported.
func Run(ctx context.Context, s Stepper, f *Flow) Report {
	start := time.Now()
	report := Report{Name: f.Config.Name, SourcePath: f.SourcePath, Passed: true, Steps: []StepReport{}}

	waitAfter := client.DefaultWaitAfter
	if f.Config.WaitAfterMs != nil {
		waitAfter = time.Duration(*f.Config.WaitAfterMs) * time.Millisecond
	}

	for i, step := range f.Steps {
		if ctx.Err() != nil {
			report.Passed = false
			break
		}

		sr := StepReport{Index: i, Line: step.Line, Action: string(step.Request.Kind())}
		res, err := s.Step(ctx, step.Request, step.VerifyText, waitAfter)
		switch {
		case err != nil:
			sr.Error = err.Error()
		default:
			sr.Result = &res
			sr.Passed, sr.Error = judge(res)
		}

		logger.Info("step %d (%s, line %d): passed=%v %s", i+1, sr.Action, step.Line, sr.Passed, sr.Error)
		report.Steps = append(report.Steps, sr)
		if !sr.Passed {
			report.Passed = false
			if !f.Config.ContinueOnFailure {
				break
			}
		}
	}

	report.DurationMs = time.Since(start).Milliseconds()
	return report
}

// judge decides whether a step result passed, and why not.
func judge(res client.StepResult) (bool, string) {
	if !res.Success {
		return false, res.Error
	}
	if res.Verify != nil && !res.Verify.Passed {
		if res.Verify.Error != "" {
			return false, "verify: " + res.Verify.Error
		}
		return false, "verify script failed"
	}
	if res.VerifyOK != nil && !*res.VerifyOK {
		return false, "text not found: " + res.VerifyText
	}
	return true, ""
}
