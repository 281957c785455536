package ui

import (
	"context"
	"time"
)

// RunnerConfig describes a multi-step command.
type RunnerConfig struct {
	Title           string            // e.g., "Enable Secure Boot"
	Command         string            // e.g., "bl1-provision enable-secureboot"
	Params          map[string]string // Shown in the header
	Steps           []string          // Step names, in order
	Troubleshooting []string          // Tips shown on failure
	Verbose         bool              // Show commander output on success too
}

// Operation does the work of a command and reports progress through onStep.
// It returns the details shown in the success box.
type Operation func(ctx context.Context, onStep StepCallback) (map[string]string, error)

// OperationRunner drives the header, progress and result flow of a
// command.
type OperationRunner struct {
	config   RunnerConfig
	printer  *Printer
	progress *Progress
	output   string
}

// NewOperationRunner creates a runner printing to p.
func NewOperationRunner(p *Printer, config RunnerConfig) *OperationRunner {
	return &OperationRunner{
		config:   config,
		printer:  p,
		progress: NewProgress(config.Steps...).SetWidth(p.Width()),
	}
}

// SetCommanderOutput stores J-Link output for display after the result.
func (r *OperationRunner) SetCommanderOutput(output string) {
	r.output = output
}

// Progress returns the step tracker.
func (r *OperationRunner) Progress() *Progress {
	return r.progress
}

// Run prints the header, runs op and prints the result box. The error from
// op is returned unchanged.
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	r.printer.PrintHeader(r.config.Title, r.config.Command, r.config.Params)

	details, err := op(ctx, r.onStep)
	duration := time.Since(start)

	if err != nil {
		r.printer.PrintFailure(r.config.Title+" failed", err, r.config.Troubleshooting)
		r.printer.PrintCommanderOutput(r.output)
		return err
	}

	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.Round(time.Millisecond).String()

	r.printer.PrintSuccess(r.config.Title+" complete", details)
	if r.config.Verbose {
		r.printer.PrintCommanderOutput(r.output)
	}
	return nil
}

func (r *OperationRunner) onStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}
	r.progress.UpdateStep(stepNumber, status, message)

	line := r.progress.RenderStep(r.progress.Steps[stepNumber-1])
	if status == StepRunning {
		// Overwritten by the completion line.
		r.printer.Print(line + "\r")
		return
	}
	r.printer.Println(line)
}
