package jlink

import "fmt"

// ExecutionError represents a failure running the J-Link Commander:
// the executable could not be started, or it exited non-zero.
type ExecutionError struct {
	// Script is the name of the script that failed
	Script string
	// ExitCode is the process exit code, -1 if it never ran
	ExitCode int
	// Output is the combined stdout for context
	Output string
	// Stderr is the process stderr
	Stderr string
	// Underlying error if any
	Err error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("J-Link execution failed for script %q (exit code %d): %v\nstderr: %s",
			e.Script, e.ExitCode, e.Err, e.Stderr)
	}
	return fmt.Sprintf("J-Link execution failed for script %q (exit code %d)\nstderr: %s",
		e.Script, e.ExitCode, e.Stderr)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TemplateError represents a commander script that failed to render.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("failed to render J-Link script %q: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a commander run that exceeded Config.Timeout.
type TimeoutError struct {
	Script  string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("J-Link operation timed out for script %q after %s\n"+
		"Hint: Increase timeout with --timeout flag or check the probe connection",
		e.Script, e.Timeout)
}

// PrerequisiteError represents a missing J-Link installation.
type PrerequisiteError struct {
	// Prerequisite is the name of the missing prerequisite
	Prerequisite string
	// Details provides additional context
	Details string
	// Underlying error
	Err error
}

func (e *PrerequisiteError) Error() string {
	msg := fmt.Sprintf("missing prerequisite: %s", e.Prerequisite)
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\nError: %v", e.Err)
	}
	return msg
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}
