package jlink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"text/template"
	"time"

	"go.uber.org/zap"
)

// Runner runs a commander script against the target. Executor is the real
// implementation; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, script Script) (*Result, error)
}

// Config holds the J-Link Commander invocation settings.
type Config struct {
	// Executable is the J-Link Commander binary.
	// Default: "JLink" on Windows, "JLinkExe" elsewhere (searches PATH)
	Executable string

	// Device is the J-Link target device name.
	// Default: "MAX32657"
	Device string

	// Interface is the debug transport.
	// Default: "swd"
	Interface string

	// Speed is the interface speed in kHz.
	// Default: 2000
	Speed int

	// AutoConnect makes the commander connect to the target on startup.
	// Default: true
	AutoConnect bool

	// Timeout is the maximum time to wait for the commander to exit.
	// Default: 2 minutes
	Timeout time.Duration

	// WorkDir is the directory for rendered script files.
	// Default: os.TempDir()
	WorkDir string

	// Output, when set, receives commander stdout and stderr as it is
	// produced, in addition to the captured copy in Result.
	Output io.Writer
}

// DefaultExecutable returns the platform name of the J-Link Commander.
func DefaultExecutable() string {
	if runtime.GOOS == "windows" {
		return "JLink"
	}
	return "JLinkExe"
}

// DefaultConfig returns a Config for the MAX32657 over SWD.
func DefaultConfig() Config {
	return Config{
		Executable:  DefaultExecutable(),
		Device:      "MAX32657",
		Interface:   "swd",
		Speed:       2000,
		AutoConnect: true,
		Timeout:     2 * time.Minute,
		WorkDir:     os.TempDir(),
	}
}

// Args returns the commander arguments for scriptFile.
func (c Config) Args(scriptFile string) []string {
	autoConnect := "0"
	if c.AutoConnect {
		autoConnect = "1"
	}
	return []string{
		"-device", c.Device,
		"-if", c.Interface,
		"-speed", strconv.Itoa(c.Speed),
		"-autoconnect", autoConnect,
		"-CommanderScript", scriptFile,
	}
}

// Executor runs commander scripts via os/exec.
type Executor struct {
	config Config
	logger *zap.Logger
}

// NewExecutor creates a new J-Link executor with the given configuration.
func NewExecutor(config Config, logger *zap.Logger) *Executor {
	return &Executor{
		config: config,
		logger: logger,
	}
}

// Config returns the executor configuration.
func (e *Executor) Config() Config {
	return e.config
}

// Run renders the script, writes it to a temporary file, runs the commander
// on it and waits for it to exit. The temporary file is removed on every
// path. A non-zero exit status is returned as an ExecutionError; the output
// itself is not interpreted.
func (e *Executor) Run(ctx context.Context, script Script) (*Result, error) {
	startTime := time.Now()

	e.logger.Info("executing J-Link script",
		zap.String("script", script.Name()),
		zap.String("executable", e.config.Executable),
		zap.String("device", e.config.Device),
		zap.String("interface", e.config.Interface),
		zap.Int("speed_khz", e.config.Speed),
		zap.Duration("timeout", e.config.Timeout),
	)

	rendered, err := renderTemplate(script)
	if err != nil {
		return nil, &TemplateError{
			Template: script.Name(),
			Err:      err,
		}
	}

	e.logger.Debug("rendered J-Link script",
		zap.String("script", script.Name()),
		zap.String("content", rendered),
	)

	scriptFile, err := e.writeScriptFile(script.Name(), rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to write script file: %w", err)
	}
	defer os.Remove(scriptFile)

	stdout, stderr, exitCode, err := e.execute(ctx, script.Name(), scriptFile)
	duration := time.Since(startTime)

	e.logger.Debug("J-Link execution complete",
		zap.String("script", script.Name()),
		zap.Duration("duration", duration),
		zap.Int("exit_code", exitCode),
		zap.String("stdout", stdout),
		zap.String("stderr", stderr),
	)

	if err != nil {
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			return nil, err
		}
		return nil, &ExecutionError{
			Script:   script.Name(),
			ExitCode: exitCode,
			Output:   stdout,
			Stderr:   stderr,
			Err:      err,
		}
	}

	result := &Result{
		Script:   script.Name(),
		ExitCode: exitCode,
		Output:   stdout,
		Stderr:   stderr,
		Duration: duration,
	}

	e.logger.Info("J-Link script finished",
		zap.String("script", script.Name()),
		zap.Duration("duration", duration),
	)

	return result, nil
}

// renderTemplate renders the script template with its parameters.
func renderTemplate(script Script) (string, error) {
	tmpl, err := template.New(script.Name()).Option("missingkey=error").Parse(script.Template())
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, script.Params()); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// writeScriptFile writes the rendered script to a temporary file.
func (e *Executor) writeScriptFile(name, content string) (string, error) {
	file, err := os.CreateTemp(e.config.WorkDir, fmt.Sprintf("bl1prov-jlink-%s-*.jlink", name))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write script content: %w", err)
	}

	return file.Name(), nil
}

// execute runs the commander as a blocking subprocess.
func (e *Executor) execute(ctx context.Context, name, scriptFile string) (stdout, stderr string, exitCode int, err error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, e.config.Executable, e.config.Args(scriptFile)...)
	cmd.WaitDelay = time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	if e.config.Output != nil {
		cmd.Stdout = io.MultiWriter(&stdoutBuf, e.config.Output)
		cmd.Stderr = io.MultiWriter(&stderrBuf, e.config.Output)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err = cmd.Run()

	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		err = &TimeoutError{
			Script:  name,
			Timeout: e.config.Timeout.String(),
		}
	}

	return stdout, stderr, exitCode, err
}
