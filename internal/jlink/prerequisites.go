package jlink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/muurk/bl1prov/internal/urls"
)

// PrerequisiteCheck represents the result of checking a single prerequisite.
type PrerequisiteCheck struct {
	// Name is the human-readable name of the prerequisite
	Name string
	// Available indicates whether the prerequisite is available
	Available bool
	// Path is the resolved path (for binary checks)
	Path string
	// Version is the detected version (if applicable)
	Version string
	// Message provides additional context (error message or success info)
	Message string
	// Error contains the underlying error if check failed
	Error error
}

// PrerequisiteResult contains the results of all prerequisite checks.
type PrerequisiteResult struct {
	Checks       []PrerequisiteCheck
	AllAvailable bool
}

// CheckPrerequisites verifies the J-Link Commander can be found and, when
// images are given, that they exist.
func CheckPrerequisites(ctx context.Context, config Config, images ...string) *PrerequisiteResult {
	result := &PrerequisiteResult{
		Checks:       make([]PrerequisiteCheck, 0, 1+len(images)),
		AllAvailable: true,
	}

	check := checkCommander(ctx, config.Executable)
	result.Checks = append(result.Checks, check)
	if !check.Available {
		result.AllAvailable = false
	}

	for _, image := range images {
		check := checkFile(image)
		result.Checks = append(result.Checks, check)
		if !check.Available {
			result.AllAvailable = false
		}
	}

	return result
}

// ValidateExecutable returns a PrerequisiteError when the commander cannot
// be found on PATH.
func ValidateExecutable(executable string) error {
	if executable == "" {
		return &PrerequisiteError{
			Prerequisite: "J-Link Commander",
			Details:      "executable path is empty",
		}
	}
	if _, err := exec.LookPath(executable); err != nil {
		return &PrerequisiteError{
			Prerequisite: "J-Link Commander",
			Details:      fmt.Sprintf("%s not found in PATH. Install the SEGGER J-Link Software Pack or pass --jlink-path.", executable),
			Err:          err,
		}
	}
	return nil
}

// checkCommander verifies that the commander binary exists and reads its
// banner for a version string.
func checkCommander(ctx context.Context, executable string) PrerequisiteCheck {
	check := PrerequisiteCheck{
		Name: "J-Link Commander",
	}

	path, err := exec.LookPath(executable)
	if err != nil {
		check.Error = err
		check.Message = fmt.Sprintf("%s not found in PATH\n"+
			"Install the SEGGER J-Link Software and Documentation Pack:\n%s",
			executable, urls.JLinkDownload)
		return check
	}
	check.Path = path

	// The commander prints its banner and exits when stdin is closed.
	versionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(versionCtx, path, "-NoGui", "1")
	cmd.Stdin = bytes.NewReader([]byte("exit\n"))
	output, _ := cmd.Output()

	check.Version = parseVersion(string(output))
	check.Available = true
	check.Message = fmt.Sprintf("Found at %s", path)
	return check
}

// parseVersion returns the first banner line mentioning a version.
func parseVersion(banner string) string {
	for _, line := range strings.Split(banner, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "SEGGER J-Link Commander") || strings.HasPrefix(line, "DLL version") {
			return line
		}
	}
	return ""
}

func checkFile(path string) PrerequisiteCheck {
	check := PrerequisiteCheck{
		Name: path,
		Path: path,
	}

	info, err := os.Stat(path)
	if err != nil {
		check.Error = err
		check.Message = "file not found"
		return check
	}
	if info.IsDir() {
		check.Message = "is a directory"
		return check
	}

	check.Available = true
	check.Message = fmt.Sprintf("%d bytes", info.Size())
	return check
}

// FormatPrerequisiteReport formats a PrerequisiteResult into a human-readable string.
func FormatPrerequisiteReport(result *PrerequisiteResult) string {
	var sb strings.Builder

	sb.WriteString("J-Link Prerequisites Check:\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	for _, check := range result.Checks {
		if check.Available {
			sb.WriteString(fmt.Sprintf("✓ %s\n", check.Name))
			if check.Version != "" {
				sb.WriteString(fmt.Sprintf("  Version: %s\n", check.Version))
			}
		} else {
			sb.WriteString(fmt.Sprintf("✗ %s\n", check.Name))
		}
		if check.Message != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", check.Message))
		}
		sb.WriteString("\n")
	}

	if result.AllAvailable {
		sb.WriteString("All required prerequisites are available.\n")
	} else {
		sb.WriteString("Some prerequisites are missing. Please install them before proceeding.\n")
	}

	return sb.String()
}
