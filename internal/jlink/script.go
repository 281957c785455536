package jlink

import (
	_ "embed"
	"fmt"
	"os"
	"time"
)

//go:embed templates/load_and_exec.jlink.tmpl
var loadAndExecTemplate string

//go:embed templates/provision.jlink.tmpl
var provisionTemplate string

// DefaultSettleTime is how long the commander waits after starting the
// target before it exits and releases the probe.
const DefaultSettleTime = 2 * time.Second

// Script is a J-Link Commander script that can be run by a Runner.
type Script interface {
	// Name is used in logs, temp file names and errors.
	Name() string

	// Template returns the commander script as Go text/template source.
	Template() string

	// Params returns the values substituted into Template.
	Params() map[string]interface{}
}

// Result is the outcome of running a commander script. The output is kept
// for the operator but not interpreted.
type Result struct {
	Script   string
	ExitCode int
	Output   string
	Stderr   string
	Duration time.Duration
}

// LoadAndExecScript loads an image into the target and starts it.
type LoadAndExecScript struct {
	Image      string
	SettleTime time.Duration
}

// NewLoadAndExecScript creates a script that loads and runs image.
func NewLoadAndExecScript(image string) *LoadAndExecScript {
	return &LoadAndExecScript{Image: image, SettleTime: DefaultSettleTime}
}

// Name implements Script.Name
func (s *LoadAndExecScript) Name() string {
	return "load_and_exec"
}

// Template implements Script.Template
func (s *LoadAndExecScript) Template() string {
	return loadAndExecTemplate
}

// Params implements Script.Params
func (s *LoadAndExecScript) Params() map[string]interface{} {
	return map[string]interface{}{
		"Image":    s.Image,
		"SettleMS": s.SettleTime.Milliseconds(),
	}
}

// ProvisionScript loads and runs the patched BL1 provisioner without
// touching the rest of flash, so the application already written stays in
// place. The provisioner burns the public key into OTP and locks the
// debug port, so after a successful run the device cannot be reprogrammed.
type ProvisionScript struct {
	Image      string
	SettleTime time.Duration
}

// NewProvisionScript creates a provisioning script for the patched image.
func NewProvisionScript(image string) *ProvisionScript {
	return &ProvisionScript{Image: image, SettleTime: DefaultSettleTime}
}

// Name implements Script.Name
func (s *ProvisionScript) Name() string {
	return "bl1_provision"
}

// Template implements Script.Template
func (s *ProvisionScript) Template() string {
	return provisionTemplate
}

// Params implements Script.Params
func (s *ProvisionScript) Params() map[string]interface{} {
	return map[string]interface{}{
		"Image":    s.Image,
		"SettleMS": s.SettleTime.Milliseconds(),
	}
}

// FileScript runs an existing commander script file unchanged, such as the
// JLinkScript shipped next to the provisioning images.
type FileScript struct {
	Path    string
	content string
}

// LoadFileScript reads a commander script from disk.
func LoadFileScript(path string) (*FileScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read commander script: %w", err)
	}
	return &FileScript{Path: path, content: string(data)}, nil
}

// Name implements Script.Name
func (s *FileScript) Name() string {
	return "file"
}

// Template implements Script.Template. The file content is substituted as
// data, so "{{" in a user script is passed through literally.
func (s *FileScript) Template() string {
	return `{{.Content}}`
}

// Params implements Script.Params
func (s *FileScript) Params() map[string]interface{} {
	return map[string]interface{}{
		"Content": s.content,
	}
}
