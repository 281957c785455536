package jlink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadAndExecScript(t *testing.T) {
	script := NewLoadAndExecScript("max32657_app.elf")
	script.SettleTime = 500 * time.Millisecond

	rendered, err := renderTemplate(script)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	want := "r\nh\nloadfile max32657_app.elf\nr\ng\nSleep 500\nexit\n"
	if rendered != want {
		t.Errorf("rendered script = %q, want %q", rendered, want)
	}
}

func TestProvisionScript(t *testing.T) {
	rendered, err := renderTemplate(NewProvisionScript("bl1_provision.elf"))
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	if lines[len(lines)-1] != "exit" {
		t.Errorf("script must end with exit, got %q", lines[len(lines)-1])
	}

	want := "r\nh\nloadfile bl1_provision.elf\nr\ng\nSleep 2000\nexit\n"
	if diff := cmp.Diff(want, rendered); diff != "" {
		t.Errorf("rendered script mismatch (-want +got):\n%s", diff)
	}

	// The application image must survive provisioning: the device is
	// locked afterwards.
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "erase") {
			t.Errorf("provisioning script must not erase flash:\n%s", rendered)
		}
	}
}

func TestFileScript(t *testing.T) {
	content := "r\nloadfile {{not a template}}\nexit\n"
	path := filepath.Join(t.TempDir(), "JLinkScript")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	script, err := LoadFileScript(path)
	if err != nil {
		t.Fatalf("LoadFileScript failed: %v", err)
	}

	rendered, err := renderTemplate(script)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}
	if rendered != content {
		t.Errorf("file script was altered: got %q, want %q", rendered, content)
	}
}

func TestLoadFileScript_Missing(t *testing.T) {
	if _, err := LoadFileScript(filepath.Join(t.TempDir(), "JLinkScript")); err == nil {
		t.Error("expected error for missing script file")
	}
}
