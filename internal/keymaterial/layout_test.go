package keymaterial

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderHexLayout_IndexSequence(t *testing.T) {
	km, err := FromDER(indexSequence(121))
	if err != nil {
		t.Fatalf("FromDER failed: %v", err)
	}

	want := "0708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20212223242526\n" +
		"393a3b3c3d3e3f404142434445464748494a4b4c4d4e4f505152535455565758\n" +
		"595a5b5c5d5e5f606162636465666768696a6b6c6d6e6f707172737475767778\n" +
		"#1st line private key\n" +
		"#2nd, 3rd lines public key (x,y)\n"

	if got := RenderHexLayout(km); got != want {
		t.Errorf("RenderHexLayout() mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestRenderHexLayout_LowercaseAndPadded(t *testing.T) {
	km := &KeyMaterial{}
	km.Private[0] = 0x0A
	km.PublicX[31] = 0xFF

	lines := strings.Split(RenderHexLayout(km), "\n")
	if len(lines) != 6 || lines[5] != "" {
		t.Fatalf("expected 5 newline-terminated lines, got %q", lines)
	}

	if !strings.HasPrefix(lines[0], "0a00") {
		t.Errorf("private line should start with zero-padded lowercase '0a00', got %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "00ff") {
		t.Errorf("public x line should end with '00ff', got %q", lines[1])
	}
	for i := 0; i < 3; i++ {
		if len(lines[i]) != 64 {
			t.Errorf("line %d has %d chars, want 64", i+1, len(lines[i]))
		}
	}
}

func TestHexLayout_RoundTrip(t *testing.T) {
	_, der := generateP256(t)
	km, err := FromDER(der)
	if err != nil {
		t.Fatalf("FromDER failed: %v", err)
	}

	parsed, err := ParseHexLayout(RenderHexLayout(km))
	if err != nil {
		t.Fatalf("ParseHexLayout failed: %v", err)
	}

	if diff := cmp.Diff(km, parsed); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHexLayout_Errors(t *testing.T) {
	line := strings.Repeat("ab", 32)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"two lines", line + "\n" + line + "\n"},
		{"four lines", line + "\n" + line + "\n" + line + "\n" + line + "\n"},
		{"short line", line + "\n" + line + "\n" + "abcd\n"},
		{"bad hex", line + "\n" + line + "\n" + strings.Repeat("zz", 32) + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHexLayout(tt.input); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWriteHexLayout(t *testing.T) {
	km, _ := FromDER(indexSequence(121))
	path := filepath.Join(t.TempDir(), "bl1_key.txt")

	if err := WriteHexLayout(path, km); err != nil {
		t.Fatalf("WriteHexLayout failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read key file: %v", err)
	}
	if string(data) != RenderHexLayout(km) {
		t.Errorf("file content mismatch:\n%s", cmp.Diff(RenderHexLayout(km), string(data)))
	}

	read, err := ReadHexLayout(path)
	if err != nil {
		t.Fatalf("ReadHexLayout failed: %v", err)
	}
	if !cmp.Equal(km, read) {
		t.Error("ReadHexLayout returned different key material")
	}

	// No temporary files should remain next to the output.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the key file in output dir, found %d entries", len(entries))
	}
}

func TestWriteHexLayout_MissingDirectory(t *testing.T) {
	km, _ := FromDER(indexSequence(121))
	path := filepath.Join(t.TempDir(), "missing", "bl1_key.txt")

	if err := WriteHexLayout(path, km); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
