package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}

	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("expected warn level to be enabled")
	}
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("expected info level to be disabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHexDump(t *testing.T) {
	if got := HexDump(nil); got != "" {
		t.Errorf("HexDump(nil) = %q, want empty", got)
	}

	if got := HexDump([]byte{0x00, 0xab, 0x7f}); got != "00ab7f" {
		t.Errorf("HexDump() = %q, want %q", got, "00ab7f")
	}

	long := make([]byte, 300)
	got := HexDump(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncated dump to end with '...', got suffix %q", got[len(got)-5:])
	}
	if len(got) != 2*256+3 {
		t.Errorf("expected truncated length %d, got %d", 2*256+3, len(got))
	}
}
