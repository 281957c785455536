package keymaterial

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muurk/bl1prov/internal/logging"
)

// Comment lines that close the hex layout. Provisioning tooling downstream
// depends on the exact text.
const (
	layoutCommentPrivate = "#1st line private key"
	layoutCommentPublic  = "#2nd, 3rd lines public key (x,y)"
)

// RenderHexLayout renders the key file format:
//
//	<private, 64 lowercase hex chars>
//	<public x>
//	<public y>
//	#1st line private key
//	#2nd, 3rd lines public key (x,y)
//
// Every line, including the last, ends with "\n".
func RenderHexLayout(km *KeyMaterial) string {
	var sb strings.Builder
	sb.WriteString(hex.EncodeToString(km.Private[:]))
	sb.WriteByte('\n')
	sb.WriteString(hex.EncodeToString(km.PublicX[:]))
	sb.WriteByte('\n')
	sb.WriteString(hex.EncodeToString(km.PublicY[:]))
	sb.WriteByte('\n')
	sb.WriteString(layoutCommentPrivate)
	sb.WriteByte('\n')
	sb.WriteString(layoutCommentPublic)
	sb.WriteByte('\n')
	return sb.String()
}

// WriteHexLayout writes the hex layout to path. The content goes to a
// temporary file in the same directory first, so a failed write never leaves
// a half-written key file behind.
func WriteHexLayout(path string, km *KeyMaterial) error {
	content := RenderHexLayout(km)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bl1key-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary key file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close key file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set key file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save key file: %w", err)
	}

	logging.LogFileOperation("write", path, len(content))
	return nil
}

// ParseHexLayout reads a key file produced by RenderHexLayout back into key
// material. Lines starting with '#' and blank lines are ignored; exactly
// three 32-byte hex lines must remain.
func ParseHexLayout(text string) (*KeyMaterial, error) {
	var values [][]byte

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		b, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid hex: %w", lineNo, err)
		}
		if len(b) != ScalarSize {
			return nil, fmt.Errorf("line %d: expected %d bytes, got %d", lineNo, ScalarSize, len(b))
		}
		values = append(values, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key layout: %w", err)
	}

	if len(values) != 3 {
		return nil, fmt.Errorf("expected 3 key lines, found %d", len(values))
	}

	km := &KeyMaterial{}
	copy(km.Private[:], values[0])
	copy(km.PublicX[:], values[1])
	copy(km.PublicY[:], values[2])
	return km, nil
}

// ReadHexLayout parses the key file at path.
func ReadHexLayout(path string) (*KeyMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key layout file: %w", err)
	}
	return ParseHexLayout(string(data))
}
