package keymaterial

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// indexSequence returns n bytes where each byte equals its index.
func indexSequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func wrapPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

func generateP256(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey failed: %v", err)
	}
	return key, der
}

func TestFromDER_IndexSequence(t *testing.T) {
	km, err := FromDER(indexSequence(121))
	if err != nil {
		t.Fatalf("FromDER failed: %v", err)
	}

	for i := 0; i < ScalarSize; i++ {
		if km.Private[i] != byte(0x07+i) {
			t.Fatalf("Private[%d] = %#02x, want %#02x", i, km.Private[i], 0x07+i)
		}
		if km.PublicX[i] != byte(0x39+i) {
			t.Fatalf("PublicX[%d] = %#02x, want %#02x", i, km.PublicX[i], 0x39+i)
		}
		if km.PublicY[i] != byte(0x59+i) {
			t.Fatalf("PublicY[%d] = %#02x, want %#02x", i, km.PublicY[i], 0x59+i)
		}
	}

	if km.Private[ScalarSize-1] != 0x26 || km.PublicX[ScalarSize-1] != 0x58 || km.PublicY[ScalarSize-1] != 0x78 {
		t.Error("unexpected final byte of one of the key fields")
	}
}

func TestFromDER_Truncated(t *testing.T) {
	tests := []int{0, 7, 39, 89, 120}

	for _, n := range tests {
		_, err := FromDER(indexSequence(n))

		var truncErr *TruncatedKeyError
		if !errors.As(err, &truncErr) {
			t.Fatalf("FromDER(%d bytes): expected TruncatedKeyError, got %v", n, err)
		}
		if truncErr.Length != n || truncErr.Required != 121 {
			t.Errorf("TruncatedKeyError = %+v, want Length=%d Required=121", truncErr, n)
		}
	}
}

func TestFromDER_IgnoresBytesOutsideRanges(t *testing.T) {
	base := indexSequence(140)
	want, err := FromDER(base)
	if err != nil {
		t.Fatalf("FromDER failed: %v", err)
	}

	outside := []int{0, 1, 6, 39, 45, 56, 121, 139}
	for _, i := range outside {
		mutated := append([]byte(nil), base...)
		mutated[i] ^= 0xff

		got, err := FromDER(mutated)
		if err != nil {
			t.Fatalf("FromDER failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("changing byte %d altered the output (-want +got):\n%s", i, diff)
		}
	}

	inside := []int{7, 38, 57, 88, 89, 120}
	for _, i := range inside {
		mutated := append([]byte(nil), base...)
		mutated[i] ^= 0xff

		got, _ := FromDER(mutated)
		if cmp.Equal(want, got) {
			t.Errorf("changing byte %d did not alter the output", i)
		}
	}
}

func TestExtractPEM_Errors(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString(indexSequence(121))

	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{
			name:  "missing begin marker",
			input: valid + "\n" + EndMarker + "\n",
			check: func(err error) bool { var e *FormatError; return errors.As(err, &e) },
		},
		{
			name:  "missing end marker",
			input: BeginMarker + "\n" + valid + "\n",
			check: func(err error) bool { var e *FormatError; return errors.As(err, &e) },
		},
		{
			name:  "end before begin",
			input: EndMarker + "\n" + valid + "\n" + BeginMarker + "\n",
			check: func(err error) bool { var e *FormatError; return errors.As(err, &e) },
		},
		{
			name:  "two blocks",
			input: BeginMarker + "\n" + valid + "\n" + EndMarker + "\n" + BeginMarker + "\n" + valid + "\n" + EndMarker + "\n",
			check: func(err error) bool { var e *FormatError; return errors.As(err, &e) },
		},
		{
			name:  "invalid base64",
			input: BeginMarker + "\n!!not*base64!!\n" + EndMarker + "\n",
			check: func(err error) bool { var e *DecodeError; return errors.As(err, &e) },
		},
		{
			name:  "120 byte payload",
			input: string(wrapPEM(indexSequence(120))),
			check: func(err error) bool { var e *TruncatedKeyError; return errors.As(err, &e) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, err := ExtractPEM([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error, got key material %+v", km)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
		})
	}
}

func TestExtractPEM_ToleratesWhitespaceAndSurroundingBlocks(t *testing.T) {
	der := indexSequence(121)
	b64 := base64.StdEncoding.EncodeToString(der)

	// Break the payload into uneven lines with CRLF and tabs.
	var body strings.Builder
	for i := 0; i < len(b64); i += 17 {
		end := i + 17
		if end > len(b64) {
			end = len(b64)
		}
		body.WriteString("\t" + b64[i:end] + "\r\n")
	}

	input := "-----BEGIN EC PARAMETERS-----\nBggqhkjOPQMBBw==\n-----END EC PARAMETERS-----\n" +
		BeginMarker + "\n" + body.String() + EndMarker + "\n"

	got, err := ExtractPEM([]byte(input))
	if err != nil {
		t.Fatalf("ExtractPEM failed: %v", err)
	}

	want, _ := FromDER(der)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("key material mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPEM_Deterministic(t *testing.T) {
	_, der := generateP256(t)
	input := wrapPEM(der)

	first, err := ExtractPEM(input)
	if err != nil {
		t.Fatalf("ExtractPEM failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ExtractPEM(input)
		if err != nil {
			t.Fatalf("ExtractPEM failed: %v", err)
		}
		if !cmp.Equal(first, again) {
			t.Fatal("ExtractPEM is not deterministic")
		}
	}
}

func TestExtract_RealP256Key(t *testing.T) {
	key, der := generateP256(t)

	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, wrapPEM(der), 0600); err != nil {
		t.Fatalf("failed to write PEM: %v", err)
	}

	km, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	ecdhKey, err := key.ECDH()
	if err != nil {
		t.Fatalf("ECDH conversion failed: %v", err)
	}

	if diff := cmp.Diff(ecdhKey.Bytes(), km.Private[:]); diff != "" {
		t.Errorf("private scalar mismatch (-want +got):\n%s", diff)
	}

	point := ecdhKey.PublicKey().Bytes()
	if diff := cmp.Diff(point[1:], km.PublicKey()); diff != "" {
		t.Errorf("public point mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "missing.pem"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestExtract_ErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(path, []byte("no markers here"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Extract(path)

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Path != path {
		t.Errorf("FormatError.Path = %q, want %q", formatErr.Path, path)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error message should mention the file: %v", err)
	}
}

func TestPublicKey(t *testing.T) {
	km, _ := FromDER(indexSequence(121))
	pub := km.PublicKey()

	if len(pub) != 64 {
		t.Fatalf("PublicKey() length = %d, want 64", len(pub))
	}
	if diff := cmp.Diff(indexSequence(121)[57:121], pub); diff != "" {
		t.Errorf("PublicKey() mismatch (-want +got):\n%s", diff)
	}
}
