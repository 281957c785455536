package signing

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func generateKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	return key
}

func writeSEC1(t *testing.T, dir string, key *ecdsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey failed: %v", err)
	}
	path := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}
	return path
}

func TestParseSigningKey(t *testing.T) {
	key := generateKey(t)

	sec1, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey failed: %v", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey failed: %v", err)
	}

	// openssl ecparam -genkey emits an EC PARAMETERS block first.
	params := pem.EncodeToMemory(&pem.Block{Type: "EC PARAMETERS", Bytes: []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}})

	tests := []struct {
		name string
		data []byte
	}{
		{"SEC1", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1})},
		{"PKCS8", pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})},
		{"SEC1 after parameters", append(params, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1})...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSigningKey(tt.data)
			if err != nil {
				t.Fatalf("ParseSigningKey failed: %v", err)
			}
			if !got.Equal(key) {
				t.Error("parsed key does not match generated key")
			}
		})
	}
}

func TestParseSigningKey_Errors(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	p384DER, err := x509.MarshalECPrivateKey(p384)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not PEM", []byte("hello")},
		{"certificate only", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}})},
		{"malformed SEC1", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1, 2, 3}})},
		{"P-384", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: p384DER})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSigningKey(tt.data)
			var keyErr *KeyError
			if !errors.As(err, &keyErr) {
				t.Errorf("expected KeyError, got %v", err)
			}
		})
	}
}

func TestLoadSigningKey_ErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(path, []byte("not a key"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := LoadSigningKey(path)
	var keyErr *KeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("expected KeyError, got %v", err)
	}
	if keyErr.Path != path {
		t.Errorf("KeyError.Path = %q, want %q", keyErr.Path, path)
	}
}

func TestSign_RawEncoding(t *testing.T) {
	key := generateKey(t)
	image := []byte("firmware image contents")

	for i := 0; i < 16; i++ {
		sig, err := Sign(key, image)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		if len(sig) != SignatureSize {
			t.Fatalf("signature length = %d, want %d", len(sig), SignatureSize)
		}
		if !Verify(&key.PublicKey, image, sig) {
			t.Fatal("signature did not verify")
		}
	}
}

func TestVerify_Rejects(t *testing.T) {
	key := generateKey(t)
	other := generateKey(t)
	image := []byte{0xde, 0xad, 0xbe, 0xef}

	sig, err := Sign(key, image)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	flipped := bytes.Clone(sig)
	flipped[10] ^= 0x01

	tests := []struct {
		name  string
		pub   *ecdsa.PublicKey
		image []byte
		sig   []byte
	}{
		{"tampered image", &key.PublicKey, []byte{0xde, 0xad, 0xbe, 0xee}, sig},
		{"tampered signature", &key.PublicKey, image, flipped},
		{"wrong key", &other.PublicKey, image, sig},
		{"short signature", &key.PublicKey, image, sig[:63]},
		{"nil key", nil, image, sig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.pub, tt.image, tt.sig) {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestSignImage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	key := generateKey(t)
	keyPath := writeSEC1(t, dir, key)

	image := bytes.Repeat([]byte{0x5a, 0xa5}, 1000)
	inPath := filepath.Join(dir, "app.bin")
	outPath := filepath.Join(dir, "app.signed.bin")
	if err := os.WriteFile(inPath, image, 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	sig, err := SignImage(inPath, outPath, keyPath)
	if err != nil {
		t.Fatalf("SignImage failed: %v", err)
	}
	if sig.ImageSize != len(image) {
		t.Errorf("ImageSize = %d, want %d", sig.ImageSize, len(image))
	}

	signed, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read signed image: %v", err)
	}
	if len(signed) != len(image)+SignatureSize {
		t.Fatalf("signed length = %d, want %d", len(signed), len(image)+SignatureSize)
	}
	if diff := cmp.Diff(image, signed[:len(image)]); diff != "" {
		t.Errorf("image prefix changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sig.Raw, signed[len(image):]); diff != "" {
		t.Errorf("trailing signature mismatch (-want +got):\n%s", diff)
	}

	n, err := VerifyImage(outPath, &key.PublicKey)
	if err != nil {
		t.Fatalf("VerifyImage failed: %v", err)
	}
	if n != len(image) {
		t.Errorf("VerifyImage returned %d, want %d", n, len(image))
	}

	// Input image is left untouched.
	original, _ := os.ReadFile(inPath)
	if !bytes.Equal(original, image) {
		t.Error("input image was modified")
	}
}

func TestSignImage_InPlace(t *testing.T) {
	dir := t.TempDir()
	key := generateKey(t)
	keyPath := writeSEC1(t, dir, key)

	path := filepath.Join(dir, "app.bin")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}

	if _, err := SignImage(path, path, keyPath); err != nil {
		t.Fatalf("SignImage failed: %v", err)
	}
	if _, err := VerifyImage(path, &key.PublicKey); err != nil {
		t.Errorf("VerifyImage failed: %v", err)
	}
}

func TestSignImage_Errors(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeSEC1(t, dir, generateKey(t))
	inPath := filepath.Join(dir, "app.bin")
	if err := os.WriteFile(inPath, []byte("abc"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	outPath := filepath.Join(dir, "out.bin")

	if _, err := SignImage(inPath, outPath, filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := SignImage(filepath.Join(dir, "missing.bin"), outPath, keyPath); err == nil {
		t.Error("expected error for missing image")
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Error("output file must not be created on failure")
	}
}

func TestVerifyImage_Errors(t *testing.T) {
	dir := t.TempDir()
	key := generateKey(t)

	short := filepath.Join(dir, "short.bin")
	if err := os.WriteFile(short, make([]byte, 10), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	unsigned := filepath.Join(dir, "unsigned.bin")
	if err := os.WriteFile(unsigned, make([]byte, 200), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	for _, path := range []string{short, unsigned} {
		_, err := VerifyImage(path, &key.PublicKey)
		var sigErr *SignatureError
		if !errors.As(err, &sigErr) {
			t.Errorf("VerifyImage(%s): expected SignatureError, got %v", filepath.Base(path), err)
		}
	}
}

func TestPublicKeyFromXY(t *testing.T) {
	key := generateKey(t)
	x := key.PublicKey.X.FillBytes(make([]byte, ScalarSize))
	y := key.PublicKey.Y.FillBytes(make([]byte, ScalarSize))

	pub, err := PublicKeyFromXY(x, y)
	if err != nil {
		t.Fatalf("PublicKeyFromXY failed: %v", err)
	}
	if !pub.Equal(&key.PublicKey) {
		t.Error("rebuilt public key does not match")
	}

	sig, err := Sign(key, []byte("image"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !Verify(pub, []byte("image"), sig) {
		t.Error("signature should verify with rebuilt key")
	}

	var keyErr *KeyError
	if _, err := PublicKeyFromXY(x[:31], y); !errors.As(err, &keyErr) {
		t.Errorf("expected KeyError for short x, got %v", err)
	}
	if _, err := PublicKeyFromXY(make([]byte, 32), make([]byte, 32)); !errors.As(err, &keyErr) {
		t.Errorf("expected KeyError for point not on curve, got %v", err)
	}
}
