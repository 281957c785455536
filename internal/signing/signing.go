package signing

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/muurk/bl1prov/internal/logging"
)

const (
	// Algorithm names the scheme in the target catalog.
	Algorithm = "ecdsa-p256-sha256"

	// ScalarSize is the byte length of r and s for P-256.
	ScalarSize = 32

	// SignatureSize is the length of the raw r || s signature appended to
	// a signed image.
	SignatureSize = 2 * ScalarSize
)

// Signature is the result of signing an image.
type Signature struct {
	// Digest is the SHA-256 of the unsigned image
	Digest [sha256.Size]byte
	// Raw is r || s, each left-padded to ScalarSize
	Raw []byte
	// ImageSize is the length of the unsigned image
	ImageSize int
}

// LoadSigningKey reads a P-256 private key from a PEM file. Both SEC1
// ("EC PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted.
func LoadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &KeyError{Path: path, Reason: "cannot read key file", Err: err}
	}

	key, err := ParseSigningKey(data)
	if err != nil {
		var keyErr *KeyError
		if errors.As(err, &keyErr) {
			keyErr.Path = path
		}
		return nil, err
	}
	return key, nil
}

// ParseSigningKey parses the first private key block in PEM data. Blocks
// of other types, such as EC PARAMETERS, are skipped.
func ParseSigningKey(data []byte) (*ecdsa.PrivateKey, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, &KeyError{Reason: "no EC PRIVATE KEY or PRIVATE KEY block found"}
		}

		switch block.Type {
		case "EC PRIVATE KEY":
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, &KeyError{Reason: "malformed SEC1 key", Err: err}
			}
			return checkCurve(key)

		case "PRIVATE KEY":
			parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, &KeyError{Reason: "malformed PKCS#8 key", Err: err}
			}
			key, ok := parsed.(*ecdsa.PrivateKey)
			if !ok {
				return nil, &KeyError{Reason: fmt.Sprintf("PKCS#8 key is %T, not ECDSA", parsed)}
			}
			return checkCurve(key)
		}
	}
}

func checkCurve(key *ecdsa.PrivateKey) (*ecdsa.PrivateKey, error) {
	if key.Curve != elliptic.P256() {
		return nil, &KeyError{Reason: fmt.Sprintf("curve %s is not supported, want P-256", key.Curve.Params().Name)}
	}
	return key, nil
}

// Sign hashes image with SHA-256 and signs the digest. The signature is
// encoded as r || s with each value left-padded to 32 bytes, which is what
// the boot ROM expects at the end of the image.
func Sign(key *ecdsa.PrivateKey, image []byte) ([]byte, error) {
	return signWithRand(rand.Reader, key, image)
}

func signWithRand(random io.Reader, key *ecdsa.PrivateKey, image []byte) ([]byte, error) {
	if key == nil {
		return nil, &KeyError{Reason: "no key"}
	}

	digest := sha256.Sum256(image)
	r, s, err := ecdsa.Sign(random, key, digest[:])
	if err != nil {
		return nil, &SignatureError{Reason: "ECDSA signing failed", Err: err}
	}

	raw := make([]byte, SignatureSize)
	r.FillBytes(raw[:ScalarSize])
	s.FillBytes(raw[ScalarSize:])
	return raw, nil
}

// PublicKeyFromXY builds a P-256 public key from 32-byte big-endian
// coordinates, as found in the hex key layout and the .pubkey section.
func PublicKeyFromXY(x, y []byte) (*ecdsa.PublicKey, error) {
	if len(x) != ScalarSize || len(y) != ScalarSize {
		return nil, &KeyError{Reason: fmt.Sprintf("coordinates must be %d bytes, got %d and %d", ScalarSize, len(x), len(y))}
	}

	point := make([]byte, 0, 1+2*ScalarSize)
	point = append(point, 0x04)
	point = append(point, x...)
	point = append(point, y...)
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return nil, &KeyError{Reason: "point is not on P-256", Err: err}
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}

// Verify checks a raw r || s signature over image.
func Verify(pub *ecdsa.PublicKey, image, sig []byte) bool {
	if pub == nil || len(sig) != SignatureSize {
		return false
	}
	digest := sha256.Sum256(image)
	r := new(big.Int).SetBytes(sig[:ScalarSize])
	s := new(big.Int).SetBytes(sig[ScalarSize:])
	return ecdsa.Verify(pub, digest[:], r, s)
}

// SignImage signs the image at inPath with the key at keyPath and writes
// image || signature to outPath. outPath is replaced atomically, so a
// failed run never leaves a truncated signed image behind.
func SignImage(inPath, outPath, keyPath string) (*Signature, error) {
	logger := logging.GetLogger()

	key, err := LoadSigningKey(keyPath)
	if err != nil {
		return nil, err
	}

	image, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	logging.LogFileOperation("read", inPath, len(image))

	raw, err := Sign(key, image)
	if err != nil {
		var sigErr *SignatureError
		if errors.As(err, &sigErr) {
			sigErr.Path = inPath
		}
		return nil, err
	}

	signed := make([]byte, 0, len(image)+len(raw))
	signed = append(signed, image...)
	signed = append(signed, raw...)

	if err := writeFileAtomic(outPath, signed); err != nil {
		return nil, err
	}
	logging.LogFileOperation("write", outPath, len(signed))

	sig := &Signature{
		Digest:    sha256.Sum256(image),
		Raw:       raw,
		ImageSize: len(image),
	}

	logger.Info("image signed",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("image_size", len(image)),
	)

	return sig, nil
}

// VerifyImage splits the trailing signature off a signed image and checks
// it against pub. It returns the unsigned image length on success.
func VerifyImage(signedPath string, pub *ecdsa.PublicKey) (int, error) {
	data, err := os.ReadFile(signedPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read signed image: %w", err)
	}

	if len(data) < SignatureSize {
		return 0, &SignatureError{
			Path:   signedPath,
			Reason: fmt.Sprintf("file is %d bytes, shorter than a %d-byte signature", len(data), SignatureSize),
		}
	}

	split := len(data) - SignatureSize
	if !Verify(pub, data[:split], data[split:]) {
		return 0, &SignatureError{Path: signedPath, Reason: "signature does not match image"}
	}

	return split, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bl1sign-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write signed image: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close signed image: %w", err)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename signed image: %w", err)
	}
	return nil
}
