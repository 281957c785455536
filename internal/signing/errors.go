package signing

import "fmt"

// KeyError represents a signing key that could not be loaded.
type KeyError struct {
	// Path is the key file, empty when parsing from memory
	Path string
	// Reason describes what is wrong with the key
	Reason string
	// Underlying error if any
	Err error
}

func (e *KeyError) Error() string {
	msg := "invalid signing key"
	if e.Path != "" {
		msg = fmt.Sprintf("invalid signing key %s", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// SignatureError represents a signature that could not be produced or did
// not verify.
type SignatureError struct {
	// Path is the signed image, if any
	Path string
	// Reason describes the failure
	Reason string
	// Underlying error if any
	Err error
}

func (e *SignatureError) Error() string {
	msg := "signature error"
	if e.Path != "" {
		msg = fmt.Sprintf("signature error for %s", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}
