package keymaterial

import "fmt"

// FormatError is returned when the PEM text does not contain exactly one
// EC PRIVATE KEY block delimited by the expected markers.
type FormatError struct {
	// Path is the source file (empty when parsing in-memory data)
	Path string
	// Reason describes which marker was missing or misplaced
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid PEM format in %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid PEM format: %s", e.Reason)
}

// DecodeError is returned when the text between the PEM markers is not
// valid base64.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to decode base64 key payload in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to decode base64 key payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TruncatedKeyError is returned when the decoded key is too short for the
// fixed offsets. Slicing past the end of the buffer is never silently
// truncated.
type TruncatedKeyError struct {
	Path string
	// Length is the decoded DER length
	Length int
	// Required is the minimum length needed by the offset layout
	Required int
}

func (e *TruncatedKeyError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decoded key in %s is %d bytes, need at least %d for the SEC1 P-256 layout", e.Path, e.Length, e.Required)
	}
	return fmt.Sprintf("decoded key is %d bytes, need at least %d for the SEC1 P-256 layout", e.Length, e.Required)
}

// LayoutMismatchError is returned by CheckLayout when the SEC1 structure
// parses but its fields are not where the fixed offsets expect them.
type LayoutMismatchError struct {
	Path string
	// Field is the SEC1 field that failed the check
	Field string
	// Reason explains the mismatch
	Reason string
	// Err is the underlying parse error, if any
	Err error
}

func (e *LayoutMismatchError) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.message()
	}
	return e.message()
}

func (e *LayoutMismatchError) message() string {
	if e.Err != nil {
		return fmt.Sprintf("SEC1 layout check failed for %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("SEC1 layout check failed for %s: %s", e.Field, e.Reason)
}

func (e *LayoutMismatchError) Unwrap() error {
	return e.Err
}
