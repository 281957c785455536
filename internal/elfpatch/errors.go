package elfpatch

import "fmt"

// SectionNotFoundError is returned when the named section is absent, or has
// no bytes in the file (SHT_NOBITS).
type SectionNotFoundError struct {
	Path    string
	Section string
	// Reason is set when the section exists but cannot be patched
	Reason string
}

func (e *SectionNotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("section %s in %s cannot be patched: %s", e.Section, e.Path, e.Reason)
	}
	return fmt.Sprintf("section %s not found in %s", e.Section, e.Path)
}

// SectionSizeMismatchError is returned when the section size differs from
// the replacement length. The file is not modified.
type SectionSizeMismatchError struct {
	Path    string
	Section string
	// Size is the declared sh_size of the section
	Size uint64
	// Want is the length of the replacement bytes
	Want int
}

func (e *SectionSizeMismatchError) Error() string {
	return fmt.Sprintf("section %s in %s is %d bytes, expected %d", e.Section, e.Path, e.Size, e.Want)
}

// InvalidELFError is returned when the target file cannot be parsed as ELF.
type InvalidELFError struct {
	Path string
	Err  error
}

func (e *InvalidELFError) Error() string {
	return fmt.Sprintf("%s is not a valid ELF file: %v", e.Path, e.Err)
}

func (e *InvalidELFError) Unwrap() error {
	return e.Err
}
