package elfpatch

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/muurk/bl1prov/internal/logging"
)

// The BL1 provisioner reserves this section for the secure-boot public key.
const (
	PubKeySection = ".pubkey"
	PubKeySize    = 64
)

// Section describes where a named section lives in the file.
type Section struct {
	Name   string
	Offset uint64
	Size   uint64
	Type   elf.SectionType
}

// Patcher overwrites the raw bytes of a named ELF section. Only the bytes
// in [sh_offset, sh_offset+sh_size) are touched; headers and the section
// table are never rewritten.
type Patcher struct {
	logger *zap.Logger

	// Atomic selects a read-modify-write through a temporary copy and
	// rename instead of writing into the original file.
	Atomic bool
}

// NewPatcher creates a patcher that writes in place.
func NewPatcher(logger *zap.Logger) *Patcher {
	return &Patcher{logger: logger}
}

// PatchSection overwrites section name in the ELF at path with data, in
// place, using the global logger.
func PatchSection(path, name string, data []byte) error {
	return NewPatcher(logging.GetLogger()).Patch(path, name, data)
}

// PatchSectionAtomic is PatchSection through a temporary copy and rename.
func PatchSectionAtomic(path, name string, data []byte) error {
	p := NewPatcher(logging.GetLogger())
	p.Atomic = true
	return p.Patch(path, name, data)
}

// Patch validates the section and writes data over it.
//
// Both modes validate before any write, so a missing section or a size
// mismatch leaves the file byte-for-byte unchanged. The in-place mode is
// not atomic: an I/O failure or crash during WriteAt can leave the section
// partially written.
func (p *Patcher) Patch(path, name string, data []byte) error {
	if p.Atomic {
		return p.patchAtomic(path, name, data)
	}
	return p.patchInPlace(path, name, data)
}

func (p *Patcher) patchInPlace(path, name string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close ELF file: %w", cerr)
		}
	}()

	sec, err := locate(f, path, name, len(data))
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat ELF file: %w", err)
	}
	if err := checkBounds(sec, path, info.Size()); err != nil {
		return err
	}

	p.logger.Debug("patching ELF section in place",
		zap.String("file", path),
		zap.String("section", name),
		zap.Uint64("offset", sec.Offset),
		zap.Uint64("size", sec.Size),
	)

	if _, err := f.WriteAt(data, int64(sec.Offset)); err != nil {
		return fmt.Errorf("failed to write section %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to flush ELF file: %w", err)
	}

	p.logger.Info("ELF section patched",
		zap.String("file", path),
		zap.String("section", name),
		zap.Int("bytes_written", len(data)),
	)
	return nil
}

func (p *Patcher) patchAtomic(path, name string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat ELF file: %w", err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ELF file: %w", err)
	}

	sec, err := locate(bytes.NewReader(buf), path, name, len(data))
	if err != nil {
		return err
	}
	if err := checkBounds(sec, path, int64(len(buf))); err != nil {
		return err
	}
	copy(buf[sec.Offset:sec.Offset+sec.Size], data)

	p.logger.Debug("patching ELF section via temporary copy",
		zap.String("file", path),
		zap.String("section", name),
		zap.Uint64("offset", sec.Offset),
	)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary ELF file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary ELF file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush temporary ELF file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary ELF file: %w", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set ELF file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace ELF file: %w", err)
	}

	p.logger.Info("ELF section patched",
		zap.String("file", path),
		zap.String("section", name),
		zap.Int("bytes_written", len(data)),
		zap.Bool("atomic", true),
	)
	return nil
}

// FindSection returns the location of section name in the ELF at path.
func FindSection(path, name string) (*Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer f.Close()

	return locate(f, path, name, -1)
}

// ReadSection returns the current file bytes of section name.
func ReadSection(path, name string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer f.Close()

	sec, err := locate(f, path, name, -1)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat ELF file: %w", err)
	}
	if err := checkBounds(sec, path, info.Size()); err != nil {
		return nil, err
	}

	data := make([]byte, sec.Size)
	if _, err := f.ReadAt(data, int64(sec.Offset)); err != nil {
		return nil, fmt.Errorf("failed to read section %s: %w", name, err)
	}
	return data, nil
}

// locate parses the ELF section table from r and finds name. When want is
// non-negative the section size must equal it.
func locate(r io.ReaderAt, path, name string, want int) (*Section, error) {
	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, &InvalidELFError{Path: path, Err: err}
	}

	s := ef.Section(name)
	if s == nil {
		return nil, &SectionNotFoundError{Path: path, Section: name}
	}
	if s.Type == elf.SHT_NOBITS {
		return nil, &SectionNotFoundError{Path: path, Section: name, Reason: "section occupies no file bytes (SHT_NOBITS)"}
	}
	if want >= 0 && s.Size != uint64(want) {
		return nil, &SectionSizeMismatchError{Path: path, Section: name, Size: s.Size, Want: want}
	}

	return &Section{
		Name:   s.Name,
		Offset: s.Offset,
		Size:   s.Size,
		Type:   s.Type,
	}, nil
}

// checkBounds rejects section headers that point past the end of the file,
// which would otherwise make WriteAt grow the file.
func checkBounds(sec *Section, path string, fileSize int64) error {
	if sec.Offset > uint64(fileSize) || sec.Size > uint64(fileSize)-sec.Offset {
		return &InvalidELFError{
			Path: path,
			Err:  fmt.Errorf("section %s [%#x, +%d) extends past end of file (%d bytes)", sec.Name, sec.Offset, sec.Size, fileSize),
		}
	}
	return nil
}
