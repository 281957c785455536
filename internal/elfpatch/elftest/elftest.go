// Package elftest builds small ELF32 images for tests.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// Section is a section to place in the generated file.
type Section struct {
	Name string
	Type elf.SectionType
	Data []byte
	// Size overrides len(Data) for SHT_NOBITS sections
	Size uint32
}

const (
	headerSize        = 52
	sectionHeaderSize = 40
)

// Build returns a little-endian ARM ELF32 executable containing sections
// in order, followed by .shstrtab and the section header table.
func Build(sections ...Section) []byte {
	var body bytes.Buffer
	offsets := make([]uint32, len(sections))

	for i, s := range sections {
		offsets[i] = uint32(headerSize + body.Len())
		if s.Type != elf.SHT_NOBITS {
			body.Write(s.Data)
		}
	}

	var strtab bytes.Buffer
	strtab.WriteByte(0)
	nameOffsets := make([]uint32, len(sections))
	for i, s := range sections {
		nameOffsets[i] = uint32(strtab.Len())
		strtab.WriteString(s.Name)
		strtab.WriteByte(0)
	}
	shstrtabName := uint32(strtab.Len())
	strtab.WriteString(".shstrtab")
	strtab.WriteByte(0)

	strtabOffset := uint32(headerSize + body.Len())
	body.Write(strtab.Bytes())
	for body.Len()%4 != 0 {
		body.WriteByte(0)
	}
	shoff := uint32(headerSize + body.Len())

	shnum := uint16(len(sections) + 2)
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_ARM),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    headerSize,
		Shentsize: sectionHeaderSize,
		Shnum:     shnum,
		Shstrndx:  shnum - 1,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, hdr)
	out.Write(body.Bytes())

	// Null section header first.
	_ = binary.Write(&out, binary.LittleEndian, elf.Section32{})
	for i, s := range sections {
		size := uint32(len(s.Data))
		if s.Type == elf.SHT_NOBITS {
			size = s.Size
		}
		_ = binary.Write(&out, binary.LittleEndian, elf.Section32{
			Name:      nameOffsets[i],
			Type:      uint32(s.Type),
			Flags:     uint32(elf.SHF_ALLOC),
			Off:       offsets[i],
			Size:      size,
			Addralign: 1,
		})
	}
	_ = binary.Write(&out, binary.LittleEndian, elf.Section32{
		Name:      shstrtabName,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       strtabOffset,
		Size:      uint32(strtab.Len()),
		Addralign: 1,
	})

	return out.Bytes()
}

// Provisioner returns an image shaped like bl1_provision.elf: code, a
// .pubkey section of pubkeySize placeholder bytes, and data after it.
func Provisioner(pubkeySize int) []byte {
	return Build(
		Section{Name: ".text", Type: elf.SHT_PROGBITS, Data: bytes.Repeat([]byte{0xAA}, 48)},
		Section{Name: ".pubkey", Type: elf.SHT_PROGBITS, Data: bytes.Repeat([]byte{0xFF}, pubkeySize)},
		Section{Name: ".data", Type: elf.SHT_PROGBITS, Data: bytes.Repeat([]byte{0x55}, 16)},
		Section{Name: ".bss", Type: elf.SHT_NOBITS, Size: 128},
	)
}
