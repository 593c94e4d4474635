// Package elf locates the .text section of a little-endian 64-bit ELF
// image held in memory. Only the pieces of the format needed to find
// executable code are parsed; relocations, symbols and program headers
// are ignored.
package elf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ELF header field offsets and expected values
const (
	identClass = 4 // EI_CLASS
	identData  = 5 // EI_DATA

	class64        = 2 // ELFCLASS64
	dataLittle     = 1 // ELFDATA2LSB
	headerSize     = 64
	sectionHdrSize = 64

	offEntry     = 24
	offShOff     = 40
	offShEntSize = 58
	offShNum     = 60
	offShStrNdx  = 62

	shOffName   = 0
	shOffAddr   = 16
	shOffOffset = 24
	shOffSize   = 32
)

var magic = []byte{0x7F, 'E', 'L', 'F'}

// TextSection describes the located .text section. EntryOffset is the ELF
// entrypoint translated to a file offset: e_entry - sh_addr + sh_offset.
type TextSection struct {
	Offset      uint64
	Size        uint64
	Addr        uint64
	EntryOffset uint64
}

// FindText parses the image headers and returns the .text section
func FindText(image []byte) (TextSection, error) {
	if len(image) < headerSize {
		return TextSection{}, fmt.Errorf("ELF image too small: %d bytes", len(image))
	}
	if !bytes.Equal(image[:4], magic) {
		return TextSection{}, fmt.Errorf("not an ELF image (magic %02X %02X %02X %02X)",
			image[0], image[1], image[2], image[3])
	}
	if image[identClass] != class64 {
		return TextSection{}, fmt.Errorf("unsupported ELF class %d (need ELF64)", image[identClass])
	}
	if image[identData] != dataLittle {
		return TextSection{}, fmt.Errorf("unsupported ELF data encoding %d (need little-endian)", image[identData])
	}

	entry := binary.LittleEndian.Uint64(image[offEntry:])
	shOff := binary.LittleEndian.Uint64(image[offShOff:])
	shEntSize := uint64(binary.LittleEndian.Uint16(image[offShEntSize:]))
	shNum := uint64(binary.LittleEndian.Uint16(image[offShNum:]))
	shStrNdx := uint64(binary.LittleEndian.Uint16(image[offShStrNdx:]))

	if shEntSize < sectionHdrSize {
		return TextSection{}, fmt.Errorf("bad section header entry size %d", shEntSize)
	}
	if shStrNdx >= shNum {
		return TextSection{}, fmt.Errorf("section string table index %d out of range (%d sections)", shStrNdx, shNum)
	}

	// Section header string table gives us the section names
	strTab, err := sectionHeader(image, shOff, shEntSize, shStrNdx)
	if err != nil {
		return TextSection{}, err
	}

	for i := uint64(0); i < shNum; i++ {
		hdr, err := sectionHeader(image, shOff, shEntSize, i)
		if err != nil {
			return TextSection{}, err
		}

		name, err := sectionName(image, strTab.offset, hdr.nameIndex)
		if err != nil {
			return TextSection{}, err
		}
		if name != ".text" {
			continue
		}

		return TextSection{
			Offset:      hdr.offset,
			Size:        hdr.size,
			Addr:        hdr.addr,
			EntryOffset: entry - hdr.addr + hdr.offset,
		}, nil
	}

	return TextSection{}, fmt.Errorf("failed to locate .text section")
}

type rawSectionHeader struct {
	nameIndex uint64
	addr      uint64
	offset    uint64
	size      uint64
}

// sectionHeader reads the i-th section header
func sectionHeader(image []byte, shOff, entSize, index uint64) (rawSectionHeader, error) {
	start := shOff + index*entSize
	end := start + sectionHdrSize
	if end < start || end > uint64(len(image)) {
		return rawSectionHeader{}, fmt.Errorf("section header %d out of bounds at 0x%X", index, start)
	}

	hdr := image[start:end]
	return rawSectionHeader{
		nameIndex: uint64(binary.LittleEndian.Uint32(hdr[shOffName:])),
		addr:      binary.LittleEndian.Uint64(hdr[shOffAddr:]),
		offset:    binary.LittleEndian.Uint64(hdr[shOffOffset:]),
		size:      binary.LittleEndian.Uint64(hdr[shOffSize:]),
	}, nil
}

// sectionName reads a NUL-terminated name from the string table
func sectionName(image []byte, strTabOffset, nameIndex uint64) (string, error) {
	start := strTabOffset + nameIndex
	if start >= uint64(len(image)) {
		return "", fmt.Errorf("section name at 0x%X out of bounds", start)
	}
	end := bytes.IndexByte(image[start:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated section name at 0x%X", start)
	}
	return string(image[start : start+uint64(end)]), nil
}
