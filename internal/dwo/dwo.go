// Package dwo reads split DWARF objects and extracts the .dwo debug
// sections a package build consumes.
package dwo

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/dwbits/dwpack/internal/strtable"
)

// Debug section names handled by the package build.
const (
	// SectionStr is the per-object string table.
	SectionStr = ".debug_str.dwo"

	// SectionStrOffsets indexes SectionStr by byte offset.
	SectionStrOffsets = ".debug_str_offsets.dwo"
)

// PassThroughSections are carried into the package by concatenation,
// without rewriting. Order here fixes their order in the output.
var PassThroughSections = []string{
	".debug_info.dwo",
	".debug_abbrev.dwo",
	".debug_line.dwo",
	".debug_loclists.dwo",
	".debug_rnglists.dwo",
	".debug_macro.dwo",
	".debug_loc.dwo",
	".debug_macinfo.dwo",
}

// Sentinel errors for object loading.
var (
	// ErrNotSplitDwarf is returned when an input carries no
	// .debug_str_offsets.dwo section.
	ErrNotSplitDwarf = errors.New("dwpack: not a split DWARF object")

	// ErrDecompression is returned when a compressed section cannot be
	// expanded to its declared size.
	ErrDecompression = errors.New("dwpack: decompression failed")
)

// Object holds one input object's debug sections, decompressed and ready
// for merging. Section slices are owned by the Object and read-only to
// callers.
type Object struct {
	Path      string
	ByteOrder binary.ByteOrder
	Machine   elf.Machine
	Encoding  strtable.Encoding

	// StrData is the local .debug_str.dwo section.
	StrData []byte

	// StrOffsets is the local .debug_str_offsets.dwo section, header
	// included when present.
	StrOffsets []byte

	// Sections maps pass-through section names to their contents.
	Sections map[string][]byte
}

// Load opens the split DWARF object at path and extracts its .dwo sections.
// SHF_COMPRESSED sections are decompressed transparently.
func Load(path string) (*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	obj := &Object{
		Path:      path,
		ByteOrder: ef.ByteOrder,
		Machine:   ef.Machine,
		Sections:  make(map[string][]byte),
	}

	passThrough := make(map[string]bool, len(PassThroughSections))
	for _, name := range PassThroughSections {
		passThrough[name] = true
	}

	for _, sec := range ef.Sections {
		if sec.Type == elf.SHT_NOBITS {
			continue
		}
		if sec.Name != SectionStr && sec.Name != SectionStrOffsets && !passThrough[sec.Name] {
			continue
		}

		data, err := sectionData(f, sec, ef.Class, ef.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("section %s of %s: %w", sec.Name, path, err)
		}

		switch sec.Name {
		case SectionStr:
			obj.StrData = data
		case SectionStrOffsets:
			obj.StrOffsets = data
		default:
			obj.Sections[sec.Name] = data
		}
	}

	if obj.StrOffsets == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotSplitDwarf, path)
	}

	obj.Encoding = DetectEncoding(obj.StrOffsets, obj.ByteOrder)
	return obj, nil
}

// DetectEncoding inspects a .debug_str_offsets.dwo section and returns its
// encoding. A standardized DWARF 5 header is recognized by its unit-length
// field covering the rest of the section and a version value of 5; anything
// else is treated as a pre-standard GNU section, a bare 4-byte offset array.
func DetectEncoding(offData []byte, order binary.ByteOrder) strtable.Encoding {
	size := uint64(len(offData))

	if size >= 16 && order.Uint32(offData[0:4]) == 0xFFFFFFFF {
		if order.Uint64(offData[4:12]) == size-16 && order.Uint16(offData[12:14]) == 5 {
			return strtable.Encoding{Format: strtable.Dwarf64, Version: 5}
		}
	}
	if size >= 8 {
		if uint64(order.Uint32(offData[0:4])) == size-8 && order.Uint16(offData[4:6]) == 5 {
			return strtable.Encoding{Format: strtable.Dwarf32, Version: 5}
		}
	}

	return strtable.Encoding{Format: strtable.Dwarf32, Version: 4}
}
