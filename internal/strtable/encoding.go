package strtable

// Format selects the on-disk integer width of a DWARF section.
type Format uint8

const (
	// Dwarf32 uses 4-byte offsets and a 4-byte unit-length field.
	Dwarf32 Format = iota + 1

	// Dwarf64 uses 8-byte offsets and an escaped 4+8-byte unit-length field.
	Dwarf64
)

// EntrySize returns the width in bytes of a str_offsets entry.
func (f Format) EntrySize() uint64 {
	if f == Dwarf64 {
		return 8
	}
	return 4
}

func (f Format) String() string {
	if f == Dwarf64 {
		return "DWARF64"
	}
	return "DWARF32"
}

// Encoding carries the format and DWARF version of a str_offsets section.
// Keeping them together ties the entry width to the header shape, so the
// two cannot be mismatched at a call site.
type Encoding struct {
	Format  Format
	Version uint16
}

// HasPackageHeader reports whether the section carries the standardized
// header introduced in DWARF 5. Pre-standard (GNU DWARF 4) split objects
// store bare offset arrays with no header.
func (e Encoding) HasPackageHeader() bool {
	return e.Version >= 5
}

// HeaderSize returns the byte length of the section header: unit length
// (4 bytes, or a 4-byte escape plus 8 bytes for DWARF64), a 2-byte version
// and 2 bytes of padding. Zero when the section has no header.
func (e Encoding) HeaderSize() uint64 {
	if !e.HasPackageHeader() {
		return 0
	}
	if e.Format == Dwarf64 {
		return 16
	}
	return 8
}
