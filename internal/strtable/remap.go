package strtable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// RemapStrOffsets rebuilds one object's .debug_str_offsets.dwo section
// against the merged table.
//
// strData is the object's local .debug_str.dwo section and offData its local
// .debug_str_offsets.dwo section. sectionSize is the declared byte length of
// offData, header included. Every referenced string is inserted into the
// table as a side effect, and the returned section has the same header shape
// and entry count as the input, with each entry rewritten to the string's
// offset in the merged section. Entry i of the output always corresponds to
// entry i of the input.
//
// On error no output is produced for the object; strings inserted by earlier
// entries of the failed call stay in the table as unreferenced extras.
func (t *Table) RemapStrOffsets(strData, offData []byte, sectionSize uint64, enc Encoding, order binary.ByteOrder) ([]byte, error) {
	entrySize := enc.Format.EntrySize()
	headerSize := enc.HeaderSize()
	if sectionSize < headerSize {
		return nil, fmt.Errorf("%w: size %d smaller than %d-byte header", ErrMalformedSection, sectionSize, headerSize)
	}

	// Unit length counts the section bytes that follow the header. Validate
	// before allocating so an oversized declared size cannot exhaust memory.
	unitLength := sectionSize - headerSize
	if enc.HasPackageHeader() && enc.Format != Dwarf64 && unitLength > math.MaxUint32 {
		return nil, fmt.Errorf("%w: unit length %d exceeds uint32", ErrSizeOverflow, unitLength)
	}

	out := make([]byte, 0, sectionSize)

	if enc.HasPackageHeader() {
		switch enc.Format {
		case Dwarf64:
			out = appendUint32(out, order, math.MaxUint32)
			out = appendUint64(out, order, unitLength)
		default:
			out = appendUint32(out, order, uint32(unitLength))
		}
		// Version (2 bytes): DWARF 5. Reserved padding (2 bytes).
		out = appendUint16(out, order, 5)
		out = appendUint16(out, order, 0)
	}

	// Truncating division: trailing bytes that do not fill a whole entry
	// are ignored, the caller is assumed to hand over well-formed sections.
	numEntries := (sectionSize - headerSize) / entrySize

	for i := uint64(0); i < numEntries; i++ {
		local, err := readEntry(offData, headerSize, i, enc.Format, order)
		if err != nil {
			return nil, err
		}

		s, err := getString(strData, local)
		if err != nil {
			return nil, err
		}

		merged := t.InsertOrGet(s)

		switch enc.Format {
		case Dwarf64:
			out = appendUint64(out, order, uint64(merged))
		default:
			if uint64(merged) > math.MaxUint32 {
				return nil, fmt.Errorf("%w: string offset %d exceeds uint32", ErrSizeOverflow, merged)
			}
			out = appendUint32(out, order, uint32(merged))
		}
	}

	return out, nil
}

// readEntry fetches fixed-width entry i from the data region of a
// str_offsets section, skipping base bytes of header.
func readEntry(offData []byte, base, i uint64, f Format, order binary.ByteOrder) (uint64, error) {
	entrySize := f.EntrySize()
	start := base + i*entrySize
	if start+entrySize > uint64(len(offData)) || start+entrySize < start {
		return 0, &OffsetIndexError{Index: i}
	}
	if f == Dwarf64 {
		return order.Uint64(offData[start : start+8]), nil
	}
	return uint64(order.Uint32(offData[start : start+4])), nil
}

// getString fetches the NUL-terminated string starting at off in strData.
// The terminator is not included in the returned slice.
func getString(strData []byte, off uint64) ([]byte, error) {
	if off >= uint64(len(strData)) {
		return nil, &StringDecodeError{Offset: off}
	}
	end := bytes.IndexByte(strData[off:], 0)
	if end < 0 {
		return nil, &StringDecodeError{Offset: off}
	}
	return strData[off : off+uint64(end)], nil
}

func appendUint16(b []byte, order binary.ByteOrder, v uint16) []byte {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint32(b []byte, order binary.ByteOrder, v uint32) []byte {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint64(b []byte, order binary.ByteOrder, v uint64) []byte {
	var tmp [8]byte
	order.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
