package strtable

import (
	"errors"
	"fmt"
)

// Sentinel errors for str_offsets rebuilding.
var (
	// ErrSizeOverflow is returned when a size or offset does not fit the
	// declared output field width.
	ErrSizeOverflow = errors.New("dwpack: size overflow")

	// ErrMalformedSection is returned when a section's declared size is
	// smaller than its mandatory header.
	ErrMalformedSection = errors.New("dwpack: malformed str_offsets section")
)

// OffsetIndexError reports a str_offsets entry index that lies outside the
// input section.
type OffsetIndexError struct {
	Index uint64
}

func (e *OffsetIndexError) Error() string {
	return fmt.Sprintf("dwpack: str_offsets entry %d out of range", e.Index)
}

// StringDecodeError reports a string-table offset that does not locate a
// NUL-terminated string.
type StringDecodeError struct {
	Offset uint64
}

func (e *StringDecodeError) Error() string {
	return fmt.Sprintf("dwpack: no terminated string at .debug_str offset %#x", e.Offset)
}
