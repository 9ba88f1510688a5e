package dwpack

import (
	"errors"

	"github.com/dwbits/dwpack/internal/dwo"
	"github.com/dwbits/dwpack/internal/strtable"
)

// Errors re-exported from internal packages.
var (
	// ErrSizeOverflow is returned when a size or offset does not fit the
	// declared output field width.
	ErrSizeOverflow = strtable.ErrSizeOverflow

	// ErrMalformedSection is returned when a str_offsets section is smaller
	// than its mandatory header.
	ErrMalformedSection = strtable.ErrMalformedSection

	// ErrNotSplitDwarf is returned when an input lacks the split DWARF
	// string-offsets section.
	ErrNotSplitDwarf = dwo.ErrNotSplitDwarf

	// ErrDecompression is returned when a compressed input section cannot
	// be expanded.
	ErrDecompression = dwo.ErrDecompression
)

// Errors specific to the dwpack package.
var (
	// ErrNoInputs is returned when Package is called without input objects.
	ErrNoInputs = errors.New("dwpack: no input objects")

	// ErrEndianMismatch is returned when input objects disagree on byte
	// order; a package has a single byte order.
	ErrEndianMismatch = errors.New("dwpack: mixed byte orders in inputs")
)
