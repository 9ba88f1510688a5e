// Package strtable merges the debug string tables of split DWARF objects.
//
// A package build accumulates one Table across all input objects. Each
// object's .debug_str_offsets.dwo section is rebuilt against the shared
// table so that entry i of the rebuilt section resolves to the same string
// as entry i of the original, but through the merged .debug_str.dwo section.
package strtable

import (
	"bytes"
)

// StringID identifies a distinct string by insertion order.
// It is never persisted; it only keys the offset cache.
type StringID int

// StringOffset is a byte offset into the merged string section.
// Once assigned it never changes.
type StringOffset uint64

// Table is an append-only, deduplicating string table.
//
// Strings are stored NUL-terminated, in first-insertion order, with no gaps.
// A Table is not safe for concurrent use: insertion order determines the
// assigned offsets, so callers must serialize all mutation.
type Table struct {
	buf     []byte
	ids     map[string]StringID
	offsets map[StringID]StringOffset
}

// New creates an empty Table.
func New() *Table {
	return &Table{
		ids:     make(map[string]StringID),
		offsets: make(map[StringID]StringOffset),
	}
}

// InsertOrGet adds b to the table and returns its offset in the merged
// section. If an equal string was inserted before, the previously assigned
// offset is returned and the table is unchanged.
//
// b must not contain a NUL byte; upstream parsing always hands over
// terminator-free strings, so a NUL here is a caller bug and panics.
func (t *Table) InsertOrGet(b []byte) StringOffset {
	if bytes.IndexByte(b, 0) >= 0 {
		panic("dwpack: string contains NUL terminator")
	}

	if id, ok := t.ids[string(b)]; ok {
		return t.offsets[id]
	}

	// The offset may be referenced by the next input object too.
	id := StringID(len(t.ids))
	off := StringOffset(len(t.buf))
	t.ids[string(b)] = id
	t.offsets[id] = off

	t.buf = append(t.buf, b...)
	t.buf = append(t.buf, 0)

	return off
}

// Len returns the number of distinct strings inserted so far.
func (t *Table) Len() int {
	return len(t.ids)
}

// Size returns the current byte length of the merged section.
func (t *Table) Size() uint64 {
	return uint64(len(t.buf))
}

// Finish returns the accumulated merged string section and drains the table.
// It must be called exactly once, after all input objects have been
// remapped; the table must not be used afterward.
func (t *Table) Finish() []byte {
	buf := t.buf
	t.buf = nil
	t.ids = nil
	t.offsets = nil
	return buf
}
