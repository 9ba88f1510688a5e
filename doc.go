// Package dwpack merges split DWARF objects into a single DWARF package.
//
// Each input object carries its own .debug_str.dwo string table and a
// .debug_str_offsets.dwo section of byte offsets into it. Package builds
// one deduplicated string section for all inputs, rewrites every offset
// section against it, and concatenates the remaining .dwo debug sections
// unchanged into a relocatable ELF output.
package dwpack
