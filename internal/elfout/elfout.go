// Package elfout emits a DWARF package as a relocatable ELF64 file.
//
// The output holds one PROGBITS section per merged debug section plus the
// section name table; there are no segments, symbols or relocations.
package elfout

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"
)

const (
	ehdrSize = 64
	shdrSize = 64
)

// Section is one debug section to be written to the package.
type Section struct {
	Name  string
	Data  []byte
	Flags uint64
}

// shstrtab accumulates the section name table, offsets assigned in
// insertion order behind the leading NUL.
type shstrtab struct {
	buf []byte
	off map[string]uint32
}

func newShstrtab() *shstrtab {
	return &shstrtab{
		buf: []byte{0},
		off: map[string]uint32{"": 0},
	}
}

func (s *shstrtab) add(name string) uint32 {
	if off, ok := s.off[name]; ok {
		return off
	}
	off := uint32(len(s.buf))
	s.off[name] = off
	s.buf = append(s.buf, name...)
	s.buf = append(s.buf, 0)
	return off
}

// fieldWriter appends fixed-width integers in a chosen byte order.
type fieldWriter struct {
	buf   *bytes.Buffer
	order binary.ByteOrder
}

func (w fieldWriter) u16(v uint16) {
	var tmp [2]byte
	w.order.PutUint16(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w fieldWriter) u32(v uint32) {
	var tmp [4]byte
	w.order.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w fieldWriter) u64(v uint64) {
	var tmp [8]byte
	w.order.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// Write emits the package file: ELF header, section contents, .shstrtab,
// then the section header table. Sections appear in the given order after
// the leading null section.
func Write(w io.Writer, order binary.ByteOrder, machine elf.Machine, sections []Section) error {
	names := newShstrtab()

	type header struct {
		nameOff   uint32
		typ       elf.SectionType
		flags     uint64
		off, size uint64
	}
	hdrs := make([]header, 0, len(sections)+1)

	off := uint64(ehdrSize)
	for _, sec := range sections {
		hdrs = append(hdrs, header{
			nameOff: names.add(sec.Name),
			typ:     elf.SHT_PROGBITS,
			flags:   sec.Flags,
			off:     off,
			size:    uint64(len(sec.Data)),
		})
		off += uint64(len(sec.Data))
	}

	strtabName := names.add(".shstrtab")
	hdrs = append(hdrs, header{
		nameOff: strtabName,
		typ:     elf.SHT_STRTAB,
		off:     off,
		size:    uint64(len(names.buf)),
	})
	off += uint64(len(names.buf))

	shoff := off + (8-off%8)%8
	shnum := uint16(len(hdrs) + 1) // leading null section

	var buf bytes.Buffer
	fw := fieldWriter{buf: &buf, order: order}

	ident := [16]byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(dataEncoding(order)), byte(elf.EV_CURRENT)}
	buf.Write(ident[:])

	fw.u16(uint16(elf.ET_REL))
	fw.u16(uint16(machine))
	fw.u32(uint32(elf.EV_CURRENT))
	fw.u64(0) // entry
	fw.u64(0) // phoff
	fw.u64(shoff)
	fw.u32(0) // flags
	fw.u16(ehdrSize)
	fw.u16(0) // phentsize
	fw.u16(0) // phnum
	fw.u16(shdrSize)
	fw.u16(shnum)
	fw.u16(shnum - 1) // shstrndx

	for _, sec := range sections {
		buf.Write(sec.Data)
	}
	buf.Write(names.buf)

	for uint64(buf.Len()) < shoff {
		buf.WriteByte(0)
	}

	buf.Write(make([]byte, shdrSize)) // null section header
	for _, h := range hdrs {
		fw.u32(h.nameOff)
		fw.u32(uint32(h.typ))
		fw.u64(h.flags)
		fw.u64(0) // addr
		fw.u64(h.off)
		fw.u64(h.size)
		fw.u32(0) // link
		fw.u32(0) // info
		fw.u64(1) // addralign
		fw.u64(0) // entsize
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func dataEncoding(order binary.ByteOrder) elf.Data {
	if order == binary.ByteOrder(binary.BigEndian) {
		return elf.ELFDATA2MSB
	}
	return elf.ELFDATA2LSB
}
