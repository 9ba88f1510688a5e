package elfout

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	sections := []Section{
		{Name: ".debug_str.dwo", Data: []byte("one\x00two\x00")},
		{Name: ".debug_str_offsets.dwo", Data: []byte{0, 0, 0, 0, 4, 0, 0, 0}},
		{Name: ".debug_info.dwo", Data: []byte("info")},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, binary.LittleEndian, elf.EM_X86_64, sections))

	f, err := elf.NewFile(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, elf.ET_REL, f.Type)
	assert.Equal(t, elf.EM_X86_64, f.Machine)
	assert.Equal(t, elf.ELFCLASS64, f.Class)
	assert.Equal(t, binary.ByteOrder(binary.LittleEndian), f.ByteOrder)

	// Null section, payload sections in order, then .shstrtab.
	require.Len(t, f.Sections, len(sections)+2)
	for i, want := range sections {
		sec := f.Sections[i+1]
		assert.Equal(t, want.Name, sec.Name)
		assert.Equal(t, elf.SHT_PROGBITS, sec.Type)

		data, err := sec.Data()
		require.NoError(t, err)
		assert.Equal(t, want.Data, data)
	}
	assert.Equal(t, elf.SHT_STRTAB, f.Sections[len(sections)+1].Type)
}

func TestWriteBigEndian(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, binary.BigEndian, elf.EM_PPC64, []Section{
		{Name: ".debug_str.dwo", Data: []byte("s\x00")},
	}))

	f, err := elf.NewFile(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, elf.ELFDATA2MSB, f.Data)
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), f.ByteOrder)
}

func TestWriteEmptySectionList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, binary.LittleEndian, elf.EM_NONE, nil))

	f, err := elf.NewFile(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	require.Len(t, f.Sections, 2)
	assert.Equal(t, ".shstrtab", f.Sections[1].Name)
}

func TestShstrtabDedup(t *testing.T) {
	t.Parallel()

	names := newShstrtab()
	a := names.add(".debug_str.dwo")
	b := names.add(".debug_info.dwo")
	assert.Equal(t, a, names.add(".debug_str.dwo"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, uint32(0), names.add(""))
}
