package dwpack

import (
	"bytes"
	"context"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwbits/dwpack/internal/elfout"
	"github.com/dwbits/dwpack/internal/strtable"
)

// byteOrder is what the test helpers need: reading and appending
// fixed-width integers. binary.LittleEndian and binary.BigEndian satisfy it.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// testObject describes a synthetic split DWARF object.
type testObject struct {
	strings []string // local string table, in order
	entries []int    // str_offsets entries, as indices into strings
	info    string   // .debug_info.dwo payload
}

// strSection renders the local string table and the byte offset of each
// string in it.
func (o testObject) strSection() ([]byte, []uint32) {
	var data []byte
	offsets := make([]uint32, len(o.strings))
	for i, s := range o.strings {
		offsets[i] = uint32(len(data))
		data = append(data, s...)
		data = append(data, 0)
	}
	return data, offsets
}

// writeTestObject emits the object as a DWARF32 v5 .dwo file.
func writeTestObject(tb testing.TB, dir, name string, order byteOrder, o testObject) string {
	tb.Helper()

	strData, offsets := o.strSection()

	var offData []byte
	offData = order.AppendUint32(offData, uint32(len(o.entries)*4))
	offData = order.AppendUint16(offData, 5)
	offData = order.AppendUint16(offData, 0)
	for _, idx := range o.entries {
		offData = order.AppendUint32(offData, offsets[idx])
	}

	sections := []elfout.Section{
		{Name: ".debug_str.dwo", Data: strData},
		{Name: ".debug_str_offsets.dwo", Data: offData},
	}
	if o.info != "" {
		sections = append(sections, elfout.Section{Name: ".debug_info.dwo", Data: []byte(o.info)})
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(tb, err)
	require.NoError(tb, elfout.Write(f, order, elf.EM_X86_64, sections))
	require.NoError(tb, f.Close())
	return path
}

// readSection fetches a named section from a packaged ELF image.
func readSection(tb testing.TB, image []byte, name string) []byte {
	tb.Helper()
	f, err := elf.NewFile(bytes.NewReader(image))
	require.NoError(tb, err)
	defer f.Close()

	sec := f.Section(name)
	require.NotNil(tb, sec, "missing section %s", name)
	data, err := sec.Data()
	require.NoError(tb, err)
	return data
}

func TestPackage(t *testing.T) {
	t.Parallel()

	order := binary.LittleEndian
	dir := t.TempDir()

	objects := []testObject{
		{strings: []string{"main", "util"}, entries: []int{0, 1}, info: "INFO-A"},
		{strings: []string{"util", "extra"}, entries: []int{1, 0}, info: "INFO-B"},
	}
	inputs := []string{
		writeTestObject(t, dir, "a.dwo", order, objects[0]),
		writeTestObject(t, dir, "b.dwo", order, objects[1]),
	}

	var out bytes.Buffer
	require.NoError(t, Package(context.Background(), inputs, &out))

	// Shared strings are stored once, in first-use order.
	merged := readSection(t, out.Bytes(), ".debug_str.dwo")
	assert.Equal(t, []byte("main\x00util\x00extra\x00"), merged)

	// One rebuilt 16-byte section per object, concatenated in input order.
	offData := readSection(t, out.Bytes(), ".debug_str_offsets.dwo")
	require.Len(t, offData, 32)

	for oi, obj := range objects {
		sec := offData[oi*16 : oi*16+16]
		assert.Equal(t, uint32(8), order.Uint32(sec[0:4]), "object %d unit length", oi)
		assert.Equal(t, uint16(5), order.Uint16(sec[4:6]), "object %d version", oi)

		// Positional fidelity: entry i must name the same string as the
		// input's entry i, now via the merged table.
		for i, idx := range obj.entries {
			off := order.Uint32(sec[8+i*4 : 12+i*4])
			end := bytes.IndexByte(merged[off:], 0)
			require.GreaterOrEqual(t, end, 0)
			assert.Equal(t, obj.strings[idx], string(merged[off:off+uint32(end)]), "object %d entry %d", oi, i)
		}
	}

	// Pass-through sections concatenate in input order.
	assert.Equal(t, []byte("INFO-AINFO-B"), readSection(t, out.Bytes(), ".debug_info.dwo"))
}

func TestPackageDeterministicOrder(t *testing.T) {
	t.Parallel()

	order := binary.LittleEndian
	dir := t.TempDir()

	// Many inputs loaded in parallel must still merge in argument order.
	names := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	var inputs []string
	for _, name := range names {
		inputs = append(inputs, writeTestObject(t, dir, name+".dwo", order, testObject{
			strings: []string{name},
			entries: []int{0},
		}))
	}

	var first, second bytes.Buffer
	require.NoError(t, Package(context.Background(), inputs, &first, WithParallelism(1)))
	require.NoError(t, Package(context.Background(), inputs, &second, WithParallelism(len(inputs))))
	assert.Equal(t, first.Bytes(), second.Bytes())

	var want []byte
	for _, name := range names {
		want = append(want, name...)
		want = append(want, 0)
	}
	assert.Equal(t, want, readSection(t, first.Bytes(), ".debug_str.dwo"))
}

func TestPackageErrors(t *testing.T) {
	t.Parallel()

	order := binary.LittleEndian

	t.Run("no inputs", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		assert.ErrorIs(t, Package(context.Background(), nil, &out), ErrNoInputs)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		err := Package(context.Background(), []string{filepath.Join(t.TempDir(), "nope.dwo")}, &out)
		assert.Error(t, err)
	})

	t.Run("mixed byte orders", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		inputs := []string{
			writeTestObject(t, dir, "le.dwo", binary.LittleEndian, testObject{strings: []string{"s"}, entries: []int{0}}),
			writeTestObject(t, dir, "be.dwo", binary.BigEndian, testObject{strings: []string{"s"}, entries: []int{0}}),
		}
		var out bytes.Buffer
		assert.ErrorIs(t, Package(context.Background(), inputs, &out), ErrEndianMismatch)
	})

	t.Run("bad string offset names the object", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		var offData []byte
		offData = order.AppendUint32(offData, 4)
		offData = order.AppendUint16(offData, 5)
		offData = order.AppendUint16(offData, 0)
		offData = order.AppendUint32(offData, 99) // past the string table

		path := filepath.Join(dir, "bad.dwo")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, elfout.Write(f, order, elf.EM_X86_64, []elfout.Section{
			{Name: ".debug_str.dwo", Data: []byte("s\x00")},
			{Name: ".debug_str_offsets.dwo", Data: offData},
		}))
		require.NoError(t, f.Close())

		var out bytes.Buffer
		err = Package(context.Background(), []string{path}, &out)

		var decErr *strtable.StringDecodeError
		require.ErrorAs(t, err, &decErr)
		assert.Contains(t, err.Error(), "bad.dwo")
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := writeTestObject(t, dir, "c.dwo", order, testObject{strings: []string{"s"}, entries: []int{0}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		assert.ErrorIs(t, Package(ctx, []string{input}, &out), context.Canceled)
	})
}
