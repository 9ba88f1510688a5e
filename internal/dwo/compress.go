package dwo

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// sectionData reads a section's raw bytes and expands SHF_COMPRESSED
// contents. The compression header width depends on the ELF class.
func sectionData(r io.ReaderAt, sec *elf.Section, class elf.Class, order binary.ByteOrder) ([]byte, error) {
	raw := make([]byte, sec.FileSize)
	if _, err := r.ReadAt(raw, int64(sec.Offset)); err != nil {
		return nil, err
	}

	if sec.Flags&elf.SHF_COMPRESSED == 0 {
		return raw, nil
	}

	var (
		typ     elf.CompressionType
		size    uint64
		payload []byte
	)
	if class == elf.ELFCLASS64 {
		if len(raw) < 24 {
			return nil, fmt.Errorf("%w: truncated Elf64_Chdr", ErrDecompression)
		}
		typ = elf.CompressionType(order.Uint32(raw[0:4]))
		size = order.Uint64(raw[8:16])
		payload = raw[24:]
	} else {
		if len(raw) < 12 {
			return nil, fmt.Errorf("%w: truncated Elf32_Chdr", ErrDecompression)
		}
		typ = elf.CompressionType(order.Uint32(raw[0:4]))
		size = uint64(order.Uint32(raw[4:8]))
		payload = raw[12:]
	}

	out, err := decompress(typ, payload, size)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: got %d bytes, header declares %d", ErrDecompression, len(out), size)
	}
	return out, nil
}

func decompress(typ elf.CompressionType, payload []byte, size uint64) ([]byte, error) {
	switch typ {
	case elf.COMPRESS_ZLIB:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		return out, nil

	case elf.COMPRESS_ZSTD:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unsupported compression type %#x", ErrDecompression, uint32(typ))
	}
}
