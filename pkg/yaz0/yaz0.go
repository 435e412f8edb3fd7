// Package yaz0 decompresses Yaz0 streams, the LZ77 wrapper used for
// compressed BFRES files (.sbfres).
package yaz0

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Magic is the stream signature.
const Magic = "Yaz0"

// HeaderSize is the magic, the decompressed size and 8 reserved bytes.
const HeaderSize = 16

var (
	ErrInvalidMagic = errors.New("invalid Yaz0 magic")
	ErrTruncated    = errors.New("truncated Yaz0 stream")
	ErrBadReference = errors.New("back-reference before start of output")
)

// IsCompressed reports whether data starts with a Yaz0 header.
func IsCompressed(data []byte) bool {
	return len(data) >= HeaderSize && bytes.Equal(data[:4], []byte(Magic))
}

// DecompressedSize returns the size stored in the header.
func DecompressedSize(data []byte) (int, error) {
	if len(data) < HeaderSize {
		return 0, errors.Wrapf(ErrTruncated, "header needs %d bytes, got %d", HeaderSize, len(data))
	}
	if !bytes.Equal(data[:4], []byte(Magic)) {
		return 0, errors.Wrapf(ErrInvalidMagic, "got %q", data[:4])
	}
	return int(binary.BigEndian.Uint32(data[4:8])), nil
}

// Decompress expands a Yaz0 stream.
//
// Each group starts with a header byte whose bits, most significant first,
// select a literal byte (1) or a back-reference (0). A back-reference is two
// bytes NR RR: distance RRR+1 and length N+2, or, when N is 0, a third byte
// plus 0x12.
func Decompress(data []byte) ([]byte, error) {
	size, err := DecompressedSize(data)
	if err != nil {
		return nil, err
	}

	// The header size is untrusted; the capacity is bounded by the input.
	out := make([]byte, 0, min(size, len(data)*8))
	src := HeaderSize
	for len(out) < size {
		if src >= len(data) {
			return nil, errors.Wrapf(ErrTruncated, "group header at 0x%x", src)
		}
		group := data[src]
		src++

		for bit := 7; bit >= 0 && len(out) < size; bit-- {
			if group&(1<<uint(bit)) != 0 {
				if src >= len(data) {
					return nil, errors.Wrapf(ErrTruncated, "literal at 0x%x", src)
				}
				out = append(out, data[src])
				src++
				continue
			}

			if src+2 > len(data) {
				return nil, errors.Wrapf(ErrTruncated, "back-reference at 0x%x", src)
			}
			b1, b2 := data[src], data[src+1]
			src += 2

			dist := (int(b1&0x0F)<<8 | int(b2)) + 1
			length := int(b1 >> 4)
			if length == 0 {
				if src >= len(data) {
					return nil, errors.Wrapf(ErrTruncated, "length byte at 0x%x", src)
				}
				length = int(data[src]) + 0x12
				src++
			} else {
				length += 2
			}

			from := len(out) - dist
			if from < 0 {
				return nil, errors.Wrapf(ErrBadReference, "distance %d at output 0x%x", dist, len(out))
			}
			// Byte by byte: source and destination may overlap.
			for i := 0; i < length && len(out) < size; i++ {
				out = append(out, out[from+i])
			}
		}
	}
	return out, nil
}

// Unwrap returns data decompressed when it carries a Yaz0 header and as is
// otherwise.
func Unwrap(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	return Decompress(data)
}
