// Package bfres decodes BFRES model containers (FRES/FMDL/FVTX/FMAT/FSHP/FSKL)
// from an already decompressed byte buffer into a typed in-memory model.
package bfres

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// NullOffset is the resolved address of a relative offset field that stores 0.
const NullOffset = 0

// Uint128 is an unsigned 128-bit value split into two 64-bit halves.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a signed 128-bit value; the sign lives in Hi.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Cursor reads typed values from a shared immutable buffer.
//
// A Cursor is cheap: nested records are decoded with At, which returns an
// independent cursor over the same bytes, so an inner decode never moves an
// outer one. Errors are sticky. After the first failed read every further
// read returns a zero value and Err reports the first failure.
type Cursor struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
	err   error
}

// NewCursor returns a big-endian cursor positioned at pos.
func NewCursor(buf []byte, pos int) *Cursor {
	return &Cursor{buf: buf, pos: pos, order: binary.BigEndian}
}

// At returns a new cursor over the same buffer positioned at pos.
func (c *Cursor) At(pos int) *Cursor {
	return &Cursor{buf: c.buf, pos: pos, order: c.order}
}

// Pos returns the current absolute position.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Err returns the first error encountered by the cursor.
func (c *Cursor) Err() error { return c.err }

// Seek moves the cursor to an absolute position. Bounds are checked on the
// next read, not here.
func (c *Cursor) Seek(pos int) { c.pos = pos }

// Skip advances the cursor by n bytes without reading.
func (c *Cursor) Skip(n int) { c.pos += n }

func (c *Cursor) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// take returns the next n bytes and advances, or nil once the cursor failed.
func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if c.pos < 0 || n < 0 || c.pos+n > len(c.buf) {
		c.fail(errors.Wrapf(ErrTruncatedBuffer, "reading %d bytes at 0x%x (buffer is 0x%x bytes)", n, c.pos, len(c.buf)))
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// U8 reads an unsigned byte.
func (c *Cursor) U8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads an unsigned 16-bit integer.
func (c *Cursor) U16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return c.order.Uint16(b)
}

// U32 reads an unsigned 32-bit integer.
func (c *Cursor) U32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return c.order.Uint32(b)
}

// U64 reads an unsigned 64-bit integer.
func (c *Cursor) U64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return c.order.Uint64(b)
}

// U128 reads 16 bytes as an unsigned 128-bit integer.
func (c *Cursor) U128() Uint128 {
	b := c.take(16)
	if b == nil {
		return Uint128{}
	}
	if c.order == binary.LittleEndian {
		return Uint128{Hi: c.order.Uint64(b[8:]), Lo: c.order.Uint64(b[:8])}
	}
	return Uint128{Hi: c.order.Uint64(b[:8]), Lo: c.order.Uint64(b[8:])}
}

// I8 reads a signed byte.
func (c *Cursor) I8() int8 { return int8(c.U8()) }

// I16 reads a signed 16-bit integer.
func (c *Cursor) I16() int16 { return int16(c.U16()) }

// I32 reads a signed 32-bit integer.
func (c *Cursor) I32() int32 { return int32(c.U32()) }

// I64 reads a signed 64-bit integer.
func (c *Cursor) I64() int64 { return int64(c.U64()) }

// I128 reads 16 bytes as a signed 128-bit integer.
func (c *Cursor) I128() Int128 {
	u := c.U128()
	return Int128{Hi: int64(u.Hi), Lo: u.Lo}
}

// F16 reads an IEEE 754 half precision float.
func (c *Cursor) F16() float32 {
	return float16.Frombits(c.U16()).Float32()
}

// F32 reads an IEEE single.
func (c *Cursor) F32() float32 {
	return math.Float32frombits(c.U32())
}

// F64 reads an IEEE double.
func (c *Cursor) F64() float64 {
	return math.Float64frombits(c.U64())
}

// Chars reads a fixed-length character sequence.
func (c *Cursor) Chars(n int) string {
	return string(c.take(n))
}

// Offset reads a relative offset field and resolves it to an absolute address.
func (c *Cursor) Offset() int {
	return c.OffsetWith(0)
}

// OffsetWith reads a signed 32-bit relative offset at the current position p.
// A stored 0 resolves to NullOffset. Any other value v resolves to
// v + (p + 4) + extra, i.e. relative to the end of the field.
func (c *Cursor) OffsetWith(extra int) int {
	v := c.I32()
	if c.err != nil || v == 0 {
		return NullOffset
	}
	target := int(v) + c.pos + extra
	if target < 0 || target > len(c.buf) {
		c.fail(errors.Wrapf(ErrMalformedOffset, "field at 0x%x resolves to 0x%x (buffer is 0x%x bytes)", c.pos-4, target, len(c.buf)))
		return NullOffset
	}
	return target
}

// StringAt reads a NUL-terminated string at an absolute address.
// The null sentinel yields an empty string.
func (c *Cursor) StringAt(off int) string {
	if c.err != nil || off == NullOffset {
		return ""
	}
	if off < 0 || off >= len(c.buf) {
		c.fail(errors.Wrapf(ErrMalformedOffset, "string at 0x%x", off))
		return ""
	}
	for end := off; end < len(c.buf); end++ {
		if c.buf[end] == 0 {
			return string(c.buf[off:end])
		}
	}
	c.fail(errors.Wrapf(ErrTruncatedBuffer, "unterminated string at 0x%x", off))
	return ""
}

// StringRef reads a relative offset field and returns the string it points at.
func (c *Cursor) StringRef() string {
	return c.StringAt(c.Offset())
}
