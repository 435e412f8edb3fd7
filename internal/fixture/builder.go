// Package fixture assembles synthetic BFRES buffers for tests.
//
// A Builder appends big-endian fields and resolves relative offset fields
// against named labels when Bytes is called. Offsets are stored relative to
// the end of the field, the way the decoder resolves them.
package fixture

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

type patch struct {
	pos   int
	label string
}

// Builder accumulates a buffer with forward references.
type Builder struct {
	buf     []byte
	labels  map[string]int
	patches []patch
	strings []string
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{labels: make(map[string]int)}
}

// Pos returns the current write position.
func (b *Builder) Pos() int { return len(b.buf) }

// Label names the current position.
func (b *Builder) Label(name string) *Builder {
	if _, dup := b.labels[name]; dup {
		panic(fmt.Sprintf("fixture: duplicate label %q", name))
	}
	b.labels[name] = len(b.buf)
	return b
}

// Align pads with zeros up to a multiple of n.
func (b *Builder) Align(n int) *Builder {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
	return b
}

// Pad appends n zero bytes.
func (b *Builder) Pad(n int) *Builder {
	b.buf = append(b.buf, make([]byte, n)...)
	return b
}

// Raw appends p as is.
func (b *Builder) Raw(p []byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// Chars appends s without a terminator.
func (b *Builder) Chars(s string) *Builder {
	b.buf = append(b.buf, s...)
	return b
}

// U8 appends v.
func (b *Builder) U8(v uint8) *Builder {
	b.buf = append(b.buf, v)
	return b
}

// U16 appends v big-endian.
func (b *Builder) U16(v uint16) *Builder {
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
	return b
}

// U32 appends v big-endian.
func (b *Builder) U32(v uint32) *Builder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
	return b
}

// I16 appends v big-endian.
func (b *Builder) I16(v int16) *Builder { return b.U16(uint16(v)) }

// I32 appends v big-endian.
func (b *Builder) I32(v int32) *Builder { return b.U32(uint32(v)) }

// F16 appends v as a big-endian half float.
func (b *Builder) F16(v float32) *Builder {
	return b.U16(float16.Fromfloat32(v).Bits())
}

// F32 appends each value as a big-endian float.
func (b *Builder) F32(vs ...float32) *Builder {
	for _, v := range vs {
		b.U32(math.Float32bits(v))
	}
	return b
}

// U16LE appends little-endian halfwords, for GX2 little-endian index buffers.
func (b *Builder) U16LE(vs ...uint16) *Builder {
	for _, v := range vs {
		b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
	}
	return b
}

// Ref appends a relative offset field pointing at label.
func (b *Builder) Ref(label string) *Builder {
	b.patches = append(b.patches, patch{pos: len(b.buf), label: label})
	return b.U32(0)
}

// Null appends a relative offset field storing 0.
func (b *Builder) Null() *Builder { return b.U32(0) }

// RefOrNull appends Ref(label), or Null when label is empty.
func (b *Builder) RefOrNull(label string) *Builder {
	if label == "" {
		return b.Null()
	}
	return b.Ref(label)
}

// Str appends a relative offset field pointing at s in the string table
// written by Strings.
func (b *Builder) Str(s string) *Builder {
	key := "str:" + s
	if _, ok := b.labels[key]; !ok && !b.hasPending(s) {
		b.strings = append(b.strings, s)
	}
	return b.Ref(key)
}

func (b *Builder) hasPending(s string) bool {
	for _, p := range b.strings {
		if p == s {
			return true
		}
	}
	return false
}

// Strings writes every string referenced so far as NUL-terminated text.
func (b *Builder) Strings() *Builder {
	for _, s := range b.strings {
		b.Label("str:" + s)
		b.Chars(s).U8(0)
	}
	b.strings = nil
	return b
}

// Text writes s as a NUL-terminated string under label.
func (b *Builder) Text(label, s string) *Builder {
	b.Label(label)
	return b.Chars(s).U8(0)
}

// Entry is one dictionary record: a name and the label of its data.
type Entry struct {
	Name string
	Data string
}

// Dict writes a name dictionary at the current position under label.
func (b *Builder) Dict(label string, entries ...Entry) *Builder {
	b.Label(label)
	b.U32(uint32(8 + 16*(len(entries)+1)))
	b.I32(int32(len(entries)))
	// root node: search value, left, right, name, data, then the first
	// node's search value and children
	b.Pad(24)
	for _, e := range entries {
		b.Str(e.Name)
		b.Ref(e.Data)
		// next node's search value and children
		b.Pad(8)
	}
	return b
}

// Bytes resolves every reference and returns the buffer.
// It panics on a reference to an unknown label.
func (b *Builder) Bytes() []byte {
	if len(b.strings) > 0 {
		b.Strings()
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	for _, p := range b.patches {
		target, ok := b.labels[p.label]
		if !ok {
			panic(fmt.Sprintf("fixture: undefined label %q", p.label))
		}
		if target == p.pos+4 {
			panic(fmt.Sprintf("fixture: reference to %q at 0x%x would encode as null", p.label, p.pos))
		}
		binary.BigEndian.PutUint32(out[p.pos:], uint32(int32(target-(p.pos+4))))
	}
	return out
}
