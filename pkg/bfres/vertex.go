package bfres

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	vertexBufferHeaderSize = 0x20
	bufferInfoSize         = 0x18
)

// VertexFormat is a GX2 attribute format code.
type VertexFormat uint32

const (
	FormatUnorm8          VertexFormat = 0x0000
	FormatUnorm8x2        VertexFormat = 0x0004
	FormatUnorm16x2       VertexFormat = 0x0007
	FormatUnorm8x4        VertexFormat = 0x000A
	FormatUint8           VertexFormat = 0x0100
	FormatUint16          VertexFormat = 0x0102
	FormatUint8x2         VertexFormat = 0x0104
	FormatUint16x2        VertexFormat = 0x0107
	FormatUint8x4         VertexFormat = 0x010A
	FormatUint16x4        VertexFormat = 0x010E
	FormatSnorm8          VertexFormat = 0x0200
	FormatSnorm8x2        VertexFormat = 0x0204
	FormatSnorm16x2       VertexFormat = 0x0207
	FormatSnorm8x4        VertexFormat = 0x020A
	FormatSnorm10_10_10_2 VertexFormat = 0x020B
	FormatSint8           VertexFormat = 0x0300
	FormatSint8x2         VertexFormat = 0x0304
	FormatSint8x4         VertexFormat = 0x030A
	FormatFloat32         VertexFormat = 0x0806
	FormatFloat16x2       VertexFormat = 0x0808
	FormatFloat32x2       VertexFormat = 0x080D
	FormatFloat16x4       VertexFormat = 0x080F
	FormatFloat32x3       VertexFormat = 0x0811
	FormatFloat32x4       VertexFormat = 0x0813
)

// Vertex holds up to four decoded components. Only the first
// Format.Components() lanes are meaningful.
type Vertex [4]float64

type vertexCodec struct {
	name       string
	components int
	integer    bool
	decode     func(c *Cursor, v *Vertex)
}

func unorm8(c *Cursor) float64   { return float64(c.U8()) / 255 }
func unorm16(c *Cursor) float64  { return float64(c.U16()) / 65535 }
func snorm8(c *Cursor) float64   { return float64(c.I8()) / 127 }
func snorm16(c *Cursor) float64  { return float64(c.I16()) / 32767 }
func uint8c(c *Cursor) float64   { return float64(c.U8()) }
func uint16c(c *Cursor) float64  { return float64(c.U16()) }
func sint8c(c *Cursor) float64   { return float64(c.I8()) }
func float16c(c *Cursor) float64 { return float64(c.F16()) }
func float32c(c *Cursor) float64 { return float64(c.F32()) }

// lanes builds a decoder that applies read to n consecutive components.
func lanes(n int, read func(*Cursor) float64) func(*Cursor, *Vertex) {
	return func(c *Cursor, v *Vertex) {
		for i := 0; i < n; i++ {
			v[i] = read(c)
		}
	}
}

// toSigned reinterprets an unsigned field of the given range as signed.
func toSigned(n, rng int) int {
	if n >= rng/2 {
		return n - rng
	}
	return n
}

// decode1010102 splits a word into 10, 10, 10 and 2 bit fields starting at
// the most significant bit.
func decode1010102(c *Cursor, v *Vertex) {
	w := c.U32()
	widths := [4]uint{10, 10, 10, 2}
	shift := uint(32)
	for i, width := range widths {
		shift -= width
		field := int(w>>shift) & (1<<width - 1)
		v[i] = float64(toSigned(field, 1024)) / 1000
	}
}

var vertexFormats = map[VertexFormat]vertexCodec{
	FormatUnorm8:          {"unorm_8", 1, false, lanes(1, unorm8)},
	FormatUnorm8x2:        {"unorm_8_8", 2, false, lanes(2, unorm8)},
	FormatUnorm16x2:       {"unorm_16_16", 2, false, lanes(2, unorm16)},
	FormatUnorm8x4:        {"unorm_8_8_8_8", 4, false, lanes(4, unorm8)},
	FormatUint8:           {"uint_8", 1, true, lanes(1, uint8c)},
	FormatUint16:          {"uint_16", 1, true, lanes(1, uint16c)},
	FormatUint8x2:         {"uint_8_8", 2, true, lanes(2, uint8c)},
	FormatUint16x2:        {"uint_16_16", 2, true, lanes(2, uint16c)},
	FormatUint8x4:         {"uint_8_8_8_8", 4, true, lanes(4, uint8c)},
	FormatUint16x4:        {"uint_16_16_16_16", 4, true, lanes(4, uint16c)},
	FormatSnorm8:          {"snorm_8", 1, false, lanes(1, snorm8)},
	FormatSnorm8x2:        {"snorm_8_8", 2, false, lanes(2, snorm8)},
	FormatSnorm16x2:       {"snorm_16_16", 2, false, lanes(2, snorm16)},
	FormatSnorm8x4:        {"snorm_8_8_8_8", 4, false, lanes(4, snorm8)},
	FormatSnorm10_10_10_2: {"snorm_10_10_10_2", 4, false, decode1010102},
	FormatSint8:           {"sint_8", 1, true, lanes(1, sint8c)},
	FormatSint8x2:         {"sint_8_8", 2, true, lanes(2, sint8c)},
	FormatSint8x4:         {"sint_8_8_8_8", 4, true, lanes(4, sint8c)},
	FormatFloat32:         {"float_32", 1, false, lanes(1, float32c)},
	FormatFloat16x2:       {"float_16_16", 2, false, lanes(2, float16c)},
	FormatFloat32x2:       {"float_32_32", 2, false, lanes(2, float32c)},
	FormatFloat16x4:       {"float_16_16_16_16", 4, false, lanes(4, float16c)},
	FormatFloat32x3:       {"float_32_32_32", 3, false, lanes(3, float32c)},
	FormatFloat32x4:       {"float_32_32_32_32", 4, false, lanes(4, float32c)},
}

// Supported reports whether the format has a codec.
func (f VertexFormat) Supported() bool {
	_, ok := vertexFormats[f]
	return ok
}

// Components returns the number of values per vertex, 0 for unknown formats.
func (f VertexFormat) Components() int {
	return vertexFormats[f].components
}

// Integer reports whether the format decodes to raw integers.
func (f VertexFormat) Integer() bool {
	return vertexFormats[f].integer
}

// String returns the format name.
func (f VertexFormat) String() string {
	if codec, ok := vertexFormats[f]; ok {
		return codec.name
	}
	return fmt.Sprintf("Unknown(0x%04x)", uint32(f))
}

// BufferInfo describes one GPU buffer shared by several attributes.
type BufferInfo struct {
	DataPointer    uint32 `json:"data_pointer"`
	Size           uint32 `json:"size"`
	Handle         uint32 `json:"handle"`
	Stride         uint16 `json:"stride"`
	BufferingCount uint16 `json:"buffering_count"`
	ContextPointer uint32 `json:"context_pointer"`
	DataOffset     int    `json:"data_offset"`
}

func readBufferInfo(c *Cursor) BufferInfo {
	return BufferInfo{
		DataPointer:    c.U32(),
		Size:           c.U32(),
		Handle:         c.U32(),
		Stride:         c.U16(),
		BufferingCount: c.U16(),
		ContextPointer: c.U32(),
		DataOffset:     c.Offset(),
	}
}

// VertexBufferHeader is the FVTX section header.
type VertexBufferHeader struct {
	Magic           string `json:"magic"`
	AttributeCount  uint8  `json:"attribute_count"`
	BufferCount     uint8  `json:"buffer_count"`
	SectionIndex    uint16 `json:"section_index"`
	VertexCount     uint32 `json:"vertex_count"`
	VertexSkinCount uint8  `json:"vertex_skin_count"`
	AttributeOffset int    `json:"attribute_array_offset"`
	AttributeDict   Dict   `json:"attributes_dict"`
	BufferOffset    int    `json:"buffer_array_offset"`
	UserPointer     uint32 `json:"user_pointer"`
}

// AttributeStream is one decoded vertex attribute.
type AttributeStream struct {
	Name        string       `json:"name"`
	BufferIndex uint8        `json:"buffer_index"`
	Offset      uint16       `json:"buffer_offset"`
	Format      VertexFormat `json:"format"`
	Buffer      BufferInfo   `json:"buffer_header"`
	Vertices    []Vertex     `json:"vertices"`
}

// Values returns vertex i trimmed to the format's component count.
func (a *AttributeStream) Values(i int) []float64 {
	return a.Vertices[i][:a.Format.Components()]
}

// VertexBuffer is a decoded FVTX section.
type VertexBuffer struct {
	Header     VertexBufferHeader `json:"header"`
	Attributes []*AttributeStream `json:"attributes"`
}

// Attribute returns the stream with the given name, or nil.
func (vb *VertexBuffer) Attribute(name string) *AttributeStream {
	for _, a := range vb.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func decodeVertexBuffer(buf []byte, off int) (*VertexBuffer, error) {
	c := NewCursor(buf, off)
	h := VertexBufferHeader{
		Magic:          c.Chars(4),
		AttributeCount: c.U8(),
		BufferCount:    c.U8(),
		SectionIndex:   c.U16(),
		VertexCount:    c.U32(),
	}
	h.VertexSkinCount = c.U8()
	c.Skip(3)
	h.AttributeOffset = c.Offset()
	dictOff := c.Offset()
	h.BufferOffset = c.Offset()
	h.UserPointer = c.U32()
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "vertex buffer header")
	}

	var err error
	if h.AttributeDict, err = ReadDict(buf, dictOff); err != nil {
		return nil, errors.Wrap(err, "vertex attribute dictionary")
	}

	vb := &VertexBuffer{Header: h, Attributes: make([]*AttributeStream, 0, len(h.AttributeDict))}
	for _, e := range h.AttributeDict {
		attr, err := decodeAttribute(c.At(e.Offset), &h)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", e.Name)
		}
		vb.Attributes = append(vb.Attributes, attr)
	}
	return vb, nil
}

func decodeAttribute(c *Cursor, h *VertexBufferHeader) (*AttributeStream, error) {
	a := &AttributeStream{Name: c.StringRef(), BufferIndex: c.U8()}
	c.Skip(1)
	a.Offset = c.U16()
	a.Format = VertexFormat(c.U32())
	if err := c.Err(); err != nil {
		return nil, err
	}

	codec, ok := vertexFormats[a.Format]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "vertex format 0x%04x", uint32(a.Format))
	}

	bc := c.At(h.BufferOffset + int(a.BufferIndex)*bufferInfoSize)
	a.Buffer = readBufferInfo(bc)
	if err := bc.Err(); err != nil {
		return nil, errors.Wrapf(err, "buffer %d", a.BufferIndex)
	}

	if uint64(h.VertexCount) > uint64(c.Len()) {
		return nil, errors.Wrapf(ErrInvalidCount, "%d vertices in a 0x%x byte buffer", h.VertexCount, c.Len())
	}
	a.Vertices = make([]Vertex, h.VertexCount)
	base := int(a.Offset) + a.Buffer.DataOffset
	stride := int(a.Buffer.Stride)
	for i := range a.Vertices {
		bc.Seek(base + i*stride)
		codec.decode(bc, &a.Vertices[i])
	}
	if err := bc.Err(); err != nil {
		return nil, errors.Wrapf(err, "vertices of buffer %d", a.BufferIndex)
	}
	return a, nil
}
