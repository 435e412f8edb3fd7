package bfres

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// PrimitiveType is a GX2 primitive topology code.
type PrimitiveType uint32

const (
	PrimitivePoints                  PrimitiveType = 0x01
	PrimitiveLines                   PrimitiveType = 0x02
	PrimitiveLineStrip               PrimitiveType = 0x03
	PrimitiveTriangles               PrimitiveType = 0x04
	PrimitiveTriangleFan             PrimitiveType = 0x05
	PrimitiveTriangleStrip           PrimitiveType = 0x06
	PrimitiveLinesAdjacency          PrimitiveType = 0x0A
	PrimitiveLineStripAdjacency      PrimitiveType = 0x0B
	PrimitiveTrianglesAdjacency      PrimitiveType = 0x0C
	PrimitiveTriangleStripAdjacency  PrimitiveType = 0x0D
	PrimitiveRects                   PrimitiveType = 0x11
	PrimitiveLineLoop                PrimitiveType = 0x12
	PrimitiveQuads                   PrimitiveType = 0x13
	PrimitiveQuadStrip               PrimitiveType = 0x14
	PrimitiveTessellateLines         PrimitiveType = 0x82
	PrimitiveTessellateLineStrip     PrimitiveType = 0x83
	PrimitiveTessellateTriangles     PrimitiveType = 0x84
	PrimitiveTessellateTriangleStrip PrimitiveType = 0x86
	PrimitiveTessellateQuads         PrimitiveType = 0x93
	PrimitiveTessellateQuadStrip     PrimitiveType = 0x94
)

type topology struct {
	name string
	// vertices is the tuple size used to group a flat index list.
	vertices int
	// stride is how many indices a strip advances per primitive. It is
	// recorded but not used: grouping is always fixed-size.
	stride int
}

var topologies = map[PrimitiveType]topology{
	PrimitivePoints:                  {"GX2_PRIMITIVE_POINTS", 1, 1},
	PrimitiveLines:                   {"GX2_PRIMITIVE_LINES", 2, 2},
	PrimitiveLineStrip:               {"GX2_PRIMITIVE_LINE_STRIP", 2, 1},
	PrimitiveTriangles:               {"GX2_PRIMITIVE_TRIANGLES", 3, 3},
	PrimitiveTriangleFan:             {"GX2_PRIMITIVE_TRIANGLE_FAN", 3, 1},
	PrimitiveTriangleStrip:           {"GX2_PRIMITIVE_TRIANGLE_STRIP", 3, 1},
	PrimitiveLinesAdjacency:          {"GX2_PRIMITIVE_LINES_ADJACENCY", 4, 4},
	PrimitiveLineStripAdjacency:      {"GX2_PRIMITIVE_LINE_STRIP_ADJACENCY", 4, 1},
	PrimitiveTrianglesAdjacency:      {"GX2_PRIMITIVE_TRIANGLES_ADJACENCY", 6, 6},
	PrimitiveTriangleStripAdjacency:  {"GX2_PRIMITIVE_TRIANGLE_STRIP_ADJACENCY", 6, 2},
	PrimitiveRects:                   {"GX2_PRIMITIVE_RECTS", 3, 3},
	PrimitiveLineLoop:                {"GX2_PRIMITIVE_LINE_LOOP", 2, 1},
	PrimitiveQuads:                   {"GX2_PRIMITIVE_QUADS", 4, 4},
	PrimitiveQuadStrip:               {"GX2_PRIMITIVE_QUAD_STRIP", 4, 2},
	PrimitiveTessellateLines:         {"GX2_PRIMITIVE_TESSELLATE_LINES", 2, 2},
	PrimitiveTessellateLineStrip:     {"GX2_PRIMITIVE_TESSELLATE_LINE_STRIP", 2, 1},
	PrimitiveTessellateTriangles:     {"GX2_PRIMITIVE_TESSELLATE_TRIANGLES", 3, 3},
	PrimitiveTessellateTriangleStrip: {"GX2_PRIMITIVE_TESSELLATE_TRIANGLE_STRIP", 2, 1},
	PrimitiveTessellateQuads:         {"GX2_PRIMITIVE_TESSELLATE_QUADS", 4, 4},
	PrimitiveTessellateQuadStrip:     {"GX2_PRIMITIVE_TESSELLATE_QUAD_STRIP", 4, 2},
}

// VerticesPerPrimitive returns the tuple size for the topology, or
// ErrUnknownPrimitiveTopology.
func (p PrimitiveType) VerticesPerPrimitive() (int, error) {
	t, ok := topologies[p]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownPrimitiveTopology, "primitive type 0x%02x", uint32(p))
	}
	return t.vertices, nil
}

// String returns the GX2 topology name.
func (p PrimitiveType) String() string {
	if t, ok := topologies[p]; ok {
		return t.name
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint32(p))
}

// IndexFormat is a GX2 index buffer format code.
type IndexFormat uint32

const (
	IndexU16LE IndexFormat = 0
	IndexU32LE IndexFormat = 1
	IndexU16   IndexFormat = 4
	IndexU32   IndexFormat = 9
)

type indexCodec struct {
	name  string
	width int
	order binary.ByteOrder
}

var indexFormats = map[IndexFormat]indexCodec{
	IndexU16LE: {"GX2_INDEX_FORMAT_U16_LE", 2, binary.LittleEndian},
	IndexU32LE: {"GX2_INDEX_FORMAT_U32_LE", 4, binary.LittleEndian},
	IndexU16:   {"GX2_INDEX_FORMAT_U16", 2, binary.BigEndian},
	IndexU32:   {"GX2_INDEX_FORMAT_U32", 4, binary.BigEndian},
}

// String returns the GX2 index format name.
func (f IndexFormat) String() string {
	if ic, ok := indexFormats[f]; ok {
		return ic.name
	}
	return fmt.Sprintf("Unknown(%d)", uint32(f))
}

// readIndices reads count indices of format f starting at the cursor.
func readIndices(c *Cursor, f IndexFormat, count int) ([]uint32, error) {
	ic, ok := indexFormats[f]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownIndexFormat, "index format %d", uint32(f))
	}
	if count < 0 || count > c.Len() {
		return nil, errors.Wrapf(ErrInvalidCount, "%d indices", count)
	}
	raw := c.take(count * ic.width)
	if err := c.Err(); err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		if ic.width == 2 {
			out[i] = uint32(ic.order.Uint16(raw[i*2:]))
		} else {
			out[i] = ic.order.Uint32(raw[i*4:])
		}
	}
	return out, nil
}

// Chunk splits indices into consecutive tuples of size n, in stored order.
// A trailing remainder shorter than n is kept as the last tuple.
//
// Strip, fan and loop topologies are grouped the same way; vertex sharing
// between neighbouring primitives is not reconstructed.
func Chunk(indices []uint32, n int) [][]uint32 {
	if n <= 0 {
		return nil
	}
	out := make([][]uint32, 0, (len(indices)+n-1)/n)
	for i := 0; i < len(indices); i += n {
		end := i + n
		if end > len(indices) {
			end = len(indices)
		}
		out = append(out, indices[i:end:end])
	}
	return out
}
