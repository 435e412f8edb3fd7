package bfres

import (
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		n       int
		want    [][]uint32
	}{
		{"triangles", []uint32{0, 1, 2, 3, 4, 5}, 3, [][]uint32{{0, 1, 2}, {3, 4, 5}}},
		{"lines", []uint32{0, 1, 1, 2}, 2, [][]uint32{{0, 1}, {1, 2}}},
		{"short tail kept", []uint32{0, 1, 2, 3}, 3, [][]uint32{{0, 1, 2}, {3}}},
		{"empty", []uint32{}, 3, [][]uint32{}},
		{"points", []uint32{7, 8}, 1, [][]uint32{{7}, {8}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td.Cmp(t, Chunk(tt.indices, tt.n), tt.want)
		})
	}

	if Chunk([]uint32{1, 2}, 0) != nil {
		t.Error("expected nil for a zero tuple size")
	}
}

// Strip and fan topologies share vertices between neighbouring primitives.
// Indices are still grouped in disjoint fixed-size tuples.
func TestChunk_StripIsNotExpanded(t *testing.T) {
	n, err := PrimitiveTriangleStrip.VerticesPerPrimitive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Chunk([]uint32{0, 1, 2, 3, 4}, n)
	td.Cmp(t, got, [][]uint32{{0, 1, 2}, {3, 4}})
}

func TestPrimitiveType(t *testing.T) {
	tests := []struct {
		typ  PrimitiveType
		n    int
		name string
	}{
		{PrimitivePoints, 1, "GX2_PRIMITIVE_POINTS"},
		{PrimitiveLines, 2, "GX2_PRIMITIVE_LINES"},
		{PrimitiveTriangles, 3, "GX2_PRIMITIVE_TRIANGLES"},
		{PrimitiveTrianglesAdjacency, 6, "GX2_PRIMITIVE_TRIANGLES_ADJACENCY"},
		{PrimitiveQuads, 4, "GX2_PRIMITIVE_QUADS"},
		{PrimitiveTessellateTriangleStrip, 2, "GX2_PRIMITIVE_TESSELLATE_TRIANGLE_STRIP"},
	}
	for _, tt := range tests {
		n, err := tt.typ.VerticesPerPrimitive()
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if n != tt.n {
			t.Errorf("%s: expected %d vertices, got %d", tt.name, tt.n, n)
		}
		if tt.typ.String() != tt.name {
			t.Errorf("expected %s, got %s", tt.name, tt.typ.String())
		}
	}

	if _, err := PrimitiveType(0x42).VerticesPerPrimitive(); !errors.Is(err, ErrUnknownPrimitiveTopology) {
		t.Errorf("expected ErrUnknownPrimitiveTopology, got %v", err)
	}
}

func TestReadIndices(t *testing.T) {
	tests := []struct {
		name   string
		format IndexFormat
		raw    []byte
		want   []uint32
	}{
		{"u16 big endian", IndexU16, []byte{0x00, 0x01, 0x01, 0x00}, []uint32{1, 256}},
		{"u16 little endian", IndexU16LE, []byte{0x01, 0x00, 0x00, 0x01}, []uint32{1, 256}},
		{"u32 big endian", IndexU32, []byte{0, 0, 0, 2, 0, 1, 0, 0}, []uint32{2, 65536}},
		{"u32 little endian", IndexU32LE, []byte{2, 0, 0, 0, 0, 0, 1, 0}, []uint32{2, 65536}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readIndices(NewCursor(tt.raw, 0), tt.format, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			td.Cmp(t, got, tt.want)
		})
	}
}

func TestReadIndices_Errors(t *testing.T) {
	raw := []byte{0, 1, 0, 2}

	if _, err := readIndices(NewCursor(raw, 0), IndexFormat(2), 1); !errors.Is(err, ErrUnknownIndexFormat) {
		t.Errorf("expected ErrUnknownIndexFormat, got %v", err)
	}
	if _, err := readIndices(NewCursor(raw, 0), IndexU16, 3); !errors.Is(err, ErrTruncatedBuffer) {
		t.Errorf("expected ErrTruncatedBuffer, got %v", err)
	}
	if _, err := readIndices(NewCursor(raw, 0), IndexU16, 100); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}
