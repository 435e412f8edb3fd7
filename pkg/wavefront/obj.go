// Package wavefront writes the objects of a flattened container as a
// Wavefront OBJ text file.
package wavefront

import (
	"bufio"
	"io"
	"strconv"

	"github.com/Faultbox/bfres-decoder/pkg/view"
)

// Attribute names read by the writer.
const (
	PositionAttribute = "_p0"
	TexCoordAttribute = "_u0"
)

// Writer emits objects one after another. Face indices are 1-based and
// offset by the vertex count of every object written before. Output is
// flushed after each object.
type Writer struct {
	w     *bufio.Writer
	total int
}

// NewWriter returns a Writer buffering onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits every object of every model of f.
func Write(w io.Writer, f *view.File) error {
	ow := NewWriter(w)
	for _, m := range f.Models {
		if err := ow.WriteModel(m); err != nil {
			return err
		}
	}
	return ow.Flush()
}

// WriteModel emits every object of m.
func (ow *Writer) WriteModel(m *view.Model) error {
	for _, obj := range m.Objects {
		if err := ow.WriteObject(obj); err != nil {
			return err
		}
	}
	return nil
}

// WriteObject emits one object: positions as v, texture coordinates as vt
// remapped from [-1, 1] to [0, 1], then the faces of its first LOD.
func (ow *Writer) WriteObject(obj *view.Object) error {
	ow.line("o", obj.Infos.Name)
	ow.line("s", "1")

	pos, hasPos := obj.VertexBuffer[PositionAttribute]
	uv, hasUV := obj.VertexBuffer[TexCoordAttribute]
	if hasPos {
		for _, v := range pos.Vertices {
			ow.vertex("v", v, false)
		}
	}
	if hasUV {
		for _, v := range uv.Vertices {
			ow.vertex("vt", v, true)
		}
	}

	if hasPos && len(obj.LODModels) > 0 {
		for _, group := range obj.LODModels[0].Primitives {
			for _, prim := range group {
				ow.face(prim, hasUV)
			}
		}
	}
	ow.total += int(obj.Infos.VertexCount)
	return ow.w.Flush()
}

// Flush writes any buffered output.
func (ow *Writer) Flush() error {
	return ow.w.Flush()
}

func (ow *Writer) line(prefix, value string) {
	ow.w.WriteString(prefix)
	ow.w.WriteByte(' ')
	ow.w.WriteString(value)
	ow.w.WriteByte('\n')
}

func (ow *Writer) vertex(prefix string, v []float64, remap bool) {
	ow.w.WriteString(prefix)
	for _, x := range v {
		if remap {
			x = x*0.5 + 0.5
		}
		ow.w.WriteByte(' ')
		ow.w.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	}
	ow.w.WriteByte('\n')
}

func (ow *Writer) face(prim []uint32, withUV bool) {
	ow.w.WriteString("f")
	for _, idx := range prim {
		n := strconv.Itoa(int(idx) + ow.total + 1)
		ow.w.WriteByte(' ')
		ow.w.WriteString(n)
		ow.w.WriteByte('/')
		if withUV {
			ow.w.WriteString(n)
		}
	}
	ow.w.WriteByte('\n')
}
