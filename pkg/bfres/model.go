package bfres

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ModelHeader is the FMDL section header.
type ModelHeader struct {
	Magic              string `json:"magic"`
	Name               string `json:"name"`
	FilePathOffset     int32  `json:"file_path_offset"`
	SkeletonOffset     int    `json:"fskl_offset"`
	VertexBufferOffset int    `json:"fvtx_array_offset"`
	ShapeDict          Dict   `json:"fshp_dict"`
	MaterialDict       Dict   `json:"fmat_dict"`
	UserDataDict       Dict   `json:"user_data"`
	VertexBufferCount  uint16 `json:"fvtx_count"`
	ShapeCount         uint16 `json:"fshp_count"`
	MaterialCount      uint16 `json:"fmat_count"`
	UserDataCount      uint16 `json:"user_data_entry_count"`
	VertexCount        uint32 `json:"vertex_count"`
	UserPointer        uint32 `json:"user_pointer"`
}

// Model is a decoded FMDL section with its vertex buffers, materials,
// skeleton and shapes.
type Model struct {
	Header        ModelHeader     `json:"header"`
	VertexBuffers []*VertexBuffer `json:"fvtx"`
	Materials     []*Material     `json:"fmat"`
	Skeleton      *Skeleton       `json:"fskl"`
	Shapes        []*Shape        `json:"fshp"`
}

// Name returns the model name.
func (m *Model) Name() string { return m.Header.Name }

// Shape returns the shape with the given name, or nil.
func (m *Model) Shape(name string) *Shape {
	for i, e := range m.Header.ShapeDict {
		if e.Name == name && i < len(m.Shapes) {
			return m.Shapes[i]
		}
	}
	return nil
}

// Material returns the material with the given name, or nil.
func (m *Model) Material(name string) *Material {
	for i, e := range m.Header.MaterialDict {
		if e.Name == name && i < len(m.Materials) {
			return m.Materials[i]
		}
	}
	return nil
}

// TotalVertexCount sums the vertex counts of every vertex buffer.
func (m *Model) TotalVertexCount() int {
	n := 0
	for _, vb := range m.VertexBuffers {
		n += int(vb.Header.VertexCount)
	}
	return n
}

func (d *decoder) decodeModel(off int) (*Model, error) {
	c := NewCursor(d.buf, off)
	h := ModelHeader{
		Magic:              c.Chars(4),
		Name:               c.StringRef(),
		FilePathOffset:     c.I32(),
		SkeletonOffset:     c.Offset(),
		VertexBufferOffset: c.Offset(),
	}
	shapeDict, materialDict, userDataDict := c.Offset(), c.Offset(), c.Offset()
	h.VertexBufferCount = c.U16()
	h.ShapeCount = c.U16()
	h.MaterialCount = c.U16()
	h.UserDataCount = c.U16()
	h.VertexCount = c.U32()
	h.UserPointer = c.U32()
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "model header")
	}

	var err error
	if h.ShapeDict, err = ReadDict(d.buf, shapeDict); err != nil {
		return nil, errors.Wrap(err, "shape dictionary")
	}
	if h.MaterialDict, err = ReadDict(d.buf, materialDict); err != nil {
		return nil, errors.Wrap(err, "material dictionary")
	}
	if h.UserDataDict, err = ReadDict(d.buf, userDataDict); err != nil {
		return nil, errors.Wrap(err, "user data dictionary")
	}
	for _, chk := range []struct {
		what  string
		count uint16
		dict  Dict
	}{
		{"shape", h.ShapeCount, h.ShapeDict},
		{"material", h.MaterialCount, h.MaterialDict},
		{"user data", h.UserDataCount, h.UserDataDict},
	} {
		if int(chk.count) != len(chk.dict) {
			return nil, errors.Wrapf(ErrInvalidCount, "%s count %d, dictionary has %d entries", chk.what, chk.count, len(chk.dict))
		}
	}

	log := d.log.With(zap.String("model", h.Name))
	m := &Model{Header: h}

	if h.VertexBufferCount > 0 && h.VertexBufferOffset == NullOffset {
		return nil, errors.Wrapf(ErrMalformedOffset, "%d vertex buffers behind a null offset", h.VertexBufferCount)
	}
	for i := 0; i < int(h.VertexBufferCount); i++ {
		vb, err := decodeVertexBuffer(d.buf, h.VertexBufferOffset+i*vertexBufferHeaderSize)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex buffer %d", i)
		}
		log.Debug("decoded vertex buffer",
			zap.Int("index", i),
			zap.Uint32("vertices", vb.Header.VertexCount),
			zap.Int("attributes", len(vb.Attributes)))
		m.VertexBuffers = append(m.VertexBuffers, vb)
	}

	for _, e := range h.MaterialDict {
		mat, err := decodeMaterial(d.buf, e.Offset, d.version)
		if err != nil {
			return nil, errors.Wrapf(err, "material %q", e.Name)
		}
		log.Debug("decoded material", zap.String("material", e.Name), zap.Int("params", len(mat.Params)))
		m.Materials = append(m.Materials, mat)
	}

	if h.SkeletonOffset != NullOffset {
		if m.Skeleton, err = decodeSkeleton(d.buf, h.SkeletonOffset); err != nil {
			return nil, errors.Wrap(err, "skeleton")
		}
		log.Debug("decoded skeleton", zap.Int("bones", len(m.Skeleton.Bones)))
	}

	for _, e := range h.ShapeDict {
		s, err := decodeShape(d.buf, e.Offset)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %q", e.Name)
		}
		log.Debug("decoded shape", zap.String("shape", e.Name), zap.Int("lods", len(s.LODs)))
		m.Shapes = append(m.Shapes, s)
	}
	return m, nil
}
