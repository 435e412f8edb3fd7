// Package gltfexport converts a decoded model into a glTF 2.0 document.
package gltfexport

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/bfres-decoder/pkg/bfres"
)

// ErrDanglingIndex is returned when a shape refers to a vertex buffer the
// model does not have.
var ErrDanglingIndex = errors.New("shape refers to a missing vertex buffer")

const (
	positionAttribute = "_p0"
	normalAttribute   = "_n0"
	texCoordAttribute = "_u0"
)

var primitiveModes = map[bfres.PrimitiveType]gltf.PrimitiveMode{
	bfres.PrimitivePoints:    gltf.PrimitivePoints,
	bfres.PrimitiveLines:     gltf.PrimitiveLines,
	bfres.PrimitiveTriangles: gltf.PrimitiveTriangles,
}

type exporter struct {
	log *zap.Logger
	doc *gltf.Document
}

// Option configures Build.
type Option func(*exporter)

// WithLogger reports skipped shapes on log.
func WithLogger(log *zap.Logger) Option {
	return func(e *exporter) {
		if log != nil {
			e.log = log
		}
	}
}

// Build exports the first LOD of every shape as a mesh with its own node,
// and every bone of the skeleton as a node carrying its local transform.
// Shapes without positions or with a topology glTF cannot express with
// disjoint primitives are skipped.
func Build(m *bfres.Model, opts ...Option) (*gltf.Document, error) {
	e := &exporter{log: zap.NewNop(), doc: gltf.NewDocument()}
	for _, opt := range opts {
		opt(e)
	}
	log := e.log.With(zap.String("model", m.Name()))

	for i, mat := range m.Materials {
		e.doc.Materials = append(e.doc.Materials, &gltf.Material{
			Name: m.Header.MaterialDict.Name(i),
			// neither the front nor the back face is culled
			DoubleSided: mat.RenderState != nil && mat.RenderState.PolygonControl&0x3 == 0,
		})
	}

	for _, s := range m.Shapes {
		name := s.Header.Name
		idx := int(s.Header.VertexBufferIndex)
		if idx >= len(m.VertexBuffers) {
			return nil, errors.Wrapf(ErrDanglingIndex, "shape %q: vertex buffer %d of %d", name, idx, len(m.VertexBuffers))
		}
		if len(s.LODs) == 0 {
			log.Warn("shape has no LOD, skipping", zap.String("shape", name))
			continue
		}
		lod := s.LODs[0]
		mode, ok := primitiveModes[lod.PrimitiveType]
		if !ok {
			log.Warn("unsupported topology, skipping",
				zap.String("shape", name),
				zap.Stringer("primitive_type", lod.PrimitiveType))
			continue
		}

		vb := m.VertexBuffers[idx]
		prim, err := e.primitive(vb, lod, mode)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %q", name)
		}
		if prim == nil {
			log.Warn("shape has no positions, skipping", zap.String("shape", name))
			continue
		}
		if mi := int(s.Header.MaterialIndex); mi < len(e.doc.Materials) {
			prim.Material = gltf.Index(uint32(mi))
		}

		e.doc.Meshes = append(e.doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
		e.addRootNode(&gltf.Node{Name: name, Mesh: gltf.Index(uint32(len(e.doc.Meshes) - 1))})
	}

	if m.Skeleton != nil {
		e.addSkeleton(m.Skeleton)
	}
	return e.doc, nil
}

func (e *exporter) addRootNode(n *gltf.Node) uint32 {
	idx := uint32(len(e.doc.Nodes))
	e.doc.Nodes = append(e.doc.Nodes, n)
	e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, idx)
	return idx
}

func (e *exporter) primitive(vb *bfres.VertexBuffer, lod *bfres.LODModel, mode gltf.PrimitiveMode) (*gltf.Primitive, error) {
	pos := vb.Attribute(positionAttribute)
	if pos == nil {
		return nil, nil
	}
	n := len(pos.Vertices)

	positions := make([][3]float32, n)
	for i, v := range pos.Vertices {
		positions[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
	}
	attrs := map[string]uint32{
		gltf.POSITION: modeler.WritePosition(e.doc, positions),
	}

	if nrm := vb.Attribute(normalAttribute); nrm != nil {
		normals := make([][3]float32, n)
		for i, v := range nrm.Vertices {
			vec := mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
			if vec.Len() > 0.5 {
				vec = vec.Normalize()
			}
			normals[i] = vec
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(e.doc, normals)
	}

	if uv := vb.Attribute(texCoordAttribute); uv != nil {
		uvs := make([][2]float32, n)
		for i, v := range uv.Vertices {
			uvs[i] = [2]float32{float32(v[0]), float32(v[1])}
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(e.doc, uvs)
	}

	var indices []uint32
	for _, g := range lod.Groups {
		for _, idx := range g.Indices {
			if int(idx) >= n {
				return nil, errors.Wrapf(bfres.ErrInvalidCount, "index %d with %d vertices", idx, n)
			}
			indices = append(indices, idx)
		}
	}

	prim := &gltf.Primitive{Mode: mode, Attributes: attrs}
	if len(indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(e.doc, indices))
	}
	return prim, nil
}

func (e *exporter) addSkeleton(sk *bfres.Skeleton) {
	base := uint32(len(e.doc.Nodes))
	for _, b := range sk.Bones {
		q := b.Quat().Normalize()
		e.doc.Nodes = append(e.doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: b.Translation,
			Rotation:    q.V.Vec4(q.W),
			Scale:       b.Scale,
		})
	}
	for i, b := range sk.Bones {
		idx := base + uint32(i)
		if b.HasParent() && int(b.ParentIndex) < len(sk.Bones) {
			parent := e.doc.Nodes[base+uint32(b.ParentIndex)]
			parent.Children = append(parent.Children, idx)
			continue
		}
		e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, idx)
	}
}

// Encode writes doc as JSON glTF, or as GLB when binary is set. JSON output
// embeds unnamed buffers as data URIs.
func Encode(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return enc.Encode(doc)
}
