package bfres

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	lodModelSize = 0x1C
	visGroupSize = 0x08
	visNodeSize  = 0x0C
	visRangeSize = 0x18
)

// ShapeHeader is the FSHP section header.
type ShapeHeader struct {
	Magic                string  `json:"magic"`
	Name                 string  `json:"poly_name"`
	Flags                uint32  `json:"flags"`
	SectionIndex         uint16  `json:"section_index"`
	MaterialIndex        uint16  `json:"fmat_index"`
	SkeletonIndex        uint16  `json:"fskl_index"`
	VertexBufferIndex    uint16  `json:"fvtx_index"`
	BoneSkinIndex        uint16  `json:"fskl_bone_skin_index"`
	VertexSkinCount      uint8   `json:"vtx_skin_count"`
	LODCount             uint8   `json:"lod_mdl_count"`
	KeyShapeCount        uint8   `json:"key_shape_count"`
	TargetAttributeCount uint8   `json:"target_attr_count"`
	VisTreeNodeCount     uint16  `json:"vis_tree_node_count"`
	Radius               float32 `json:"radius"`
	VertexBufferOffset   int     `json:"fvtx_offset"`
	LODOffset            int     `json:"lod_mdl_offset"`
	SkeletonIndexOffset  int     `json:"fskl_index_offset"`
	KeyShapeDict         Dict    `json:"key_shape_dict"`
	VisTreeNodesOffset   int     `json:"vis_tree_nodes_offset"`
	VisTreeRangesOffset  int     `json:"vis_tree_ranges_offset"`
	VisTreeIndicesOffset int     `json:"vis_tree_indices_offset"`
	UserPointer          uint32  `json:"user_pointer"`
}

// VisibilityGroup is a run of indices in a LOD's index buffer.
type VisibilityGroup struct {
	Offset     uint32     `json:"offset"`
	Count      uint32     `json:"count"`
	Indices    []uint32   `json:"indices"`
	Primitives [][]uint32 `json:"primitives"`
}

// LODModel is one level of detail of a shape.
type LODModel struct {
	PrimitiveType PrimitiveType      `json:"primitive_type"`
	IndexFormat   IndexFormat        `json:"index_format"`
	PointCount    uint32             `json:"point_count"`
	GroupCount    uint16             `json:"vis_group_count"`
	GroupOffset   int                `json:"vis_group_offset"`
	IndexBuffer   BufferInfo         `json:"index_buffer"`
	SkipVertices  uint32             `json:"skip_vertices"`
	Groups        []*VisibilityGroup `json:"vis_groups"`
}

// VisibilityNode is a node of the flattened visibility tree. Children and
// siblings are indices into VisibilityTree.Nodes.
type VisibilityNode struct {
	LeftChild   uint16 `json:"left_child_index"`
	RightChild  uint16 `json:"right_child_index"`
	NextSibling uint16 `json:"next_sibling_index"`
	GroupIndex  uint16 `json:"vis_group_index"`
	GroupCount  uint16 `json:"vis_group_count"`
}

// VisibilityRange is the bounding box of the node at the same index.
type VisibilityRange struct {
	Center mgl32.Vec3 `json:"center"`
	Extent mgl32.Vec3 `json:"extent"`
}

// Min returns the lower corner of the box.
func (r VisibilityRange) Min() mgl32.Vec3 { return r.Center.Sub(r.Extent) }

// Max returns the upper corner of the box.
func (r VisibilityRange) Max() mgl32.Vec3 { return r.Center.Add(r.Extent) }

// VisibilityTree holds parallel node and range arrays.
type VisibilityTree struct {
	Nodes  []VisibilityNode  `json:"nodes"`
	Ranges []VisibilityRange `json:"ranges"`
}

// Shape is a decoded FSHP section.
type Shape struct {
	Header  ShapeHeader    `json:"header"`
	LODs    []*LODModel    `json:"lod_models"`
	VisTree VisibilityTree `json:"vis_tree"`
}

func decodeShape(buf []byte, off int) (*Shape, error) {
	c := NewCursor(buf, off)
	h := ShapeHeader{
		Magic:                c.Chars(4),
		Name:                 c.StringRef(),
		Flags:                c.U32(),
		SectionIndex:         c.U16(),
		MaterialIndex:        c.U16(),
		SkeletonIndex:        c.U16(),
		VertexBufferIndex:    c.U16(),
		BoneSkinIndex:        c.U16(),
		VertexSkinCount:      c.U8(),
		LODCount:             c.U8(),
		KeyShapeCount:        c.U8(),
		TargetAttributeCount: c.U8(),
		VisTreeNodeCount:     c.U16(),
		Radius:               c.F32(),
		VertexBufferOffset:   c.Offset(),
		LODOffset:            c.Offset(),
		SkeletonIndexOffset:  c.Offset(),
	}
	keyShapeDict := c.Offset()
	h.VisTreeNodesOffset = c.Offset()
	h.VisTreeRangesOffset = c.Offset()
	h.VisTreeIndicesOffset = c.Offset()
	h.UserPointer = c.U32()
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "shape header")
	}

	var err error
	if h.KeyShapeDict, err = ReadDict(buf, keyShapeDict); err != nil {
		return nil, errors.Wrap(err, "key shape dictionary")
	}

	if h.LODCount > 0 && h.LODOffset == NullOffset {
		return nil, errors.Wrapf(ErrMalformedOffset, "%d LOD models behind a null offset", h.LODCount)
	}
	s := &Shape{Header: h, LODs: make([]*LODModel, 0, h.LODCount)}
	for i := 0; i < int(h.LODCount); i++ {
		lod, err := decodeLODModel(c.At(h.LODOffset + i*lodModelSize))
		if err != nil {
			return nil, errors.Wrapf(err, "LOD model %d", i)
		}
		s.LODs = append(s.LODs, lod)
	}
	if s.VisTree, err = decodeVisibilityTree(c, &h); err != nil {
		return nil, errors.Wrap(err, "visibility tree")
	}
	return s, nil
}

func decodeLODModel(c *Cursor) (*LODModel, error) {
	lod := &LODModel{
		PrimitiveType: PrimitiveType(c.U32()),
		IndexFormat:   IndexFormat(c.U32()),
		PointCount:    c.U32(),
		GroupCount:    c.U16(),
	}
	c.Skip(2)
	lod.GroupOffset = c.Offset()
	indexBufferOffset := c.Offset()
	lod.SkipVertices = c.U32()
	if err := c.Err(); err != nil {
		return nil, err
	}

	perPrimitive, err := lod.PrimitiveType.VerticesPerPrimitive()
	if err != nil {
		return nil, err
	}

	ic := c.At(indexBufferOffset)
	if indexBufferOffset != NullOffset {
		lod.IndexBuffer = readBufferInfo(ic)
		if err := ic.Err(); err != nil {
			return nil, errors.Wrap(err, "index buffer")
		}
	}

	if lod.GroupCount > 0 && (lod.GroupOffset == NullOffset || indexBufferOffset == NullOffset) {
		return nil, errors.Wrapf(ErrMalformedOffset, "%d visibility groups behind a null offset", lod.GroupCount)
	}
	gc := c.At(lod.GroupOffset)
	lod.Groups = make([]*VisibilityGroup, 0, lod.GroupCount)
	for g := 0; g < int(lod.GroupCount); g++ {
		gc.Seek(lod.GroupOffset + g*visGroupSize)
		group := &VisibilityGroup{Offset: gc.U32(), Count: gc.U32()}
		if err := gc.Err(); err != nil {
			return nil, errors.Wrapf(err, "visibility group %d", g)
		}
		ic.Seek(lod.IndexBuffer.DataOffset + int(group.Offset))
		if group.Indices, err = readIndices(ic, lod.IndexFormat, int(group.Count)); err != nil {
			return nil, errors.Wrapf(err, "indices of visibility group %d", g)
		}
		group.Primitives = Chunk(group.Indices, perPrimitive)
		lod.Groups = append(lod.Groups, group)
	}
	return lod, nil
}

func decodeVisibilityTree(c *Cursor, h *ShapeHeader) (VisibilityTree, error) {
	n := int(h.VisTreeNodeCount)
	if n > 0 && (h.VisTreeNodesOffset == NullOffset || h.VisTreeRangesOffset == NullOffset) {
		return VisibilityTree{}, errors.Wrapf(ErrMalformedOffset, "%d nodes behind a null offset", n)
	}
	t := VisibilityTree{
		Nodes:  make([]VisibilityNode, 0, n),
		Ranges: make([]VisibilityRange, 0, n),
	}
	nc := c.At(h.VisTreeNodesOffset)
	rc := c.At(h.VisTreeRangesOffset)
	for i := 0; i < n; i++ {
		nc.Seek(h.VisTreeNodesOffset + i*visNodeSize)
		node := VisibilityNode{LeftChild: nc.U16(), RightChild: nc.U16()}
		nc.Skip(2)
		node.NextSibling = nc.U16()
		node.GroupIndex = nc.U16()
		node.GroupCount = nc.U16()
		t.Nodes = append(t.Nodes, node)

		rc.Seek(h.VisTreeRangesOffset + i*visRangeSize)
		t.Ranges = append(t.Ranges, VisibilityRange{
			Center: mgl32.Vec3{rc.F32(), rc.F32(), rc.F32()},
			Extent: mgl32.Vec3{rc.F32(), rc.F32(), rc.F32()},
		})
	}
	if err := nc.Err(); err != nil {
		return t, errors.Wrap(err, "nodes")
	}
	if err := rc.Err(); err != nil {
		return t, errors.Wrap(err, "ranges")
	}
	return t, nil
}
