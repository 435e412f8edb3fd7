// Package view flattens a decoded container into a nested structure keyed by
// human readable names, suited to JSON export and to the OBJ writer.
package view

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/bfres-decoder/pkg/bfres"
)

// ErrDanglingIndex is returned when a shape refers to a vertex buffer the
// model does not have.
var ErrDanglingIndex = errors.New("shape refers to a missing vertex buffer")

// File is the flattened form of a container.
type File struct {
	Infos  FileInfos `json:"infos"`
	Models []*Model  `json:"models"`
}

// FileInfos holds the container header fields worth showing.
type FileInfos struct {
	Name      string   `json:"name"`
	Alignment uint32   `json:"alignment"`
	Version   [4]uint8 `json:"version"`
}

// Model is one flattened model.
type Model struct {
	Infos     ModelInfos  `json:"infos"`
	Objects   []*Object   `json:"objects"`
	Materials []*Material `json:"materials"`
	Skeleton  Skeleton    `json:"skeleton"`
}

// ModelInfos names a model and sums its vertex buffers.
type ModelInfos struct {
	Name             string `json:"name"`
	TotalVertexCount int    `json:"total_vertex_count"`
}

// Object is one vertex buffer together with the LODs of every shape drawing
// from it.
type Object struct {
	Infos        ObjectInfos           `json:"infos"`
	VertexBuffer map[string]*Attribute `json:"vertex_buffer"`
	LODModels    []*LODModel           `json:"lod_models"`
}

// ObjectInfos describes the vertex buffer behind an object.
type ObjectInfos struct {
	Name        string `json:"name"`
	Index       uint16 `json:"index"`
	SkinCount   uint8  `json:"skin_count"`
	VertexCount uint32 `json:"vertex_count"`
}

// Attribute is one decoded vertex attribute stream.
type Attribute struct {
	Format   string      `json:"format"`
	Vertices [][]float64 `json:"vertices"`
}

// LODModel holds one level of detail as primitive groups of indices.
type LODModel struct {
	Infos      LODInfos     `json:"infos"`
	Primitives [][][]uint32 `json:"primitives"`
}

// LODInfos names the topology and index format of a LODModel.
type LODInfos struct {
	PrimitiveType string `json:"primitive_type"`
	IndexFormat   string `json:"index_format"`
}

// Material is a flattened material.
type Material struct {
	Infos           MaterialInfos  `json:"infos"`
	TextureSamplers []Sampler      `json:"texture_samplers"`
	Parameters      []Parameter    `json:"parameters"`
	RenderInfo      []RenderInfo   `json:"render_info"`
	ShaderOptions   []ShaderOption `json:"shader_options"`
	RenderState     *RenderState   `json:"render_state"`
}

// MaterialInfos names a material and its shader.
type MaterialInfos struct {
	Name          string `json:"name"`
	ShaderArchive string `json:"shader_archive"`
	ShaderModel   string `json:"shader_model"`
}

// Sampler is a texture sampler with its GX2 words split out.
type Sampler struct {
	Name    string `json:"name"`
	Struct1 uint32 `json:"GX2Sampler_struct1"`
	Struct2 uint32 `json:"GX2Sampler_struct2"`
	Struct3 uint32 `json:"GX2Sampler_struct3"`
	Index   uint8  `json:"index"`
}

// Parameter is a shader parameter. Non-finite floats marshal as null.
type Parameter struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value bfres.Tuple `json:"value"`
}

// RenderInfo is a render info entry; Data holds ints, floats or strings.
type RenderInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RenderState holds the fixed-function control words of a material.
type RenderState struct {
	Flags          uint32    `json:"flags"`
	PolygonControl uint32    `json:"poly_ctrl"`
	DepthControl   uint32    `json:"depth_ctrl"`
	AlphaTestFlag  uint32    `json:"alpha_test_flag"`
	AlphaTestRef   Float     `json:"alpha_test_ref"`
	ColorControl   uint32    `json:"color_ctrl"`
	BlendControl   [2]uint32 `json:"blend_ctrl"`
	BlendColor     [4]Float  `json:"blend_color"`
}

// ShaderOption is a shader option name and value.
type ShaderOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Skeleton lists the bones of a model. It is empty when the model has none.
type Skeleton struct {
	Infos SkeletonInfos `json:"infos"`
	Bones []Bone        `json:"bones"`
}

// SkeletonInfos holds the skeleton flags.
type SkeletonInfos struct {
	Flags uint32 `json:"flags"`
}

// Bone is one flattened bone.
type Bone struct {
	Infos BoneInfos `json:"infos"`
}

// BoneInfos identifies a bone, its parent and its local transform.
type BoneInfos struct {
	Name        string    `json:"name"`
	Index       uint16    `json:"index"`
	ParentIndex uint16    `json:"parent_index"`
	Flags       uint32    `json:"flags"`
	Transform   Transform `json:"transform"`
}

// Transform is a bone's local scale, rotation quaternion and translation.
type Transform struct {
	Scale       [3]float32 `json:"scale"`
	Rotation    [4]float32 `json:"rotation"`
	Translation [3]float32 `json:"translation"`
}

// Build flattens every model of the container.
func Build(ct *bfres.Container) (*File, error) {
	f := &File{
		Infos: FileInfos{
			Name:      ct.Header.Name,
			Alignment: ct.Header.Alignment,
			Version:   ct.Header.Version,
		},
		Models: make([]*Model, 0, len(ct.Models)),
	}
	for _, m := range ct.Models {
		vm, err := buildModel(m)
		if err != nil {
			return nil, errors.Wrapf(err, "model %q", m.Name())
		}
		f.Models = append(f.Models, vm)
	}
	return f, nil
}

func buildModel(m *bfres.Model) (*Model, error) {
	vm := &Model{
		Infos: ModelInfos{Name: m.Name(), TotalVertexCount: m.TotalVertexCount()},
	}

	for _, vb := range m.VertexBuffers {
		vm.Objects = append(vm.Objects, buildObject(m, vb))
	}

	for i, mat := range m.Materials {
		vm.Materials = append(vm.Materials, buildMaterial(m.Header.MaterialDict.Name(i), mat))
	}

	if sk := m.Skeleton; sk != nil {
		vm.Skeleton.Infos.Flags = sk.Header.Flags
		for _, b := range sk.Bones {
			vm.Skeleton.Bones = append(vm.Skeleton.Bones, Bone{Infos: BoneInfos{
				Name:        b.Name,
				Index:       b.Index,
				ParentIndex: b.ParentIndex,
				Flags:       b.Flags,
				Transform: Transform{
					Scale:       b.Scale,
					Rotation:    b.Rotation,
					Translation: b.Translation,
				},
			}})
		}
	}

	for _, s := range m.Shapes {
		idx := int(s.Header.VertexBufferIndex)
		if idx >= len(vm.Objects) {
			return nil, errors.Wrapf(ErrDanglingIndex, "shape %q: vertex buffer %d of %d", s.Header.Name, idx, len(vm.Objects))
		}
		obj := vm.Objects[idx]
		for _, lod := range s.LODs {
			vl := &LODModel{Infos: LODInfos{
				PrimitiveType: lod.PrimitiveType.String(),
				IndexFormat:   lod.IndexFormat.String(),
			}}
			for _, g := range lod.Groups {
				vl.Primitives = append(vl.Primitives, g.Primitives)
			}
			obj.LODModels = append(obj.LODModels, vl)
		}
	}
	return vm, nil
}

func buildObject(m *bfres.Model, vb *bfres.VertexBuffer) *Object {
	h := vb.Header
	obj := &Object{
		Infos: ObjectInfos{
			Name:        m.Header.ShapeDict.Name(int(h.SectionIndex)),
			Index:       h.SectionIndex,
			SkinCount:   h.VertexSkinCount,
			VertexCount: h.VertexCount,
		},
		VertexBuffer: make(map[string]*Attribute, len(vb.Attributes)),
	}
	for _, a := range vb.Attributes {
		va := &Attribute{Format: a.Format.String(), Vertices: make([][]float64, len(a.Vertices))}
		for i := range a.Vertices {
			va.Vertices[i] = a.Values(i)
		}
		obj.VertexBuffer[a.Name] = va
	}
	return obj
}

func buildMaterial(name string, mat *bfres.Material) *Material {
	vm := &Material{Infos: MaterialInfos{Name: name}}
	if rs := mat.RenderState; rs != nil {
		vm.RenderState = &RenderState{
			Flags:          rs.Flags,
			PolygonControl: rs.PolygonControl,
			DepthControl:   rs.DepthControl,
			AlphaTestFlag:  rs.AlphaTestFlag,
			AlphaTestRef:   Float(rs.AlphaTestRef),
			ColorControl:   rs.ColorControl,
			BlendControl:   rs.BlendControl,
		}
		for i, c := range rs.BlendColor {
			vm.RenderState.BlendColor[i] = Float(c)
		}
	}
	if sa := mat.ShaderAssign; sa != nil {
		vm.Infos.ShaderArchive = sa.ArchiveName
		vm.Infos.ShaderModel = sa.ModelName
		for _, o := range sa.Options {
			vm.ShaderOptions = append(vm.ShaderOptions, ShaderOption{Name: o.Name, Value: o.Value})
		}
	}
	for _, s := range mat.Samplers {
		vm.TextureSamplers = append(vm.TextureSamplers, Sampler{
			Name:    s.AttributeName,
			Struct1: s.Sampler[0],
			Struct2: s.Sampler[1],
			Struct3: s.Sampler[2],
			Index:   s.Index,
		})
	}
	for _, p := range mat.Params {
		vm.Parameters = append(vm.Parameters, Parameter{Name: p.VariableName, Type: p.Type.String(), Value: p.Value})
	}
	for _, ri := range mat.RenderInfo {
		info := RenderInfo{Name: ri.Name, Type: ri.Type.String()}
		switch ri.Type {
		case bfres.RenderInfoInt:
			info.Data = ri.Ints
		case bfres.RenderInfoFloat:
			pairs := make([][]Float, len(ri.Floats))
			for i, f := range ri.Floats {
				pairs[i] = floats(f[:])
			}
			info.Data = pairs
		case bfres.RenderInfoString:
			info.Data = ri.Strings
		}
		vm.RenderInfo = append(vm.RenderInfo, info)
	}
	return vm
}

// Object returns the object with the given name, or nil.
func (m *Model) Object(name string) *Object {
	for _, o := range m.Objects {
		if o.Infos.Name == name {
			return o
		}
	}
	return nil
}

// Model returns the model with the given name, or nil.
func (f *File) Model(name string) *Model {
	for _, m := range f.Models {
		if m.Infos.Name == name {
			return m
		}
	}
	return nil
}
