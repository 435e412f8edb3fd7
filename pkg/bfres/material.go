package bfres

import (
	"fmt"

	"github.com/pkg/errors"
)

// RenderInfoType selects how render info values are encoded.
type RenderInfoType uint8

const (
	RenderInfoInt    RenderInfoType = 0
	RenderInfoFloat  RenderInfoType = 1
	RenderInfoString RenderInfoType = 2
)

// String returns the render info type name.
func (t RenderInfoType) String() string {
	switch t {
	case RenderInfoInt:
		return "int"
	case RenderInfoFloat:
		return "float"
	case RenderInfoString:
		return "string"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// MaterialHeader is the FMAT section header.
type MaterialHeader struct {
	Magic              string `json:"magic"`
	Name               string `json:"mat_name"`
	Flags              uint32 `json:"mat_flags"`
	SectionIndex       uint16 `json:"section_index"`
	RenderInfoCount    uint16 `json:"render_info_count"`
	TextureRefCount    uint8  `json:"tex_ref_count"`
	SamplerCount       uint8  `json:"tex_sampler_count"`
	ParamCount         uint16 `json:"mat_param_count"`
	VolatileParamCount uint16 `json:"volatile_param_count"`
	ParamLength        uint16 `json:"mat_param_length"`
	RawParamLength     uint16 `json:"raw_param_length"`
	UserDataCount      uint16 `json:"user_data_entry_count"`
	RenderInfoDict     Dict   `json:"render_info_param_dict"`
	RenderStateOffset  int    `json:"render_state_offset"`
	ShaderAssignOffset int    `json:"shader_assign_offset"`
	TextureRefOffset   int    `json:"tex_ref_offset"`
	SamplerOffset      int    `json:"tex_sampler_offset"`
	SamplerDict        Dict   `json:"tex_sampler_dict"`
	ParamOffset        int    `json:"mat_param_offset"`
	ParamDict          Dict   `json:"mat_param_dict"`
	ParamDataOffset    int    `json:"mat_param_data_offset"`
	UserDataDict       Dict   `json:"user_data_dict"`
	VolatileFlagOffset int    `json:"volatile_flags_offset"`
	UserPointer        int32  `json:"user_pointer"`
}

// RenderInfo is a named render hint. Exactly one of Ints, Floats and Strings
// is populated, according to Type.
type RenderInfo struct {
	Name    string         `json:"name"`
	Type    RenderInfoType `json:"type"`
	Count   uint16         `json:"array_length"`
	Ints    [][2]int32     `json:"ints,omitempty"`
	Floats  [][2]float32   `json:"floats,omitempty"`
	Strings []string       `json:"strings,omitempty"`
}

// TextureSampler binds a GX2 sampler to a shader sampler attribute.
type TextureSampler struct {
	Sampler       [3]uint32 `json:"gx2_sampler"`
	Handle        uint32    `json:"handle"`
	AttributeName string    `json:"attribute_name"`
	Index         uint8     `json:"index"`
}

// RenderState holds the fixed-function pipeline control words.
type RenderState struct {
	Flags          uint32     `json:"flags"`
	PolygonControl uint32     `json:"poly_ctrl"`
	DepthControl   uint32     `json:"depth_ctrl"`
	AlphaTestFlag  uint32     `json:"alpha_test_flag"`
	AlphaTestRef   float32    `json:"alpha_test_ref"`
	ColorControl   uint32     `json:"color_ctrl"`
	BlendControl   [2]uint32  `json:"blend_ctrl"`
	BlendColor     [4]float32 `json:"blend_color"`
}

// ShaderOption is a shader option name with its string value.
type ShaderOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ShaderAssign links a material to a shader program in an archive.
type ShaderAssign struct {
	ArchiveName        string         `json:"archive_name"`
	ModelName          string         `json:"model_name"`
	Revision           uint32         `json:"revision"`
	VertexInputCount   uint8          `json:"vtx_shader_input_count"`
	FragmentInputCount uint8          `json:"fragment_shader_input_count"`
	OptionCount        uint16         `json:"param_count"`
	VertexInputDict    Dict           `json:"vtx_shader_input_dict"`
	FragmentInputDict  Dict           `json:"fragment_shader_input_dict"`
	Options            []ShaderOption `json:"param_dict"`
}

// Option returns the value of the named shader option.
func (s *ShaderAssign) Option(name string) (string, bool) {
	for _, o := range s.Options {
		if o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

// Material is a decoded FMAT section.
type Material struct {
	Header       MaterialHeader    `json:"header"`
	RenderInfo   []*RenderInfo     `json:"render_info_param"`
	Samplers     []*TextureSampler `json:"tex_sampler"`
	Params       []*MaterialParam  `json:"mat_param"`
	RenderState  *RenderState      `json:"render_state"`
	ShaderAssign *ShaderAssign     `json:"shader_assign"`
}

// Param returns the parameter with the given variable name, or nil.
func (m *Material) Param(name string) *MaterialParam {
	for _, p := range m.Params {
		if p.VariableName == name {
			return p
		}
	}
	return nil
}

func decodeMaterial(buf []byte, off int, version [4]uint8) (*Material, error) {
	c := NewCursor(buf, off)
	h := MaterialHeader{
		Magic:              c.Chars(4),
		Name:               c.StringRef(),
		Flags:              c.U32(),
		SectionIndex:       c.U16(),
		RenderInfoCount:    c.U16(),
		TextureRefCount:    c.U8(),
		SamplerCount:       c.U8(),
		ParamCount:         c.U16(),
		VolatileParamCount: c.U16(),
		ParamLength:        c.U16(),
		RawParamLength:     c.U16(),
		UserDataCount:      c.U16(),
	}
	renderInfoDict := c.Offset()
	h.RenderStateOffset = c.Offset()
	h.ShaderAssignOffset = c.Offset()
	h.TextureRefOffset = c.Offset()
	h.SamplerOffset = c.Offset()
	samplerDict := c.Offset()
	h.ParamOffset = c.Offset()
	paramDict := c.Offset()
	h.ParamDataOffset = c.Offset()
	userDataDict := c.Offset()
	h.VolatileFlagOffset = c.Offset()
	h.UserPointer = c.I32()
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "material header")
	}

	var err error
	dicts := []struct {
		off  int
		dst  *Dict
		name string
	}{
		{renderInfoDict, &h.RenderInfoDict, "render info"},
		{samplerDict, &h.SamplerDict, "sampler"},
		{paramDict, &h.ParamDict, "parameter"},
		{userDataDict, &h.UserDataDict, "user data"},
	}
	for _, d := range dicts {
		if *d.dst, err = ReadDict(buf, d.off); err != nil {
			return nil, errors.Wrapf(err, "%s dictionary", d.name)
		}
	}

	m := &Material{Header: h}
	for _, e := range h.RenderInfoDict {
		ri, err := decodeRenderInfo(c.At(e.Offset))
		if err != nil {
			return nil, errors.Wrapf(err, "render info %q", e.Name)
		}
		m.RenderInfo = append(m.RenderInfo, ri)
	}
	for _, e := range h.SamplerDict {
		sc := c.At(e.Offset)
		s := &TextureSampler{
			Sampler:       [3]uint32{sc.U32(), sc.U32(), sc.U32()},
			Handle:        sc.U32(),
			AttributeName: sc.StringRef(),
			Index:         sc.U8(),
		}
		if err := sc.Err(); err != nil {
			return nil, errors.Wrapf(err, "texture sampler %q", e.Name)
		}
		m.Samplers = append(m.Samplers, s)
	}
	for _, e := range h.ParamDict {
		p, err := decodeMaterialParam(c.At(e.Offset), h.ParamDataOffset, version)
		if err != nil {
			return nil, errors.Wrapf(err, "material parameter %q", e.Name)
		}
		m.Params = append(m.Params, p)
	}
	if h.RenderStateOffset != NullOffset {
		if m.RenderState, err = decodeRenderState(c.At(h.RenderStateOffset)); err != nil {
			return nil, errors.Wrap(err, "render state")
		}
	}
	if h.ShaderAssignOffset != NullOffset {
		if m.ShaderAssign, err = decodeShaderAssign(buf, c.At(h.ShaderAssignOffset)); err != nil {
			return nil, errors.Wrap(err, "shader assign")
		}
	}
	return m, nil
}

func decodeRenderInfo(c *Cursor) (*RenderInfo, error) {
	ri := &RenderInfo{Count: c.U16(), Type: RenderInfoType(c.U8())}
	c.Skip(1)
	ri.Name = c.StringRef()
	switch ri.Type {
	case RenderInfoInt:
		for i := 0; i < int(ri.Count); i++ {
			ri.Ints = append(ri.Ints, [2]int32{c.I32(), c.I32()})
		}
	case RenderInfoFloat:
		for i := 0; i < int(ri.Count); i++ {
			ri.Floats = append(ri.Floats, [2]float32{c.F32(), c.F32()})
		}
	case RenderInfoString:
		for i := 0; i < int(ri.Count); i++ {
			ri.Strings = append(ri.Strings, c.StringRef())
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "render info type %d", ri.Type)
	}
	return ri, c.Err()
}

func decodeRenderState(c *Cursor) (*RenderState, error) {
	rs := &RenderState{
		Flags:          c.U32(),
		PolygonControl: c.U32(),
		DepthControl:   c.U32(),
		AlphaTestFlag:  c.U32(),
		AlphaTestRef:   c.F32(),
		ColorControl:   c.U32(),
		BlendControl:   [2]uint32{c.U32(), c.U32()},
		BlendColor:     [4]float32{c.F32(), c.F32(), c.F32(), c.F32()},
	}
	return rs, c.Err()
}

func decodeShaderAssign(buf []byte, c *Cursor) (*ShaderAssign, error) {
	sa := &ShaderAssign{
		ArchiveName:        c.StringRef(),
		ModelName:          c.StringRef(),
		Revision:           c.U32(),
		VertexInputCount:   c.U8(),
		FragmentInputCount: c.U8(),
		OptionCount:        c.U16(),
	}
	vtxDict, fragDict, optDict := c.Offset(), c.Offset(), c.Offset()
	if err := c.Err(); err != nil {
		return nil, err
	}

	var err error
	if sa.VertexInputDict, err = ReadDict(buf, vtxDict); err != nil {
		return nil, errors.Wrap(err, "vertex input dictionary")
	}
	if sa.FragmentInputDict, err = ReadDict(buf, fragDict); err != nil {
		return nil, errors.Wrap(err, "fragment input dictionary")
	}
	options, err := ReadDict(buf, optDict)
	if err != nil {
		return nil, errors.Wrap(err, "shader option dictionary")
	}
	for _, o := range options {
		sa.Options = append(sa.Options, ShaderOption{Name: o.Name, Value: c.StringAt(o.Offset)})
	}
	return sa, c.Err()
}
