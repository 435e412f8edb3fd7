package bfres

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParamType is the value type of a shader material parameter.
type ParamType uint8

const (
	ParamBool ParamType = iota
	ParamBool2
	ParamBool3
	ParamBool4
	ParamInt
	ParamInt2
	ParamInt3
	ParamInt4
	ParamUint
	ParamUint2
	ParamUint3
	ParamUint4
	ParamFloat
	ParamFloat2
	ParamFloat3
	ParamFloat4
	paramReserved16
	ParamFloat2x2
	ParamFloat2x3
	ParamFloat2x4
	paramReserved20
	ParamFloat3x2
	ParamFloat3x3
	ParamFloat3x4
	paramReserved24
	ParamFloat4x2
	ParamFloat4x3
	ParamFloat4x4
	ParamSRT2D
	ParamSRT3D
	ParamTexSRT
	ParamTexSRTEx
)

type paramLayout struct {
	name   string
	layout Layout
}

// paramLayouts is indexed by ParamType. Reserved slots have a nil layout.
var paramLayouts = [32]paramLayout{
	ParamBool:       {"bool", Repeat(KindU32, 1)},
	ParamBool2:      {"bool2", Repeat(KindU32, 2)},
	ParamBool3:      {"bool3", Repeat(KindU32, 3)},
	ParamBool4:      {"bool4", Repeat(KindU32, 4)},
	ParamInt:        {"int", Repeat(KindI32, 1)},
	ParamInt2:       {"int2", Repeat(KindI32, 2)},
	ParamInt3:       {"int3", Repeat(KindI32, 3)},
	ParamInt4:       {"int4", Repeat(KindI32, 4)},
	ParamUint:       {"uint", Repeat(KindU32, 1)},
	ParamUint2:      {"uint2", Repeat(KindU32, 2)},
	ParamUint3:      {"uint3", Repeat(KindU32, 3)},
	ParamUint4:      {"uint4", Repeat(KindU32, 4)},
	ParamFloat:      {"float", Repeat(KindF32, 1)},
	ParamFloat2:     {"float2", Repeat(KindF32, 2)},
	ParamFloat3:     {"float3", Repeat(KindF32, 3)},
	ParamFloat4:     {"float4", Repeat(KindF32, 4)},
	paramReserved16: {"reserved16", nil},
	ParamFloat2x2:   {"float2x2", Repeat(KindF32, 4)},
	ParamFloat2x3:   {"float2x3", Repeat(KindF32, 6)},
	ParamFloat2x4:   {"float2x4", Repeat(KindF32, 8)},
	paramReserved20: {"reserved20", nil},
	ParamFloat3x2:   {"float3x2", Repeat(KindF32, 6)},
	ParamFloat3x3:   {"float3x3", Repeat(KindF32, 9)},
	ParamFloat3x4:   {"float3x4", Repeat(KindF32, 12)},
	paramReserved24: {"reserved24", nil},
	ParamFloat4x2:   {"float4x2", Repeat(KindF32, 8)},
	ParamFloat4x3:   {"float4x3", Repeat(KindF32, 12)},
	ParamFloat4x4:   {"float4x4", Repeat(KindF32, 16)},
	ParamSRT2D:      {"srt2d", Repeat(KindF32, 5)},
	ParamSRT3D:      {"srt3d", Repeat(KindF32, 9)},
	// Mode word followed by scale, rotation and translation.
	ParamTexSRT: {"texsrt", append(Layout{KindU32}, Repeat(KindF32, 5)...)},
	// TexSRT multiplied by the 3x4 matrix behind a matrix pointer; kept as raw words.
	ParamTexSRTEx: {"texsrt_ex", Repeat(KindU32, 12)},
}

// Layout returns the binary layout of the type, or an error for reserved
// and unknown codes.
func (t ParamType) Layout() (Layout, error) {
	if int(t) >= len(paramLayouts) || paramLayouts[t].layout == nil {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "material parameter type %d", t)
	}
	return paramLayouts[t].layout, nil
}

// String returns the parameter type name.
func (t ParamType) String() string {
	if int(t) < len(paramLayouts) {
		return paramLayouts[t].name
	}
	return fmt.Sprintf("Unknown(%d)", t)
}

// versionNumber folds the four version bytes into a base-10 composite,
// so 3.4.0.0 becomes 3400.
func versionNumber(v [4]uint8) int {
	n := 0
	for _, part := range v {
		n = n*10 + int(part)
	}
	return n
}

// paramPadding returns how many bytes precede the variable name in a
// material parameter record for the given file version.
func paramPadding(v [4]uint8) int {
	switch n := versionNumber(v); {
	case n >= 3400:
		return 12
	case n >= 3300:
		return 16
	default:
		return 0
	}
}

// MaterialParam is a decoded shader parameter.
type MaterialParam struct {
	Type         ParamType `json:"type"`
	Size         uint8     `json:"size"`
	Offset       int       `json:"offset"`
	VariableName string    `json:"variable_name"`
	Value        Tuple     `json:"value"`
}

// decodeMaterialParam reads one parameter record. dataBase is the material's
// parameter data offset, which must be known before any record is decoded.
func decodeMaterialParam(c *Cursor, dataBase int, version [4]uint8) (*MaterialParam, error) {
	p := &MaterialParam{Type: ParamType(c.U8()), Size: c.U8()}
	p.Offset = int(c.U16()) + dataBase
	c.Skip(paramPadding(version))
	p.VariableName = c.StringRef()
	if err := c.Err(); err != nil {
		return nil, err
	}

	layout, err := p.Type.Layout()
	if err != nil {
		return nil, errors.Wrapf(err, "parameter %q", p.VariableName)
	}
	vc := c.At(p.Offset)
	p.Value = vc.Tuple(layout)
	if err := vc.Err(); err != nil {
		return nil, errors.Wrapf(err, "value of parameter %q", p.VariableName)
	}
	return p, nil
}
