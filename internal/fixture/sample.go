package fixture

// GX2 codes used by the fixtures.
const (
	formatFloat32x3    = 0x811
	formatFloat16x2    = 0x808
	formatSnorm1010102 = 0x20B
	primitiveTriangles = 0x04
	primitiveLines     = 0x02
	indexU16LE         = 0
	indexU16BE         = 4
)

// Version is the container version written by the fixtures. Its composite
// (3404) selects the 12 byte material parameter padding.
var Version = [4]uint8{3, 4, 0, 4}

func (b *Builder) header(name string, models ...Entry) *Builder {
	b.Chars("FRES")
	for _, v := range Version {
		b.U8(v)
	}
	b.U16(0xFEFF).U16(0x10).U32(0).U32(0x2000)
	b.Str(name).I32(0).Null()
	if len(models) > 0 {
		b.Ref("dict:models")
	} else {
		b.Null()
	}
	for i := 1; i < 12; i++ {
		b.Null()
	}
	b.U16(uint16(len(models)))
	for i := 1; i < 12; i++ {
		b.U16(0)
	}
	b.U32(0)
	if len(models) > 0 {
		b.Dict("dict:models", models...)
	}
	return b
}

func (b *Builder) bufferInfo(size uint32, stride uint16, data string) *Builder {
	return b.U32(0).U32(size).U32(0).U16(stride).U16(1).U32(0).Ref(data)
}

// Minimal returns a container with one model "tri": a vertex buffer of two
// float32x3 positions and one triangle shape whose single group holds the
// indices 0, 1, 1. There are no materials and no skeleton.
func Minimal() []byte {
	b := New()
	b.header("minimal", Entry{"tri", "fmdl"})

	b.Label("fmdl").Chars("FMDL").Str("tri").I32(0)
	b.Null().Ref("fvtx").Ref("dict:shapes").Null().Null()
	b.U16(1).U16(1).U16(0).U16(0).U32(2).U32(0)
	b.Dict("dict:shapes", Entry{"tri", "fshp"})

	b.Label("fvtx").Chars("FVTX").U8(1).U8(1).U16(0).U32(2)
	b.U8(0).Pad(3).Ref("attrs").Ref("dict:attrs").Ref("buffers").U32(0)
	b.Dict("dict:attrs", Entry{"_p0", "attr:p0"})
	b.Label("attrs").Label("attr:p0").Str("_p0").U8(0).U8(0).U16(0).U32(formatFloat32x3)
	b.Label("buffers").bufferInfo(24, 12, "vdata")

	b.Label("fshp").Chars("FSHP").Str("tri").U32(0)
	b.U16(0).U16(0).U16(0).U16(0).U16(0)
	b.U8(0).U8(1).U8(0).U8(0).U16(0).F32(1)
	b.Ref("fvtx").Ref("lods").Null().Null().Null().Null().Null().U32(0)
	b.Label("lods").U32(primitiveTriangles).U32(indexU16BE).U32(3).U16(1).U16(0)
	b.Ref("groups").Ref("ibuf").U32(0)
	b.Label("ibuf").bufferInfo(6, 0, "idata")
	b.Label("groups").U32(0).U32(3)

	b.Label("vdata").F32(0, 0, 0, 1, 0, 0)
	b.Label("idata").U16(0).U16(1).U16(1).Align(4)
	return b.Bytes()
}

// Sample returns a container with one model "tri" exercising every section:
//   - a vertex buffer of 3 vertices with _p0 (float32x3), _n0
//     (snorm_10_10_10_2, z = 0.5) and _u0 (float16x2) across two buffers
//   - a shape with a triangle LOD (big-endian indices 0,1,2) and a line LOD
//     (little-endian indices 0,1,1,2) plus a one-node visibility tree
//   - a material with two render infos, a sampler, two parameters, a render
//     state and a shader assign with one option
//   - a skeleton with a root bone and one child
func Sample() []byte {
	b := New()
	b.header("sample", Entry{"tri", "fmdl"})

	b.Label("fmdl").Chars("FMDL").Str("tri").I32(0)
	b.Ref("fskl").Ref("fvtx").Ref("dict:shapes").Ref("dict:materials").Null()
	b.U16(1).U16(1).U16(1).U16(0).U32(3).U32(0)
	b.Dict("dict:shapes", Entry{"tri", "fshp"})
	b.Dict("dict:materials", Entry{"mat", "fmat"})

	b.vertexBuffer()
	b.shape()
	b.material()
	b.skeleton()

	b.Label("vdata0")
	for _, p := range [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		b.F32(p[0], p[1], p[2]).U32(500 << 2)
	}
	b.Label("vdata1")
	for _, uv := range [3][2]float32{{0, 0}, {1, 0}, {0, 1}} {
		b.F16(uv[0]).F16(uv[1])
	}
	b.Label("idata")
	b.U16(0).U16(1).U16(2).Pad(2)
	b.U16LE(0, 1, 1, 2)
	b.Label("pdata").F32(1, 0.5, 0.25).U32(1)
	return b.Bytes()
}

func (b *Builder) vertexBuffer() {
	b.Label("fvtx").Chars("FVTX").U8(3).U8(2).U16(0).U32(3)
	b.U8(1).Pad(3).Ref("attrs").Ref("dict:attrs").Ref("buffers").U32(0)
	b.Dict("dict:attrs",
		Entry{"_p0", "attr:p0"},
		Entry{"_n0", "attr:n0"},
		Entry{"_u0", "attr:u0"})
	b.Label("attrs")
	b.Label("attr:p0").Str("_p0").U8(0).U8(0).U16(0).U32(formatFloat32x3)
	b.Label("attr:n0").Str("_n0").U8(0).U8(0).U16(12).U32(formatSnorm1010102)
	b.Label("attr:u0").Str("_u0").U8(1).U8(0).U16(0).U32(formatFloat16x2)
	b.Label("buffers")
	b.bufferInfo(48, 16, "vdata0")
	b.bufferInfo(12, 4, "vdata1")
}

func (b *Builder) shape() {
	b.Label("fshp").Chars("FSHP").Str("tri").U32(0)
	b.U16(0).U16(0).U16(0).U16(0).U16(0)
	b.U8(0).U8(2).U8(0).U8(0).U16(1).F32(1)
	b.Ref("fvtx").Ref("lods").Null().Null().Ref("vis:nodes").Ref("vis:ranges").Null().U32(0)

	b.Label("lods")
	b.U32(primitiveTriangles).U32(indexU16BE).U32(3).U16(1).U16(0)
	b.Ref("groups0").Ref("ibuf0").U32(0)
	b.U32(primitiveLines).U32(indexU16LE).U32(4).U16(1).U16(0)
	b.Ref("groups1").Ref("ibuf1").U32(0)

	b.Label("ibuf0").bufferInfo(6, 0, "idata")
	b.Label("ibuf1").bufferInfo(8, 0, "idata")
	b.Label("groups0").U32(0).U32(3)
	b.Label("groups1").U32(8).U32(4)

	b.Label("vis:nodes").U16(0xFFFF).U16(0xFFFF).U16(0).U16(0xFFFF).U16(0).U16(1)
	b.Label("vis:ranges").F32(0.5, 0.5, 0, 0.5, 0.5, 0)
}

func (b *Builder) material() {
	b.Label("fmat").Chars("FMAT").Str("mat").U32(1)
	b.U16(0).U16(2).U8(0).U8(1).U16(2).U16(0).U16(16).U16(16).U16(0)
	b.Ref("dict:renderinfo").Ref("renderstate").Ref("shaderassign").Null()
	b.Ref("samplers").Ref("dict:samplers").Ref("params").Ref("dict:params")
	b.Ref("pdata").Null().Null().I32(0)

	b.Dict("dict:renderinfo",
		Entry{"gsys_render_state_mode", "ri:mode"},
		Entry{"gsys_depth", "ri:depth"})
	b.Label("ri:mode").U16(1).U8(2).U8(0).Str("gsys_render_state_mode").Str("opaque")
	b.Label("ri:depth").U16(1).U8(1).U8(0).Str("gsys_depth").F32(0.5, 1)

	b.Dict("dict:samplers", Entry{"_a0", "samplers"})
	b.Label("samplers").U32(1).U32(2).U32(3).U32(0).Str("_a0").U8(0).Pad(3)

	b.Dict("dict:params",
		Entry{"albedo_color", "param:albedo"},
		Entry{"use_fog", "param:fog"})
	b.Label("params")
	b.Label("param:albedo").U8(14).U8(12).U16(0).Pad(12).Str("albedo_color")
	b.Label("param:fog").U8(0).U8(4).U16(12).Pad(12).Str("use_fog")

	b.Label("renderstate").U32(1).U32(2).U32(3).U32(0).F32(0.5).U32(4).U32(5).U32(6).F32(1, 1, 1, 1)

	b.Dict("dict:options", Entry{"enable_fog", "opt:fog"})
	b.Text("opt:fog", "1").Align(4)
	b.Label("shaderassign").Str("Turbo_UBER").Str("turbo_uber_xlu").U32(1)
	b.U8(0).U8(0).U16(1).Null().Null().Ref("dict:options")
}

func (b *Builder) skeleton() {
	b.Label("fskl").Chars("FSKL").U32(0x1100).U16(2).U16(1).U16(1).U16(0)
	b.Ref("dict:bones").Ref("bones").Ref("smooth").Null().U32(0)
	b.Dict("dict:bones", Entry{"root", "bone0"}, Entry{"arm", "bone1"})
	b.Label("bones")
	b.Label("bone0").Str("root").U16(0).U16(0xFFFF).I16(0).I16(-1).I16(-1).U16(0).U32(0)
	b.F32(1, 1, 1).F32(0, 0, 0, 1).F32(0, 1, 0).Null()
	b.Label("bone1").Str("arm").U16(1).U16(0).I16(-1).I16(0).I16(-1).U16(0).U32(0)
	b.F32(1, 1, 1).F32(0, 0, 0, 1).F32(1, 0, 0).Null()
	b.Label("smooth").U16(0).U16(1)
}
