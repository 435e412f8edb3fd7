package view

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/Faultbox/bfres-decoder/internal/fixture"
	"github.com/Faultbox/bfres-decoder/pkg/bfres"
)

func buildSample(t *testing.T) *File {
	t.Helper()
	ct, err := bfres.Decode(fixture.Sample())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f, err := Build(ct)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return f
}

func TestBuild(t *testing.T) {
	f := buildSample(t)

	if f.Infos.Name != "sample" || f.Infos.Alignment != 0x2000 {
		t.Errorf("unexpected file infos %+v", f.Infos)
	}
	m := f.Model("tri")
	if m == nil {
		t.Fatal("expected model \"tri\"")
	}
	if m.Infos.TotalVertexCount != 3 {
		t.Errorf("expected 3 vertices, got %d", m.Infos.TotalVertexCount)
	}

	obj := m.Object("tri")
	if obj == nil {
		t.Fatal("expected object named after its shape")
	}
	td.Cmp(t, obj.Infos, ObjectInfos{Name: "tri", Index: 0, SkinCount: 1, VertexCount: 3})
	td.Cmp(t, obj.VertexBuffer["_p0"], &Attribute{
		Format:   "float_32_32_32",
		Vertices: [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	})
	td.Cmp(t, obj.VertexBuffer["_u0"].Vertices, [][]float64{{0, 0}, {1, 0}, {0, 1}})

	if len(obj.LODModels) != 2 {
		t.Fatalf("expected 2 LOD models, got %d", len(obj.LODModels))
	}
	td.Cmp(t, obj.LODModels[0], &LODModel{
		Infos:      LODInfos{PrimitiveType: "GX2_PRIMITIVE_TRIANGLES", IndexFormat: "GX2_INDEX_FORMAT_U16"},
		Primitives: [][][]uint32{{{0, 1, 2}}},
	})

	if len(m.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(m.Materials))
	}
	mat := m.Materials[0]
	td.Cmp(t, mat.Infos, MaterialInfos{Name: "mat", ShaderArchive: "Turbo_UBER", ShaderModel: "turbo_uber_xlu"})
	td.Cmp(t, mat.ShaderOptions, []ShaderOption{{Name: "enable_fog", Value: "1"}})
	td.Cmp(t, mat.TextureSamplers, []Sampler{{Name: "_a0", Struct1: 1, Struct2: 2, Struct3: 3}})
	td.Cmp(t, mat.RenderInfo[0], RenderInfo{Name: "gsys_render_state_mode", Type: "string", Data: []string{"opaque"}})

	td.Cmp(t, len(m.Skeleton.Bones), 2)
	td.Cmp(t, m.Skeleton.Bones[1].Infos.Transform.Translation, [3]float32{1, 0, 0})
}

func TestBuild_JSONKeys(t *testing.T) {
	f := buildSample(t)
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	td.Cmp(t, generic, td.SuperMapOf(map[string]any{
		"infos": td.SuperMapOf(map[string]any{"name": "sample"}, nil),
		"models": td.ArrayEach(td.SuperMapOf(map[string]any{
			"infos":     td.Ignore(),
			"objects":   td.Len(1),
			"materials": td.Len(1),
			"skeleton":  td.Ignore(),
		}, nil)),
	}, nil))
}

func TestBuild_NonFiniteFloatsMarshalAsNull(t *testing.T) {
	f := buildSample(t)
	m := f.Models[0]
	m.Objects[0].VertexBuffer["_p0"].Vertices[1][0] = math.NaN()
	m.Materials[0].Parameters[0].Value = bfres.Tuple{float32(math.Inf(1)), float32(2)}
	m.Materials[0].RenderState.AlphaTestRef = Float(math.NaN())
	m.Skeleton.Bones[0].Infos.Transform.Translation[1] = float32(math.Inf(-1))

	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var generic struct {
		Models []struct {
			Objects []struct {
				VertexBuffer map[string]struct {
					Vertices [][]*float64 `json:"vertices"`
				} `json:"vertex_buffer"`
			} `json:"objects"`
			Materials []struct {
				Parameters []struct {
					Value []*float64 `json:"value"`
				} `json:"parameters"`
				RenderState struct {
					AlphaTestRef *float64 `json:"alpha_test_ref"`
				} `json:"render_state"`
			} `json:"materials"`
			Skeleton struct {
				Bones []struct {
					Infos struct {
						Transform struct {
							Translation []*float64 `json:"translation"`
						} `json:"transform"`
					} `json:"infos"`
				} `json:"bones"`
			} `json:"skeleton"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	gm := generic.Models[0]
	vs := gm.Objects[0].VertexBuffer["_p0"].Vertices
	td.Cmp(t, vs[1][0], td.Nil())
	td.Cmp(t, *vs[1][1], 0.0)
	value := gm.Materials[0].Parameters[0].Value
	td.Cmp(t, value[0], td.Nil())
	td.Cmp(t, *value[1], 2.0)
	td.Cmp(t, gm.Materials[0].RenderState.AlphaTestRef, td.Nil())
	translation := gm.Skeleton.Bones[0].Infos.Transform.Translation
	td.Cmp(t, translation[1], td.Nil())
	td.Cmp(t, *translation[0], 0.0)
}

func TestBuild_DanglingVertexBuffer(t *testing.T) {
	ct, err := bfres.Decode(fixture.Sample())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ct.Models[0].Shapes[0].Header.VertexBufferIndex = 7

	_, err = Build(ct)
	if !errors.Is(err, ErrDanglingIndex) {
		t.Errorf("expected ErrDanglingIndex, got %v", err)
	}
}
