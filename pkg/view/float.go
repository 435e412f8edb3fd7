package view

import (
	"encoding/json"
	"math"

	"github.com/Faultbox/bfres-decoder/pkg/bfres"
)

// Float is a decoded value that marshals NaN and infinities as null, which
// JSON cannot represent.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func floats[T float32 | float64](vs []T) []Float {
	out := make([]Float, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}

// jsonTuple replaces the float elements of t with Float.
func jsonTuple(t bfres.Tuple) []any {
	out := make([]any, len(t))
	for i, v := range t {
		switch x := v.(type) {
		case float32:
			out[i] = Float(x)
		case float64:
			out[i] = Float(x)
		default:
			out[i] = v
		}
	}
	return out
}

// MarshalJSON writes the vertices with non-finite values as null.
func (a Attribute) MarshalJSON() ([]byte, error) {
	vs := make([][]Float, len(a.Vertices))
	for i, v := range a.Vertices {
		vs[i] = floats(v)
	}
	return json.Marshal(struct {
		Format   string    `json:"format"`
		Vertices [][]Float `json:"vertices"`
	}{a.Format, vs})
}

// MarshalJSON writes the value with non-finite floats as null.
func (p Parameter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Value []any  `json:"value"`
	}{p.Name, p.Type, jsonTuple(p.Value)})
}

// MarshalJSON writes the vectors with non-finite values as null.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Scale       []Float `json:"scale"`
		Rotation    []Float `json:"rotation"`
		Translation []Float `json:"translation"`
	}{floats(t.Scale[:]), floats(t.Rotation[:]), floats(t.Translation[:])})
}
