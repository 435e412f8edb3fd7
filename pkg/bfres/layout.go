package bfres

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a primitive field type used to describe a binary layout.
type Kind uint8

const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF16
	KindF32
	KindF64
)

// Size returns the encoded width of the kind in bytes.
func (k Kind) Size() int {
	switch k {
	case KindU8, KindI8:
		return 1
	case KindU16, KindI16, KindF16:
		return 2
	case KindU32, KindI32, KindF32:
		return 4
	default:
		return 8
	}
}

// String returns the kind name.
func (k Kind) String() string {
	names := [...]string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f16", "f32", "f64"}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Layout is an ordered list of primitive fields.
type Layout []Kind

// Repeat returns a layout made of n copies of k.
func Repeat(k Kind, n int) Layout {
	l := make(Layout, n)
	for i := range l {
		l[i] = k
	}
	return l
}

// Size returns the total encoded width of the layout.
func (l Layout) Size() int {
	n := 0
	for _, k := range l {
		n += k.Size()
	}
	return n
}

// Tuple holds the values read for a Layout. Elements have the Go type
// matching their Kind (uint32 for KindU32, float32 for KindF32 and so on).
type Tuple []any

// Float64s converts every numeric element to float64.
func (t Tuple) Float64s() []float64 {
	out := make([]float64, len(t))
	for i, v := range t {
		switch x := v.(type) {
		case uint8:
			out[i] = float64(x)
		case uint16:
			out[i] = float64(x)
		case uint32:
			out[i] = float64(x)
		case uint64:
			out[i] = float64(x)
		case int8:
			out[i] = float64(x)
		case int16:
			out[i] = float64(x)
		case int32:
			out[i] = float64(x)
		case int64:
			out[i] = float64(x)
		case float32:
			out[i] = float64(x)
		case float64:
			out[i] = x
		}
	}
	return out
}

// Tuple reads one value per field of the layout, in order.
func (c *Cursor) Tuple(l Layout) Tuple {
	t := make(Tuple, len(l))
	for i, k := range l {
		switch k {
		case KindU8:
			t[i] = c.U8()
		case KindU16:
			t[i] = c.U16()
		case KindU32:
			t[i] = c.U32()
		case KindU64:
			t[i] = c.U64()
		case KindI8:
			t[i] = c.I8()
		case KindI16:
			t[i] = c.I16()
		case KindI32:
			t[i] = c.I32()
		case KindI64:
			t[i] = c.I64()
		case KindF16:
			t[i] = c.F16()
		case KindF32:
			t[i] = c.F32()
		case KindF64:
			t[i] = c.F64()
		default:
			c.fail(errors.Wrapf(ErrUnsupportedFormat, "layout kind %d", k))
			return nil
		}
	}
	return t
}
