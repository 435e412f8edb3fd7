package bfres

import (
	"errors"
	"testing"

	"github.com/Faultbox/bfres-decoder/internal/fixture"
)

func TestParamPadding(t *testing.T) {
	tests := []struct {
		version [4]uint8
		want    int
	}{
		{[4]uint8{3, 4, 0, 0}, 12},
		{[4]uint8{3, 5, 1, 0}, 12},
		{[4]uint8{3, 3, 5, 0}, 16},
		{[4]uint8{3, 3, 0, 0}, 16},
		{[4]uint8{3, 2, 0, 0}, 0},
		{[4]uint8{2, 9, 9, 9}, 0},
	}

	for _, tt := range tests {
		if got := paramPadding(tt.version); got != tt.want {
			t.Errorf("version %v (composite %d): expected %d, got %d",
				tt.version, versionNumber(tt.version), tt.want, got)
		}
	}
}

// buildParam writes one float parameter record whose name sits right after
// the given amount of padding.
func buildParam(padding int) []byte {
	b := fixture.New()
	b.Pad(4)
	b.Label("param").U8(uint8(ParamFloat)).U8(4).U16(0).Pad(padding).Str("gamma")
	b.Pad(4)
	b.Label("data").F32(2.2)
	return b.Bytes()
}

func TestDecodeMaterialParam_VersionGating(t *testing.T) {
	tests := []struct {
		version [4]uint8
		padding int
	}{
		{[4]uint8{3, 4, 0, 0}, 12},
		{[4]uint8{3, 3, 5, 0}, 16},
		{[4]uint8{3, 2, 0, 0}, 0},
	}

	for _, tt := range tests {
		buf := buildParam(tt.padding)
		// Parameter data begins right after the record, its name field and
		// four pad bytes.
		dataBase := 4 + 4 + tt.padding + 4 + 4

		p, err := decodeMaterialParam(NewCursor(buf, 4), dataBase, tt.version)
		if err != nil {
			t.Fatalf("version %v: %v", tt.version, err)
		}
		if p.VariableName != "gamma" {
			t.Errorf("version %v: expected name %q, got %q", tt.version, "gamma", p.VariableName)
		}
		if len(p.Value) != 1 || p.Value[0] != float32(2.2) {
			t.Errorf("version %v: expected value [2.2], got %v", tt.version, p.Value)
		}
	}
}

func TestDecodeMaterialParam_WrongPaddingMisreadsName(t *testing.T) {
	buf := buildParam(16)
	p, err := decodeMaterialParam(NewCursor(buf, 4), 4+4+16+8, [4]uint8{3, 4, 0, 0})
	if err == nil && p.VariableName == "gamma" {
		t.Error("expected 12 byte padding to miss a name written after 16 bytes")
	}
}

func TestParamType_Layout(t *testing.T) {
	tests := []struct {
		typ  ParamType
		size int
	}{
		{ParamBool, 4},
		{ParamInt3, 12},
		{ParamFloat4, 16},
		{ParamFloat2x3, 24},
		{ParamFloat4x4, 64},
		{ParamSRT2D, 20},
		{ParamSRT3D, 36},
		{ParamTexSRT, 24},
		{ParamTexSRTEx, 48},
	}
	for _, tt := range tests {
		l, err := tt.typ.Layout()
		if err != nil {
			t.Errorf("%v: unexpected error %v", tt.typ, err)
			continue
		}
		if l.Size() != tt.size {
			t.Errorf("%v: expected %d bytes, got %d", tt.typ, tt.size, l.Size())
		}
	}

	for _, code := range []ParamType{16, 20, 24, 32, 200} {
		if _, err := code.Layout(); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("type %d: expected ErrUnsupportedFormat, got %v", code, err)
		}
	}
}
