package bfres

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/Faultbox/bfres-decoder/internal/fixture"
)

func TestReadDict_Null(t *testing.T) {
	d, err := ReadDict(nil, NullOffset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || len(d) != 0 {
		t.Errorf("expected empty dictionary, got %v", d)
	}
}

func TestReadDict_EmptyStaysInPreamble(t *testing.T) {
	// Tag and a zero count, then the buffer ends. The rest of the preamble
	// is skipped, never read.
	buf := []byte{0, 0, 0, 0, 0xAA, 0xBB, 0, 0, 0, 0, 0, 0}
	d, err := ReadDict(buf, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d) != 0 {
		t.Errorf("expected 0 entries, got %d", len(d))
	}
	if 4+dictPreamble != 32 {
		t.Errorf("expected tag plus preamble to be 32 bytes, got %d", 4+dictPreamble)
	}
}

func TestReadDict_NegativeCount(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := ReadDict(buf, 4)
	if !errors.Is(err, ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}

func TestReadDict_CountPastEnd(t *testing.T) {
	tests := []struct {
		name  string
		count uint32
	}{
		{"one entry", 1},
		{"huge", 0x08000000},
		{"max int32", 0x7FFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// room for the preamble and half an entry
			buf := make([]byte, 4+dictPreamble+8)
			binary.BigEndian.PutUint32(buf[8:], tt.count)
			_, err := ReadDict(buf, 4)
			if !errors.Is(err, ErrTruncatedBuffer) {
				t.Errorf("expected ErrTruncatedBuffer, got %v", err)
			}
		})
	}
}

func TestReadDict_Entries(t *testing.T) {
	b := fixture.New()
	b.Pad(4)
	b.Dict("dict", fixture.Entry{Name: "first", Data: "a"}, fixture.Entry{Name: "second", Data: "b"})
	b.Pad(4)
	b.Label("a").U32(1)
	b.Label("b").U32(2)
	buf := b.Bytes()

	d, err := ReadDict(buf, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td.Cmp(t, d.Names(), []string{"first", "second"})

	off, ok := d.Lookup("second")
	if !ok {
		t.Fatal("expected to find entry \"second\"")
	}
	if got := NewCursor(buf, off).U32(); got != 2 {
		t.Errorf("expected entry data 2, got %d", got)
	}
	if _, ok := d.Lookup("missing"); ok {
		t.Error("expected lookup of missing name to fail")
	}
	if d.Name(1) != "second" || d.Name(2) != "" {
		t.Errorf("unexpected Name results %q %q", d.Name(1), d.Name(2))
	}
}
