package bfres

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Magic is the container signature.
const Magic = "FRES"

// Number of top-level dictionaries in a container header. Only the first
// one (models) is decoded into sections.
const (
	DictCount = 12
	DictModel = 0
)

// Header is the FRES container header.
type Header struct {
	Magic             string            `json:"magic"`
	Version           [4]uint8          `json:"version"`
	BOM               uint16            `json:"bom"`
	HeaderLength      uint16            `json:"header_length"`
	FileSize          uint32            `json:"file_size"`
	Alignment         uint32            `json:"file_alignment"`
	Name              string            `json:"name"`
	StringTableLength int32             `json:"string_table_length"`
	StringTableOffset int               `json:"string_table_offset"`
	Dicts             [DictCount]Dict   `json:"file_offsets"`
	Counts            [DictCount]uint16 `json:"file_counts"`
	UserPointer       uint32            `json:"user_pointer"`
}

// VersionString formats the version bytes as dotted numbers.
func (h *Header) VersionString() string {
	v := h.Version
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}

// Container is a fully decoded BFRES file.
type Container struct {
	Header Header   `json:"header"`
	Models []*Model `json:"fmdl"`
}

// Model returns the model with the given name, or nil.
func (c *Container) Model(name string) *Model {
	for _, m := range c.Models {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Option configures Decode.
type Option func(*decoder)

// WithLogger makes Decode trace section progress on log.
func WithLogger(log *zap.Logger) Option {
	return func(d *decoder) {
		if log != nil {
			d.log = log
		}
	}
}

type decoder struct {
	buf     []byte
	version [4]uint8
	log     *zap.Logger
}

// Decode parses a decompressed BFRES buffer. Any failure aborts the whole
// decode; the returned error wraps one of the package's error kinds.
func Decode(buf []byte, opts ...Option) (*Container, error) {
	d := &decoder{buf: buf, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	h, err := d.decodeHeader()
	if err != nil {
		return nil, err
	}
	d.version = h.Version
	d.log.Debug("decoded container header",
		zap.String("name", h.Name),
		zap.String("version", h.VersionString()),
		zap.Int("models", len(h.Dicts[DictModel])))

	ct := &Container{Header: *h, Models: make([]*Model, 0, len(h.Dicts[DictModel]))}
	for _, e := range h.Dicts[DictModel] {
		m, err := d.decodeModel(e.Offset)
		if err != nil {
			return nil, errors.Wrapf(err, "model %q", e.Name)
		}
		ct.Models = append(ct.Models, m)
	}
	return ct, nil
}

func (d *decoder) decodeHeader() (*Header, error) {
	c := NewCursor(d.buf, 0)
	h := &Header{Magic: c.Chars(4)}
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "container header")
	}
	if h.Magic != Magic {
		return nil, errors.Wrapf(ErrInvalidMagic, "got %q, want %q", h.Magic, Magic)
	}
	for i := range h.Version {
		h.Version[i] = c.U8()
	}
	h.BOM = c.U16()
	h.HeaderLength = c.U16()
	h.FileSize = c.U32()
	h.Alignment = c.U32()
	h.Name = c.StringRef()
	h.StringTableLength = c.I32()
	h.StringTableOffset = c.Offset()

	var dictOffsets [DictCount]int
	for i := range dictOffsets {
		dictOffsets[i] = c.Offset()
	}
	for i := range h.Counts {
		h.Counts[i] = c.U16()
	}
	h.UserPointer = c.U32()
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "container header")
	}

	for i, off := range dictOffsets {
		dict, err := ReadDict(d.buf, off)
		if err != nil {
			return nil, errors.Wrapf(err, "container dictionary %d", i)
		}
		h.Dicts[i] = dict
	}
	return h, nil
}
