package bfres

import "github.com/pkg/errors"

// Decode error kinds. Every failure returned by this package wraps one of
// these and can be matched with errors.Is.
var (
	ErrUnsupportedFormat        = errors.New("unsupported format code")
	ErrMalformedOffset          = errors.New("offset outside buffer")
	ErrTruncatedBuffer          = errors.New("read past end of buffer")
	ErrUnknownPrimitiveTopology = errors.New("unknown primitive topology")
	ErrUnknownIndexFormat       = errors.New("unknown index format")
	ErrInvalidMagic             = errors.New("invalid magic")
	ErrInvalidCount             = errors.New("invalid element count")
)
