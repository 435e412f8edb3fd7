package bfres

import "github.com/pkg/errors"

// dictPreamble is the entry count and root node bookkeeping after the tag.
const dictPreamble = 28

// dictEntrySize is one name reference, one data reference and 8 bytes of
// search tree links.
const dictEntrySize = 16

// DictEntry maps a record name to the absolute offset of its data.
type DictEntry struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
}

// Dict is a name dictionary enumerated in stored order.
//
// The on-disk structure is a search tree; nothing here walks it. Entries are
// read linearly, and Lookup is a linear scan.
type Dict []DictEntry

// ReadDict decodes the dictionary at off. The null offset yields an empty Dict.
func ReadDict(buf []byte, off int) (Dict, error) {
	if off == NullOffset {
		return Dict{}, nil
	}
	c := NewCursor(buf, off)
	c.Skip(4)
	count := c.I32()
	c.Skip(dictPreamble - 4)
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "dictionary at 0x%x", off)
	}
	if count < 0 {
		return nil, errors.Wrapf(ErrInvalidCount, "dictionary at 0x%x has %d entries", off, count)
	}
	if count > 0 && int64(count)*dictEntrySize > int64(len(buf)-c.Pos()) {
		return nil, errors.Wrapf(ErrTruncatedBuffer, "dictionary at 0x%x: %d entries past end of buffer", off, count)
	}

	d := make(Dict, 0, count)
	for i := int32(0); i < count; i++ {
		name := c.StringRef()
		data := c.Offset()
		c.Skip(8)
		if err := c.Err(); err != nil {
			return nil, errors.Wrapf(err, "dictionary at 0x%x, entry %d", off, i)
		}
		d = append(d, DictEntry{Name: name, Offset: data})
	}
	return d, nil
}

// Lookup returns the data offset stored under name.
func (d Dict) Lookup(name string) (int, bool) {
	for _, e := range d {
		if e.Name == name {
			return e.Offset, true
		}
	}
	return NullOffset, false
}

// Names returns the entry names in stored order.
func (d Dict) Names() []string {
	names := make([]string, len(d))
	for i, e := range d {
		names[i] = e.Name
	}
	return names
}

// Name returns the name of entry i, or "" when i is out of range.
func (d Dict) Name(i int) string {
	if i < 0 || i >= len(d) {
		return ""
	}
	return d[i].Name
}
