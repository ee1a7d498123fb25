package valueobjects

import (
	"strconv"
)

// Index addresses an entry within collection or dictionary content. It is
// either positional (collection) or keyed (dictionary). The zero value is
// not a valid index; use InvalidIndex() to represent the absence of one.
type Index struct {
	pos   int
	key   string
	keyed bool
	valid bool
}

// NewIndex creates a positional index
func NewIndex(pos int) Index {
	return Index{pos: pos, valid: true}
}

// NewKeyIndex creates a keyed index for dictionary content
func NewKeyIndex(key string) Index {
	return Index{pos: -1, key: key, keyed: true, valid: true}
}

// InvalidIndex returns the sentinel index used where no entry is addressed
func InvalidIndex() Index {
	return Index{pos: -1}
}

// IsValid reports whether the index addresses an entry at all
func (i Index) IsValid() bool {
	return i.valid
}

// IsKeyed reports whether the index addresses a dictionary entry by key
func (i Index) IsKeyed() bool {
	return i.keyed
}

// Position returns the positional value; -1 for keyed or invalid indices
func (i Index) Position() int {
	if i.keyed || !i.valid {
		return -1
	}
	return i.pos
}

// Key returns the dictionary key; empty for positional or invalid indices
func (i Index) Key() string {
	if !i.keyed {
		return ""
	}
	return i.key
}

// Equals checks if two indices address the same entry
func (i Index) Equals(other Index) bool {
	return i == other
}

// String returns a human-readable representation
func (i Index) String() string {
	if !i.valid {
		return "(none)"
	}
	if i.keyed {
		return i.key
	}
	return strconv.Itoa(i.pos)
}
