package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex(t *testing.T) {
	tests := []struct {
		name     string
		index    Index
		valid    bool
		keyed    bool
		position int
		key      string
		str      string
	}{
		{
			name:     "positional index",
			index:    NewIndex(3),
			valid:    true,
			keyed:    false,
			position: 3,
			key:      "",
			str:      "3",
		},
		{
			name:     "keyed index",
			index:    NewKeyIndex("health"),
			valid:    true,
			keyed:    true,
			position: -1,
			key:      "health",
			str:      "health",
		},
		{
			name:     "invalid index",
			index:    InvalidIndex(),
			valid:    false,
			keyed:    false,
			position: -1,
			key:      "",
			str:      "(none)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.index.IsValid())
			assert.Equal(t, tt.keyed, tt.index.IsKeyed())
			assert.Equal(t, tt.position, tt.index.Position())
			assert.Equal(t, tt.key, tt.index.Key())
			assert.Equal(t, tt.str, tt.index.String())
		})
	}
}

func TestIndexEquals(t *testing.T) {
	assert.True(t, NewIndex(2).Equals(NewIndex(2)))
	assert.False(t, NewIndex(2).Equals(NewIndex(3)))
	assert.True(t, NewKeyIndex("a").Equals(NewKeyIndex("a")))
	assert.False(t, NewKeyIndex("a").Equals(NewKeyIndex("b")))
	assert.False(t, NewIndex(0).Equals(NewKeyIndex("0")))
	assert.False(t, NewIndex(-1).Equals(InvalidIndex()))
}
