package valueobjects

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID(t *testing.T) {
	id := NewNodeID()

	assert.NotEmpty(t, id.String())
	assert.False(t, id.IsZero())

	// Should be a valid UUID
	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
}

func TestNewNodeIDFromString(t *testing.T) {
	validUUID := uuid.New().String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid UUID string",
			input:   validUUID,
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
			errMsg:  "node ID cannot be empty",
		},
		{
			name:    "invalid UUID format",
			input:   "not-a-uuid",
			wantErr: true,
			errMsg:  "node ID must be a valid UUID",
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
			errMsg:  "node ID cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeIDFromString(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.True(t, id.IsZero())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, id.String())
				assert.False(t, id.IsZero())
			}
		})
	}
}

func TestNodeID_Equals(t *testing.T) {
	id1 := NewNodeID()
	id2 := NewNodeID()
	id1Copy, _ := NewNodeIDFromString(id1.String())

	tests := []struct {
		name     string
		id       NodeID
		other    NodeID
		expected bool
	}{
		{
			name:     "same ID via copy",
			id:       id1,
			other:    id1Copy,
			expected: true,
		},
		{
			name:     "same ID reference",
			id:       id1,
			other:    id1,
			expected: true,
		},
		{
			name:     "different IDs",
			id:       id1,
			other:    id2,
			expected: false,
		},
		{
			name:     "both zero values",
			id:       NodeID{},
			other:    NodeID{},
			expected: true,
		},
		{
			name:     "one zero value",
			id:       id1,
			other:    NodeID{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.id.Equals(tt.other)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNodeID_MarshalUnmarshalRoundTrip(t *testing.T) {
	originalID := NewNodeID()

	data, err := originalID.MarshalJSON()
	require.NoError(t, err)

	var newID NodeID
	err = newID.UnmarshalJSON(data)
	require.NoError(t, err)

	assert.True(t, originalID.Equals(newID))
	assert.Equal(t, originalID.String(), newID.String())
}

func TestNewItemID(t *testing.T) {
	id := NewItemID()

	assert.NotEmpty(t, id.String())
	assert.False(t, id.IsZero())

	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
}

func TestNewItemIDFromString(t *testing.T) {
	validUUID := uuid.New().String()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid UUID string",
			input:   validUUID,
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
			errMsg:  "item ID cannot be empty",
		},
		{
			name:    "invalid UUID format",
			input:   "not-a-uuid",
			wantErr: true,
			errMsg:  "item ID must be a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewItemIDFromString(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.True(t, id.IsZero())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, id.String())
				assert.False(t, id.IsZero())
			}
		})
	}
}

func TestItemID_Equals(t *testing.T) {
	id1 := NewItemID()
	id2 := NewItemID()
	id1Copy, _ := NewItemIDFromString(id1.String())

	assert.True(t, id1.Equals(id1Copy))
	assert.True(t, id1.Equals(id1))
	assert.False(t, id1.Equals(id2))
	assert.True(t, ItemID{}.Equals(ItemID{}))
	assert.False(t, id1.Equals(ItemID{}))
}

// Benchmarks
func BenchmarkNewItemID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewItemID()
	}
}

func BenchmarkItemID_Equals(b *testing.B) {
	id1 := NewItemID()
	id2 := NewItemID()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = id1.Equals(id2)
	}
}
