package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrideMarker(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    OverrideMarker
		wantErr bool
	}{
		{
			name:  "base",
			input: "base",
			want:  OverrideBase,
		},
		{
			name:  "new",
			input: "new",
			want:  OverrideNew,
		},
		{
			name:  "sealed",
			input: "sealed",
			want:  OverrideSealed,
		},
		{
			name:  "empty string defaults to base",
			input: "",
			want:  OverrideBase,
		},
		{
			name:    "unknown marker",
			input:   "frozen",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOverrideMarker(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestOverrideMarkerStates(t *testing.T) {
	assert.True(t, OverrideBase.IsDefault())
	assert.True(t, OverrideMarker("").IsDefault())
	assert.False(t, OverrideNew.IsDefault())
	assert.False(t, OverrideSealed.IsDefault())

	assert.True(t, OverrideNew.IsOverridden())
	assert.True(t, OverrideSealed.IsOverridden())
	assert.False(t, OverrideBase.IsOverridden())

	assert.Equal(t, "base", OverrideMarker("").String())
	assert.Equal(t, "sealed", OverrideSealed.String())
}
