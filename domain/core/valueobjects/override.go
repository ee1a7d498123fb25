package valueobjects

import (
	pkgerrors "assetgraph/pkg/errors"
)

// OverrideMarker is a tri-state value object recording whether content is
// inherited from the base document, locally introduced, or frozen
type OverrideMarker string

const (
	// OverrideBase marks content inherited from the base unchanged
	OverrideBase OverrideMarker = "base"

	// OverrideNew marks content introduced or modified locally
	OverrideNew OverrideMarker = "new"

	// OverrideSealed marks content explicitly frozen against base edits
	OverrideSealed OverrideMarker = "sealed"
)

// ParseOverrideMarker validates and converts a string to an OverrideMarker
func ParseOverrideMarker(s string) (OverrideMarker, error) {
	switch OverrideMarker(s) {
	case OverrideBase, OverrideNew, OverrideSealed:
		return OverrideMarker(s), nil
	case "":
		return OverrideBase, nil
	default:
		return OverrideBase, pkgerrors.NewValidation("unknown override marker: " + s)
	}
}

// String returns the string representation
func (m OverrideMarker) String() string {
	if m == "" {
		return string(OverrideBase)
	}
	return string(m)
}

// IsDefault reports whether the marker is the inherited default state.
// Reconciliation only touches content in the default state.
func (m OverrideMarker) IsDefault() bool {
	return m == OverrideBase || m == ""
}

// IsOverridden reports whether the marker records a local override
func (m OverrideMarker) IsOverridden() bool {
	return m == OverrideNew || m == OverrideSealed
}
