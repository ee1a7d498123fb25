package valueobjects

import (
	"encoding/json"
	"strings"

	pkgerrors "assetgraph/pkg/errors"
	"github.com/google/uuid"
)

// NodeID is a value object representing a unique node identifier
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string with validation
func NewNodeIDFromString(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NodeID{}, pkgerrors.NewValidation("node ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return NodeID{}, pkgerrors.NewValidation("node ID must be a valid UUID")
	}
	return NodeID{value: s}, nil
}

// String returns the string representation
func (id NodeID) String() string {
	return id.value
}

// IsZero checks if the ID is empty
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewNodeIDFromString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ItemID is a stable, content-independent identifier for a collection or
// dictionary entry. It is assigned at entry creation time, survives
// reordering, and is the token reconciliation uses to correlate entries
// across independent edit histories.
type ItemID struct {
	value string
}

// NewItemID creates a new random ItemID
func NewItemID() ItemID {
	return ItemID{value: uuid.New().String()}
}

// NewItemIDFromString creates an ItemID from an existing string with validation
func NewItemIDFromString(s string) (ItemID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ItemID{}, pkgerrors.NewValidation("item ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return ItemID{}, pkgerrors.NewValidation("item ID must be a valid UUID")
	}
	return ItemID{value: s}, nil
}

// String returns the string representation
func (id ItemID) String() string {
	return id.value
}

// IsZero checks if the ID is empty
func (id ItemID) IsZero() bool {
	return id.value == ""
}

// Equals checks if two ItemIDs are equal
func (id ItemID) Equals(other ItemID) bool {
	return id.value == other.value
}

// MarshalJSON implements json.Marshaler
func (id ItemID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ItemID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewItemIDFromString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
