package events

import (
	"time"

	"assetgraph/domain/core/valueobjects"
)

// ContentChanged is the enriched event published after every local content
// mutation. It packages the change kind, the affected entry, and the
// override transition observed around the mutation.
type ContentChanged struct {
	BaseEvent
	NodeID      string                      `json:"nodeId"`
	Kind        ChangeKind                  `json:"kind"`
	Index       valueobjects.Index          `json:"-"`
	OldOverride valueobjects.OverrideMarker `json:"oldOverride"`
	NewOverride valueobjects.OverrideMarker `json:"newOverride"`
	ItemID      valueobjects.ItemID         `json:"itemId"`
}

// NewContentChanged creates a new content changed event
func NewContentChanged(
	documentID string,
	nodeID valueobjects.NodeID,
	kind ChangeKind,
	index valueobjects.Index,
	oldOverride, newOverride valueobjects.OverrideMarker,
	itemID valueobjects.ItemID,
) ContentChanged {
	return ContentChanged{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeContentChanged,
			Timestamp:   time.Now(),
			Version:     1,
		},
		NodeID:      nodeID.String(),
		Kind:        kind,
		Index:       index,
		OldOverride: oldOverride,
		NewOverride: newOverride,
		ItemID:      itemID,
	}
}

// BaseApplied signals that a base-side edit has been propagated into the
// derived graph by a reconciliation pass rooted at NodeID
type BaseApplied struct {
	BaseEvent
	NodeID string `json:"nodeId"`
}

// NewBaseApplied creates a new base applied event
func NewBaseApplied(documentID string, nodeID valueobjects.NodeID) BaseApplied {
	return BaseApplied{
		BaseEvent: BaseEvent{
			AggregateID: documentID,
			EventType:   TypeBaseApplied,
			Timestamp:   time.Now(),
			Version:     1,
		},
		NodeID: nodeID.String(),
	}
}
