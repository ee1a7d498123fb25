package events

// Event types - These define the types of events in the system
const (
	// Content events
	TypeContentChanged = "content.changed"

	// Base propagation events
	TypeBaseApplied = "content.base.applied"

	// Document events
	TypeDocumentOpened   = "document.opened"
	TypeDocumentRelinked = "document.relinked"
	TypeDocumentDisposed = "document.disposed"
)

// ChangeKind classifies a content mutation. Dictionary key add/remove is
// modeled as collection add/remove on the dictionary's entries.
type ChangeKind string

const (
	KindValueChange      ChangeKind = "value.change"
	KindCollectionAdd    ChangeKind = "collection.add"
	KindCollectionRemove ChangeKind = "collection.remove"
)
