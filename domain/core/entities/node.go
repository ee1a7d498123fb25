package entities

import (
	"assetgraph/domain/core/valueobjects"
	"assetgraph/domain/events"
	pkgerrors "assetgraph/pkg/errors"
)

// ContentKind discriminates the closed set of content variants a node can
// wrap. Dispatch on content is always an explicit switch on this kind.
type ContentKind string

const (
	// KindValue wraps a scalar payload or a reference value object
	KindValue ContentKind = "value"

	// KindObject wraps named members; a plain composite wrapper that never
	// reconciles at its own level
	KindObject ContentKind = "object"

	// KindCollection wraps ordered items
	KindCollection ContentKind = "collection"

	// KindDictionary wraps key-value entries, ordered by insertion
	KindDictionary ContentKind = "dictionary"
)

// member is a named child of an object node
type member struct {
	name string
	node *Node
}

// Node is a content node in a document graph. It wraps exactly one content
// variant and owns its children; it never outlives the document that owns
// it. Override and identity state is attached directly to the node and its
// items rather than held in identity-keyed side tables.
type Node struct {
	id   valueobjects.NodeID
	kind ContentKind

	value   interface{}
	members []*member
	items   []*Item

	override valueobjects.OverrideMarker

	// base is the non-owning link to the corresponding node in the base
	// document; nil when the node has no base
	base *Node

	// tombstones remembers locally deleted item identifiers until
	// reconciliation determines the base entry itself is gone
	tombstones map[valueobjects.ItemID]struct{}

	// identityTracked is false for collections that carry no per-item
	// identity; such content gets no item-level override or reconciliation
	identityTracked bool

	parent     *Node
	memberName string
	parentItem *Item

	observers *ObserverList
}

// NewValueNode creates a node wrapping a scalar value
func NewValueNode(value interface{}) *Node {
	return &Node{
		id:       valueobjects.NewNodeID(),
		kind:     KindValue,
		value:    value,
		override: valueobjects.OverrideBase,
	}
}

// NewObjectNode creates a node wrapping named members
func NewObjectNode() *Node {
	return &Node{
		id:       valueobjects.NewNodeID(),
		kind:     KindObject,
		override: valueobjects.OverrideBase,
	}
}

// NewCollectionNode creates an identity-tracked ordered collection node
func NewCollectionNode() *Node {
	return &Node{
		id:              valueobjects.NewNodeID(),
		kind:            KindCollection,
		override:        valueobjects.OverrideBase,
		tombstones:      make(map[valueobjects.ItemID]struct{}),
		identityTracked: true,
	}
}

// NewUntrackedCollectionNode creates a collection node without per-item
// identity. Item-level overrides and item reconciliation are disabled for
// such content.
func NewUntrackedCollectionNode() *Node {
	return &Node{
		id:       valueobjects.NewNodeID(),
		kind:     KindCollection,
		override: valueobjects.OverrideBase,
	}
}

// NewDictionaryNode creates an identity-tracked dictionary node
func NewDictionaryNode() *Node {
	return &Node{
		id:              valueobjects.NewNodeID(),
		kind:            KindDictionary,
		override:        valueobjects.OverrideBase,
		tombstones:      make(map[valueobjects.ItemID]struct{}),
		identityTracked: true,
	}
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Kind returns the content kind
func (n *Node) Kind() ContentKind {
	return n.kind
}

// Value returns the scalar payload of a value node
func (n *Node) Value() interface{} {
	return n.value
}

// Override returns the override marker of the node's own content
func (n *Node) Override() valueobjects.OverrideMarker {
	return n.override
}

// SetOverride sets the override marker of the node's own content
func (n *Node) SetOverride(m valueobjects.OverrideMarker) {
	n.override = m
}

// Base returns the corresponding node in the base document, or nil
func (n *Node) Base() *Node {
	return n.base
}

// HasBase reports whether the node derives from a base node
func (n *Node) HasBase() bool {
	return n.base != nil
}

// SetBase attaches or clears the base link
func (n *Node) SetBase(base *Node) {
	n.base = base
}

// Parent returns the owning node, nil at the root
func (n *Node) Parent() *Node {
	return n.parent
}

// MemberName returns the name under which the node hangs off an object
// parent; empty otherwise
func (n *Node) MemberName() string {
	return n.memberName
}

// ParentItem returns the collection/dictionary entry holding this node as
// its value, or nil when the node is not an entry value
func (n *Node) ParentItem() *Item {
	return n.parentItem
}

// MemberNames returns the member names of an object node in declaration order
func (n *Node) MemberNames() []string {
	names := make([]string, 0, len(n.members))
	for _, m := range n.members {
		names = append(names, m.name)
	}
	return names
}

// Member returns the named member's node, or nil
func (n *Node) Member(name string) *Node {
	for _, m := range n.members {
		if m.name == name {
			return m.node
		}
	}
	return nil
}

// AddMember attaches a named child to an object node
func (n *Node) AddMember(name string, child *Node) error {
	if n.kind != KindObject {
		return pkgerrors.NewValidation("members can only be added to object content")
	}
	if name == "" {
		return pkgerrors.NewValidation("member name cannot be empty")
	}
	if child == nil {
		return pkgerrors.NewValidation("member node cannot be nil")
	}
	if n.Member(name) != nil {
		return pkgerrors.NewValidation("member already exists: " + name)
	}
	child.parent = n
	child.memberName = name
	child.attach(n.observers)
	n.members = append(n.members, &member{name: name, node: child})
	return nil
}

// SetValue replaces the scalar payload of a value node, firing the full
// change protocol around the mutation
func (n *Node) SetValue(value interface{}) error {
	if n.kind != KindValue {
		return pkgerrors.NewValidation("SetValue requires value content")
	}
	c := &Change{
		Kind:     events.KindValueChange,
		Index:    valueobjects.InvalidIndex(),
		OldValue: n.value,
		NewValue: value,
	}
	n.fire(c, func() {
		n.value = value
	})
	return nil
}

// Observers exposes the owning observer registry; nil until the node is
// attached to a document
func (n *Node) Observers() *ObserverList {
	return n.observers
}

// Attach wires an observer registry into the subtree rooted at n. Intended
// for the aggregate that owns the graph.
func (n *Node) Attach(observers *ObserverList) {
	n.attach(observers)
}

// attach wires the document's observer registry into this node and every
// node below it
func (n *Node) attach(observers *ObserverList) {
	n.observers = observers
	for _, m := range n.members {
		m.node.attach(observers)
	}
	for _, it := range n.items {
		it.node.attach(observers)
	}
}

// fire runs one logical edit through the four-phase change protocol. All
// phases complete synchronously before fire returns.
func (n *Node) fire(c *Change, mutate func()) {
	if n.observers == nil {
		mutate()
		return
	}
	n.observers.notifyPrepare(n, c)
	n.observers.notifyChanging(n, c)
	mutate()
	n.observers.notifyChanged(n, c)
	n.observers.notifyFinalize(n, c)
}
