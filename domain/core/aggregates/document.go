package aggregates

import (
	"time"

	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	"assetgraph/domain/events"
	pkgerrors "assetgraph/pkg/errors"
	"github.com/google/uuid"
)

// DocumentID represents a unique document identifier
type DocumentID string

// NewDocumentID creates a new random DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// String returns the string representation
func (id DocumentID) String() string {
	return string(id)
}

// Document is the aggregate root for one asset document: it owns the
// content node tree, the observer registry every mutation is announced
// through, and the document-level bookkeeping.
type Document struct {
	id        DocumentID
	name      string
	root      *entities.Node
	observers *entities.ObserverList
	createdAt time.Time
	updatedAt time.Time
	version   int
	events    []events.DomainEvent
}

// docClock bumps document bookkeeping on every content mutation
type docClock struct {
	doc *Document
}

func (c *docClock) OnPrepare(n *entities.Node, ch *entities.Change)  {}
func (c *docClock) OnChanging(n *entities.Node, ch *entities.Change) {}
func (c *docClock) OnChanged(n *entities.Node, ch *entities.Change) {
	c.doc.updatedAt = time.Now()
	c.doc.version++
}
func (c *docClock) OnFinalize(n *entities.Node, ch *entities.Change) {}

// NewDocument creates a document aggregate owning the given root node
func NewDocument(name string, root *entities.Node) (*Document, error) {
	if name == "" {
		return nil, pkgerrors.NewValidation("document name is required")
	}
	if root == nil {
		return nil, pkgerrors.NewValidation("document root is required")
	}

	now := time.Now()
	doc := &Document{
		id:        NewDocumentID(),
		name:      name,
		root:      root,
		observers: entities.NewObserverList(),
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}
	doc.observers.Subscribe(&docClock{doc: doc})
	root.Attach(doc.observers)

	doc.addEvent(events.BaseEvent{
		AggregateID: doc.id.String(),
		EventType:   events.TypeDocumentOpened,
		Timestamp:   now,
		Version:     1,
	})

	return doc, nil
}

// ID returns the document identifier
func (d *Document) ID() DocumentID {
	return d.id
}

// Name returns the document name
func (d *Document) Name() string {
	return d.name
}

// Root returns the root content node
func (d *Document) Root() *entities.Node {
	return d.root
}

// Version returns the document version, bumped on every content mutation
func (d *Document) Version() int {
	return d.version
}

// CreatedAt returns the creation time
func (d *Document) CreatedAt() time.Time {
	return d.createdAt
}

// UpdatedAt returns the last mutation time
func (d *Document) UpdatedAt() time.Time {
	return d.updatedAt
}

// Subscribe registers a change observer for every node in the document and
// returns its handle
func (d *Document) Subscribe(o entities.ChangeObserver) int {
	return d.observers.Subscribe(o)
}

// Unsubscribe removes the observer registered under the given handle
func (d *Document) Unsubscribe(handle int) {
	d.observers.Unsubscribe(handle)
}

// Visit walks the node tree depth-first in deterministic order. The visit
// function returning false prunes the subtree below the visited node.
func (d *Document) Visit(visit func(n *entities.Node) bool) {
	visitNode(d.root, visit)
}

func visitNode(n *entities.Node, visit func(n *entities.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, name := range n.MemberNames() {
		visitNode(n.Member(name), visit)
	}
	for _, it := range n.Items() {
		visitNode(it.Node(), visit)
	}
}

// NodeByID finds a node in the document by its identifier, or nil
func (d *Document) NodeByID(id valueobjects.NodeID) *entities.Node {
	var found *entities.Node
	d.Visit(func(n *entities.Node) bool {
		if found != nil {
			return false
		}
		if n.ID().Equals(id) {
			found = n
			return false
		}
		return true
	})
	return found
}

// GetUncommittedEvents returns lifecycle events raised by the aggregate
func (d *Document) GetUncommittedEvents() []events.DomainEvent {
	return d.events
}

// MarkEventsAsCommitted clears the uncommitted event buffer
func (d *Document) MarkEventsAsCommitted() {
	d.events = []events.DomainEvent{}
}

func (d *Document) addEvent(event events.DomainEvent) {
	d.events = append(d.events, event)
}
