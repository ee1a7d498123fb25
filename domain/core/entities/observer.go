package entities

import (
	"sort"

	"assetgraph/domain/core/valueobjects"
	"assetgraph/domain/events"
)

// Change is the transient state of one logical edit, threaded through the
// pre/post mutation phases as an explicit parameter object. It is created
// before the mutation is applied and consumed when the post phase fires;
// it is never stored beyond the edit that produced it.
type Change struct {
	Kind     events.ChangeKind
	Index    valueobjects.Index
	OldValue interface{}
	NewValue interface{}

	// KeyRename marks a value change that renames a dictionary key
	KeyRename bool
	NewKey    string

	// Tracked reports whether the mutated content carries item identity
	Tracked bool

	// PrevOverride is the override marker snapshot taken in the Changing
	// phase, before the mutation is applied
	PrevOverride valueobjects.OverrideMarker

	// NewOverride is the marker computed in the Changed phase
	NewOverride valueobjects.OverrideMarker

	// ItemID is the stable identifier of the affected entry, if any
	ItemID valueobjects.ItemID

	// RemovedID captures the identifier of an entry about to be removed,
	// so the post phase can report which stable entry disappeared
	RemovedID valueobjects.ItemID
}

// ChangeObserver receives the four strictly ordered signals fired around
// every content mutation. Handlers must tolerate nested invocations: a
// Changed handler that mutates the graph re-enters this protocol within
// the original mutation's call stack.
type ChangeObserver interface {
	OnPrepare(n *Node, c *Change)
	OnChanging(n *Node, c *Change)
	OnChanged(n *Node, c *Change)
	OnFinalize(n *Node, c *Change)
}

// ObserverList is the owning registry of change observers for one document.
// Subscribe returns an explicit handle; Unsubscribe must be called before
// the observer's target graph is replaced or torn down.
type ObserverList struct {
	subs map[int]ChangeObserver
	next int
}

// NewObserverList creates an empty observer registry
func NewObserverList() *ObserverList {
	return &ObserverList{
		subs: make(map[int]ChangeObserver),
		next: 1,
	}
}

// Subscribe registers an observer and returns its handle
func (l *ObserverList) Subscribe(o ChangeObserver) int {
	handle := l.next
	l.next++
	l.subs[handle] = o
	return handle
}

// Unsubscribe removes the observer registered under the given handle
func (l *ObserverList) Unsubscribe(handle int) {
	delete(l.subs, handle)
}

// Len returns the number of registered observers
func (l *ObserverList) Len() int {
	return len(l.subs)
}

// ordered returns observers in subscription order so the phase sequence is
// deterministic across runs
func (l *ObserverList) ordered() []ChangeObserver {
	handles := make([]int, 0, len(l.subs))
	for h := range l.subs {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	out := make([]ChangeObserver, 0, len(handles))
	for _, h := range handles {
		out = append(out, l.subs[h])
	}
	return out
}

func (l *ObserverList) notifyPrepare(n *Node, c *Change) {
	for _, o := range l.ordered() {
		o.OnPrepare(n, c)
	}
}

func (l *ObserverList) notifyChanging(n *Node, c *Change) {
	for _, o := range l.ordered() {
		o.OnChanging(n, c)
	}
}

func (l *ObserverList) notifyChanged(n *Node, c *Change) {
	for _, o := range l.ordered() {
		o.OnChanged(n, c)
	}
}

func (l *ObserverList) notifyFinalize(n *Node, c *Change) {
	for _, o := range l.ordered() {
		o.OnFinalize(n, c)
	}
}
