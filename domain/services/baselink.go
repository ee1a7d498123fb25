package services

import (
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/events"
	pkgerrors "assetgraph/pkg/errors"
)

// VisitPredicate decides whether linking and listening descend into a
// child node. Domain logic uses it to veto following certain members,
// e.g. non-inherited back-references.
type VisitPredicate func(parent, child *entities.Node) bool

// BaseResolver finds the base counterpart for a node the plain structural
// walk cannot place, e.g. composed sub-parts that each find their own base
// independently. Returning nil means the node has no base and gets no
// override tracking.
type BaseResolver func(derived, structural *entities.Node) *entities.Node

// BaseAppliedHandler receives the signal emitted after a propagated
// reconciliation pass
type BaseAppliedHandler func(ev events.BaseApplied)

// LinkOptions configures one linking pass
type LinkOptions struct {
	Visit     VisitPredicate
	Resolver  BaseResolver
	Propagate bool
}

// BaseLinker attaches each node of a derived document to its counterpart
// in a base document and forwards base-side change notifications into the
// derived graph as reconciliation triggers. All base subscriptions live in
// one owning table; Unlink must run before re-linking or disposal, or
// stale callbacks fire against a detached graph.
type BaseLinker struct {
	reconciler *Reconciler
	guard      *PropagationGuard

	derived *aggregates.Document
	base    *aggregates.Document
	opts    LinkOptions

	// byBase maps base nodes to their derived counterparts; it doubles as
	// the subscription table for the single observer registered on base
	byBase     map[*entities.Node]*entities.Node
	baseHandle int
	linked     bool

	subs    map[int]BaseAppliedHandler
	nextSub int
}

// NewBaseLinker creates an unlinked base linker
func NewBaseLinker(reconciler *Reconciler, guard *PropagationGuard) (*BaseLinker, error) {
	if reconciler == nil {
		return nil, pkgerrors.NewValidation("reconciler is required")
	}
	if guard == nil {
		return nil, pkgerrors.NewValidation("propagation guard is required")
	}
	return &BaseLinker{
		reconciler: reconciler,
		guard:      guard,
		byBase:     make(map[*entities.Node]*entities.Node),
		subs:       make(map[int]BaseAppliedHandler),
		nextSub:    1,
	}, nil
}

// SubscribeBaseApplied registers a handler for the base-applied signal
func (l *BaseLinker) SubscribeBaseApplied(h BaseAppliedHandler) int {
	handle := l.nextSub
	l.nextSub++
	l.subs[handle] = h
	return handle
}

// UnsubscribeBaseApplied removes a previously registered handler
func (l *BaseLinker) UnsubscribeBaseApplied(handle int) {
	delete(l.subs, handle)
}

// Linked reports whether a link is currently established
func (l *BaseLinker) Linked() bool {
	return l.linked
}

// Link walks the derived and base graphs in lock-step, attaching each
// derived node to its structurally-corresponding base node, and subscribes
// to the base document's change notifications. A nil base is legal and
// leaves the derived document without override tracking.
func (l *BaseLinker) Link(derived, base *aggregates.Document, opts LinkOptions) error {
	if derived == nil {
		return pkgerrors.NewValidation("derived document is required")
	}
	if l.linked {
		return pkgerrors.NewValidation("already linked; Unlink before re-linking")
	}

	l.derived = derived
	l.base = base
	l.opts = opts
	l.linked = true

	if base == nil {
		return nil
	}
	l.linkPair(derived.Root(), base.Root())
	l.baseHandle = base.Subscribe(l)
	return nil
}

// Unlink removes the base subscription, clears the correspondence table,
// and detaches every base link in the derived graph
func (l *BaseLinker) Unlink() {
	if !l.linked {
		return
	}
	if l.base != nil && l.baseHandle != 0 {
		l.base.Unsubscribe(l.baseHandle)
	}
	if l.derived != nil {
		l.derived.Visit(func(n *entities.Node) bool {
			n.SetBase(nil)
			return true
		})
	}
	l.byBase = make(map[*entities.Node]*entities.Node)
	l.baseHandle = 0
	l.derived = nil
	l.base = nil
	l.linked = false
}

// linkPair attaches derived to its base counterpart and recurses into
// matching children. Members match by name, entries by stable identifier.
func (l *BaseLinker) linkPair(derived, structural *entities.Node) {
	base := structural
	if l.opts.Resolver != nil {
		base = l.opts.Resolver(derived, structural)
	}
	if base == nil {
		derived.SetBase(nil)
		return
	}

	derived.SetBase(base)
	l.byBase[base] = derived

	for _, name := range derived.MemberNames() {
		child := derived.Member(name)
		if l.opts.Visit != nil && !l.opts.Visit(derived, child) {
			continue
		}
		if baseChild := base.Member(name); baseChild != nil {
			l.linkPair(child, baseChild)
		}
	}
	for _, it := range derived.Items() {
		if l.opts.Visit != nil && !l.opts.Visit(derived, it.Node()) {
			continue
		}
		if baseItem, err := base.ItemByID(it.ID()); err == nil {
			l.linkPair(it.Node(), baseItem.Node())
		}
	}
}

// Observer phases registered on the base document. Only the post-mutation
// phase matters: it replays reconciliation into the derived graph.

func (l *BaseLinker) OnPrepare(n *entities.Node, c *entities.Change)  {}
func (l *BaseLinker) OnChanging(n *entities.Node, c *entities.Change) {}

func (l *BaseLinker) OnChanged(n *entities.Node, c *entities.Change) {
	if !l.linked || !l.opts.Propagate {
		return
	}
	derivedNode, baseNode := l.correspondence(n)
	if derivedNode == nil {
		return
	}

	// Refresh the base association before replaying: the mutation may have
	// introduced or removed structure below this node
	l.linkPair(derivedNode, baseNode)
	_ = l.reconciler.Reconcile(derivedNode)
	// Adopted entries carry fresh subtrees that need their own links
	l.linkPair(derivedNode, baseNode)

	ev := events.NewBaseApplied(l.derived.ID().String(), derivedNode.ID())
	for _, h := range l.subs {
		h(ev)
	}
}

func (l *BaseLinker) OnFinalize(n *entities.Node, c *entities.Change) {}

// correspondence finds the derived node for a changed base node, climbing
// to the nearest mapped ancestor when the change happened in a base
// subtree the derived graph has not adopted yet. Mappings whose derived
// node was locally deleted since linking are stale; they are pruned on
// sight and the climb continues to the nearest surviving ancestor.
func (l *BaseLinker) correspondence(baseNode *entities.Node) (*entities.Node, *entities.Node) {
	for b := baseNode; b != nil; b = b.Parent() {
		d, ok := l.byBase[b]
		if !ok {
			continue
		}
		if l.derived.NodeByID(d.ID()) == nil {
			delete(l.byBase, b)
			continue
		}
		return d, b
	}
	return nil, nil
}
