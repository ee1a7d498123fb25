package services

import (
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	"assetgraph/domain/events"
	pkgerrors "assetgraph/pkg/errors"
)

// ChangedHandler receives the enriched event published after every content
// mutation in the listened document
type ChangedHandler func(n *entities.Node, ev events.ContentChanged)

// GraphListener intercepts the raw pre/post mutation signals of every node
// in a document and enriches them with override-transition metadata before
// re-publishing them. The raw graph knows nothing about overrides; this
// service is where the transition policy lives.
type GraphListener struct {
	doc    *aggregates.Document
	guard  *PropagationGuard
	handle int

	subs    map[int]ChangedHandler
	nextSub int
}

// NewGraphListener attaches a listener to every node reachable from the
// document root
func NewGraphListener(doc *aggregates.Document, guard *PropagationGuard) (*GraphListener, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidation("document is required")
	}
	if guard == nil {
		return nil, pkgerrors.NewValidation("propagation guard is required")
	}
	l := &GraphListener{
		doc:     doc,
		guard:   guard,
		subs:    make(map[int]ChangedHandler),
		nextSub: 1,
	}
	l.handle = doc.Subscribe(l)
	return l, nil
}

// SubscribeChanged registers an external handler for enriched change events
func (l *GraphListener) SubscribeChanged(h ChangedHandler) int {
	handle := l.nextSub
	l.nextSub++
	l.subs[handle] = h
	return handle
}

// UnsubscribeChanged removes a previously registered handler
func (l *GraphListener) UnsubscribeChanged(handle int) {
	delete(l.subs, handle)
}

// Detach removes the listener from the document. Required before the
// document is re-linked or torn down.
func (l *GraphListener) Detach() {
	if l.handle != 0 {
		l.doc.Unsubscribe(l.handle)
		l.handle = 0
	}
}

// OnPrepare fires before any value capture; nothing to enrich yet
func (l *GraphListener) OnPrepare(n *entities.Node, c *entities.Change) {}

// OnChanging snapshots the pre-mutation override marker and, for removals,
// the item identifier about to disappear
func (l *GraphListener) OnChanging(n *entities.Node, c *entities.Change) {
	switch c.Kind {
	case events.KindValueChange:
		switch {
		case c.KeyRename:
			if m, err := n.KeyOverride(c.Index); err == nil {
				c.PrevOverride = m
			}
		case n.ParentItem() != nil:
			c.PrevOverride = n.ParentItem().Override()
		default:
			c.PrevOverride = n.Override()
		}
	case events.KindCollectionRemove:
		if m, err := n.ItemOverride(c.Index); err == nil {
			c.PrevOverride = m
		}
		if id, err := n.IndexToID(c.Index); err == nil {
			c.RemovedID = id
		}
	case events.KindCollectionAdd:
		// An addition always starts as a local override; untracked
		// collections carry no marker at all
		if c.Tracked {
			c.PrevOverride = valueobjects.OverrideNew
		}
	}
}

// OnChanged computes the post-mutation override marker, applies it, and
// publishes the enriched event
func (l *GraphListener) OnChanged(n *entities.Node, c *entities.Change) {
	propagating := l.guard.Active()

	switch c.Kind {
	case events.KindCollectionRemove:
		if propagating {
			// The deletion is itself a propagated base deletion
			c.NewOverride = valueobjects.OverrideBase
		} else {
			c.NewOverride = valueobjects.OverrideNew
			if c.Tracked && !c.RemovedID.IsZero() {
				n.MarkDeleted(c.RemovedID)
			}
		}
		c.ItemID = c.RemovedID

	case events.KindCollectionAdd:
		if c.Tracked {
			marker := valueobjects.OverrideNew
			if propagating {
				marker = valueobjects.OverrideBase
			}
			if err := n.SetItemOverride(c.Index, marker); err == nil {
				c.NewOverride = marker
			}
		}

	case events.KindValueChange:
		c.NewOverride = l.applyValueChangeMarker(n, c, propagating)
	}

	ev := events.NewContentChanged(
		l.doc.ID().String(),
		n.ID(),
		c.Kind,
		c.Index,
		c.PrevOverride,
		c.NewOverride,
		c.ItemID,
	)
	for _, h := range l.subs {
		h(n, ev)
	}
}

// OnFinalize fires after the enriched event; cross-cutting bookkeeping only
func (l *GraphListener) OnFinalize(n *entities.Node, c *entities.Change) {}

// applyValueChangeMarker decides where a value change's override marker
// lives (content, item, or key) and applies it
func (l *GraphListener) applyValueChangeMarker(n *entities.Node, c *entities.Change, propagating bool) valueobjects.OverrideMarker {
	if c.KeyRename {
		idx := valueobjects.NewKeyIndex(c.NewKey)
		marker := c.PrevOverride
		if !propagating {
			marker = localMarker(c.PrevOverride)
		}
		if err := n.SetKeyOverride(idx, marker); err != nil {
			return c.PrevOverride
		}
		return marker
	}

	if it := n.ParentItem(); it != nil {
		// Overriding an entry's value marks the item, not the value node
		owner := n.Parent()
		if owner == nil || !owner.IdentityTracked() {
			return c.PrevOverride
		}
		idx, err := owner.IDToIndex(it.ID())
		if err != nil {
			return c.PrevOverride
		}
		if !propagating && owner.HasBase() {
			marker := localMarker(c.PrevOverride)
			_ = owner.SetItemOverride(idx, marker)
			return marker
		}
		m, _ := owner.ItemOverride(idx)
		return m
	}

	if !propagating && n.HasBase() {
		marker := localMarker(c.PrevOverride)
		n.SetOverride(marker)
		return marker
	}
	return n.Override()
}

// localMarker returns the marker a local edit produces: sealed content
// stays sealed, everything else becomes a plain local override
func localMarker(prev valueobjects.OverrideMarker) valueobjects.OverrideMarker {
	if prev == valueobjects.OverrideSealed {
		return valueobjects.OverrideSealed
	}
	return valueobjects.OverrideNew
}
