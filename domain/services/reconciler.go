package services

import (
	"reflect"

	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	pkgerrors "assetgraph/pkg/errors"
)

// ShouldReconcile decides whether a local value diverges from its base
// counterpart enough to be replaced. The default policy: object references
// reconcile on type mismatch only, resource references on identity or
// locator mismatch, plain values on inequality.
type ShouldReconcile func(local, base interface{}) bool

// AcceptItem lets domain collections veto adopting a base entry that has no
// local counterpart. Rejected entries are tombstoned so they are not
// re-offered on every pass.
type AcceptItem func(owner *entities.Node, id valueobjects.ItemID, baseValue interface{}) bool

// Reconciler walks a derived graph together with its base counterpart and
// resolves divergence, honoring override markers and stable item identity.
// It only ever changes values; override markers are never altered by a
// reconciliation pass.
type Reconciler struct {
	guard  *PropagationGuard
	should ShouldReconcile
	accept AcceptItem
}

// NewReconciler creates a reconciler with the default comparison policy.
// Either predicate may be nil to keep the default. Every pass runs inside
// the given propagation guard so change handlers can tell propagated
// mutations from local edits.
func NewReconciler(guard *PropagationGuard, should ShouldReconcile, accept AcceptItem) (*Reconciler, error) {
	if guard == nil {
		return nil, pkgerrors.NewValidation("propagation guard is required")
	}
	if should == nil {
		should = DefaultShouldReconcile
	}
	return &Reconciler{guard: guard, should: should, accept: accept}, nil
}

// DefaultShouldReconcile is the standard divergence test
func DefaultShouldReconcile(local, base interface{}) bool {
	switch lv := local.(type) {
	case valueobjects.ObjectReference:
		bv, ok := base.(valueobjects.ObjectReference)
		if !ok {
			return true
		}
		// The referenced node reconciles where it lives; only a type
		// mismatch makes the reference itself stale
		return !lv.SameType(bv)
	case valueobjects.ResourceReference:
		bv, ok := base.(valueobjects.ResourceReference)
		if !ok {
			return true
		}
		return !lv.Equals(bv)
	default:
		return !reflect.DeepEqual(local, base)
	}
}

// Reconcile runs the merge pass over the subtree rooted at from, the root
// included
func (r *Reconciler) Reconcile(from *entities.Node) error {
	if from == nil {
		return pkgerrors.NewValidation("reconcile root is required")
	}
	return r.guard.Run(func() error {
		return r.walk(from)
	})
}

func (r *Reconciler) walk(n *entities.Node) error {
	if err := r.reconcileNode(n); err != nil {
		return err
	}
	for _, name := range n.MemberNames() {
		if err := r.walk(n.Member(name)); err != nil {
			return err
		}
	}
	for _, it := range n.Items() {
		// Overridden entries are never touched, children included
		if !it.Override().IsDefault() {
			continue
		}
		if err := r.walk(it.Node()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) reconcileNode(n *entities.Node) error {
	base := n.Base()
	if base == nil {
		return nil
	}
	// Plain composite wrappers have nothing to reconcile at their own
	// level; recursion covers the members
	if n.Kind() == entities.KindObject {
		return nil
	}
	if !n.Override().IsDefault() {
		return nil
	}
	// An overridden entry shields its whole subtree, so a pass rooted deep
	// inside one must stay inert; climb every enclosing entry, not just the
	// immediate one
	for a := n; a != nil; a = a.Parent() {
		if pi := a.ParentItem(); pi != nil && !pi.Override().IsDefault() {
			return nil
		}
	}

	switch n.Kind() {
	case entities.KindValue:
		return r.reconcileValue(n, base)
	case entities.KindCollection, entities.KindDictionary:
		if !n.IdentityTracked() || !base.IdentityTracked() {
			return nil
		}
		return r.reconcileItems(n, base)
	}
	return nil
}

func (r *Reconciler) reconcileValue(n, base *entities.Node) error {
	local := n.Value()
	baseValue := base.Value()

	switch {
	case local == nil && baseValue == nil:
		return nil
	case local == nil && baseValue != nil:
		return n.SetValue(entities.CloneValue(baseValue))
	case local != nil && baseValue == nil:
		return n.SetValue(nil)
	case r.should(local, baseValue):
		return n.SetValue(entities.CloneValue(baseValue))
	}
	return nil
}

// reconcileItems performs the three-way merge of collection or dictionary
// content by stable identifier
func (r *Reconciler) reconcileItems(n, base *entities.Node) error {
	r.removeOrphans(n, base)
	r.cleanTombstones(n, base)
	return r.applyBaseEntries(n, base)
}

// removeOrphans deletes local non-overridden entries whose identifier has
// no counterpart in the base: an inherited disappearance, not a user
// deletion, so any tombstone left behind is cleared
func (r *Reconciler) removeOrphans(n, base *entities.Node) {
	live := append([]*entities.Item(nil), n.Items()...)
	for _, it := range live {
		if !it.Override().IsDefault() {
			continue
		}
		if _, err := base.ItemByID(it.ID()); err == nil {
			continue
		}
		idx, err := n.IDToIndex(it.ID())
		if err != nil {
			// Identifier vanished mid-pass: corrupted data, the entry is
			// already gone
			continue
		}
		_ = n.RemoveItemAt(idx)
		n.UnmarkDeleted(it.ID())
	}
}

// cleanTombstones clears deletion markers whose identifier no longer
// corresponds to any base entry; a stale tombstone is meaningless once the
// base item itself is gone
func (r *Reconciler) cleanTombstones(n, base *entities.Node) {
	for _, id := range n.DeletedIDs() {
		if _, err := base.ItemByID(id); err != nil {
			n.UnmarkDeleted(id)
		}
	}
}

// applyBaseEntries adopts base entries missing locally and reconciles the
// keys of matched dictionary entries. Queued additions are applied after
// all removals, in ascending base order.
func (r *Reconciler) applyBaseEntries(n, base *entities.Node) error {
	type pendingAdd struct {
		baseItem *entities.Item
		basePos  int
	}
	var adds []pendingAdd

	for basePos, baseItem := range base.Items() {
		if n.IsDeleted(baseItem.ID()) {
			continue
		}
		localItem, err := n.ItemByID(baseItem.ID())
		if err != nil {
			// Candidate addition
			if n.Kind() == entities.KindDictionary {
				if _, err := n.ItemAt(valueobjects.NewKeyIndex(baseItem.Key())); err == nil {
					// Adding would collide with an existing local key
					n.MarkDeleted(baseItem.ID())
					continue
				}
			}
			if r.accept != nil && !r.accept(n, baseItem.ID(), baseItem.Node().Value()) {
				n.MarkDeleted(baseItem.ID())
				continue
			}
			adds = append(adds, pendingAdd{baseItem: baseItem, basePos: basePos})
			continue
		}

		if !localItem.Override().IsDefault() {
			continue
		}
		if n.Kind() == entities.KindDictionary &&
			localItem.KeyOverride().IsDefault() &&
			localItem.Key() != baseItem.Key() {
			// A non-overridden key that differs from the base key moves to
			// the reconciled key, identifier preserved
			if _, err := n.ItemAt(valueobjects.NewKeyIndex(baseItem.Key())); err != nil {
				_ = n.RenameKey(localItem.Key(), baseItem.Key())
			}
		}
	}

	for _, p := range adds {
		child := p.baseItem.Node().CloneSubtree()
		linkClone(child, p.baseItem.Node())
		if n.Kind() == entities.KindDictionary {
			if _, err := n.AddEntryWithID(p.baseItem.Key(), child, p.baseItem.ID()); err != nil {
				n.MarkDeleted(p.baseItem.ID())
			}
			continue
		}
		pos, err := r.insertionPos(n, base, p.basePos)
		if err != nil {
			return err
		}
		if _, err := n.InsertItemWithID(pos, child, p.baseItem.ID()); err != nil {
			n.MarkDeleted(p.baseItem.ID())
		}
	}
	return nil
}

// insertionPos computes the target index for an adopted entry: scan
// backward from its base index to the nearest preceding base entry that
// also exists locally and insert immediately after it, falling back to the
// front when none is found. This preserves relative order with the base
// without renumbering.
func (r *Reconciler) insertionPos(n, base *entities.Node, basePos int) (int, error) {
	localIDs := make(map[string]struct{}, n.Len())
	for _, it := range n.Items() {
		localIDs[it.ID().String()] = struct{}{}
	}
	for j := basePos - 1; j >= 0; j-- {
		id := base.Items()[j].ID()
		if _, ok := localIDs[id.String()]; !ok {
			continue
		}
		idx, err := n.IDToIndex(id)
		if err != nil {
			// The identifier was just observed in the live set; not
			// finding it now is a broken invariant, not bad data
			return 0, pkgerrors.NewInternal("insertion anchor lookup failed for item "+id.String(), err)
		}
		return idx.Position() + 1, nil
	}
	return 0, nil
}

// linkClone attaches base links pairwise between an adopted clone and the
// base subtree it was cloned from
func linkClone(derived, base *entities.Node) {
	derived.SetBase(base)
	for _, name := range derived.MemberNames() {
		if bm := base.Member(name); bm != nil {
			linkClone(derived.Member(name), bm)
		}
	}
	for _, it := range derived.Items() {
		if baseItem, err := base.ItemByID(it.ID()); err == nil {
			linkClone(it.Node(), baseItem.Node())
		}
	}
}
