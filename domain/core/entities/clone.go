package entities

import (
	"assetgraph/domain/core/valueobjects"
)

// CloneSubtree deep-copies the subtree rooted at n. Node identifiers are
// regenerated (node identity is per-document) but item identifiers are
// preserved, so a clone stays correlated with the source during
// reconciliation. Base links, observers and tombstones are not copied.
func (n *Node) CloneSubtree() *Node {
	clone := &Node{
		id:              valueobjects.NewNodeID(),
		kind:            n.kind,
		value:           CloneValue(n.value),
		override:        n.override,
		identityTracked: n.identityTracked,
	}
	if n.kind == KindCollection || n.kind == KindDictionary {
		if n.identityTracked {
			clone.tombstones = make(map[valueobjects.ItemID]struct{})
		}
	}
	for _, m := range n.members {
		child := m.node.CloneSubtree()
		child.parent = clone
		child.memberName = m.name
		clone.members = append(clone.members, &member{name: m.name, node: child})
	}
	for _, it := range n.items {
		child := it.node.CloneSubtree()
		cloneItem := &Item{
			id:          it.id,
			key:         it.key,
			node:        child,
			override:    it.override,
			keyOverride: it.keyOverride,
		}
		child.parent = clone
		child.parentItem = cloneItem
		clone.items = append(clone.items, cloneItem)
	}
	return clone
}

// CloneValue copies a scalar payload. Reference value objects and Go
// scalars are immutable by convention; slices and maps are copied deeply
// so a clone never aliases base-owned storage.
func CloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}
