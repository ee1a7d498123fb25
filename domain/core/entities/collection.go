package entities

import (
	"sort"

	"assetgraph/domain/core/valueobjects"
	"assetgraph/domain/events"
	pkgerrors "assetgraph/pkg/errors"
)

// Item is one entry of collection or dictionary content. Its identifier is
// assigned at creation time and survives reordering; its override markers
// record whether the entry's value (and, for dictionaries, its key) is
// inherited or local.
type Item struct {
	id          valueobjects.ItemID
	key         string
	node        *Node
	override    valueobjects.OverrideMarker
	keyOverride valueobjects.OverrideMarker
}

// ID returns the entry's stable identifier
func (it *Item) ID() valueobjects.ItemID {
	return it.id
}

// Key returns the dictionary key; empty for collection items
func (it *Item) Key() string {
	return it.key
}

// Node returns the entry's value node
func (it *Item) Node() *Node {
	return it.node
}

// Override returns the entry's override marker
func (it *Item) Override() valueobjects.OverrideMarker {
	return it.override
}

// KeyOverride returns the override marker of the entry's key
func (it *Item) KeyOverride() valueobjects.OverrideMarker {
	return it.keyOverride
}

// Items returns the live entries in order
func (n *Node) Items() []*Item {
	return n.items
}

// Len returns the number of live entries
func (n *Node) Len() int {
	return len(n.items)
}

// IdentityTracked reports whether the content carries per-item identity
func (n *Node) IdentityTracked() bool {
	return n.identityTracked
}

// ItemAt resolves an index to its entry. Positional indices address both
// content kinds by insertion order; keyed indices address dictionaries.
func (n *Node) ItemAt(idx valueobjects.Index) (*Item, error) {
	if n.kind != KindCollection && n.kind != KindDictionary {
		return nil, pkgerrors.NewValidation("content has no items")
	}
	if !idx.IsValid() {
		return nil, pkgerrors.NewValidation("invalid index")
	}
	if idx.IsKeyed() {
		if n.kind != KindDictionary {
			return nil, pkgerrors.NewValidation("keyed index on non-dictionary content")
		}
		for _, it := range n.items {
			if it.key == idx.Key() {
				return it, nil
			}
		}
		return nil, pkgerrors.NewNotFound("no entry for key: " + idx.Key())
	}
	pos := idx.Position()
	if pos < 0 || pos >= len(n.items) {
		return nil, pkgerrors.NewNotFound("index out of range: " + idx.String())
	}
	return n.items[pos], nil
}

// ItemByID resolves a stable identifier to its entry
func (n *Node) ItemByID(id valueobjects.ItemID) (*Item, error) {
	for _, it := range n.items {
		if it.id.Equals(id) {
			return it, nil
		}
	}
	return nil, pkgerrors.NewNotFound("no entry for item ID: " + id.String())
}

// indexOf returns the canonical index of an entry: keyed for dictionary
// content, positional for collections
func (n *Node) indexOf(it *Item, pos int) valueobjects.Index {
	if n.kind == KindDictionary {
		return valueobjects.NewKeyIndex(it.key)
	}
	return valueobjects.NewIndex(pos)
}

// IndexToID maps a structural position to the entry's stable identifier
func (n *Node) IndexToID(idx valueobjects.Index) (valueobjects.ItemID, error) {
	it, err := n.ItemAt(idx)
	if err != nil {
		return valueobjects.ItemID{}, err
	}
	return it.id, nil
}

// IDToIndex maps a stable identifier back to the entry's current position.
// A NotFound error is an expected condition during divergence; callers must
// handle the no-match case explicitly.
func (n *Node) IDToIndex(id valueobjects.ItemID) (valueobjects.Index, error) {
	for pos, it := range n.items {
		if it.id.Equals(id) {
			return n.indexOf(it, pos), nil
		}
	}
	return valueobjects.InvalidIndex(), pkgerrors.NewNotFound("no entry for item ID: " + id.String())
}

// ItemOverride returns the override marker of the entry at idx
func (n *Node) ItemOverride(idx valueobjects.Index) (valueobjects.OverrideMarker, error) {
	it, err := n.ItemAt(idx)
	if err != nil {
		return valueobjects.OverrideBase, err
	}
	return it.override, nil
}

// SetItemOverride sets the override marker of the entry at idx
func (n *Node) SetItemOverride(idx valueobjects.Index, m valueobjects.OverrideMarker) error {
	it, err := n.ItemAt(idx)
	if err != nil {
		return err
	}
	it.override = m
	return nil
}

// KeyOverride returns the override marker of the dictionary key at idx
func (n *Node) KeyOverride(idx valueobjects.Index) (valueobjects.OverrideMarker, error) {
	if n.kind != KindDictionary {
		return valueobjects.OverrideBase, pkgerrors.NewValidation("key overrides require dictionary content")
	}
	it, err := n.ItemAt(idx)
	if err != nil {
		return valueobjects.OverrideBase, err
	}
	return it.keyOverride, nil
}

// SetKeyOverride sets the override marker of the dictionary key at idx
func (n *Node) SetKeyOverride(idx valueobjects.Index, m valueobjects.OverrideMarker) error {
	if n.kind != KindDictionary {
		return pkgerrors.NewValidation("key overrides require dictionary content")
	}
	it, err := n.ItemAt(idx)
	if err != nil {
		return err
	}
	it.keyOverride = m
	return nil
}

// MarkDeleted records a tombstone for a locally removed entry identifier
func (n *Node) MarkDeleted(id valueobjects.ItemID) {
	if n.tombstones == nil {
		return
	}
	n.tombstones[id] = struct{}{}
}

// UnmarkDeleted clears a tombstone
func (n *Node) UnmarkDeleted(id valueobjects.ItemID) {
	if n.tombstones == nil {
		return
	}
	delete(n.tombstones, id)
}

// IsDeleted reports whether the identifier is tombstoned
func (n *Node) IsDeleted(id valueobjects.ItemID) bool {
	if n.tombstones == nil {
		return false
	}
	_, ok := n.tombstones[id]
	return ok
}

// DeletedIDs returns the tombstoned identifiers in stable order
func (n *Node) DeletedIDs() []valueobjects.ItemID {
	if len(n.tombstones) == 0 {
		return nil
	}
	out := make([]valueobjects.ItemID, 0, len(n.tombstones))
	for id := range n.tombstones {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// AppendItem adds an entry at the end of a collection
func (n *Node) AppendItem(child *Node) (*Item, error) {
	return n.InsertItemAt(len(n.items), child)
}

// InsertItemAt adds an entry at the given position of a collection,
// assigning it a fresh identifier when the content tracks identity
func (n *Node) InsertItemAt(pos int, child *Node) (*Item, error) {
	var id valueobjects.ItemID
	if n.identityTracked {
		id = valueobjects.NewItemID()
	}
	return n.InsertItemWithID(pos, child, id)
}

// InsertItemWithID adds an entry at the given position under an existing
// identifier. Used when adopting entries from a base document, where the
// identifier must be preserved for correlation.
func (n *Node) InsertItemWithID(pos int, child *Node, id valueobjects.ItemID) (*Item, error) {
	if n.kind != KindCollection {
		return nil, pkgerrors.NewValidation("positional insert requires collection content")
	}
	if child == nil {
		return nil, pkgerrors.NewValidation("item node cannot be nil")
	}
	if pos < 0 || pos > len(n.items) {
		return nil, pkgerrors.NewValidation("insert position out of range")
	}
	if n.identityTracked {
		if id.IsZero() {
			return nil, pkgerrors.NewValidation("identity-tracked content requires an item ID")
		}
		if _, err := n.ItemByID(id); err == nil {
			return nil, pkgerrors.NewValidation("duplicate item ID: " + id.String())
		}
	}

	it := &Item{id: id, node: child}
	c := &Change{
		Kind:     events.KindCollectionAdd,
		Index:    valueobjects.NewIndex(pos),
		NewValue: child.Value(),
		Tracked:  n.identityTracked,
		ItemID:   id,
	}
	n.fire(c, func() {
		child.parent = n
		child.parentItem = it
		child.attach(n.observers)
		n.items = append(n.items, nil)
		copy(n.items[pos+1:], n.items[pos:])
		n.items[pos] = it
	})
	return it, nil
}

// AddEntry adds a keyed entry to a dictionary with a fresh identifier
func (n *Node) AddEntry(key string, child *Node) (*Item, error) {
	return n.AddEntryWithID(key, child, valueobjects.NewItemID())
}

// AddEntryWithID adds a keyed entry under an existing identifier
func (n *Node) AddEntryWithID(key string, child *Node, id valueobjects.ItemID) (*Item, error) {
	if n.kind != KindDictionary {
		return nil, pkgerrors.NewValidation("keyed insert requires dictionary content")
	}
	if key == "" {
		return nil, pkgerrors.NewValidation("dictionary key cannot be empty")
	}
	if child == nil {
		return nil, pkgerrors.NewValidation("entry node cannot be nil")
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("dictionary entries require an item ID")
	}
	if _, err := n.ItemAt(valueobjects.NewKeyIndex(key)); err == nil {
		return nil, pkgerrors.NewValidation("entry already exists for key: " + key)
	}
	if _, err := n.ItemByID(id); err == nil {
		return nil, pkgerrors.NewValidation("duplicate item ID: " + id.String())
	}

	it := &Item{id: id, key: key, node: child}
	c := &Change{
		Kind:     events.KindCollectionAdd,
		Index:    valueobjects.NewKeyIndex(key),
		NewValue: child.Value(),
		Tracked:  true,
		ItemID:   id,
	}
	n.fire(c, func() {
		child.parent = n
		child.parentItem = it
		child.attach(n.observers)
		n.items = append(n.items, it)
	})
	return it, nil
}

// RemoveItemAt removes the entry at idx, firing the change protocol so the
// disappearing identifier can be captured before the mutation applies
func (n *Node) RemoveItemAt(idx valueobjects.Index) error {
	it, err := n.ItemAt(idx)
	if err != nil {
		return err
	}
	pos := -1
	for i, candidate := range n.items {
		if candidate == it {
			pos = i
			break
		}
	}

	c := &Change{
		Kind:     events.KindCollectionRemove,
		Index:    idx,
		OldValue: it.node.Value(),
		Tracked:  n.identityTracked,
		ItemID:   it.id,
	}
	n.fire(c, func() {
		it.node.parent = nil
		it.node.parentItem = nil
		it.node.attach(nil)
		n.items = append(n.items[:pos], n.items[pos+1:]...)
	})
	return nil
}

// MoveItem reorders a collection entry. Identity travels with the entry,
// so reordering needs no change event: correlation with the base is by
// identifier, not position.
func (n *Node) MoveItem(from, to int) error {
	if n.kind != KindCollection {
		return pkgerrors.NewValidation("move requires collection content")
	}
	if from < 0 || from >= len(n.items) || to < 0 || to >= len(n.items) {
		return pkgerrors.NewValidation("move position out of range")
	}
	if from == to {
		return nil
	}
	it := n.items[from]
	n.items = append(n.items[:from], n.items[from+1:]...)
	n.items = append(n.items[:to], append([]*Item{it}, n.items[to:]...)...)
	return nil
}

// RenameKey moves a dictionary entry to a new key, preserving its
// identifier and value node
func (n *Node) RenameKey(oldKey, newKey string) error {
	if n.kind != KindDictionary {
		return pkgerrors.NewValidation("key rename requires dictionary content")
	}
	if newKey == "" {
		return pkgerrors.NewValidation("dictionary key cannot be empty")
	}
	it, err := n.ItemAt(valueobjects.NewKeyIndex(oldKey))
	if err != nil {
		return err
	}
	if oldKey == newKey {
		return nil
	}
	if _, err := n.ItemAt(valueobjects.NewKeyIndex(newKey)); err == nil {
		return pkgerrors.NewValidation("entry already exists for key: " + newKey)
	}

	c := &Change{
		Kind:      events.KindValueChange,
		Index:     valueobjects.NewKeyIndex(oldKey),
		OldValue:  oldKey,
		NewValue:  newKey,
		KeyRename: true,
		NewKey:    newKey,
		Tracked:   true,
		ItemID:    it.id,
	}
	n.fire(c, func() {
		it.key = newKey
	})
	return nil
}
