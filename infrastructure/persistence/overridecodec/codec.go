// Package overridecodec translates between a live document graph and its
// persisted override sidecar: which paths carry non-default override
// markers, which item identifiers each collection holds, and which
// identifiers are tombstoned.
//
// The codec is deliberately forgiving on the way in. Documents written by
// older tool versions may reference members or identifiers that no longer
// exist; such entries are dropped silently instead of failing the load.
package overridecodec

import (
	"strings"

	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
)

// Entry records one persisted override marker
type Entry struct {
	Path     string                      `yaml:"path"`
	Override valueobjects.OverrideMarker `yaml:"override"`
}

// OverrideMap is the ordered set of persisted override markers. Order
// follows a deterministic depth-first walk of the graph so that repeated
// exports of the same document diff cleanly.
type OverrideMap []Entry

// Export collects every non-default marker in the document: node content
// markers, item markers, and dictionary key markers
func Export(doc *aggregates.Document) OverrideMap {
	var out OverrideMap
	if doc == nil {
		return out
	}
	exportNode(doc.Root(), "", "", &out)
	return out
}

// exportNode walks the graph appending one entry per non-default marker.
// markerPath is where the node's OWN content marker goes: for members it
// equals path, for an entry's value node it carries the content suffix so
// the entry cannot be confused with the item marker at the bare path.
func exportNode(n *entities.Node, path, markerPath string, out *OverrideMap) {
	if n.Override().IsOverridden() {
		*out = append(*out, Entry{Path: markerPath, Override: n.Override()})
	}
	for _, name := range n.MemberNames() {
		memberPath := joinPath(path, name)
		exportNode(n.Member(name), memberPath, memberPath, out)
	}
	for _, it := range n.Items() {
		entryPath := joinPath(path, itemSegment(it.ID()))
		if it.Override().IsOverridden() {
			*out = append(*out, Entry{Path: entryPath, Override: it.Override()})
		}
		if n.Kind() == entities.KindDictionary && it.KeyOverride().IsOverridden() {
			*out = append(*out, Entry{Path: entryPath + keySuffix, Override: it.KeyOverride()})
		}
		exportNode(it.Node(), entryPath, entryPath+contentSuffix, out)
	}
}

// Import applies persisted markers back onto a freshly loaded graph.
// Unresolvable paths and unknown markers are skipped: they are stale data,
// not errors.
func Import(doc *aggregates.Document, om OverrideMap) {
	if doc == nil {
		return
	}
	for _, e := range om {
		applyEntry(doc.Root(), e)
	}
}

func applyEntry(root *entities.Node, e Entry) {
	marker, err := valueobjects.ParseOverrideMarker(e.Override.String())
	if err != nil {
		return
	}

	path := e.Path
	isKey := strings.HasSuffix(path, keySuffix)
	isContent := strings.HasSuffix(path, contentSuffix)
	switch {
	case isKey:
		path = strings.TrimSuffix(path, keySuffix)
	case isContent:
		path = strings.TrimSuffix(path, contentSuffix)
	}
	if path == "" {
		if !isKey && !isContent {
			root.SetOverride(marker)
		}
		return
	}

	owner, last := resolvePath(root, path)
	if owner == nil {
		return
	}

	if !strings.HasPrefix(last, itemPrefix) {
		// Content marker on a member node; suffixed markers only make sense
		// on item segments
		if isKey || isContent {
			return
		}
		if child := owner.Member(last); child != nil {
			child.SetOverride(marker)
		}
		return
	}

	id, err := valueobjects.NewItemIDFromString(strings.TrimPrefix(last, itemPrefix))
	if err != nil {
		return
	}
	it, err := owner.ItemByID(id)
	if err != nil {
		return
	}
	if isKey {
		_ = owner.SetKeyOverride(valueobjects.NewKeyIndex(it.Key()), marker)
		return
	}
	if isContent {
		it.Node().SetOverride(marker)
		return
	}
	if idx, err := owner.IDToIndex(id); err == nil {
		_ = owner.SetItemOverride(idx, marker)
	}
}
