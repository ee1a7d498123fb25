package overridecodec

import (
	"strings"

	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
)

// Structural paths address a node, an item, or a dictionary key inside a
// document graph:
//
//	engine/thrust          member chain from the root
//	parts/#<itemID>        entry of a collection or dictionary
//	stats/#<itemID>!       the KEY of a dictionary entry
//	parts/#<itemID>*       the value NODE held by an entry
//
// Member names are joined by '/'. Item segments carry the stable item
// identifier, never a position, so a path stays valid across reordering.
// A trailing '!' distinguishes a key marker from the entry marker, a
// trailing '*' a content marker on the entry's value node.
const (
	pathSeparator = "/"
	itemPrefix    = "#"
	keySuffix     = "!"
	contentSuffix = "*"
)

func joinPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + pathSeparator + segment
}

func itemSegment(id valueobjects.ItemID) string {
	return itemPrefix + id.String()
}

// resolvePath walks a path down from root and returns the node the final
// segment lives on together with that segment. For "a/b/c" it returns the
// node at "a/b" and "c"; the caller decides whether "c" names a member, an
// item, or a key. A nil node means the path does not resolve in this graph.
func resolvePath(root *entities.Node, path string) (*entities.Node, string) {
	segments := strings.Split(path, pathSeparator)
	n := root
	for _, seg := range segments[:len(segments)-1] {
		n = step(n, seg)
		if n == nil {
			return nil, ""
		}
	}
	return n, segments[len(segments)-1]
}

func step(n *entities.Node, segment string) *entities.Node {
	if strings.HasPrefix(segment, itemPrefix) {
		id, err := valueobjects.NewItemIDFromString(strings.TrimPrefix(segment, itemPrefix))
		if err != nil {
			return nil
		}
		it, err := n.ItemByID(id)
		if err != nil {
			return nil
		}
		return it.Node()
	}
	return n.Member(segment)
}
