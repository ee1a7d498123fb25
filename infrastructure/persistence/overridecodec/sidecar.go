package overridecodec

import (
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	pkgerrors "assetgraph/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SidecarVersion is the current sidecar format version
const SidecarVersion = 1

// ItemTable persists the stable identifiers of one identity-tracked
// collection: the identifier at each position plus the tombstoned ones.
// On load the table seeds the identity state so cross-document
// correspondence survives a process restart.
type ItemTable struct {
	Path    string   `yaml:"path"`
	IDs     []string `yaml:"ids"`
	Deleted []string `yaml:"deleted,omitempty"`
}

// Sidecar is the full persisted override state of one document
type Sidecar struct {
	Version   int         `yaml:"version"`
	Items     []ItemTable `yaml:"items,omitempty"`
	Overrides OverrideMap `yaml:"overrides,omitempty"`
}

// BuildSidecar captures the document's complete override state for saving
func BuildSidecar(doc *aggregates.Document) *Sidecar {
	s := &Sidecar{Version: SidecarVersion}
	if doc == nil {
		return s
	}
	collectItems(doc.Root(), "", &s.Items)
	s.Overrides = Export(doc)
	return s
}

func collectItems(n *entities.Node, path string, out *[]ItemTable) {
	if n.IdentityTracked() && (n.Len() > 0 || len(n.DeletedIDs()) > 0) {
		table := ItemTable{Path: path}
		for _, it := range n.Items() {
			table.IDs = append(table.IDs, it.ID().String())
		}
		for _, id := range n.DeletedIDs() {
			table.Deleted = append(table.Deleted, id.String())
		}
		*out = append(*out, table)
	}
	for _, name := range n.MemberNames() {
		collectItems(n.Member(name), joinPath(path, name), out)
	}
	for _, it := range n.Items() {
		collectItems(it.Node(), joinPath(path, itemSegment(it.ID())), out)
	}
}

// ApplyTombstones restores the persisted deletion markers. Tables whose
// path no longer resolves are skipped.
func ApplyTombstones(doc *aggregates.Document, tables []ItemTable) {
	if doc == nil {
		return
	}
	for _, table := range tables {
		n := nodeAtPath(doc.Root(), table.Path)
		if n == nil || !n.IdentityTracked() {
			continue
		}
		for _, raw := range table.Deleted {
			id, err := valueobjects.NewItemIDFromString(raw)
			if err != nil {
				continue
			}
			n.MarkDeleted(id)
		}
	}
}

// IDsAt returns the persisted identifier list for a collection path, in
// positional order. Loaders use it to recreate entries under their
// original identifiers.
func (s *Sidecar) IDsAt(path string) []valueobjects.ItemID {
	if s == nil {
		return nil
	}
	for _, table := range s.Items {
		if table.Path != path {
			continue
		}
		ids := make([]valueobjects.ItemID, 0, len(table.IDs))
		for _, raw := range table.IDs {
			id, err := valueobjects.NewItemIDFromString(raw)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		return ids
	}
	return nil
}

func nodeAtPath(root *entities.Node, path string) *entities.Node {
	if path == "" {
		return root
	}
	owner, last := resolvePath(root, path)
	if owner == nil {
		return nil
	}
	return step(owner, last)
}

// EncodeSidecar serializes the sidecar to YAML
func EncodeSidecar(s *Sidecar) ([]byte, error) {
	if s == nil {
		return nil, pkgerrors.NewValidation("sidecar is required")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to encode override sidecar", err)
	}
	return data, nil
}

// DecodeSidecar parses a sidecar from YAML
func DecodeSidecar(data []byte) (*Sidecar, error) {
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, pkgerrors.NewCorrupted("failed to decode override sidecar", err)
	}
	return &s, nil
}
