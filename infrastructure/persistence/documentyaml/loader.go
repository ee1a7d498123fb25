// Package documentyaml builds document graphs from YAML files and writes
// them back. Three local tags carry the schema hints YAML itself cannot
// express:
//
//	!dict   a mapping whose entries carry stable identifiers and key
//	        override state, instead of a plain object
//	!ref    a reference to another node: {target: <uuid>, type: <name>}
//	!res    a reference to an external resource: {asset: <id>, location: <path>}
//
// Everything else follows the obvious mapping: mappings become objects,
// sequences become collections, scalars become values. Item identifiers
// are assigned from the override sidecar when one is supplied, so a
// reloaded document keeps the identifiers it was saved with.
package documentyaml

import (
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	"assetgraph/infrastructure/persistence/overridecodec"
	pkgerrors "assetgraph/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	tagDict = "!dict"
	tagRef  = "!ref"
	tagRes  = "!res"
)

// LoadOptions controls how a YAML document is turned into a graph
type LoadOptions struct {
	// Name becomes the document name
	Name string
	// Sidecar, when present, supplies persisted item identifiers,
	// tombstones, and override markers
	Sidecar *overridecodec.Sidecar
}

// Load parses a YAML document into a graph and, when a sidecar is given,
// restores its identifiers, tombstones, and override markers
func Load(data []byte, opts LoadOptions) (*aggregates.Document, error) {
	var raw yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to parse document")
	}
	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, pkgerrors.NewValidation("document is empty")
	}

	b := &builder{sidecar: opts.Sidecar}
	root, err := b.node(raw.Content[0], "")
	if err != nil {
		return nil, err
	}
	doc, err := aggregates.NewDocument(opts.Name, root)
	if err != nil {
		return nil, err
	}
	if opts.Sidecar != nil {
		overridecodec.ApplyTombstones(doc, opts.Sidecar.Items)
		overridecodec.Import(doc, opts.Sidecar.Overrides)
	}
	return doc, nil
}

type builder struct {
	sidecar *overridecodec.Sidecar
}

func (b *builder) node(y *yaml.Node, path string) (*entities.Node, error) {
	switch y.Kind {
	case yaml.MappingNode:
		switch y.Tag {
		case tagRef:
			return b.refNode(y)
		case tagRes:
			return b.resNode(y)
		case tagDict:
			return b.dictNode(y, path)
		}
		return b.objectNode(y, path)
	case yaml.SequenceNode:
		return b.collectionNode(y, path)
	case yaml.ScalarNode:
		var v interface{}
		if err := y.Decode(&v); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to decode scalar at "+describe(path))
		}
		return entities.NewValueNode(v), nil
	case yaml.AliasNode:
		return b.node(y.Alias, path)
	}
	return nil, pkgerrors.NewValidation("unsupported node kind at " + describe(path))
}

func (b *builder) objectNode(y *yaml.Node, path string) (*entities.Node, error) {
	n := entities.NewObjectNode()
	for i := 0; i+1 < len(y.Content); i += 2 {
		key := y.Content[i].Value
		child, err := b.node(y.Content[i+1], joinMember(path, key))
		if err != nil {
			return nil, err
		}
		if err := n.AddMember(key, child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *builder) dictNode(y *yaml.Node, path string) (*entities.Node, error) {
	n := entities.NewDictionaryNode()
	ids := b.sidecar.IDsAt(path)
	for i := 0; i+1 < len(y.Content); i += 2 {
		key := y.Content[i].Value
		id := idAt(ids, i/2)
		child, err := b.node(y.Content[i+1], joinItem(path, id))
		if err != nil {
			return nil, err
		}
		if _, err := n.AddEntryWithID(key, child, id); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *builder) collectionNode(y *yaml.Node, path string) (*entities.Node, error) {
	n := entities.NewCollectionNode()
	ids := b.sidecar.IDsAt(path)
	for pos, entry := range y.Content {
		id := idAt(ids, pos)
		child, err := b.node(entry, joinItem(path, id))
		if err != nil {
			return nil, err
		}
		if _, err := n.InsertItemWithID(pos, child, id); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *builder) refNode(y *yaml.Node) (*entities.Node, error) {
	var raw struct {
		Target string `yaml:"target"`
		Type   string `yaml:"type"`
	}
	if err := y.Decode(&raw); err != nil {
		return nil, pkgerrors.Wrap(err, "malformed node reference")
	}
	target, err := valueobjects.NewNodeIDFromString(raw.Target)
	if err != nil {
		return nil, err
	}
	return entities.NewValueNode(valueobjects.NewObjectReference(target, raw.Type)), nil
}

func (b *builder) resNode(y *yaml.Node) (*entities.Node, error) {
	var raw struct {
		Asset    string `yaml:"asset"`
		Location string `yaml:"location"`
	}
	if err := y.Decode(&raw); err != nil {
		return nil, pkgerrors.Wrap(err, "malformed resource reference")
	}
	return entities.NewValueNode(valueobjects.NewResourceReference(raw.Asset, raw.Location)), nil
}

// idAt returns the persisted identifier for a position, or a fresh one
// when the sidecar has no entry for it
func idAt(ids []valueobjects.ItemID, pos int) valueobjects.ItemID {
	if pos < len(ids) {
		return ids[pos]
	}
	return valueobjects.NewItemID()
}

func joinMember(path, name string) string {
	if path == "" {
		return name
	}
	return path + "/" + name
}

func joinItem(path string, id valueobjects.ItemID) string {
	return joinMember(path, "#"+id.String())
}

func describe(path string) string {
	if path == "" {
		return "document root"
	}
	return path
}
