package documentyaml

import (
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	pkgerrors "assetgraph/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Save serializes a document graph back to YAML. Override state is not
// part of the output; it lives in the sidecar built by
// overridecodec.BuildSidecar.
func Save(doc *aggregates.Document) ([]byte, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidation("document is required")
	}
	root, err := encodeNode(doc.Root())
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode document")
	}
	return data, nil
}

func encodeNode(n *entities.Node) (*yaml.Node, error) {
	switch n.Kind() {
	case entities.KindValue:
		return encodeValue(n.Value())
	case entities.KindObject:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, name := range n.MemberNames() {
			child, err := encodeNode(n.Member(name))
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, scalarKey(name), child)
		}
		return out, nil
	case entities.KindDictionary:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: tagDict}
		for _, it := range n.Items() {
			child, err := encodeNode(it.Node())
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, scalarKey(it.Key()), child)
		}
		return out, nil
	case entities.KindCollection:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range n.Items() {
			child, err := encodeNode(it.Node())
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, child)
		}
		return out, nil
	}
	return nil, pkgerrors.NewInternal("unknown node kind", nil)
}

func encodeValue(v interface{}) (*yaml.Node, error) {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	switch ref := v.(type) {
	case valueobjects.ObjectReference:
		out := &yaml.Node{}
		err := out.Encode(map[string]string{
			"target": ref.TargetID().String(),
			"type":   ref.TypeName(),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to encode node reference")
		}
		out.Tag = tagRef
		return out, nil
	case valueobjects.ResourceReference:
		out := &yaml.Node{}
		err := out.Encode(map[string]string{
			"asset":    ref.AssetID(),
			"location": ref.Location(),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to encode resource reference")
		}
		out.Tag = tagRes
		return out, nil
	default:
		out := &yaml.Node{}
		if err := out.Encode(v); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to encode value")
		}
		return out, nil
	}
}

func scalarKey(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

// Derive creates a new document inheriting from base: structure and item
// identifiers are preserved so the identity correspondence is exact, the
// node identifiers are fresh. The caller links the pair afterwards.
func Derive(base *aggregates.Document, name string) (*aggregates.Document, error) {
	if base == nil {
		return nil, pkgerrors.NewValidation("base document is required")
	}
	return aggregates.NewDocument(name, base.Root().CloneSubtree())
}
