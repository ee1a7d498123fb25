package documentyaml

import (
	"testing"

	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	"assetgraph/infrastructure/persistence/overridecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const machineYAML = `
name: drill
speed: 10
enabled: true
parts:
  - wheel
  - axle
stats: !dict
  hp: 100
  armor: 12.5
`

func TestLoadBuildsGraph(t *testing.T) {
	doc, err := Load([]byte(machineYAML), LoadOptions{Name: "machine"})
	require.NoError(t, err)

	root := doc.Root()
	assert.Equal(t, entities.KindObject, root.Kind())
	assert.Equal(t, []string{"name", "speed", "enabled", "parts", "stats"}, root.MemberNames())
	assert.Equal(t, "drill", root.Member("name").Value())
	assert.Equal(t, 10, root.Member("speed").Value())
	assert.Equal(t, true, root.Member("enabled").Value())

	parts := root.Member("parts")
	assert.Equal(t, entities.KindCollection, parts.Kind())
	assert.True(t, parts.IdentityTracked())
	require.Equal(t, 2, parts.Len())
	assert.Equal(t, "wheel", parts.Items()[0].Node().Value())

	stats := root.Member("stats")
	assert.Equal(t, entities.KindDictionary, stats.Kind())
	hp, err := stats.ItemAt(valueobjects.NewKeyIndex("hp"))
	require.NoError(t, err)
	assert.Equal(t, 100, hp.Node().Value())
	armor, err := stats.ItemAt(valueobjects.NewKeyIndex("armor"))
	require.NoError(t, err)
	assert.Equal(t, 12.5, armor.Node().Value())
}

func TestLoadReferences(t *testing.T) {
	target := valueobjects.NewNodeID()
	src := `
engine: !ref
  target: ` + target.String() + `
  type: Engine
texture: !res
  asset: tex-42
  location: textures/hull.png
`
	doc, err := Load([]byte(src), LoadOptions{Name: "refs"})
	require.NoError(t, err)

	engine, ok := doc.Root().Member("engine").Value().(valueobjects.ObjectReference)
	require.True(t, ok)
	assert.Equal(t, target, engine.TargetID())
	assert.Equal(t, "Engine", engine.TypeName())

	texture, ok := doc.Root().Member("texture").Value().(valueobjects.ResourceReference)
	require.True(t, ok)
	assert.Equal(t, "tex-42", texture.AssetID())
	assert.Equal(t, "textures/hull.png", texture.Location())
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty document", src: ""},
		{name: "malformed yaml", src: "\t{"},
		{name: "malformed reference", src: "engine: !ref\n  target: not-a-uuid\n  type: Engine\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.src), LoadOptions{Name: "bad"})
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc, err := Load([]byte(machineYAML), LoadOptions{Name: "machine"})
	require.NoError(t, err)

	data, err := Save(doc)
	require.NoError(t, err)
	again, err := Load(data, LoadOptions{Name: "machine"})
	require.NoError(t, err)

	root := again.Root()
	assert.Equal(t, []string{"name", "speed", "enabled", "parts", "stats"}, root.MemberNames())
	assert.Equal(t, entities.KindDictionary, root.Member("stats").Kind())
	assert.Equal(t, 10, root.Member("speed").Value())
	require.Equal(t, 2, root.Member("parts").Len())
	assert.Equal(t, "axle", root.Member("parts").Items()[1].Node().Value())
}

func TestSidecarPreservesIdentifiers(t *testing.T) {
	doc, err := Load([]byte(machineYAML), LoadOptions{Name: "machine"})
	require.NoError(t, err)
	parts := doc.Root().Member("parts")
	require.NoError(t, parts.SetItemOverride(valueobjects.NewIndex(1), valueobjects.OverrideNew))

	data, err := Save(doc)
	require.NoError(t, err)
	sidecar := overridecodec.BuildSidecar(doc)

	again, err := Load(data, LoadOptions{Name: "machine", Sidecar: sidecar})
	require.NoError(t, err)
	againParts := again.Root().Member("parts")

	for i, it := range parts.Items() {
		assert.Equal(t, it.ID(), againParts.Items()[i].ID())
	}
	m, err := againParts.ItemOverride(valueobjects.NewIndex(1))
	require.NoError(t, err)
	assert.Equal(t, valueobjects.OverrideNew, m)
}

func TestSidecarRestoresTombstones(t *testing.T) {
	doc, err := Load([]byte(machineYAML), LoadOptions{Name: "machine"})
	require.NoError(t, err)
	parts := doc.Root().Member("parts")
	ghost := valueobjects.NewItemID()
	parts.MarkDeleted(ghost)

	data, err := Save(doc)
	require.NoError(t, err)
	sidecar := overridecodec.BuildSidecar(doc)

	again, err := Load(data, LoadOptions{Name: "machine", Sidecar: sidecar})
	require.NoError(t, err)
	assert.True(t, again.Root().Member("parts").IsDeleted(ghost))
}

func TestDerivePreservesItemIdentity(t *testing.T) {
	base, err := Load([]byte(machineYAML), LoadOptions{Name: "base"})
	require.NoError(t, err)

	derived, err := Derive(base, "derived")
	require.NoError(t, err)

	assert.Equal(t, "derived", derived.Name())
	baseParts := base.Root().Member("parts")
	derivedParts := derived.Root().Member("parts")
	require.Equal(t, baseParts.Len(), derivedParts.Len())
	for i := range baseParts.Items() {
		assert.Equal(t, baseParts.Items()[i].ID(), derivedParts.Items()[i].ID())
	}
	assert.NotEqual(t, base.ID(), derived.ID())
}
