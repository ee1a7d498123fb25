package services

import (
	"testing"

	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	"assetgraph/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseLinkerValidation(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	_, err := NewBaseLinker(nil, guard)
	assert.Error(t, err)

	_, err = NewBaseLinker(r, nil)
	assert.Error(t, err)
}

func TestLinkWiresLockStepPairs(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)
	base, baseParts := buildPartsDoc(t, "base", "a", "b")

	derivedRoot := base.Root().CloneSubtree()
	derived, err := aggregates.NewDocument("derived", derivedRoot)
	require.NoError(t, err)

	linker, err := NewBaseLinker(r, guard)
	require.NoError(t, err)
	require.NoError(t, linker.Link(derived, base, LinkOptions{}))
	defer linker.Unlink()

	assert.True(t, linker.Linked())
	assert.Same(t, base.Root(), derivedRoot.Base())

	derivedParts := derivedRoot.Member("parts")
	assert.Same(t, baseParts, derivedParts.Base())
	for i, it := range derivedParts.Items() {
		assert.Same(t, baseParts.Items()[i].Node(), it.Node().Base())
		assert.Equal(t, baseParts.Items()[i].ID(), it.ID())
	}
}

func TestLinkRejectsDoubleLink(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)
	base, _ := buildPartsDoc(t, "base", "a")

	derived, err := aggregates.NewDocument("derived", base.Root().CloneSubtree())
	require.NoError(t, err)

	linker, err := NewBaseLinker(r, guard)
	require.NoError(t, err)
	require.NoError(t, linker.Link(derived, base, LinkOptions{}))
	defer linker.Unlink()

	err = linker.Link(derived, base, LinkOptions{})
	assert.Error(t, err)
}

func TestLinkNilBaseIsLegal(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	root := entities.NewObjectNode()
	doc, err := aggregates.NewDocument("standalone", root)
	require.NoError(t, err)

	linker, err := NewBaseLinker(r, guard)
	require.NoError(t, err)
	require.NoError(t, linker.Link(doc, nil, LinkOptions{}))
	defer linker.Unlink()

	assert.True(t, linker.Linked())
	assert.False(t, root.HasBase())
}

func TestVisitPredicatePrunesLinking(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	baseRoot := entities.NewObjectNode()
	require.NoError(t, baseRoot.AddMember("linked", entities.NewValueNode(1)))
	require.NoError(t, baseRoot.AddMember("skipped", entities.NewValueNode(2)))
	base, err := aggregates.NewDocument("base", baseRoot)
	require.NoError(t, err)

	derivedRoot := baseRoot.CloneSubtree()
	derived, err := aggregates.NewDocument("derived", derivedRoot)
	require.NoError(t, err)

	linker, err := NewBaseLinker(r, guard)
	require.NoError(t, err)
	opts := LinkOptions{
		Visit: func(parent, child *entities.Node) bool {
			return child.MemberName() != "skipped"
		},
	}
	require.NoError(t, linker.Link(derived, base, opts))
	defer linker.Unlink()

	assert.True(t, derivedRoot.Member("linked").HasBase())
	assert.False(t, derivedRoot.Member("skipped").HasBase())
}

func TestResolverRedirectsBase(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	baseRoot := entities.NewObjectNode()
	structural := entities.NewValueNode(1)
	require.NoError(t, baseRoot.AddMember("speed", structural))
	redirect := entities.NewValueNode(42)
	base, err := aggregates.NewDocument("base", baseRoot)
	require.NoError(t, err)

	derivedRoot := baseRoot.CloneSubtree()
	derived, err := aggregates.NewDocument("derived", derivedRoot)
	require.NoError(t, err)

	linker, err := NewBaseLinker(r, guard)
	require.NoError(t, err)
	opts := LinkOptions{
		Resolver: func(d, s *entities.Node) *entities.Node {
			if s == structural {
				return redirect
			}
			return s
		},
	}
	require.NoError(t, linker.Link(derived, base, opts))
	defer linker.Unlink()

	assert.Same(t, redirect, derivedRoot.Member("speed").Base())
}

func TestUnlinkClearsEverything(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)
	base, baseParts := buildPartsDoc(t, "base", "a", "b")
	derived, _, linker := deriveDoc(t, base, guard, r)

	linker.Unlink()

	assert.False(t, linker.Linked())
	derivedParts := derived.Root().Member("parts")
	assert.False(t, derived.Root().HasBase())
	assert.False(t, derivedParts.HasBase())
	for _, it := range derivedParts.Items() {
		assert.False(t, it.Node().HasBase())
	}

	// Base edits no longer reach the derived graph
	require.NoError(t, baseParts.Items()[0].Node().SetValue("changed"))
	assert.Equal(t, []interface{}{"a", "b"}, partValues(derivedParts))

	// Re-linking after Unlink is allowed
	require.NoError(t, linker.Link(derived, base, LinkOptions{}))
	assert.True(t, linker.Linked())
	linker.Unlink()
}

func TestPropagationPublishesBaseApplied(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)
	base, _ := buildPartsDoc(t, "base", "a")
	derived, _, linker := deriveDoc(t, base, guard, r)
	defer linker.Unlink()

	var applied []events.BaseApplied
	handle := linker.SubscribeBaseApplied(func(ev events.BaseApplied) {
		applied = append(applied, ev)
	})

	baseParts := base.Root().Member("parts")
	require.NoError(t, baseParts.Items()[0].Node().SetValue("a2"))

	require.Len(t, applied, 1)
	assert.Equal(t, events.TypeBaseApplied, applied[0].GetEventType())
	derivedValue := derived.Root().Member("parts").Items()[0].Node()
	assert.Equal(t, "a2", derivedValue.Value())

	linker.UnsubscribeBaseApplied(handle)
	require.NoError(t, baseParts.Items()[0].Node().SetValue("a3"))
	assert.Len(t, applied, 1)
	assert.Equal(t, "a3", derivedValue.Value())
}

func TestPropagationDisabled(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)
	base, baseParts := buildPartsDoc(t, "base", "a")

	derivedRoot := base.Root().CloneSubtree()
	derived, err := aggregates.NewDocument("derived", derivedRoot)
	require.NoError(t, err)
	_, err = NewGraphListener(derived, guard)
	require.NoError(t, err)

	linker, err := NewBaseLinker(r, guard)
	require.NoError(t, err)
	require.NoError(t, linker.Link(derived, base, LinkOptions{Propagate: false}))
	defer linker.Unlink()

	require.NoError(t, baseParts.Items()[0].Node().SetValue("a2"))

	// Links exist but nothing is replayed until an explicit pass
	derivedParts := derivedRoot.Member("parts")
	assert.Equal(t, []interface{}{"a"}, partValues(derivedParts))

	require.NoError(t, r.Reconcile(derivedRoot))
	assert.Equal(t, []interface{}{"a2"}, partValues(derivedParts))
}

func TestPropagationThroughNestedStructure(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	// parts is a collection of objects, each with a "mass" member
	baseRoot := entities.NewObjectNode()
	parts := entities.NewCollectionNode()
	require.NoError(t, baseRoot.AddMember("parts", parts))
	child := entities.NewObjectNode()
	require.NoError(t, child.AddMember("mass", entities.NewValueNode(5)))
	_, err := parts.AppendItem(child)
	require.NoError(t, err)
	base, err := aggregates.NewDocument("base", baseRoot)
	require.NoError(t, err)

	derived, _, linker := deriveDoc(t, base, guard, r)
	defer linker.Unlink()

	require.NoError(t, child.Member("mass").SetValue(7))

	derivedMass := derived.Root().Member("parts").Items()[0].Node().Member("mass")
	assert.Equal(t, 7, derivedMass.Value())
	assert.Equal(t, valueobjects.OverrideBase, derivedMass.Override())
}

func TestBaseEditInsideOverriddenItemDoesNotPropagate(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	baseRoot := entities.NewObjectNode()
	parts := entities.NewCollectionNode()
	require.NoError(t, baseRoot.AddMember("parts", parts))
	child := entities.NewObjectNode()
	require.NoError(t, child.AddMember("mass", entities.NewValueNode(5)))
	_, err := parts.AppendItem(child)
	require.NoError(t, err)
	base, err := aggregates.NewDocument("base", baseRoot)
	require.NoError(t, err)

	derived, _, linker := deriveDoc(t, base, guard, r)
	defer linker.Unlink()
	derivedParts := derived.Root().Member("parts")
	require.NoError(t, derivedParts.SetItemOverride(valueobjects.NewIndex(0), valueobjects.OverrideNew))

	// The replay roots at the member's counterpart, below the overridden
	// entry; the shield must still hold
	require.NoError(t, child.Member("mass").SetValue(7))

	derivedMass := derivedParts.Items()[0].Node().Member("mass")
	assert.Equal(t, 5, derivedMass.Value())
}

func TestBaseEditToLocallyRemovedEntry(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)
	base, baseParts := buildPartsDoc(t, "base", "a", "b")
	derived, _, linker := deriveDoc(t, base, guard, r)
	defer linker.Unlink()

	derivedParts := derived.Root().Member("parts")
	idA := derivedParts.Items()[0].ID()
	require.NoError(t, derivedParts.RemoveItemAt(valueobjects.NewIndex(0)))
	require.True(t, derivedParts.IsDeleted(idA))

	var applied []events.BaseApplied
	linker.SubscribeBaseApplied(func(ev events.BaseApplied) {
		applied = append(applied, ev)
	})

	// The base edits the entry the derived side deleted; the replay lands
	// on the nearest surviving ancestor, not the detached counterpart
	require.NoError(t, baseParts.Items()[0].Node().SetValue("a2"))

	assert.Equal(t, []interface{}{"b"}, partValues(derivedParts))
	assert.True(t, derivedParts.IsDeleted(idA), "deletion must survive base edits to the deleted entry")

	require.Len(t, applied, 1)
	nodeID, err := valueobjects.NewNodeIDFromString(applied[0].NodeID)
	require.NoError(t, err)
	assert.NotNil(t, derived.NodeByID(nodeID),
		"base-applied must reference a node that exists in the derived document")
}

func TestDerivedChainCascades(t *testing.T) {
	guard := NewPropagationGuard()
	r := newTestReconciler(t, guard)

	// grandparent -> parent -> child chain of documents
	grand, grandParts := buildPartsDoc(t, "grand", "a")
	parent, _, parentLinker := deriveDoc(t, grand, guard, r)
	defer parentLinker.Unlink()
	child, _, childLinker := deriveDoc(t, parent, guard, r)
	defer childLinker.Unlink()

	require.NoError(t, grandParts.Items()[0].Node().SetValue("a2"))

	assert.Equal(t, []interface{}{"a2"}, partValues(parent.Root().Member("parts")))
	assert.Equal(t, []interface{}{"a2"}, partValues(child.Root().Member("parts")))
}
