package valueobjects

// ObjectReference is a non-owning link to another node in the same document.
// The referenced node is reconciled where it lives, so two object references
// only diverge meaningfully when the referenced type changes.
type ObjectReference struct {
	targetID NodeID
	typeName string
}

// NewObjectReference creates a reference to a node of the given type
func NewObjectReference(targetID NodeID, typeName string) ObjectReference {
	return ObjectReference{targetID: targetID, typeName: typeName}
}

// TargetID returns the referenced node's identifier
func (r ObjectReference) TargetID() NodeID {
	return r.targetID
}

// TypeName returns the declared type of the referenced node
func (r ObjectReference) TypeName() string {
	return r.typeName
}

// SameType checks whether another reference points at the same type
func (r ObjectReference) SameType(other ObjectReference) bool {
	return r.typeName == other.typeName
}

// ResourceReference locates external content (a texture, a sound, another
// asset) by stable identity plus a locator
type ResourceReference struct {
	assetID  string
	location string
}

// NewResourceReference creates a resource reference
func NewResourceReference(assetID, location string) ResourceReference {
	return ResourceReference{assetID: assetID, location: location}
}

// AssetID returns the stable identity of the referenced resource
func (r ResourceReference) AssetID() string {
	return r.assetID
}

// Location returns the locator of the referenced resource
func (r ResourceReference) Location() string {
	return r.location
}

// Equals checks identity and locator
func (r ResourceReference) Equals(other ResourceReference) bool {
	return r.assetID == other.assetID && r.location == other.location
}
