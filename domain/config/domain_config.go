package config

// DomainConfig holds business rules for document inheritance
type DomainConfig struct {
	// PropagateBaseChanges controls whether base-side edits are replayed
	// into derived documents at the container level
	PropagateBaseChanges bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		PropagateBaseChanges: true,
	}
}
