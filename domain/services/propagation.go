package services

// PropagationGuard is the process-wide re-entrancy flag marking that the
// engine is currently replaying base changes into a derived graph. It lets
// change handlers distinguish propagated mutations from ordinary local
// edits. The flag is scoped: Run clears it when the walk finishes, even on
// error or panic. Nesting is allowed because reconciliation of one node can
// trigger reconciliation of another.
type PropagationGuard struct {
	depth int
}

// NewPropagationGuard creates an inactive guard
func NewPropagationGuard() *PropagationGuard {
	return &PropagationGuard{}
}

// Active reports whether a base-propagation pass is in progress
func (g *PropagationGuard) Active() bool {
	return g.depth > 0
}

// Run executes fn with the guard active, restoring the previous state when
// fn returns
func (g *PropagationGuard) Run(fn func() error) error {
	g.depth++
	defer func() {
		g.depth--
	}()
	return fn()
}
