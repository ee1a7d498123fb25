package services

import (
	domainconfig "assetgraph/domain/config"
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/core/valueobjects"
	domainservices "assetgraph/domain/services"
	"assetgraph/infrastructure/persistence/overridecodec"
	pkgerrors "assetgraph/pkg/errors"
	"go.uber.org/zap"
)

// ClearedOverride records one marker removed by ClearAllOverrides so it can
// be restored later
type ClearedOverride = overridecodec.Entry

// DocumentSession ties one open document to its override machinery: the
// change listener, the base link, and the reconciler. All methods are
// synchronous; callers drive the session from a single goroutine.
type DocumentSession struct {
	config *domainconfig.DomainConfig
	logger *zap.Logger

	doc        *aggregates.Document
	guard      *domainservices.PropagationGuard
	listener   *domainservices.GraphListener
	linker     *domainservices.BaseLinker
	reconciler *domainservices.Reconciler
}

// NewDocumentSession creates a session; Open must be called before any
// other method
func NewDocumentSession(cfg *domainconfig.DomainConfig, logger *zap.Logger) *DocumentSession {
	if cfg == nil {
		cfg = domainconfig.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentSession{
		config: cfg,
		logger: logger,
	}
}

// Open attaches the session to a document and applies any persisted
// override markers
func (s *DocumentSession) Open(doc *aggregates.Document, persisted overridecodec.OverrideMap) error {
	if doc == nil {
		return pkgerrors.NewValidation("document is required")
	}
	if s.doc != nil {
		return pkgerrors.NewValidation("session already open; Dispose first")
	}

	s.doc = doc
	s.guard = domainservices.NewPropagationGuard()

	listener, err := domainservices.NewGraphListener(doc, s.guard)
	if err != nil {
		return err
	}
	s.listener = listener

	reconciler, err := domainservices.NewReconciler(s.guard, nil, nil)
	if err != nil {
		return err
	}
	s.reconciler = reconciler

	linker, err := domainservices.NewBaseLinker(reconciler, s.guard)
	if err != nil {
		return err
	}
	s.linker = linker

	if len(persisted) > 0 {
		overridecodec.Import(doc, persisted)
	}

	s.logger.Info("document session opened",
		zap.String("documentID", doc.ID().String()),
		zap.String("name", doc.Name()),
		zap.Int("persistedOverrides", len(persisted)),
	)
	return nil
}

// RelinkBase points the document at a new base, tearing down the previous
// link first. A nil base leaves the document standalone.
func (s *DocumentSession) RelinkBase(base *aggregates.Document) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if s.linker.Linked() {
		s.linker.Unlink()
	}
	opts := domainservices.LinkOptions{Propagate: s.config.PropagateBaseChanges}
	if err := s.linker.Link(s.doc, base, opts); err != nil {
		return err
	}
	if base != nil {
		s.logger.Info("base relinked",
			zap.String("documentID", s.doc.ID().String()),
			zap.String("baseID", base.ID().String()),
		)
	}
	return nil
}

// ReconcileAll runs the merge pass over the whole document
func (s *DocumentSession) ReconcileAll() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.reconciler.Reconcile(s.doc.Root())
}

// Reconcile runs the merge pass over one subtree
func (s *DocumentSession) Reconcile(from *entities.Node) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.reconciler.Reconcile(from)
}

// ClearAllOverrides resets every marker in the document to inherited state
// and returns what was cleared, for undo
func (s *DocumentSession) ClearAllOverrides() []ClearedOverride {
	if s.doc == nil {
		return nil
	}
	cleared := overridecodec.Export(s.doc)
	s.doc.Visit(func(n *entities.Node) bool {
		n.SetOverride(valueobjects.OverrideBase)
		for _, it := range n.Items() {
			idx, err := n.IDToIndex(it.ID())
			if err != nil {
				continue
			}
			_ = n.SetItemOverride(idx, valueobjects.OverrideBase)
			if n.Kind() == entities.KindDictionary {
				_ = n.SetKeyOverride(valueobjects.NewKeyIndex(it.Key()), valueobjects.OverrideBase)
			}
		}
		return true
	})
	s.logger.Info("overrides cleared",
		zap.String("documentID", s.doc.ID().String()),
		zap.Int("count", len(cleared)),
	)
	return cleared
}

// RestoreOverrides re-applies markers previously returned by
// ClearAllOverrides
func (s *DocumentSession) RestoreOverrides(cleared []ClearedOverride) {
	if s.doc == nil || len(cleared) == 0 {
		return
	}
	overridecodec.Import(s.doc, overridecodec.OverrideMap(cleared))
	s.logger.Info("overrides restored",
		zap.String("documentID", s.doc.ID().String()),
		zap.Int("count", len(cleared)),
	)
}

// PrepareForSave returns the override state to persist alongside the
// document
func (s *DocumentSession) PrepareForSave() overridecodec.OverrideMap {
	if s.doc == nil {
		return nil
	}
	return overridecodec.Export(s.doc)
}

// Sidecar returns the full persisted form, identifier tables included
func (s *DocumentSession) Sidecar() *overridecodec.Sidecar {
	if s.doc == nil {
		return nil
	}
	return overridecodec.BuildSidecar(s.doc)
}

// SubscribeChanged registers a handler for enriched content change events
func (s *DocumentSession) SubscribeChanged(h domainservices.ChangedHandler) (int, error) {
	if err := s.requireOpen(); err != nil {
		return 0, err
	}
	return s.listener.SubscribeChanged(h), nil
}

// SubscribeBaseApplied registers a handler fired after base edits are
// propagated into this document
func (s *DocumentSession) SubscribeBaseApplied(h domainservices.BaseAppliedHandler) (int, error) {
	if err := s.requireOpen(); err != nil {
		return 0, err
	}
	return s.linker.SubscribeBaseApplied(h), nil
}

// Document returns the open document, or nil
func (s *DocumentSession) Document() *aggregates.Document {
	return s.doc
}

// Dispose tears the session down: the base link and every subscription are
// removed before the document is released
func (s *DocumentSession) Dispose() {
	if s.doc == nil {
		return
	}
	if s.linker != nil {
		s.linker.Unlink()
	}
	if s.listener != nil {
		s.listener.Detach()
	}
	s.logger.Info("document session disposed",
		zap.String("documentID", s.doc.ID().String()),
	)
	s.doc = nil
	s.listener = nil
	s.linker = nil
	s.reconciler = nil
	s.guard = nil
}

func (s *DocumentSession) requireOpen() error {
	if s.doc == nil {
		return pkgerrors.NewValidation("session is not open")
	}
	return nil
}
