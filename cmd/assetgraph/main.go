// Command assetgraph opens a derived document against its base, replays
// persisted overrides, reconciles, and writes the result back. With -watch
// it stays running and re-reconciles whenever the base file changes on
// disk.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appservices "assetgraph/application/services"
	domainconfig "assetgraph/domain/config"
	"assetgraph/domain/core/aggregates"
	"assetgraph/domain/core/entities"
	"assetgraph/domain/events"
	infraconfig "assetgraph/infrastructure/config"
	"assetgraph/infrastructure/persistence/documentyaml"
	"assetgraph/infrastructure/persistence/overridecodec"
	"assetgraph/pkg/config"
	pkgerrors "assetgraph/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	var (
		docPath     = flag.String("doc", "", "derived document to open (YAML)")
		basePath    = flag.String("base", "", "base document the derived one inherits from")
		sidecarPath = flag.String("overrides", "", "override sidecar to load (defaults to <doc>.overrides.yaml)")
		outPath     = flag.String("out", "", "write the reconciled document here (defaults to in-place)")
		watch       = flag.Bool("watch", false, "keep running and reconcile on base file changes")
	)
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *docPath == "" {
		logger.Fatal("-doc is required")
	}
	if *sidecarPath == "" {
		*sidecarPath = *docPath + ".overrides.yaml"
	}
	if *outPath == "" {
		*outPath = *docPath
	}

	if err := run(cfg, logger, *docPath, *basePath, *sidecarPath, *outPath, *watch); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, docPath, basePath, sidecarPath, outPath string, watch bool) error {
	doc, sidecar, err := loadDocument(logger, docPath, sidecarPath)
	if err != nil {
		return err
	}

	domainCfg := &domainconfig.DomainConfig{PropagateBaseChanges: cfg.PropagateBaseChanges}
	session := appservices.NewDocumentSession(domainCfg, logger)
	if err := session.Open(doc, sidecar.Overrides); err != nil {
		return err
	}
	defer session.Dispose()

	if _, err := session.SubscribeChanged(func(n *entities.Node, ev events.ContentChanged) {
		logger.Debug("content changed",
			zap.String("nodeID", ev.NodeID),
			zap.String("kind", string(ev.Kind)),
			zap.String("override", ev.NewOverride.String()),
		)
	}); err != nil {
		return err
	}

	if basePath != "" {
		base, err := loadBase(basePath)
		if err != nil {
			return err
		}
		if err := session.RelinkBase(base); err != nil {
			return err
		}
		if err := session.ReconcileAll(); err != nil {
			return err
		}
		logger.Info("reconciled against base",
			zap.String("doc", docPath),
			zap.String("base", basePath),
			zap.Int("overrides", len(session.PrepareForSave())),
		)
	}

	if err := save(session, outPath, sidecarPath); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	if basePath == "" {
		return fmt.Errorf("-watch requires -base")
	}
	return watchBase(session, logger, basePath, outPath, sidecarPath)
}

func loadDocument(logger *zap.Logger, docPath, sidecarPath string) (*aggregates.Document, *overridecodec.Sidecar, error) {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, nil, err
	}
	sidecar := &overridecodec.Sidecar{Version: overridecodec.SidecarVersion}
	if raw, err := os.ReadFile(sidecarPath); err == nil {
		decoded, err := overridecodec.DecodeSidecar(raw)
		switch {
		case err == nil:
			sidecar = decoded
		case pkgerrors.IsCorrupted(err):
			// A mangled sidecar loses override state but must not block the
			// document itself from opening
			logger.Warn("ignoring corrupted override sidecar",
				zap.String("path", sidecarPath), zap.Error(err))
		default:
			return nil, nil, err
		}
	}
	doc, err := documentyaml.Load(data, documentyaml.LoadOptions{
		Name:    docPath,
		Sidecar: sidecar,
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, sidecar, nil
}

func loadBase(basePath string) (*aggregates.Document, error) {
	data, err := os.ReadFile(basePath)
	if err != nil {
		return nil, err
	}
	baseSidecar := loadOptionalSidecar(basePath + ".overrides.yaml")
	return documentyaml.Load(data, documentyaml.LoadOptions{
		Name:    basePath,
		Sidecar: baseSidecar,
	})
}

func loadOptionalSidecar(path string) *overridecodec.Sidecar {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	sidecar, err := overridecodec.DecodeSidecar(raw)
	if err != nil {
		return nil
	}
	return sidecar
}

func save(session *appservices.DocumentSession, outPath, sidecarPath string) error {
	data, err := documentyaml.Save(session.Document())
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}
	sidecarData, err := overridecodec.EncodeSidecar(session.Sidecar())
	if err != nil {
		return err
	}
	return os.WriteFile(sidecarPath, sidecarData, 0o644)
}

func watchBase(session *appservices.DocumentSession, logger *zap.Logger, basePath, outPath, sidecarPath string) error {
	watcher, err := infraconfig.NewWatcher(basePath, logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	watcher.OnChange(func(path string) {
		base, err := loadBase(path)
		if err != nil {
			logger.Error("failed to reload base", zap.Error(err))
			return
		}
		if err := session.RelinkBase(base); err != nil {
			logger.Error("failed to relink base", zap.Error(err))
			return
		}
		if err := session.ReconcileAll(); err != nil {
			logger.Error("reconcile failed", zap.Error(err))
			return
		}
		if err := save(session, outPath, sidecarPath); err != nil {
			logger.Error("failed to save document", zap.Error(err))
			return
		}
		logger.Info("base change applied", zap.String("base", path))
	})
	watcher.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	return nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = level
	return zapCfg.Build()
}
