package app

import (
	"context"
	"fmt"
	"log"

	"legacyport/internal/extract"
	"legacyport/internal/gateway/config"
	"legacyport/internal/gateway/handler"
	"legacyport/internal/gateway/server"
	"legacyport/internal/ingest"
	"legacyport/internal/pipeline"
	"legacyport/internal/scan"
)

type App struct {
	server *server.Server
	stores *gatewayStores
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	stores, err := initStores(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	scanOpts := scan.Options{Extensions: cfg.SourceExtensions, IgnoreDirs: cfg.IgnoreDirs}
	deps := pipeline.Deps{
		Archiver:  ingest.ZipExtractor{MaxBytes: ingest.DefaultMaxBytes},
		Analyzer:  extract.New(extract.Options{Scan: scanOpts}),
		Artifacts: stores.artifact,
		Projects:  stores.projects,
		Events:    pipeline.NewHub(pipeline.DefaultHistorySize),
	}
	if cfg.RemoteFetchEnabled {
		deps.Fetcher = ingest.GitFetcher{Timeout: cfg.RemoteFetchTimeout}
	} else {
		log.Printf("remote fetch: disabled")
	}
	orch, err := pipeline.New(pipeline.Config{
		UploadDir:         cfg.UploadDir,
		ArchiveDir:        cfg.ArchiveDir,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		Scan:              scanOpts,
		AnalysisCacheSize: cfg.AnalysisCacheSize,
	}, deps)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	api := handler.NewAPI(orch, cfg.MaxUploadBytes)
	events := handler.NewEventsHandler(orch, cfg.AllowedOrigins)

	// Routing & Server
	mux := server.NewMux(api, events, cfg.AllowedOrigins)
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		stores: stores,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.stores.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
