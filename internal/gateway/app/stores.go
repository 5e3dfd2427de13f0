package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	artifactcache "legacyport/internal/cache/artifact"
	"legacyport/internal/gateway/config"
	artifactrepo "legacyport/internal/gateway/repository/artifact"
	"legacyport/internal/gateway/repository/projectstore"
)

type gatewayStores struct {
	artifact artifactrepo.Store
	projects *projectstore.Store
	db       *sql.DB
}

func (s *gatewayStores) Close() error {
	if s == nil {
		return nil
	}
	err := s.projects.Close()
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func initStores(ctx context.Context, cfg *config.Config) (*gatewayStores, error) {
	stores := &gatewayStores{
		projects: projectstore.Open(ctx, cfg.ProjectStateFile, cfg.ProjectStoreDSN),
	}
	if err := stores.projects.EnsureLoaded(); err != nil {
		return nil, fmt.Errorf("failed to load project store: %w", err)
	}

	origin, err := chooseArtifactStore(ctx, cfg, stores)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	stores.artifact = artifactcache.NewCachedStore(origin, artifactcache.DefaultCacheConfig())
	return stores, nil
}

// chooseArtifactStore prefers S3, then Postgres, then the local output
// directory.
func chooseArtifactStore(ctx context.Context, cfg *config.Config, stores *gatewayStores) (artifactrepo.Store, error) {
	if cfg.Artifact.CanUseS3() {
		s3Cfg := artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		}
		s3Store, err := artifactrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		return s3Store, nil
	}
	if cfg.Artifact.Enabled {
		log.Printf("artifact store: s3 config incomplete, falling back")
	}

	if dsn := strings.TrimSpace(cfg.Artifact.DatabaseURL); dsn != "" {
		db, err := artifactrepo.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open artifact db: %w", err)
		}
		stores.db = db
		log.Printf("artifact store: postgres")
		return artifactrepo.NewPostgresStore(db), nil
	}

	fileStore, err := artifactrepo.NewFileStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	log.Printf("artifact store: filesystem root=%s", cfg.OutputDir)
	return fileStore, nil
}
