// Package artifact wraps an artifact store with in-memory read caches for
// generated files and their listings.
package artifact

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	artifactrepo "legacyport/internal/gateway/repository/artifact"
)

type Store = artifactrepo.Store

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	// BlobMaxBytes is the largest artifact kept in memory; bigger ones always
	// go to the origin. Zero disables the limit.
	BlobMaxBytes int

	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 1024,
		BlobMaxBytes:   64 * 1024 * 1024,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 512,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:       m.blobHits.Load(),
		BlobMisses:     m.blobMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a write-through, read-through cache over an origin Store.
// Previews of a freshly generated project are served from memory.
type CachedStore struct {
	origin Store

	blobCache    *expirable.LRU[string, []byte]
	listCache    *expirable.LRU[string, []string]
	maxBlobBytes int
	metrics      metrics
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.BlobMaxBytes < 0 {
		cfg.BlobMaxBytes = def.BlobMaxBytes
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	return &CachedStore{
		origin:    origin,
		blobCache:    expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		listCache:    expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
		maxBlobBytes: cfg.BlobMaxBytes,
	}
}

func (s *CachedStore) cacheBlob(key string, raw []byte) {
	if s.maxBlobBytes > 0 && len(raw) > s.maxBlobBytes {
		s.blobCache.Remove(key)
		return
	}
	s.blobCache.Add(key, append([]byte(nil), raw...))
}

func (s *CachedStore) Put(ctx context.Context, projectID, name string, content []byte) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, projectID, name, content); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.cacheBlob(artifactKey(projectID, name), content)
	s.listCache.Remove(strings.TrimSpace(projectID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, projectID, name string) ([]byte, error) {
	key := artifactKey(projectID, name)
	if raw, ok := s.blobCache.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, projectID, name)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.cacheBlob(key, raw)
	return raw, nil
}

func (s *CachedStore) List(ctx context.Context, projectID string) ([]string, error) {
	projectID = strings.TrimSpace(projectID)
	if list, ok := s.listCache.Get(projectID); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx, projectID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.listCache.Add(projectID, append([]string(nil), list...))
	return list, nil
}

// Delete drops the project from the origin and from both caches. The caches
// are cleared even when the origin fails.
func (s *CachedStore) Delete(ctx context.Context, projectID string) error {
	id := strings.TrimSpace(projectID)
	prefix := id + "/"
	for _, key := range s.blobCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.blobCache.Remove(key)
		}
	}
	s.listCache.Remove(id)
	s.metrics.originWrites.Add(1)
	if err := s.origin.Delete(ctx, projectID); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	return nil
}

func artifactKey(projectID, name string) string {
	return strings.TrimSpace(projectID) + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}
