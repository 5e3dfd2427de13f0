package artifact

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	artifactrepo "legacyport/internal/gateway/repository/artifact"
)

type fakeOriginStore struct {
	mu sync.Mutex

	data map[string][]byte

	getCalls    int
	putCalls    int
	listCalls   int
	deleteCalls int

	failPut bool
}

func newFakeOriginStore() *fakeOriginStore {
	return &fakeOriginStore{data: map[string][]byte{}}
}

func (s *fakeOriginStore) Put(_ context.Context, projectID, name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.failPut {
		return fmt.Errorf("put failed")
	}
	s.data[projectID+"/"+name] = append([]byte(nil), content...)
	return nil
}

func (s *fakeOriginStore) Get(_ context.Context, projectID, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	raw, ok := s.data[projectID+"/"+name]
	if !ok {
		return nil, artifactrepo.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *fakeOriginStore) List(_ context.Context, projectID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	out := make([]string, 0, 8)
	prefix := projectID + "/"
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeOriginStore) Delete(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	for k := range s.data {
		if strings.HasPrefix(k, projectID+"/") {
			delete(s.data, k)
		}
	}
	return nil
}

func newTestStore(origin Store) *CachedStore {
	return NewCachedStore(origin, CacheConfig{
		BlobTTL: time.Minute, BlobMaxEntries: 8, BlobMaxBytes: 1024,
		ListTTL: time.Minute, ListMaxEntries: 8,
	})
}

func TestCachedStoreReadThroughAndMetrics(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["p1/main.py"] = []byte("hello")
	store := newTestStore(origin)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, "p1", "main.py")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "hello" {
			t.Fatalf("Get() = %q, want hello", got)
		}
	}
	if origin.getCalls != 1 {
		t.Fatalf("origin get calls = %d, want 1", origin.getCalls)
	}
	m := store.Metrics()
	if m.BlobHits != 2 || m.BlobMisses != 1 || m.OriginReads != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestCachedStoreWriteThroughInvalidatesList(t *testing.T) {
	origin := newFakeOriginStore()
	store := newTestStore(origin)
	ctx := context.Background()

	if err := store.Put(ctx, "p1", "main.py", []byte("a")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	list, _ := store.List(ctx, "p1")
	if !reflect.DeepEqual(list, []string{"main.py"}) {
		t.Fatalf("List() = %v", list)
	}
	if err := store.Put(ctx, "p1", "routes.py", []byte("b")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	list, _ = store.List(ctx, "p1")
	if !reflect.DeepEqual(list, []string{"main.py", "routes.py"}) {
		t.Fatalf("List() after put = %v", list)
	}
	if origin.listCalls != 2 {
		t.Fatalf("origin list calls = %d, want 2", origin.listCalls)
	}

	got, _ := store.Get(ctx, "p1", "routes.py")
	if string(got) != "b" || origin.getCalls != 0 {
		t.Fatalf("expected cached write, got %q with %d origin reads", got, origin.getCalls)
	}
}

func TestCachedStorePutFailureIsNotCached(t *testing.T) {
	origin := newFakeOriginStore()
	origin.failPut = true
	store := newTestStore(origin)

	if err := store.Put(context.Background(), "p1", "main.py", []byte("a")); err == nil {
		t.Fatal("Put() expected error")
	}
	if _, err := store.Get(context.Background(), "p1", "main.py"); err == nil {
		t.Fatal("Get() expected not found after failed put")
	}
	if m := store.Metrics(); m.OriginWriteErr != 1 {
		t.Fatalf("OriginWriteErr = %d, want 1", m.OriginWriteErr)
	}
}

func TestCachedStoreDeleteDropsCachedEntries(t *testing.T) {
	origin := newFakeOriginStore()
	store := newTestStore(origin)
	ctx := context.Background()

	_ = store.Put(ctx, "p1", "main.py", []byte("a"))
	_ = store.Put(ctx, "p10", "main.py", []byte("other"))
	_, _ = store.List(ctx, "p1")

	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "p1", "main.py"); err == nil {
		t.Fatal("Get() after delete should miss")
	}
	list, _ := store.List(ctx, "p1")
	if len(list) != 0 {
		t.Fatalf("List() after delete = %v", list)
	}
	got, err := store.Get(ctx, "p10", "main.py")
	if err != nil || string(got) != "other" {
		t.Fatalf("sibling project affected: %q, %v", got, err)
	}
}

func TestCachedStoreSkipsOversizedBlobs(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["p1/big.json"] = []byte(strings.Repeat("x", 2048))
	store := newTestStore(origin)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := store.Get(ctx, "p1", "big.json")
		if err != nil || len(got) != 2048 {
			t.Fatalf("Get() = %d bytes, %v", len(got), err)
		}
	}
	if origin.getCalls != 2 {
		t.Fatalf("origin get calls = %d, want 2", origin.getCalls)
	}
}
