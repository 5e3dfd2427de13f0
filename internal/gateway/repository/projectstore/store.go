package projectstore

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is the per-project stage registry. It is backed by a JSON file, or
// by Postgres when a DSN is configured.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]State

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, State]
	now   func() time.Time
}

func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]State),
		now:  time.Now,
	}
}

func NewPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, State](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:    db,
		cache: cache,
		now:   time.Now,
	}, nil
}

// Open picks the Postgres backend when dsn is set and reachable, and falls
// back to the JSON file at path otherwise.
func Open(ctx context.Context, path, dsn string) *Store {
	if strings.TrimSpace(dsn) == "" {
		return New(path)
	}
	s, err := NewPostgres(ctx, dsn)
	if err != nil {
		log.Printf("projectstore: postgres unavailable, using %s: %v", path, err)
		return New(path)
	}
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) EnsureLoaded() error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.ensureSchema()
	}
	s.ensureLoadedFile()
	return nil
}

func (s *Store) Get(projectID string) (State, bool) {
	if s == nil {
		return State{}, false
	}
	if s.db != nil {
		id := strings.TrimSpace(projectID)
		if st, ok := s.cache.Get(id); ok {
			return st, true
		}
		st, ok := s.getDB(id)
		if ok {
			s.cache.Add(id, st)
		}
		return st, ok
	}
	return s.getFile(projectID)
}

// Put creates or replaces a project record. The stored stage never moves
// backwards.
func (s *Store) Put(state State) error {
	if s == nil {
		return nil
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = s.now().UTC()
	}
	state.UpdatedAt = s.now().UTC()
	if s.db != nil {
		s.cache.Remove(strings.TrimSpace(state.ProjectID))
		return s.putDB(state)
	}
	return s.putFile(state)
}

// Update applies fn to an existing record and persists it.
func (s *Store) Update(projectID string, fn func(*State)) (State, bool) {
	if s == nil {
		return State{}, false
	}
	stamp := func(st *State) {
		fn(st)
		st.UpdatedAt = s.now().UTC()
	}
	if s.db != nil {
		id := strings.TrimSpace(projectID)
		s.cache.Remove(id)
		return s.updateDB(id, stamp)
	}
	return s.updateFile(projectID, stamp)
}

func (s *Store) Delete(projectID string) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		id := strings.TrimSpace(projectID)
		s.cache.Remove(id)
		return s.deleteDB(id)
	}
	return s.deleteFile(projectID)
}

// List returns every project, oldest first.
func (s *Store) List() []State {
	if s == nil {
		return nil
	}
	var out []State
	if s.db != nil {
		out = s.listDB()
	} else {
		out = s.listFile()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProjectID < out[j].ProjectID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
