package projectstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("projectstore: read %s: %v", s.path, err)
			}
			return
		}
		var rows []State
		if err := json.Unmarshal(b, &rows); err != nil {
			log.Printf("projectstore: decode %s: %v", s.path, err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			row = normalizeState(row)
			if row.ProjectID == "" {
				continue
			}
			s.byID[row.ProjectID] = row
		}
	})
}

// saveFile writes the whole registry. Callers must not hold s.mu.
func (s *Store) saveFile() error {
	if strings.TrimSpace(s.path) == "" {
		return nil
	}
	s.mu.RLock()
	rows := make([]State, 0, len(s.byID))
	for _, state := range s.byID {
		rows = append(rows, state)
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProjectID < rows[j].ProjectID })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".projects-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) getFile(projectID string) (State, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(projectID)
	if id == "" {
		return State{}, false
	}
	s.mu.RLock()
	state, ok := s.byID[id]
	s.mu.RUnlock()
	return state, ok
}

func (s *Store) putFile(state State) error {
	s.ensureLoadedFile()
	state = normalizeState(state)
	if state.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	s.mu.Lock()
	if prev, ok := s.byID[state.ProjectID]; ok {
		state = merge(prev, state)
	}
	s.byID[state.ProjectID] = state
	s.mu.Unlock()
	return s.saveFile()
}

func (s *Store) updateFile(projectID string, update func(*State)) (State, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(projectID)
	if id == "" {
		return State{}, false
	}
	s.mu.Lock()
	prev, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return State{}, false
	}
	next := prev
	update(&next)
	next.ProjectID = id
	next = merge(prev, normalizeState(next))
	s.byID[id] = next
	s.mu.Unlock()

	if err := s.saveFile(); err != nil {
		log.Printf("projectstore: save after update of %s: %v", id, err)
	}
	return next, true
}

func (s *Store) deleteFile(projectID string) error {
	s.ensureLoadedFile()
	id := strings.TrimSpace(projectID)
	s.mu.Lock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.saveFile()
}

func (s *Store) listFile() []State {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]State, 0, len(s.byID))
	for _, state := range s.byID {
		out = append(out, state)
	}
	return out
}
