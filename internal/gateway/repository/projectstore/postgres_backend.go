package projectstore

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS project_states (
  project_id TEXT PRIMARY KEY,
  source TEXT NOT NULL DEFAULT '',
  stage TEXT NOT NULL DEFAULT 'ingested',
  data JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_project_states_stage ON project_states (stage);
`)
	})
	return s.schemaErr
}

func scanStateDB(row rowScanner) (State, bool) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return State{}, false
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Printf("projectstore: decode row: %v", err)
		return State{}, false
	}
	return normalizeState(state), true
}

func (s *Store) getDB(id string) (State, bool) {
	if err := s.ensureSchema(); err != nil {
		return State{}, false
	}
	if id == "" {
		return State{}, false
	}
	row := s.db.QueryRow(`SELECT data FROM project_states WHERE project_id = $1`, id)
	return scanStateDB(row)
}

func (s *Store) putDB(state State) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeState(state)
	if n.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRow(`SELECT data FROM project_states WHERE project_id = $1 FOR UPDATE`, n.ProjectID)
	if prev, ok := scanStateDB(row); ok {
		n = merge(prev, n)
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
INSERT INTO project_states (project_id, source, stage, data, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (project_id)
DO UPDATE SET source=EXCLUDED.source,
  stage=EXCLUDED.stage,
  data=EXCLUDED.data,
  updated_at=EXCLUDED.updated_at`,
		n.ProjectID, string(n.Source), string(n.Stage), data, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", n.ProjectID, err)
	}
	return tx.Commit()
}

func (s *Store) updateDB(id string, update func(*State)) (State, bool) {
	if err := s.ensureSchema(); err != nil {
		return State{}, false
	}
	tx, err := s.db.Begin()
	if err != nil {
		return State{}, false
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRow(`SELECT data FROM project_states WHERE project_id = $1 FOR UPDATE`, id)
	prev, ok := scanStateDB(row)
	if !ok {
		return State{}, false
	}
	cur := prev
	update(&cur)
	cur.ProjectID = id
	cur = merge(prev, normalizeState(cur))
	data, err := json.Marshal(cur)
	if err != nil {
		return State{}, false
	}
	_, err = tx.Exec(`
UPDATE project_states
SET source=$2, stage=$3, data=$4, updated_at=$5
WHERE project_id=$1`,
		cur.ProjectID, string(cur.Source), string(cur.Stage), data, cur.UpdatedAt)
	if err != nil {
		log.Printf("projectstore: update %s: %v", id, err)
		return State{}, false
	}
	if err := tx.Commit(); err != nil {
		return State{}, false
	}
	return cur, true
}

func (s *Store) deleteDB(id string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM project_states WHERE project_id = $1`, id)
	return err
}

func (s *Store) listDB() []State {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT data FROM project_states`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]State, 0, 32)
	for rows.Next() {
		if state, ok := scanStateDB(rows); ok {
			out = append(out, state)
		}
	}
	return out
}
