package projectstore

import (
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestFileStorePutGetReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	s := New(path)
	s.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := s.Put(State{ProjectID: " project-a ", Source: SourceUpload, Filename: "app.zip"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := s.Get("project-a")
	if !ok {
		t.Fatalf("Get() missing project")
	}
	if got.Stage != StageIngested {
		t.Fatalf("stage = %q, want %q", got.Stage, StageIngested)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", got)
	}

	reloaded := New(path)
	again, ok := reloaded.Get("project-a")
	if !ok {
		t.Fatalf("reloaded store missing project")
	}
	if again.Filename != "app.zip" || again.Source != SourceUpload {
		t.Fatalf("reloaded = %+v", again)
	}
}

func TestStageNeverMovesBackwards(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "projects.json"))
	if err := s.Put(State{ProjectID: "p", Stage: StageIngested}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	st, ok := s.Update("p", func(st *State) { st.Advance(StageGenerated) })
	if !ok || st.Stage != StageGenerated {
		t.Fatalf("Update() = %+v, %v", st, ok)
	}
	st, _ = s.Update("p", func(st *State) { st.Advance(StageAnalyzed) })
	if st.Stage != StageGenerated {
		t.Fatalf("stage rewound to %q", st.Stage)
	}
	st, _ = s.Update("p", func(st *State) { st.Stage = StageIngested })
	if st.Stage != StageGenerated {
		t.Fatalf("direct assignment rewound stage to %q", st.Stage)
	}
	if err := s.Put(State{ProjectID: "p", Stage: StageIngested}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, _ := s.Get("p")
	if got.Stage != StageGenerated {
		t.Fatalf("Put rewound stage to %q", got.Stage)
	}
	if !got.Stage.Reached(StageAnalyzed) || got.Stage.Reached(StagePackaged) {
		t.Fatalf("Reached() inconsistent for %q", got.Stage)
	}
}

func TestUpdateMissingProject(t *testing.T) {
	s := New("")
	if _, ok := s.Update("nope", func(*State) {}); ok {
		t.Fatalf("Update() on missing project reported ok")
	}
}

func TestDeleteAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	s := New(path)
	s.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, id := range []string{"b", "a", "c"} {
		if err := s.Put(State{ProjectID: id}); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}
	list := s.List()
	if len(list) != 3 || list[0].ProjectID != "b" || list[2].ProjectID != "c" {
		t.Fatalf("List() order = %+v", list)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := s.Get("a"); ok {
		t.Fatalf("deleted project still present")
	}
	if _, ok := New(path).Get("a"); ok {
		t.Fatalf("delete not persisted")
	}
	if err := s.Delete("a"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestPutRequiresID(t *testing.T) {
	s := New("")
	if err := s.Put(State{ProjectID: "  "}); err == nil {
		t.Fatalf("expected error for empty project id")
	}
}

func TestOpenWithoutDSNUsesFile(t *testing.T) {
	s := Open(t.Context(), filepath.Join(t.TempDir(), "p.json"), "")
	if s.db != nil {
		t.Fatalf("expected file backend")
	}
	if err := s.EnsureLoaded(); err != nil {
		t.Fatalf("EnsureLoaded() error = %v", err)
	}
}
