package projectstore

import (
	"strings"
	"time"
)

// Stage is a pipeline checkpoint. Stages only move forward.
type Stage string

const (
	StageIngested  Stage = "ingested"
	StageAnalyzed  Stage = "analyzed"
	StageGenerated Stage = "generated"
	StagePackaged  Stage = "packaged"
)

var stageRank = map[Stage]int{
	StageIngested:  1,
	StageAnalyzed:  2,
	StageGenerated: 3,
	StagePackaged:  4,
}

// Reached reports whether s is at or past other.
func (s Stage) Reached(other Stage) bool {
	return stageRank[s] >= stageRank[other]
}

// Source records how a project's tree was ingested.
type Source string

const (
	SourceUpload Source = "upload"
	SourceGit    Source = "git"
)

// State is the persisted record of one project. The analysis itself is never
// stored, only its counts.
type State struct {
	ProjectID   string            `json:"project_id"`
	Source      Source            `json:"source"`
	Filename    string            `json:"filename,omitempty"`
	RepoURL     string            `json:"repo_url,omitempty"`
	Branch      string            `json:"branch,omitempty"`
	Size        int64             `json:"size,omitempty"`
	SourceFiles int               `json:"source_files"`
	Stage       Stage             `json:"stage"`
	Routes      int               `json:"routes"`
	Models      int               `json:"models"`
	Files       map[string]string `json:"files,omitempty"`
	Archive     string            `json:"archive,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Advance moves the stage forward to stage. An earlier stage is ignored, so a
// re-run of Analyze after Generate leaves the project at generated.
func (s *State) Advance(stage Stage) {
	if stageRank[stage] > stageRank[s.Stage] {
		s.Stage = stage
	}
}

func normalizeState(state State) State {
	state.ProjectID = strings.TrimSpace(state.ProjectID)
	state.RepoURL = strings.TrimSpace(state.RepoURL)
	state.Branch = strings.TrimSpace(state.Branch)
	if _, ok := stageRank[state.Stage]; !ok {
		state.Stage = StageIngested
	}
	return state
}

// merge applies the monotonic stage rule when an update would rewind it.
func merge(prev, next State) State {
	if stageRank[next.Stage] < stageRank[prev.Stage] {
		next.Stage = prev.Stage
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = prev.CreatedAt
	}
	return next
}
