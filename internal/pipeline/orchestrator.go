// Package pipeline sequences ingest, analysis, generation and packaging for
// one project at a time, keyed by an opaque project identifier.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2"

	artifactrepo "legacyport/internal/gateway/repository/artifact"
	"legacyport/internal/gateway/repository/projectstore"
	"legacyport/internal/ingest"
	"legacyport/internal/scan"
	"legacyport/internal/synth"
	"legacyport/internal/synth/contract"
	"legacyport/internal/types"
)

const (
	stageIngest   = "ingest"
	stageAnalyze  = "analyze"
	stageGenerate = "generate"
	stagePackage  = "package"

	extractedDir  = "extracted"
	defaultBranch = "main"

	DefaultAnalysisCacheSize = 128
)

// Archiver expands an uploaded archive into dest.
type Archiver interface {
	Extract(data []byte, dest string) error
}

// Fetcher performs a shallow clone of one branch into dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, branch, dest string) error
}

// Analyzer extracts routes, models and dependencies from a directory.
type Analyzer interface {
	AnalyzeDirectory(root string) (types.AnalysisResult, error)
}

type Config struct {
	// UploadDir holds one <id>/extracted tree per ingested project.
	UploadDir string
	// ArchiveDir receives <id>.zip packages.
	ArchiveDir string
	// MaxUploadBytes bounds archive uploads; <= 0 disables the check.
	MaxUploadBytes int64
	Scan           scan.Options
	// AnalysisCacheSize bounds the in-memory analysis cache.
	AnalysisCacheSize int
}

// Deps are the collaborators of an Orchestrator. Fetcher may be nil, in which
// case Clone reports the capability as unavailable.
type Deps struct {
	Archiver  Archiver
	Fetcher   Fetcher
	Analyzer  Analyzer
	Artifacts artifactrepo.Store
	Projects  *projectstore.Store
	Events    *Hub
}

type Orchestrator struct {
	cfg       Config
	archiver  Archiver
	fetcher   Fetcher
	analyzer  Analyzer
	artifacts artifactrepo.Store
	projects  *projectstore.Store
	events    *Hub
	analyses  *lru.Cache[string, types.AnalysisResult]

	locks sync.Map
	newID func() string
}

func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if strings.TrimSpace(cfg.UploadDir) == "" {
		return nil, errors.New("upload dir is required")
	}
	if deps.Archiver == nil || deps.Analyzer == nil || deps.Artifacts == nil {
		return nil, errors.New("archiver, analyzer and artifact store are required")
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = filepath.Join(cfg.UploadDir, "archives")
	}
	if cfg.AnalysisCacheSize <= 0 {
		cfg.AnalysisCacheSize = DefaultAnalysisCacheSize
	}
	for _, dir := range []string{cfg.UploadDir, cfg.ArchiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	cache, err := lru.New[string, types.AnalysisResult](cfg.AnalysisCacheSize)
	if err != nil {
		return nil, err
	}
	projects := deps.Projects
	if projects == nil {
		projects = projectstore.New("")
	}
	events := deps.Events
	if events == nil {
		events = NewHub(DefaultHistorySize)
	}
	return &Orchestrator{
		cfg:       cfg,
		archiver:  deps.Archiver,
		fetcher:   deps.Fetcher,
		analyzer:  deps.Analyzer,
		artifacts: deps.Artifacts,
		projects:  projects,
		events:    events,
		analyses:  cache,
		newID:     func() string { return "project-" + uuid.NewString() },
	}, nil
}

// Events exposes the progress hub.
func (o *Orchestrator) Events() *Hub { return o.events }

// CanClone reports whether remote fetching is configured.
func (o *Orchestrator) CanClone() bool { return o.fetcher != nil }

type UploadResult struct {
	UploadID    string `json:"upload_id"`
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	Status      string `json:"status"`
	SourceFiles int    `json:"source_files"`
}

type CloneResult struct {
	UploadID   string `json:"upload_id"`
	RepoURL    string `json:"repo_url"`
	Branch     string `json:"branch"`
	Status     string `json:"status"`
	FilesFound int    `json:"php_files_found"`
}

type GenerateRequest struct {
	Options synth.Options `json:"options"`
	// Analysis, when set, is used instead of the cached or recomputed result.
	Analysis *types.AnalysisResult `json:"analysis,omitempty"`
}

type GenerateResult struct {
	Status   string            `json:"status"`
	OutputID string            `json:"output_id"`
	Files    map[string]string `json:"files"`
}

type PreviewResult struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (o *Orchestrator) projectDir(id string) string {
	return filepath.Join(o.cfg.UploadDir, id)
}

func (o *Orchestrator) sourceDir(id string) string {
	return filepath.Join(o.projectDir(id), extractedDir)
}

// ingested reports whether id has an extracted source tree.
func (o *Orchestrator) ingested(id string) error {
	if info, err := os.Stat(o.sourceDir(id)); err != nil || !info.IsDir() {
		return notFound("Upload not found")
	}
	return nil
}

func (o *Orchestrator) lock(id string) func() {
	v, _ := o.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// track publishes started, then completed or failed, around fn.
func (o *Orchestrator) track(id, stage string, fn func() error) error {
	o.events.Publish(Event{ProjectID: id, Stage: stage, Kind: EventStarted})
	if err := fn(); err != nil {
		_, detail := Describe(err)
		log.Printf("pipeline: %s %s failed: %v", stage, id, err)
		o.events.Publish(Event{ProjectID: id, Stage: stage, Kind: EventFailed, Detail: detail})
		return err
	}
	o.events.Publish(Event{ProjectID: id, Stage: stage, Kind: EventCompleted})
	return nil
}

// Upload extracts a zip archive into a fresh project directory. The project
// exists only if the archive holds at least one source file; otherwise every
// directory created for it is removed.
func (o *Orchestrator) Upload(ctx context.Context, filename string, data []byte) (UploadResult, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		return UploadResult{}, badRequest(KindValidation, "Only ZIP files are supported", nil)
	}
	if o.cfg.MaxUploadBytes > 0 && int64(len(data)) > o.cfg.MaxUploadBytes {
		return UploadResult{}, badRequest(KindValidation,
			fmt.Sprintf("Upload exceeds the %d byte limit", o.cfg.MaxUploadBytes), nil)
	}

	id := o.newID()
	var res UploadResult
	err := o.track(id, stageIngest, func() error {
		dest := o.sourceDir(id)
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fail(KindIngestion, http.StatusInternalServerError, "Failed to create upload directory", err)
		}
		if err := o.archiver.Extract(data, dest); err != nil {
			o.discard(id)
			return badRequest(KindIngestion, fmt.Sprintf("Failed to extract ZIP: %v", err), err)
		}
		n, err := o.requireSources(id, "archive")
		if err != nil {
			return err
		}
		if err := o.projects.Put(projectstore.State{
			ProjectID:   id,
			Source:      projectstore.SourceUpload,
			Filename:    name,
			Size:        int64(len(data)),
			SourceFiles: n,
			Stage:       projectstore.StageIngested,
		}); err != nil {
			o.discard(id)
			return fail(KindIngestion, http.StatusInternalServerError, "Failed to record project", err)
		}
		res = UploadResult{UploadID: id, Filename: name, Size: len(data), Status: "uploaded", SourceFiles: n}
		return nil
	})
	return res, err
}

// Clone shallow-fetches one branch of a remote repository into a fresh
// project directory.
func (o *Orchestrator) Clone(ctx context.Context, repoURL, branch string) (CloneResult, error) {
	if o.fetcher == nil {
		return CloneResult{}, fail(KindIngestion, http.StatusServiceUnavailable, "Remote repository fetching is not available", nil)
	}
	url := strings.TrimSpace(repoURL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return CloneResult{}, badRequest(KindValidation, "Repository URL must start with http:// or https://", nil)
	}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		branch = defaultBranch
	}
	fetchURL := url
	if !strings.HasSuffix(fetchURL, ".git") {
		fetchURL += ".git"
	}

	id := o.newID()
	var res CloneResult
	err := o.track(id, stageIngest, func() error {
		if err := os.MkdirAll(o.projectDir(id), 0o755); err != nil {
			return fail(KindIngestion, http.StatusInternalServerError, "Failed to create upload directory", err)
		}
		log.Printf("pipeline: cloning %s (branch %s) into %s", fetchURL, branch, id)
		if err := o.fetcher.Fetch(ctx, fetchURL, branch, o.sourceDir(id)); err != nil {
			o.discard(id)
			return classifyFetch(branch, err)
		}
		n, err := o.requireSources(id, "repository")
		if err != nil {
			return err
		}
		if err := o.projects.Put(projectstore.State{
			ProjectID:   id,
			Source:      projectstore.SourceGit,
			RepoURL:     url,
			Branch:      branch,
			SourceFiles: n,
			Stage:       projectstore.StageIngested,
		}); err != nil {
			o.discard(id)
			return fail(KindIngestion, http.StatusInternalServerError, "Failed to record project", err)
		}
		res = CloneResult{UploadID: id, RepoURL: url, Branch: branch, Status: "cloned", FilesFound: n}
		return nil
	})
	return res, err
}

func classifyFetch(branch string, err error) error {
	switch {
	case errors.Is(err, ingest.ErrRepoNotFound):
		return fail(KindIngestion, http.StatusNotFound, fmt.Sprintf("Repository or branch '%s' not found", branch), err)
	case errors.Is(err, ingest.ErrAuthRequired):
		return fail(KindIngestion, http.StatusForbidden, "Repository is private or requires authentication", err)
	}
	return badRequest(KindIngestion, fmt.Sprintf("Git error: %v", err), err)
}

// requireSources counts matching files and discards the project when there
// are none.
func (o *Orchestrator) requireSources(id, where string) (int, error) {
	n, err := scan.CountSources(o.sourceDir(id), o.cfg.Scan)
	if err != nil {
		o.discard(id)
		return 0, fail(KindIngestion, http.StatusInternalServerError, "Failed to enumerate sources", err)
	}
	if n == 0 {
		o.discard(id)
		return 0, badRequest(KindValidation, "No PHP files found in "+where, nil)
	}
	return n, nil
}

func (o *Orchestrator) discard(id string) {
	if err := os.RemoveAll(o.projectDir(id)); err != nil {
		log.Printf("pipeline: cleanup %s: %v", id, err)
	}
}

func (o *Orchestrator) checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !artifactrepo.ValidProjectID(id) {
		return "", notFound("Upload not found")
	}
	return id, nil
}

// Analyze runs extraction over the project's source tree. The result is
// cached in memory and only its counts are recorded.
func (o *Orchestrator) Analyze(ctx context.Context, projectID string) (types.AnalysisResult, error) {
	id, err := o.checkID(projectID)
	if err != nil {
		return types.AnalysisResult{}, err
	}
	unlock := o.lock(id)
	defer unlock()
	return o.analyzeLocked(id)
}

func (o *Orchestrator) analyzeLocked(id string) (types.AnalysisResult, error) {
	if err := o.ingested(id); err != nil {
		return types.AnalysisResult{}, err
	}
	root := o.sourceDir(id)
	var result types.AnalysisResult
	err := o.track(id, stageAnalyze, func() error {
		var err error
		result, err = o.analyzer.AnalyzeDirectory(root)
		if err != nil {
			return fail(KindExtraction, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err), err)
		}
		o.analyses.Add(id, result)
		o.record(id, func(st *projectstore.State) {
			st.Advance(projectstore.StageAnalyzed)
			st.SourceFiles = result.FileCount
			st.Routes = len(result.Routes)
			st.Models = len(result.Models)
		})
		return nil
	})
	return result, err
}

// Generate renders the artifact set and replaces the project's previous
// output with it. Equal analyses and options always produce equal files.
func (o *Orchestrator) Generate(ctx context.Context, projectID string, req GenerateRequest) (GenerateResult, error) {
	id, err := o.checkID(projectID)
	if err != nil {
		return GenerateResult{}, err
	}
	unlock := o.lock(id)
	defer unlock()
	// An inline analysis still needs an ingested project to attach output to.
	if err := o.ingested(id); err != nil {
		return GenerateResult{}, err
	}

	var result types.AnalysisResult
	switch {
	case req.Analysis != nil:
		result = *req.Analysis
	default:
		cached, ok := o.analyses.Get(id)
		if ok {
			result = cached
		} else if result, err = o.analyzeLocked(id); err != nil {
			return GenerateResult{}, err
		}
	}

	var res GenerateResult
	err = o.track(id, stageGenerate, func() error {
		set, err := synth.Render(ctx, result, req.Options)
		if err != nil {
			if errors.Is(err, contract.ErrUnsupportedFormat) {
				return badRequest(KindValidation, err.Error(), err)
			}
			return fail(KindGeneration, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err), err)
		}
		if doc, ok := set.Lookup(set.Format.Filename()); ok {
			if verr := contract.Validate(ctx, doc.Content); verr != nil {
				log.Printf("pipeline: contract warnings for %s: %v", id, verr)
			}
		}

		if err := o.artifacts.Delete(ctx, id); err != nil {
			return fail(KindGeneration, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err), err)
		}
		for _, a := range set.Artifacts {
			if err := o.artifacts.Put(ctx, id, a.Filename, a.Content); err != nil {
				if derr := o.artifacts.Delete(ctx, id); derr != nil {
					log.Printf("pipeline: cleanup partial output %s: %v", id, derr)
				}
				return fail(KindGeneration, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err), err)
			}
		}
		files := set.Files()
		o.record(id, func(st *projectstore.State) {
			st.Advance(projectstore.StageGenerated)
			st.Routes = len(result.Routes)
			st.Models = len(result.Models)
			st.Files = files
		})
		res = GenerateResult{Status: "success", OutputID: id, Files: files}
		return nil
	})
	return res, err
}

// Preview returns one generated file as text.
func (o *Orchestrator) Preview(ctx context.Context, outputID, filename string) (PreviewResult, error) {
	id, err := o.checkID(outputID)
	if err != nil {
		return PreviewResult{}, notFound("File not found")
	}
	content, err := o.artifacts.Get(ctx, id, filename)
	if err != nil {
		if errors.Is(err, artifactrepo.ErrNotFound) || errors.Is(err, artifactrepo.ErrInvalidKey) {
			return PreviewResult{}, notFound("File not found")
		}
		return PreviewResult{}, fail(KindGeneration, http.StatusInternalServerError, "Failed to read file", err)
	}
	return PreviewResult{Filename: filename, Content: string(content)}, nil
}

// Status returns the recorded state of a project.
func (o *Orchestrator) Status(_ context.Context, projectID string) (projectstore.State, error) {
	id, err := o.checkID(projectID)
	if err != nil {
		return projectstore.State{}, notFound("Project not found")
	}
	st, ok := o.projects.Get(id)
	if !ok {
		return projectstore.State{}, notFound("Project not found")
	}
	return st, nil
}

// record updates the project's state, creating it when an earlier record
// was lost.
func (o *Orchestrator) record(id string, fn func(*projectstore.State)) {
	if _, ok := o.projects.Update(id, fn); ok {
		return
	}
	st := projectstore.State{ProjectID: id, Stage: projectstore.StageIngested}
	fn(&st)
	if err := o.projects.Put(st); err != nil {
		log.Printf("pipeline: record %s: %v", id, err)
	}
}
