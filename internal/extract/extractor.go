package extract

import (
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"legacyport/internal/safeio"
	"legacyport/internal/scan"
	"legacyport/internal/types"
)

// Options configures an Extractor.
type Options struct {
	Scan scan.Options
	// Facades are the static callees of the DSL route family (Route::get).
	Facades []string
	// Receivers are the variable names of the object route family ($app->get).
	Receivers []string
	// Workers bounds per-file parallelism; <= 0 means GOMAXPROCS.
	Workers int
	// OnFileError observes recovered per-file failures. Defaults to logging.
	OnFileError func(*FileError)
}

// FileError is a single-file failure. It is recovered: the file is skipped and
// the scan continues.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("extract %s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// Extractor recovers routes, models and dependencies from a source tree.
// It holds configuration only; every analysis builds its own result.
type Extractor struct {
	opts   Options
	routes routePatterns
}

func New(opts Options) *Extractor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.OnFileError == nil {
		opts.OnFileError = func(fe *FileError) {
			log.Printf("extract: skipping %s: %v", fe.Path, fe.Err)
		}
	}
	return &Extractor{
		opts:   opts,
		routes: newRoutePatterns(opts.Facades, opts.Receivers),
	}
}

type fileFindings struct {
	routes []types.Route
	models []types.Model
	deps   []string
}

// AnalyzeDirectory scans every matching source file under root. Files are
// analyzed concurrently but aggregated in enumeration order, so the result
// does not depend on scheduling. Unreadable files are reported through
// OnFileError, skipped, and still counted.
func (e *Extractor) AnalyzeDirectory(root string) (types.AnalysisResult, error) {
	files, err := scan.Sources(root, e.opts.Scan)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("enumerate sources: %w", err)
	}
	if len(files) == 0 {
		return types.NewAnalysisResult(nil, nil, nil, 0), nil
	}
	src, err := safeio.Open(root)
	if err != nil {
		return types.AnalysisResult{}, fmt.Errorf("open root: %w", err)
	}

	findings := make([]fileFindings, len(files))
	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			text, err := src.ReadText(f.Path)
			if err != nil {
				e.opts.OnFileError(&FileError{Path: f.Path, Err: err})
				return nil
			}
			findings[i] = e.analyzeFile(text, f.Path)
			return nil
		})
	}
	_ = g.Wait()

	var (
		routes []types.Route
		models []types.Model
		deps   []string
	)
	for _, ff := range findings {
		routes = append(routes, ff.routes...)
		models = append(models, ff.models...)
		deps = append(deps, ff.deps...)
	}
	return types.NewAnalysisResult(routes, models, deps, len(files)), nil
}

// analyzeFile runs the three independent passes over one file's text.
func (e *Extractor) analyzeFile(text, file string) fileFindings {
	return fileFindings{
		routes: e.routes.extract(text, file),
		models: Models(text, file),
		deps:   Dependencies(text),
	}
}
