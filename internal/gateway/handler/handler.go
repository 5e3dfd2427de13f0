package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"legacyport/internal/gateway/repository/projectstore"
	"legacyport/internal/pipeline"
	"legacyport/internal/types"
)

// Pipeline is the orchestrator surface the HTTP layer drives.
type Pipeline interface {
	Upload(ctx context.Context, filename string, data []byte) (pipeline.UploadResult, error)
	Clone(ctx context.Context, repoURL, branch string) (pipeline.CloneResult, error)
	Analyze(ctx context.Context, projectID string) (types.AnalysisResult, error)
	Generate(ctx context.Context, projectID string, req pipeline.GenerateRequest) (pipeline.GenerateResult, error)
	Package(ctx context.Context, outputID string) (string, error)
	Preview(ctx context.Context, outputID, filename string) (pipeline.PreviewResult, error)
	Status(ctx context.Context, projectID string) (projectstore.State, error)
	Events() *pipeline.Hub
}

const (
	ServiceName    = "PHP Migration Tool API"
	ServiceVersion = "1.0.0"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

// writeError renders err as {"detail": ...}. Only server-side failures are
// logged; client errors are expected traffic.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := pipeline.Describe(err)
	if status >= http.StatusInternalServerError {
		log.Printf("handler: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeDetail(w, status, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
