package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"legacyport/internal/pipeline"
)

// multipartOverhead is the slack allowed on top of the archive limit for
// form boundaries and headers.
const multipartOverhead = 1 << 20

type API struct {
	svc            Pipeline
	maxUploadBytes int64
}

func NewAPI(svc Pipeline, maxUploadBytes int64) *API {
	return &API{svc: svc, maxUploadBytes: maxUploadBytes}
}

func (h *API) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

func (h *API) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Upload exceeds the %d byte limit", h.maxUploadBytes))
			return
		}
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	res, err := h.svc.Upload(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *API) Clone(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RepoURL string `json:"repo_url"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json body")
		return
	}
	res, err := h.svc.Clone(r.Context(), in.RepoURL, in.Branch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *API) Analyze(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Analyze(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Generate accepts an optional body; an empty body uses default options.
func (h *API) Generate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, "invalid json body")
		return
	}
	res, err := h.svc.Generate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *API) Download(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	path, err := h.svc.Package(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, pipeline.ArchiveName(id)))
	http.ServeContent(w, r, pipeline.ArchiveName(id), info.ModTime(), f)
}

func (h *API) Preview(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Preview(r.Context(), r.PathValue("id"), r.PathValue("filename"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *API) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
