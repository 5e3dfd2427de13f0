package server

import (
	"net/http"

	"legacyport/internal/gateway/handler"
	"legacyport/internal/gateway/middleware"
)

func NewMux(api *handler.API, events *handler.EventsHandler, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", api.Root)
	mux.HandleFunc("GET /healthz", api.Root)

	mux.HandleFunc("POST /api/upload", api.Upload)
	mux.HandleFunc("POST /api/clone-github", api.Clone)
	mux.HandleFunc("POST /api/analyze/{id}", api.Analyze)
	mux.HandleFunc("POST /api/generate/{id}", api.Generate)
	mux.HandleFunc("GET /api/download/{id}", api.Download)
	mux.HandleFunc("GET /api/preview/{id}/{filename}", api.Preview)
	mux.HandleFunc("GET /api/projects/{id}", api.Status)
	mux.HandleFunc("GET /api/projects/{id}/events", events.Serve)

	return middleware.CORS(mux, allowedOrigins...)
}
