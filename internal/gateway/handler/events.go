package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"legacyport/internal/gateway/middleware"
	"legacyport/internal/pipeline"
)

const (
	eventsWSWriteWait = 10 * time.Second
	eventsWSPongWait  = 60 * time.Second
	eventsWSPingEvery = (eventsWSPongWait * 9) / 10
)

type eventsWSOutbound struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"project_id,omitempty"`
	Event     *pipeline.Event `json:"event,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type eventsWSInbound struct {
	Type string `json:"type"`
}

// EventsHandler streams pipeline progress for one project over a websocket.
// History retained by the hub is replayed first.
type EventsHandler struct {
	svc      Pipeline
	upgrader websocket.Upgrader
}

func NewEventsHandler(svc Pipeline, allowedOrigins []string) *EventsHandler {
	origins := middleware.OriginSet(allowedOrigins)
	return &EventsHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				return origin == "" || middleware.OriginAllowed(origin, origins)
			},
		},
	}
}

// wsWriter is the write side of a websocket connection.
type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// writeEvents drains writeCh into conn and pings every pingEvery. It is the
// only writer of conn. Whatever makes it stop, it cancels the stream and
// closes conn so senders and the blocked reader return.
func writeEvents(ctx context.Context, cancel context.CancelFunc, conn wsWriter, writeCh <-chan eventsWSOutbound, pingEvery time.Duration) {
	defer func() {
		cancel()
		_ = conn.Close()
	}()
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-writeCh:
			if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				log.Printf("events ws write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(eventsWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.PathValue("id"))
	if _, err := h.svc.Status(r.Context(), projectID); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(eventsWSPongWait)); err != nil {
		log.Printf("events ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsWSPongWait))
	})

	writeCh := make(chan eventsWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeEvents(ctx, cancel, conn, writeCh, eventsWSPingEvery)
	}()

	send := func(out eventsWSOutbound) {
		select {
		case writeCh <- out:
		case <-ctx.Done():
		}
	}
	send(eventsWSOutbound{Type: "subscribed", ProjectID: projectID})

	events := h.svc.Events().Subscribe(ctx, projectID)
	go func() {
		for ev := range events {
			send(eventsWSOutbound{Type: "event", ProjectID: projectID, Event: &ev})
		}
	}()

	for {
		var in eventsWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			send(eventsWSOutbound{Type: "pong"})
		default:
			send(eventsWSOutbound{Type: "error", Message: "unsupported type: " + in.Type})
		}
	}
}
