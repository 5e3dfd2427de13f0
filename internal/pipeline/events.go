package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"
)

type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is one stage transition of a project.
type Event struct {
	Seq       int64     `json:"seq"`
	ProjectID string    `json:"project_id"`
	Stage     string    `json:"stage"`
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

const DefaultHistorySize = 64

// Hub fans stage events out to subscribers and keeps a bounded history per
// project so late subscribers can replay it.
type Hub struct {
	mu     sync.Mutex
	limit  int
	topics map[string]*topic
	now    func() time.Time
}

type topic struct {
	seq     int64
	events  []Event
	changed chan struct{}
}

func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &Hub{
		limit:  limit,
		topics: make(map[string]*topic),
		now:    time.Now,
	}
}

func (h *Hub) topicLocked(projectID string) *topic {
	t, ok := h.topics[projectID]
	if !ok {
		t = &topic{changed: make(chan struct{})}
		h.topics[projectID] = t
	}
	return t
}

// Publish stamps ev with the next sequence number and wakes subscribers.
func (h *Hub) Publish(ev Event) Event {
	if h == nil {
		return ev
	}
	id := strings.TrimSpace(ev.ProjectID)
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.topicLocked(id)
	t.seq++
	ev.Seq = t.seq
	ev.ProjectID = id
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	t.events = append(t.events, ev)
	if over := len(t.events) - h.limit; over > 0 {
		t.events = append([]Event(nil), t.events[over:]...)
	}
	close(t.changed)
	t.changed = make(chan struct{})
	return ev
}

// History returns the retained events of projectID, oldest first.
func (h *Hub) History(projectID string) []Event {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[strings.TrimSpace(projectID)]
	if !ok {
		return nil
	}
	return append([]Event(nil), t.events...)
}

// Subscribe replays the retained history and then streams new events until
// ctx is done. Events evicted before a slow reader catches up are skipped.
func (h *Hub) Subscribe(ctx context.Context, projectID string) <-chan Event {
	out := make(chan Event, 16)
	id := strings.TrimSpace(projectID)
	go func() {
		defer close(out)
		var cursor int64
		for {
			h.mu.Lock()
			t := h.topicLocked(id)
			var pending []Event
			for _, ev := range t.events {
				if ev.Seq > cursor {
					pending = append(pending, ev)
				}
			}
			changed := t.changed
			h.mu.Unlock()

			for _, ev := range pending {
				select {
				case <-ctx.Done():
					return
				case out <- ev:
					cursor = ev.Seq
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}()
	return out
}
