package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ideaboard/database"
)

// ProgressEvent is one pipeline stage notification. AI and Blender steps
// have unbounded latency, so the UI listens for these instead of timing
// anything out.
type ProgressEvent struct {
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"` // started | finished | failed
	Detail    string    `json:"detail,omitempty"`
	Time      time.Time `json:"time"`
}

const (
	StatusStarted  = "started"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// ProgressHub fans pipeline events out to websocket subscribers, and
// mirrors them to Redis pub/sub when that is configured.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[chan ProgressEvent]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[chan ProgressEvent]struct{})}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away.
func (h *ProgressHub) Subscribe() (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers. Slow subscribers drop
// events rather than stalling the pipeline.
func (h *ProgressHub) Publish(sessionID, stage, status, detail string) {
	ev := ProgressEvent{
		SessionID: sessionID,
		Stage:     stage,
		Status:    status,
		Detail:    detail,
		Time:      time.Now().UTC(),
	}

	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()

	if database.RDB != nil {
		data, _ := json.Marshal(ev)
		database.RDB.Publish(context.Background(), "ideaboard:progress", string(data))
	}
}
