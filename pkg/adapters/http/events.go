package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/relay/pkg/domain"
)

// allRuns is the subscription key that receives every event.
const allRuns = ""

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // RunID -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a channel for runID, or for every run when runID is empty.
// The returned function unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(runID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 32)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of runID and to those of every run.
// Slow subscribers lose messages instead of blocking the run.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := []string{allRuns}
	if runID != allRuns {
		keys = append(keys, runID)
	}
	for _, key := range keys {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				slog.Warn("SSE: Client buffer full, dropping message", "run_id", runID)
			}
		}
	}
}

func (sm *StreamManager) publish(runID string, event any) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	sm.Broadcast(runID, string(b))
}

// Hooks returns lifecycle hooks that publish every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			sm.publish(e.RunID, e)
		},
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			sm.publish(e.RunID, e)
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			sm.publish(e.RunID, e)
		},
		OnContractViolation: func(_ context.Context, e *domain.ViolationEvent) {
			sm.publish(e.RunID, e)
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			// The final state can be large; subscribers get the summary fields only.
			summary := struct {
				domain.EventBase
				Status domain.RunStatus `json:"status"`
				Reason string           `json:"reason,omitempty"`
				Steps  int              `json:"steps"`
				Path   []domain.StageID `json:"path"`
			}{EventBase: e.EventBase}
			if e.Outcome != nil {
				summary.Status = e.Outcome.Status
				summary.Reason = e.Outcome.Reason
				summary.Steps = e.Outcome.Steps
				summary.Path = e.Outcome.Path
			}
			sm.publish(e.RunID, summary)
		},
	}
}

// SubscribeEvents handles GET /events (SSE). The optional run_id narrows the
// stream to one run.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	runID := r.URL.Query().Get("run_id")
	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()
	s.logger.Info("SSE: Subscribed", "run_id", runID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
