package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LogHub fans execution log entries out to websocket watchers.
type LogHub struct {
	mu       sync.Mutex
	watchers map[string][]chan models.ExecutionLogEntry
}

// NewLogHub creates an empty hub.
func NewLogHub() *LogHub {
	return &LogHub{watchers: make(map[string][]chan models.ExecutionLogEntry)}
}

// Subscribe registers a watcher for an execution's log entries.
func (h *LogHub) Subscribe(executionID string) chan models.ExecutionLogEntry {
	ch := make(chan models.ExecutionLogEntry, 64)
	h.mu.Lock()
	h.watchers[executionID] = append(h.watchers[executionID], ch)
	h.mu.Unlock()
	return ch
}

// SinkFor returns a log sink that broadcasts to the execution's watchers.
// Slow watchers drop entries rather than stalling the engine.
func (h *LogHub) SinkFor(executionID string) func(models.ExecutionLogEntry) {
	return func(entry models.ExecutionLogEntry) {
		h.mu.Lock()
		watchers := h.watchers[executionID]
		h.mu.Unlock()

		for _, ch := range watchers {
			select {
			case ch <- entry:
			default:
			}
		}
	}
}

// Close ends the stream for an execution and releases its watchers.
func (h *LogHub) Close(executionID string) {
	h.mu.Lock()
	watchers := h.watchers[executionID]
	delete(h.watchers, executionID)
	h.mu.Unlock()

	for _, ch := range watchers {
		close(ch)
	}
}

// handleStreamExecution upgrades to a websocket and streams log entries
// for one execution until it finishes or the client disconnects.
func (s *Server) handleStreamExecution(w http.ResponseWriter, r *http.Request) {
	executionID := mux.Vars(r)["id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Replay what has already been persisted, then follow live entries.
	if logs, err := s.deps.Executions.GetExecutionLogs(executionID); err == nil {
		for _, entry := range logs {
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}

	ch := s.Subscribe(executionID)
	for entry := range ch {
		if err := conn.WriteJSON(entry); err != nil {
			return
		}
	}
}

// Subscribe exposes the hub for handlers and tests.
func (s *Server) Subscribe(executionID string) chan models.ExecutionLogEntry {
	return s.hub.Subscribe(executionID)
}
