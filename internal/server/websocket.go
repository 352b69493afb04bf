package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verascope/verascope/internal/domain"
)

// wsWriteTimeout and wsPingInterval mirror the teacher's WebSocket client
// defaults (internal/solana/ws_client.go's DefaultWSConfig), reused here on
// the server side of the same library.
const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// RunEvent is one status transition broadcast to subscribers of a run.
type RunEvent struct {
	RunID  string           `json:"run_id"`
	Status domain.RunStatus `json:"status"`
}

// Hub fans out run status events to WebSocket subscribers, keyed by run_id.
// Optional: a Server constructed with a nil Hub serves every other endpoint
// without WebSocket support.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
	logger      *log.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{subscribers: make(map[string][]*websocket.Conn), logger: logger}
}

// Publish sends a status event to every subscriber of runID, dropping and
// closing any connection that fails to accept the write.
func (h *Hub) Publish(runID string, status domain.RunStatus) {
	h.mu.Lock()
	conns := h.subscribers[runID]
	h.mu.Unlock()

	payload, err := json.Marshal(RunEvent{RunID: runID, Status: status})
	if err != nil {
		return
	}

	var alive []*websocket.Conn
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			continue
		}
		alive = append(alive, conn)
	}

	h.mu.Lock()
	h.subscribers[runID] = alive
	h.mu.Unlock()
}

func (h *Hub) subscribe(runID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.subscribers[runID] = append(h.subscribers[runID], conn)
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(runID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.subscribers[runID]
	for i, c := range conns {
		if c == conn {
			h.subscribers[runID] = append(conns[:i], conns[i+1:]...)
			return
		}
	}
}

// handleRunEvents upgrades the connection and streams the run status events
// published to the hub, pinging every wsPingInterval, until a ping write
// fails. The stream is not closed when the run reaches a terminal state.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFromContext(r.Context())
	runID := r.PathValue("id")

	if _, err := s.runs.Get(r.Context(), tenant, runID); err != nil {
		s.writeRunLookupError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log("websocket upgrade for run %s: %v", runID, err)
		return
	}
	defer conn.Close()

	s.hub.subscribe(runID, conn)
	defer s.hub.unsubscribe(runID, conn)

	pinger := time.NewTicker(wsPingInterval)
	defer pinger.Stop()
	for range pinger.C {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}
