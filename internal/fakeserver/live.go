package fakeserver

import (
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

type hint struct {
	Type string `json:"type"`
}

// hub fans change hints out to every connected listener.
type hub struct {
	mu    sync.Mutex
	conns map[*gorilla.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*gorilla.Conn]struct{})}
}

func (h *hub) add(c *gorilla.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *hub) remove(c *gorilla.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *hub) broadcast(kind string) {
	msg, _ := json.Marshal(hint{Type: kind})

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteMessage(gorilla.TextMessage, msg); err != nil {
			_ = c.Close()
			delete(h.conns, c)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.Close()
		delete(h.conns, c)
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if !s.HasSession(r.Header.Get(constants.SessionTokenHeader)) {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		_ = conn.Close()
	}()

	// Listeners never send; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
