package devserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jcdickinson/showroom/internal/compile"
	"github.com/jcdickinson/showroom/internal/rpc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// compileWorkers bounds concurrent compilations per editor socket.
const compileWorkers = 2

// handleCompileSocket answers compile requests over a websocket. Results
// are written as they complete, so they may arrive out of order; the editor
// matches them to requests by message id.
func (s *Server) handleCompileSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("compile socket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	pool := compile.NewPool(s.compiler, compileWorkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range pool.Results() {
			s.metrics.CompileRequestsTotal.WithLabelValues("ws", res.Type).Inc()
			if err := conn.WriteJSON(res); err != nil {
				slog.Debug("compile socket write failed", "error", err)
			}
		}
	}()

	ctx := r.Context()
	for {
		var req rpc.CompileRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		if err := pool.Submit(ctx, req); err != nil {
			break
		}
	}
	pool.Close()
	<-done
}

func (s *Server) handleLiveReload(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("live reload upgrade failed", "error", err)
		return
	}
	var current *rpc.ReloadMessage
	if b := s.snapshot(); b != nil {
		current = &rpc.ReloadMessage{Type: "reload", BuildID: b.site.BuildID}
	}
	if !s.reload.add(conn, current) {
		return
	}
	s.metrics.LiveReloadClients.Inc()
	defer func() {
		s.reload.remove(conn)
		s.metrics.LiveReloadClients.Dec()
	}()

	// Clients never send anything; reading detects when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// hub fans reload messages out to every connected page. Writes happen under
// the hub lock, so each connection has a single writer.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

// add registers conn after sending it first, if any. A connection whose
// first write fails is closed and not registered.
func (h *hub) add(conn *websocket.Conn, first *rpc.ReloadMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if first != nil {
		if err := conn.WriteJSON(first); err != nil {
			slog.Debug("live reload write failed", "error", err)
			conn.Close()
			return false
		}
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
}

func (h *hub) broadcast(msg rpc.ReloadMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(msg); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
