package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lekki-ent/marquee/internal/display"
)

const displayWriteTimeout = 5 * time.Second

var displayUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleDisplayWS(w http.ResponseWriter, r *http.Request) {
	conn, err := displayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	id := s.addClient(r.RemoteAddr)
	defer s.removeClient(id)
	s.serveDisplayConnection(conn, id)
}

func (s *Server) serveDisplayConnection(conn *websocket.Conn, id uuid.UUID) {
	defer conn.Close()

	if err := writeDisplayPayload(conn, s.board.Current()); err != nil {
		s.logger.Debug("websocket write failed", "client", id, "error", err)
		return
	}

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := writeDisplayPayload(conn, s.board.Current()); err != nil {
				s.logger.Debug("websocket write failed", "client", id, "error", err)
				return
			}
		case <-done:
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(displayWriteTimeout))
			return
		}
	}
}

func writeDisplayPayload(conn *websocket.Conn, payload display.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(displayWriteTimeout))
	return conn.WriteJSON(payload)
}

func (s *Server) addClient(remote string) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.clients[id] = remote
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug("display client connected", "client", id, "remote", remote, "clients", n)
	return id
}

func (s *Server) removeClient(id uuid.UUID) {
	s.mu.Lock()
	delete(s.clients, id)
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Debug("display client disconnected", "client", id, "clients", n)
}
