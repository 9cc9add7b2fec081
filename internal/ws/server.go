package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/hotpush/backend/internal/session"
)

// Handler owns the lifecycle of an upgraded HMR connection. The server
// performs the upgrade and query parsing, then hands the channel over.
type Handler interface {
	// Connect installs a session for the channel. A failed connect is
	// reported on the channel and the channel closed; the server does not
	// need to distinguish.
	Connect(ctx context.Context, ch session.Channel, platform, entryFile string)

	// Disconnect tears down the session owning ch, if it is still live.
	Disconnect(ch session.Channel)
}

type Server struct {
	handler        Handler
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(handler Handler, allowedOrigins []string) *Server {
	s := &Server{
		handler:        handler,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/hot", s.handleHot)
}

func (s *Server) handleHot(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	entryFile := r.URL.Query().Get("bundleEntry")
	if entryFile == "" {
		http.Error(w, "bundleEntry is required", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("HMR client connected: %s (platform=%q entry=%s)", r.RemoteAddr, platform, entryFile)
	ch := NewChannel(conn)

	// Inbound frames are ignored; the read loop exists to detect close
	// and protocol errors.
	go func() {
		defer log.Printf("HMR client disconnected: %s", r.RemoteAddr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.handler.Disconnect(ch)
				ch.Close()
				return
			}
		}
	}()

	s.handler.Connect(context.Background(), ch, platform, entryFile)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
