// Package wsview is a display driver that mirrors the flaps to websocket
// viewers. Each connected client receives the full current state on attach
// and a JSON event per display update afterwards. Viewers are read-only.
package wsview

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	cws "github.com/coder/websocket"

	"flapd/pkg/logx"
)

type Config struct {
	Listen  string // e.g. "127.0.0.1:8613"
	Modules int
}

// Event is one display update on the wire.
type Event struct {
	Type string `json:"type"` // "show" | "status" | "reset" | "disable"
	Line int    `json:"line,omitempty"`
	Text string `json:"text,omitempty"`
}

// Server implements display.Driver and fans updates out to clients.
type Server struct {
	cfg Config
	log logx.Logger

	mu      sync.Mutex
	conns   map[*cws.Conn]context.Context
	shown   string
	status  [2]string
	stopped bool

	srv *http.Server
}

func New(cfg Config, log logx.Logger) *Server {
	return &Server{
		cfg:   cfg,
		log:   log,
		conns: map[*cws.Conn]context.Context{},
	}
}

// Serve blocks until ctx is canceled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/view", s.handleView)

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	s.log.Info("viewer listening", logx.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(sctx)
		s.closeAll()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("viewer accept failed", logx.Err(err))
		return
	}
	ctx := r.Context()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close(cws.StatusGoingAway, "shutting down")
		return
	}
	replay := s.snapshotLocked()
	s.mu.Unlock()

	// Replay before registering so broadcast writes never interleave with
	// the attach snapshot (one writer per conn).
	for _, ev := range replay {
		if err := writeEvent(ctx, conn, ev); err != nil {
			_ = conn.Close(cws.StatusNormalClosure, "")
			return
		}
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close(cws.StatusGoingAway, "shutting down")
		return
	}
	s.conns[conn] = ctx
	s.mu.Unlock()

	// Clients never send anything meaningful; read until the peer goes away
	// so we notice closure.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			s.drop(conn)
			return
		}
	}
}

func (s *Server) snapshotLocked() []Event {
	evs := make([]Event, 0, 3)
	if s.shown != "" {
		evs = append(evs, Event{Type: "show", Text: s.shown})
	}
	for i, txt := range s.status {
		if txt != "" {
			evs = append(evs, Event{Type: "status", Line: i, Text: txt})
		}
	}
	return evs
}

func (s *Server) drop(conn *cws.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close(cws.StatusNormalClosure, "")
}

func (s *Server) closeAll() {
	s.mu.Lock()
	s.stopped = true
	conns := make([]*cws.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = map[*cws.Conn]context.Context{}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(cws.StatusGoingAway, "shutting down")
	}
}

func (s *Server) broadcast(ev Event) {
	s.mu.Lock()
	targets := make(map[*cws.Conn]context.Context, len(s.conns))
	for c, ctx := range s.conns {
		targets[c] = ctx
	}
	s.mu.Unlock()

	for c, ctx := range targets {
		if err := writeEvent(ctx, c, ev); err != nil {
			s.drop(c)
		}
	}
}

func writeEvent(ctx context.Context, conn *cws.Conn, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return conn.Write(wctx, cws.MessageText, data)
}

// ---- display.Driver ----

func (s *Server) ShowString(text string, force bool) {
	s.mu.Lock()
	if text == s.shown && !force {
		s.mu.Unlock()
		return
	}
	s.shown = text
	s.mu.Unlock()
	s.broadcast(Event{Type: "show", Text: text})
}

func (s *Server) DisableAll() {
	s.broadcast(Event{Type: "disable"})
}

func (s *Server) ResetAll() {
	s.broadcast(Event{Type: "reset"})
}

func (s *Server) SetMessage(line int, text string) {
	if line < 0 || line > 1 {
		return
	}
	s.mu.Lock()
	if s.status[line] == text {
		s.mu.Unlock()
		return
	}
	s.status[line] = text
	s.mu.Unlock()
	s.broadcast(Event{Type: "status", Line: line, Text: text})
}
