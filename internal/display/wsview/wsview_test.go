package wsview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cws "github.com/coder/websocket"

	"flapd/pkg/logx"
)

func dialViewer(t *testing.T, s *Server) *cws.Conn {
	t.Helper()
	hts := httptest.NewServer(http.HandlerFunc(s.handleView))
	t.Cleanup(hts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := cws.Dial(ctx, "ws://"+hts.Listener.Addr().String()+"/view", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(cws.StatusNormalClosure, "") })
	return conn
}

func readEvent(t *testing.T, conn *cws.Conn) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return ev
}

func TestAttachReplaysCurrentState(t *testing.T) {
	s := New(Config{Modules: 5}, logx.Nop())
	s.ShowString("hello", false)
	s.SetMessage(1, "Wifi: up")

	conn := dialViewer(t, s)

	if ev := readEvent(t, conn); ev.Type != "show" || ev.Text != "hello" {
		t.Fatalf("first replay event = %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Type != "status" || ev.Line != 1 || ev.Text != "Wifi: up" {
		t.Fatalf("second replay event = %+v", ev)
	}
}

func TestBroadcastSkipsUnchangedState(t *testing.T) {
	s := New(Config{Modules: 5}, logx.Nop())
	conn := dialViewer(t, s)

	// Registration races the first broadcast; give the handler a moment.
	waitForConns(t, s, 1)

	s.ShowString("one", false)
	s.ShowString("one", false) // suppressed
	s.ShowString("two", false)

	if ev := readEvent(t, conn); ev.Text != "one" {
		t.Fatalf("got %+v, want one", ev)
	}
	if ev := readEvent(t, conn); ev.Text != "two" {
		t.Fatalf("got %+v, want two", ev)
	}
}

func TestForceRedrawBroadcasts(t *testing.T) {
	s := New(Config{Modules: 5}, logx.Nop())
	conn := dialViewer(t, s)
	waitForConns(t, s, 1)

	s.ShowString("same", false)
	s.ShowString("same", true)

	if ev := readEvent(t, conn); ev.Text != "same" {
		t.Fatalf("got %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Text != "same" {
		t.Fatalf("forced redraw missing, got %+v", ev)
	}
}

func waitForConns(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		have := len(s.conns)
		s.mu.Unlock()
		if have >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("viewer never registered")
}
