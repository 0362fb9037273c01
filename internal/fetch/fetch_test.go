package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKindClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		r    Result
		want ResultKind
	}{
		{"body", Result{Body: []byte("{}"), Status: 200}, KindBody},
		{"created", Result{Status: 201}, KindBody},
		{"not found", Result{Status: 404}, KindHTTPError},
		{"server error", Result{Status: 500}, KindHTTPError},
		{"transport", Result{Err: errors.New("dial tcp: timeout")}, KindTransport},
	}
	for _, tt := range tests {
		if got := tt.r.Kind(); got != tt.want {
			t.Errorf("%s: Kind = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	a := NewHTTP(0)
	res := a.Get(context.Background(), srv.URL+"/data")
	if res.Kind() != KindBody {
		t.Fatalf("Kind = %v (%s), want body", res.Kind(), res)
	}
	if string(res.Body) != `{"ok":true}` {
		t.Fatalf("Body = %q", res.Body)
	}

	res = a.Get(context.Background(), srv.URL+"/missing")
	if res.Kind() != KindHTTPError || res.Status != 404 {
		t.Fatalf("Kind = %v status = %d, want http error 404", res.Kind(), res.Status)
	}
}

func TestGetTimeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	a := NewHTTP(20 * time.Millisecond)
	res := a.Get(context.Background(), srv.URL)
	if res.Kind() != KindTransport {
		t.Fatalf("Kind = %v, want transport (timeout)", res.Kind())
	}
}

func TestGetConnectionRefused(t *testing.T) {
	t.Parallel()
	a := NewHTTP(time.Second)
	res := a.Get(context.Background(), "http://127.0.0.1:1/nope")
	if res.Kind() != KindTransport {
		t.Fatalf("Kind = %v, want transport", res.Kind())
	}
}
