package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"flapd/internal/fetch"
	"flapd/pkg/logx"
)

// scriptFetcher answers per URL; anything unscripted fails at the
// transport level.
type scriptFetcher struct {
	byURL map[string]fetch.Result
	urls  []string
}

func (f *scriptFetcher) Get(ctx context.Context, url string) fetch.Result {
	f.urls = append(f.urls, url)
	if res, ok := f.byURL[url]; ok {
		return res
	}
	return fetch.Result{Err: errors.New("connection refused")}
}

const quoteTemplate = "http://quotes.test/query?symbol={symbol}&apikey={token}"

func quoteURL(symbol string) string {
	return "http://quotes.test/query?symbol=" + symbol + "&apikey=k"
}

func quoteBody(price string) []byte {
	return []byte(`{"Global Quote": {"05. price": "` + price + `"}}`)
}

func quoteEvent(t *testing.T, ftc fetch.Adapter, symbols ...string) Event {
	t.Helper()
	qc := QuoteConfig{URLTemplate: quoteTemplate, Token: "k", Symbols: symbols, Modules: 5}
	ev, err := NewEvent("12:00", "quotes", false, true,
		Chain(Statics("symbl", "price"), Quotes(qc, ftc, nil, logx.Nop())))
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestQuoteEventSequence(t *testing.T) {
	ftc := &scriptFetcher{byURL: map[string]fetch.Result{
		quoteURL("AMZN"): {Status: 200, Body: quoteBody("123.4500")},
		quoteURL("VOO"):  {Status: 200, Body: quoteBody("413.0000")},
	}}
	f := newFixture(t, Config{}, []Event{quoteEvent(t, ftc, "AMZN", "VOO")})
	ctx := context.Background()

	f.clk.t = time.Date(2026, 3, 2, 12, 0, 10, 0, time.UTC)
	f.s.lastCycle = f.clk.ms // keep the cycling step off the queue
	f.s.Tick(ctx)

	want := []string{"symbl", "price", "amzn", "123.5", "voo", "413.0"}
	got := drain(f.q)
	if len(got) != len(want) {
		t.Fatalf("queue = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Same minute again: the debounce holds, nothing refires.
	f.clk.advance(30 * time.Second)
	f.s.lastCycle = f.clk.ms
	f.s.Tick(ctx)
	if n := f.q.Len(); n != 0 {
		t.Fatalf("refire within the minute queued %d strings", n)
	}
}

func TestQuoteEventFetchFailureLeavesSymbol(t *testing.T) {
	// Only AMZN is reachable; VOO shows as a bare symbol with no price.
	ftc := &scriptFetcher{byURL: map[string]fetch.Result{
		quoteURL("AMZN"): {Status: 200, Body: quoteBody("123.4500")},
	}}
	f := newFixture(t, Config{}, []Event{quoteEvent(t, ftc, "AMZN", "VOO")})

	f.clk.t = time.Date(2026, 3, 2, 12, 0, 10, 0, time.UTC)
	f.s.lastCycle = f.clk.ms
	f.s.Tick(context.Background())

	want := []string{"symbl", "price", "amzn", "123.5", "voo"}
	got := drain(f.q)
	if len(got) != len(want) {
		t.Fatalf("queue = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(ftc.urls) != 2 {
		t.Fatalf("fetches = %q, want one per symbol", ftc.urls)
	}
}
