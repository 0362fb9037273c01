package summary

import (
	"fmt"
	"testing"
)

func quoteBody(price string) []byte {
	return []byte(fmt.Sprintf(`{"Global Quote": {"01. symbol": "AMZN", "05. price": %q}}`, price))
}

func TestQuotePriceWidths(t *testing.T) {
	t.Parallel()
	tests := []struct {
		price string
		want  string
	}{
		{"3.1499", " 3.15"},
		{"99.99", "99.99"},
		{"123.45", "123.5"},
		{"999.9499", "999.9"},
		{"1234.56", " 1235"},
		{"99999.4", "99999"},
		{"100000.0", " big "},
		{"2500000", " big "},
	}
	for _, tt := range tests {
		got, err := SummarizeQuote(quoteBody(tt.price), 5)
		if err != nil {
			t.Fatalf("price %s: %v", tt.price, err)
		}
		if got != tt.want {
			t.Errorf("price %s = %q, want %q", tt.price, got, tt.want)
		}
		if len(got) != 5 {
			t.Errorf("price %s: width %d, want 5", tt.price, len(got))
		}
	}
}

func TestQuoteTrimsWhitespace(t *testing.T) {
	t.Parallel()
	got, err := SummarizeQuote(quoteBody("  12.50  "), 5)
	if err != nil {
		t.Fatalf("SummarizeQuote: %v", err)
	}
	if got != "12.50" {
		t.Fatalf("got %q", got)
	}
}

func TestQuoteParseFailures(t *testing.T) {
	t.Parallel()
	bad := [][]byte{
		[]byte(``),
		[]byte(`{`),
		[]byte(`{"Global Quote": "nope"}`),
		[]byte(`{"Global Quote": {"05. price": 12.5}}`),
		[]byte(`{"Global Quote": {}}`),
		quoteBody("not-a-number"),
		[]byte(`{"Note": "rate limit exceeded"}`),
	}
	for _, body := range bad {
		if _, err := SummarizeQuote(body, 5); err == nil {
			t.Errorf("body %s: expected error", body)
		}
	}
}
