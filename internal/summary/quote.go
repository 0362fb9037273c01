package summary

import (
	"fmt"
	"strconv"
	"strings"

	"flapd/internal/jsonval"
)

// priceOverflow is shown when a price cannot fit five characters even
// with no fractional digits.
const priceOverflow = " big "

// SummarizeQuote extracts the price from a global-quote payload:
//
//	{"Global Quote": {"05. price": "123.4500"}}
//
// and formats it for the flaps. The lowercased symbol string is pushed by
// the caller before the fetch, so a failed quote leaves just the symbol.
func SummarizeQuote(body []byte, modules int) (string, error) {
	root, err := jsonval.Parse(body)
	if err != nil {
		return "", err
	}
	quote := root.Get("Global Quote")
	if !quote.IsObject() {
		return "", fmt.Errorf("parse error: Global Quote is %s, want object", quote.Kind())
	}
	raw, ok := quote.Get("05. price").Str()
	if !ok {
		return "", fmt.Errorf("parse error: 05. price is %s, want string", quote.Get("05. price").Kind())
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", fmt.Errorf("parse error: 05. price %q: %w", raw, err)
	}
	return fit(FormatPrice(price), modules), nil
}

// FormatPrice renders a price in exactly five characters, trading
// fractional digits for magnitude.
func FormatPrice(p float64) string {
	switch {
	case p < 100:
		return fmt.Sprintf("%5.2f", p)
	case p < 1000:
		return fmt.Sprintf("%5.1f", p)
	case p < 100000:
		return fmt.Sprintf("%5.0f", p)
	default:
		return priceOverflow
	}
}
