package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled. The display loop
// itself persists nothing; this is an operator-facing history log.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RefreshEntry records one successful weather refresh.
type RefreshEntry struct {
	At           time.Time
	Stations     int
	MedianTempF  float64
	MedianWindKn float64
}

// QuoteEntry records one fetched stock quote.
type QuoteEntry struct {
	At     time.Time
	Symbol string
	Price  string
}
