package storage

import (
	"context"
	"errors"
	"strings"

	"flapd/pkg/logx"
)

// Store is the minimal persistence API used by the scheduler.
// All writes are best-effort; a failing store never stops the loop.
type Store interface {
	AppendRefresh(ctx context.Context, e RefreshEntry) error
	AppendQuote(ctx context.Context, e QuoteEntry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
