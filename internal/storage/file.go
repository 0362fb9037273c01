package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"flapd/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.refresh.jsonl (append-only JSON Lines)
//   - <prefix>.quotes.jsonl  (append-only JSON Lines)
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	refreshFile *os.File
	quoteFile   *os.File
}

type refreshRecord struct {
	At           string  `json:"at"`
	Stations     int     `json:"stations"`
	MedianTempF  float64 `json:"median_temp_f"`
	MedianWindKn float64 `json:"median_wind_kn"`
}

type quoteRecord struct {
	At     string `json:"at"`
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	rf, err := os.OpenFile(prefix+".refresh.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	qf, err := os.OpenFile(prefix+".quotes.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	return &fileStore{log: log, refreshFile: rf, quoteFile: qf}, nil
}

func (s *fileStore) AppendRefresh(_ context.Context, e RefreshEntry) error {
	if s == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return s.appendLine(s.refreshFile, refreshRecord{
		At:           e.At.Format(time.RFC3339),
		Stations:     e.Stations,
		MedianTempF:  e.MedianTempF,
		MedianWindKn: e.MedianWindKn,
	})
}

func (s *fileStore) AppendQuote(_ context.Context, e QuoteEntry) error {
	if s == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return s.appendLine(s.quoteFile, quoteRecord{
		At:     e.At.Format(time.RFC3339),
		Symbol: e.Symbol,
		Price:  e.Price,
	})
}

func (s *fileStore) appendLine(f *os.File, rec any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if f == nil {
		return ErrDisabled
	}
	_, err = f.Write(b)
	return err
}

func (s *fileStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	if s.refreshFile != nil {
		if err := s.refreshFile.Close(); err != nil {
			first = err
		}
		s.refreshFile = nil
	}
	if s.quoteFile != nil {
		if err := s.quoteFile.Close(); err != nil && first == nil {
			first = err
		}
		s.quoteFile = nil
	}
	return first
}
