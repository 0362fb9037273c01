// Package ota watches the running executable. When the binary on disk
// is replaced (an update was installed over it), the watcher asks the
// app to shut down so the service manager restarts into the new image.
// Update transfer itself is someone else's job.
package ota

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "flapd/pkg/logx"
)

// Watcher observes one file, normally the running executable.
type Watcher struct {
	path string
	log  logx.Logger

	// onReplace is called once when the binary changes.
	onReplace func()
}

// New builds a watcher for path. An empty path resolves to the current
// executable. onReplace runs at most once.
func New(path string, log logx.Logger, onReplace func()) (*Watcher, error) {
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		path = exe
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{path: abs, log: log, onReplace: onReplace}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run watches until ctx is canceled or the binary is replaced.
// Package managers and scp write via rename, so Create/Rename/Remove on
// the basename count as replacement alongside plain writes. A short
// settle delay lets the writer finish before we report.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory: a rename-over drops inode-level watches.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	base := filepath.Base(w.path)
	if !w.log.IsZero() {
		w.log.Debug("update watcher started", logx.String("path", w.path))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
			}
			if !w.log.IsZero() {
				w.log.Info("executable replaced, requesting restart",
					logx.String("path", w.path), logx.String("op", ev.Op.String()))
			}
			if w.onReplace != nil {
				w.onReplace()
			}
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if err != nil && !w.log.IsZero() {
				w.log.Warn("update watch error", logx.Err(err))
			}
		}
	}
}
