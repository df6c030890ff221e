// Package ingest reads tag files and watches a drop directory for new
// ones.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// ReadTagFile reads one raw tag per line from a .txt or .csv file.
// Lines are trimmed, empty lines skipped; validation is the pipeline's
// job, not this reader's.
func ReadTagFile(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".csv":
	default:
		return nil, fmt.Errorf("ingest: unsupported file format %q, use .txt or .csv", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tags []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tags = append(tags, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// Handler is called with the tags of each new file.
type Handler func(path string, tags []string)

// Watcher watches a directory and feeds new tag files to a handler.
// Writers should move files into the directory atomically (rename), a
// file is picked up on its create event.
type Watcher struct {
	logger  log.Logger
	dir     string
	handler Handler
}

// NewWatcher returns a watcher for dir.
func NewWatcher(logger log.Logger, dir string, h Handler) *Watcher {
	return &Watcher{
		logger:  log.With(logger, "component", "ingest"),
		dir:     dir,
		handler: h,
	}
}

// Run watches until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("ingest: watching %s: %w", w.dir, err)
	}
	level.Info(w.logger).Log("msg", "watching drop directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			tags, err := ReadTagFile(ev.Name)
			if err != nil {
				level.Debug(w.logger).Log("msg", "skipping file", "path", ev.Name, "error", err)
				continue
			}
			level.Info(w.logger).Log("msg", "ingesting tag file", "path", ev.Name, "tags", len(tags))
			w.handler(ev.Name, tags)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			level.Error(w.logger).Log("msg", "watch error", "error", err)
		}
	}
}
