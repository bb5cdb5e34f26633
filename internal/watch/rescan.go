package watch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Rescanner is a fallback for dropped OS notifications: on a fixed interval
// it fingerprints the tree and injects one synthetic event when the
// fingerprint no longer matches what was last seen. Redundant rebuilds are
// acceptable; silently missed edits are not.
type Rescanner struct {
	root     string
	interval time.Duration
	events   chan Event
	last     string
	stop     chan struct{}
	stopped  chan struct{}
}

// NewRescanner starts periodic rescans of root. interval must be positive.
func NewRescanner(root string, interval time.Duration) *Rescanner {
	r := &Rescanner{
		root:     root,
		interval: interval,
		events:   make(chan Event, 1),
		last:     Fingerprint(root),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Events delivers the synthetic events produced on drift. Closed on Stop.
func (r *Rescanner) Events() <-chan Event {
	return r.events
}

// Stop halts the rescan loop.
func (r *Rescanner) Stop() {
	close(r.stop)
	<-r.stopped
}

func (r *Rescanner) run() {
	defer close(r.stopped)
	defer close(r.events)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			fp := Fingerprint(r.root)
			if fp == r.last {
				continue
			}
			slog.Debug("rescan detected drift", "root", r.root)
			r.last = fp
			select {
			case r.events <- Event{Path: r.root, Kind: Modified, At: time.Now()}:
			case <-r.stop:
				return
			}
		}
	}
}

// Fingerprint hashes the tree's shape: every path with its size and mtime,
// in sorted order. Content is deliberately not read; a changed file always
// changes size or mtime, and hashing contents on every tick would be slow
// on large trees.
func Fingerprint(root string) string {
	var lines []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		base := filepath.Base(path)
		if d.IsDir() && path != root && (strings.HasPrefix(base, ".") || base == "node_modules") {
			return fs.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		lines = append(lines, fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
