package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SetupError means the watch could not be established at all: the root is
// missing or not a directory. Fatal, not retried.
type SetupError struct {
	Root string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Root == "" {
		return fmt.Sprintf("watch setup failed: %v", e.Err)
	}
	return fmt.Sprintf("cannot watch %s: %v", e.Root, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// CapacityError means the OS refused to allocate a watch handle (e.g. the
// inotify watch limit is exhausted). Fatal at setup.
type CapacityError struct {
	Err error
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("watch capacity exhausted: %v", e.Err)
}

func (e *CapacityError) Unwrap() error { return e.Err }

// Source watches a directory tree and emits normalized change events.
// A Source is single-use: once closed it cannot be restarted.
type Source struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}
}

// NewSource starts watching root and every subdirectory beneath it.
// Hidden directories and node_modules are skipped.
func NewSource(root string) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &SetupError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &SetupError{Root: root, Err: errors.New("not a directory")}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, wrapCapacity(err)
	}

	s := &Source{
		root:    root,
		watcher: fsWatcher,
		events:  make(chan Event, 64),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if err := s.addTree(root); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	go s.run()
	return s, nil
}

// Events returns the stream of normalized changes. The channel is closed
// when the source stops.
func (s *Source) Events() <-chan Event {
	return s.events
}

// Close stops watching and releases all OS watch handles.
func (s *Source) Close() {
	close(s.stop)
	<-s.stopped
	_ = s.watcher.Close()
}

// addTree registers dir and all subdirectories with the OS watcher.
func (s *Source) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &SetupError{Root: path, Err: err}
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != dir && (strings.HasPrefix(base, ".") || base == "node_modules") {
			return fs.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			return wrapCapacity(err)
		}
		return nil
	})
}

func (s *Source) run() {
	defer close(s.stopped)
	defer close(s.events)

	for {
		select {
		case <-s.stop:
			return

		case raw, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			kind, relevant := normalizeOp(raw.Op)
			if !relevant {
				continue
			}
			if kind == Created {
				s.maybeWatchNewDir(raw.Name)
			}
			s.emit(Event{Path: raw.Name, Kind: kind, At: time.Now()})

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// maybeWatchNewDir folds a freshly created directory into the watch set and
// synthesizes events for anything already inside it. Files written between
// the mkdir and the watch registration would otherwise be missed.
func (s *Source) maybeWatchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || base == "node_modules" {
		return
	}
	if err := s.addTree(path); err != nil {
		slog.Error("watching new directory", "path", path, "error", err)
		return
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		s.emit(Event{Path: p, Kind: Created, At: time.Now()})
		return nil
	})
}

func (s *Source) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.stop:
	}
}

// wrapCapacity classifies watcher allocation failures. fsnotify surfaces
// inotify exhaustion as ENOSPC and fd exhaustion as EMFILE; anything else
// from watch registration is still fatal at setup, so treat it as a
// SetupError rather than guessing.
func wrapCapacity(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, fsnotify.ErrEventOverflow) {
		return &CapacityError{Err: err}
	}
	return &SetupError{Err: err}
}
