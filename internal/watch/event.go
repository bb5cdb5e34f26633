package watch

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a filesystem change.
type Kind int

const (
	Created Kind = iota
	Modified
	Removed
	RenamedFrom
	RenamedTo
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case RenamedFrom:
		return "renamed-from"
	case RenamedTo:
		return "renamed-to"
	default:
		return "unknown"
	}
}

// Event is a single normalized filesystem change under the watched root.
type Event struct {
	Path string
	Kind Kind
	At   time.Time
}

// normalizeOp maps a raw fsnotify op onto a Kind. fsnotify reports a rename
// against the old path only; the destination arrives as a Create, so a move
// within the tree surfaces as RenamedFrom plus Created. RenamedTo is kept in
// the Kind set for event sources that can report both sides.
func normalizeOp(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Created, true
	case op.Has(fsnotify.Write):
		return Modified, true
	case op.Has(fsnotify.Remove):
		return Removed, true
	case op.Has(fsnotify.Rename):
		return RenamedFrom, true
	case op.Has(fsnotify.Chmod):
		// Permission-only changes don't affect compilation output.
		return 0, false
	default:
		return 0, false
	}
}
