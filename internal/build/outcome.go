package build

import "time"

// Reason records what triggered a build.
type Reason string

const (
	ReasonInitial    Reason = "initial"
	ReasonFileChange Reason = "file-change"
	ReasonRescan     Reason = "rescan"
)

// Outcome is the immutable result of one compilation attempt.
type Outcome struct {
	ID          string
	Reason      Reason
	Success     bool
	Diagnostics []string
	StartedAt   time.Time
	Duration    time.Duration
}
