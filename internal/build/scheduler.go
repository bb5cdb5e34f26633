package build

import (
	"log/slog"
	"sync"
)

// State is the scheduler's position in its build lifecycle.
type State int

const (
	// Idle: no build running, none pending.
	Idle State = iota
	// Building: exactly one build in flight.
	Building
	// BuildingWithPending: one build in flight, one follow-up owed. Any
	// number of further signals coalesce into that single follow-up.
	BuildingWithPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case BuildingWithPending:
		return "building+pending"
	default:
		return "unknown"
	}
}

// Scheduler owns the at-most-one-build invariant. It never compiles or
// touches files itself; it decides when the start function runs and promises
// that outcomes are reported before any follow-up build begins.
//
// start is expected to run the build asynchronously and call OnBuildComplete
// exactly once when it finishes. report is invoked under the scheduler's
// lock, which is what orders it before the follow-up build.
type Scheduler struct {
	mu       sync.Mutex
	state    State
	stopping bool
	idle     *sync.Cond
	start    func(reason Reason)
	report   func(Outcome)
	reason   Reason // reason for the pending follow-up, if any
}

// NewScheduler returns a scheduler in the Idle state.
func NewScheduler(start func(reason Reason), report func(Outcome)) *Scheduler {
	s := &Scheduler{start: start, report: report, state: Idle}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// State reports the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnSignal handles one rebuild signal. Non-blocking: either a build starts
// on its own goroutine, or the signal folds into the pending follow-up.
func (s *Scheduler) OnSignal(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return
	}

	switch s.state {
	case Idle:
		s.state = Building
		go s.start(reason)
	case Building:
		s.state = BuildingWithPending
		s.reason = reason
		slog.Debug("change during build, queued follow-up")
	case BuildingWithPending:
		// Already owed a follow-up; this change is covered by it.
	}
}

// OnBuildComplete handles a finished build: report it, then start the
// follow-up if one is owed.
func (s *Scheduler) OnBuildComplete(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil {
		s.report(outcome)
	}

	if s.state == BuildingWithPending && !s.stopping {
		s.state = Building
		go s.start(s.reason)
		return
	}

	s.state = Idle
	s.idle.Broadcast()
}

// Stop refuses further signals, discards any pending follow-up, and blocks
// until the in-flight build (if any) has completed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopping = true
	for s.state != Idle {
		s.idle.Wait()
	}
}
