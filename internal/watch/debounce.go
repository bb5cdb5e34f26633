package watch

import (
	"log/slog"
	"time"
)

// Debouncer coalesces bursts of change events into single rebuild signals.
// Every incoming event, regardless of kind or path, resets a quiet-window
// timer; the signal fires once the window passes with no further events.
// A continuous stream of events can therefore hold the signal off
// indefinitely, up to the max-delay cap: once the cap elapses since the
// first event of a burst, the signal fires even if events are still coming.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration // 0 disables the cap
	in       <-chan Event
	out      chan struct{}
	stop     chan struct{}
	stopped  chan struct{}
}

// NewDebouncer starts debouncing events from in. Signals are delivered on
// Signals until Stop is called or in is closed.
func NewDebouncer(in <-chan Event, quiet, maxDelay time.Duration) *Debouncer {
	d := &Debouncer{
		quiet:    quiet,
		maxDelay: maxDelay,
		in:       in,
		out:      make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Signals delivers one value per coalesced burst of changes.
func (d *Debouncer) Signals() <-chan struct{} {
	return d.out
}

// Stop shuts the debouncer down. Any burst still inside its quiet window is
// discarded.
func (d *Debouncer) Stop() {
	close(d.stop)
	<-d.stopped
}

func (d *Debouncer) run() {
	defer close(d.stopped)
	defer close(d.out)

	quiet := time.NewTimer(d.quiet)
	if !quiet.Stop() {
		<-quiet.C
	}
	var quietArmed bool

	var capTimer *time.Timer
	var capC <-chan time.Time

	emit := func() {
		if quietArmed && !quiet.Stop() {
			<-quiet.C
		}
		quietArmed = false
		if capTimer != nil {
			capTimer.Stop()
			capTimer = nil
			capC = nil
		}
		select {
		case d.out <- struct{}{}:
		case <-d.stop:
		}
	}

	for {
		select {
		case <-d.stop:
			if quietArmed {
				quiet.Stop()
			}
			if capTimer != nil {
				capTimer.Stop()
			}
			return

		case ev, ok := <-d.in:
			if !ok {
				return
			}
			slog.Debug("change observed", "path", ev.Path, "kind", ev.Kind.String())
			if quietArmed && !quiet.Stop() {
				<-quiet.C
			}
			quiet.Reset(d.quiet)
			quietArmed = true
			if d.maxDelay > 0 && capTimer == nil {
				capTimer = time.NewTimer(d.maxDelay)
				capC = capTimer.C
			}

		case <-quiet.C:
			quietArmed = false
			emit()

		case <-capC:
			capTimer = nil
			capC = nil
			slog.Debug("max delay reached, forcing rebuild signal")
			emit()
		}
	}
}
