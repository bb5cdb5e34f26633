// Package driver wires the watch pipeline together: change events flow from
// the source through the debouncer into the scheduler, which runs the
// compiler through the invoker one build at a time.
package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/noxical/noxical/internal/build"
	"github.com/noxical/noxical/internal/config"
	"github.com/noxical/noxical/internal/history"
	"github.com/noxical/noxical/internal/watch"
)

// Driver runs one-shot and watch-mode compilation sessions.
type Driver struct {
	cfg      *config.Config
	inputDir string
	invoker  *build.Invoker
	store    *history.Store // nil disables the build log
	out      io.Writer
}

// New returns a driver compiling inputDir with compiler. store may be nil.
func New(cfg *config.Config, inputDir string, compiler build.Compiler, store *history.Store, out io.Writer) *Driver {
	return &Driver{
		cfg:      cfg,
		inputDir: inputDir,
		invoker:  build.NewInvoker(compiler, inputDir),
		store:    store,
		out:      out,
	}
}

// RunOnce performs a single compile-and-report cycle and returns its outcome.
func (d *Driver) RunOnce() build.Outcome {
	outcome := d.invoker.Run(build.ReasonInitial)
	d.report(outcome)
	return outcome
}

// Watch compiles once, then recompiles on every coalesced change until ctx
// is cancelled. Cancellation stops event intake immediately but lets an
// in-flight build run to completion before returning.
func (d *Driver) Watch(ctx context.Context) error {
	source, err := watch.NewSource(d.inputDir)
	if err != nil {
		return err
	}

	events := source.Events()
	var rescanner *watch.Rescanner
	if interval := d.cfg.RescanInterval(); interval > 0 {
		rescanner = watch.NewRescanner(d.inputDir, interval)
		events = mergeEvents(source.Events(), rescanner.Events())
	}

	debouncer := watch.NewDebouncer(events, d.cfg.QuietWindow(), d.cfg.MaxDelay())

	var sched *build.Scheduler
	sched = build.NewScheduler(func(reason build.Reason) {
		sched.OnBuildComplete(d.invoker.Run(reason))
	}, d.report)

	slog.Info("watching for changes", "path", d.inputDir,
		"quiet_window", d.cfg.QuietWindow(), "max_delay", d.cfg.MaxDelay())

	// Initial build before the first change arrives.
	sched.OnSignal(build.ReasonInitial)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case _, ok := <-debouncer.Signals():
			if !ok {
				break loop
			}
			sched.OnSignal(build.ReasonFileChange)
		}
	}

	slog.Info("shutting down")

	// Stop event intake first, then wait out the in-flight build.
	source.Close()
	if rescanner != nil {
		rescanner.Stop()
	}
	debouncer.Stop()
	sched.Stop()

	return nil
}

// report writes one outcome to the user and the build log. It runs under
// the scheduler's lock in watch mode, which keeps outcome reporting ordered
// before the follow-up build.
func (d *Driver) report(o build.Outcome) {
	if o.Success {
		fmt.Fprintf(d.out, "✓ Finished in %d ms.\n", o.Duration.Milliseconds())
		for _, diag := range o.Diagnostics {
			slog.Debug("build diagnostic", "message", diag)
		}
	} else {
		fmt.Fprintf(d.out, "✗ Build failed after %d ms.\n", o.Duration.Milliseconds())
		for _, diag := range o.Diagnostics {
			fmt.Fprintf(d.out, "  %s\n", diag)
		}
	}

	slog.Info("build finished",
		"id", o.ID,
		"reason", string(o.Reason),
		"success", o.Success,
		"duration", o.Duration.Round(time.Millisecond),
	)

	if d.store != nil {
		if err := d.store.Record(o); err != nil {
			slog.Error("recording build", "error", err)
		}
	}
}

// mergeEvents fans two event streams into one. The merged channel closes
// once both inputs close.
func mergeEvents(a, b <-chan watch.Event) <-chan watch.Event {
	out := make(chan watch.Event)
	var wg sync.WaitGroup
	forward := func(c <-chan watch.Event) {
		defer wg.Done()
		for ev := range c {
			out <- ev
		}
	}
	wg.Add(2)
	go forward(a)
	go forward(b)
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
