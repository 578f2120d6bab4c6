package tmux

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/ccdash/internal/core/terminal"
)

// Snapshotter lists the current panes.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]Pane, error)
}

type paneState struct {
	name        string
	exited      bool
	interacted  bool
	command     string
	fingerprint string
}

// Watcher polls a Snapshotter and reports what changed between consecutive
// snapshots to a terminal.Sink.
type Watcher struct {
	log      zerolog.Logger
	src      Snapshotter
	sink     terminal.Sink
	interval atomic.Int64

	started bool
	panes   map[string]paneState
	focused string
}

// NewWatcher creates a watcher polling src every interval.
func NewWatcher(log zerolog.Logger, src Snapshotter, sink terminal.Sink, interval time.Duration) *Watcher {
	w := &Watcher{
		log:   log,
		src:   src,
		sink:  sink,
		panes: make(map[string]paneState),
	}
	w.SetInterval(interval)
	return w
}

// SetInterval changes the poll interval from the next tick on.
func (w *Watcher) SetInterval(d time.Duration) {
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	w.interval.Store(int64(d))
}

func (w *Watcher) pollInterval() time.Duration {
	return time.Duration(w.interval.Load())
}

// Run polls until ctx is cancelled. Snapshot failures are logged and the
// previous state is kept.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Poll(ctx); err != nil {
		w.log.Warn().Err(err).Msg("initial poll failed")
	}

	timer := time.NewTimer(w.pollInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if err := w.Poll(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn().Err(err).Msg("poll failed")
			}
			timer.Reset(w.pollInterval())
		}
	}
}

// Poll takes one snapshot and delivers the resulting events. The first
// successful poll is delivered as a single Sync. Poll is not safe for
// concurrent use.
func (w *Watcher) Poll(ctx context.Context) error {
	panes, err := w.src.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot panes: %w", err)
	}

	next := make(map[string]paneState, len(panes))
	focused := ""
	for _, p := range panes {
		if p.Focused {
			focused = p.ID
		}
	}

	if !w.started {
		w.started = true

		resources := make([]terminal.Resource, 0, len(panes))
		for _, p := range panes {
			st := newPaneState(p, paneState{})
			next[p.ID] = st
			resources = append(resources, st.resource(p.ID))
		}
		w.sink.Sync(resources)

		for _, p := range panes {
			if cmd := next[p.ID].command; cmd != "" {
				w.sink.OnShellExecutionStart(p.ID, cmd)
			}
		}

		w.panes = next
		if focused != "" {
			w.focused = focused
			w.sink.OnActiveChanged(focused)
		}
		return nil
	}

	for _, p := range panes {
		prev, known := w.panes[p.ID]
		st := newPaneState(p, prev)
		next[p.ID] = st

		if !known {
			w.sink.OnOpened(st.resource(p.ID))
			if st.command != "" {
				w.sink.OnShellExecutionStart(p.ID, st.command)
			}
			continue
		}

		if st.name != prev.name || st.exited != prev.exited || st.interacted != prev.interacted {
			w.sink.OnStateChanged(st.resource(p.ID))
		}

		switch {
		case st.command != prev.command:
			if prev.command != "" {
				w.sink.OnShellExecutionEnd(p.ID, prev.command)
			}
			if st.command != "" {
				w.sink.OnShellExecutionStart(p.ID, st.command)
			}
		case st.command != "" && prev.fingerprint != "" && st.fingerprint != prev.fingerprint:
			w.sink.OnOutputBurst(p.ID)
		}
	}

	closed := make([]string, 0)
	for id := range w.panes {
		if _, ok := next[id]; !ok {
			closed = append(closed, id)
		}
	}
	slices.Sort(closed)
	for _, id := range closed {
		w.sink.OnClosed(id)
	}

	w.panes = next

	if focused != w.focused {
		w.focused = focused
		w.sink.OnActiveChanged(focused)
	}

	return nil
}

func newPaneState(p Pane, prev paneState) paneState {
	st := paneState{
		name:       p.Name,
		exited:     p.Dead,
		command:    p.CommandLine,
		interacted: prev.interacted || p.CommandLine != "" || p.CursorY > 0,
	}
	if st.command != "" {
		st.fingerprint = Fingerprint(p.Content)
		// Keep the last known output when a capture was skipped.
		if st.fingerprint == "" && st.command == prev.command {
			st.fingerprint = prev.fingerprint
		}
	}
	return st
}

func (s paneState) resource(id string) terminal.Resource {
	return terminal.Resource{
		Handle:     id,
		Name:       s.name,
		Interacted: s.interacted,
		Exited:     s.exited,
	}
}
