package terminal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// manualClock is a Clock whose time only moves when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	done    bool
	stopped bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every timer that became due.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done && !t.stopped && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers that have neither run nor been stopped.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done && !t.stopped {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type sentText struct {
	handle string
	text   string
}

// fakeHost implements Host and records every call.
type fakeHost struct {
	mu       sync.Mutex
	next     int
	created  []string
	sent     []sentText
	shown    []string
	disposed []string

	createErr error
	readyErr  error
	showErr    error
	disposeErr error

	// When gate is set, WaitReady signals waiting and blocks until gate is closed.
	gate    chan struct{}
	waiting chan struct{}
}

func (h *fakeHost) Create(_ context.Context, name string) (Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.createErr != nil {
		return Resource{}, h.createErr
	}
	h.next++
	h.created = append(h.created, name)
	return Resource{Handle: fmt.Sprintf("%%%d", h.next), Name: name}, nil
}

func (h *fakeHost) WaitReady(ctx context.Context, _ string) error {
	if h.gate != nil {
		if h.waiting != nil {
			h.waiting <- struct{}{}
		}
		select {
		case <-h.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return h.readyErr
}

func (h *fakeHost) SendText(_ context.Context, handle, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sentText{handle: handle, text: text})
	return nil
}

func (h *fakeHost) Show(_ context.Context, handle string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown = append(h.shown, handle)
	return h.showErr
}

func (h *fakeHost) Dispose(_ context.Context, handle string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disposed = append(h.disposed, handle)
	return h.disposeErr
}

type testEnv struct {
	host    *fakeHost
	clock   *manualClock
	reg     *Registry
	notices int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	settings := DefaultSettings()
	settings.ShowOnCreate = false

	env := &testEnv{
		host:  &fakeHost{},
		clock: newManualClock(),
	}
	env.reg = NewRegistry(env.host, Options{
		Settings: settings,
		Clock:    env.clock,
		Logger:   zerolog.Nop(),
	})
	env.reg.Subscribe(func() { env.notices++ })
	return env
}

func (e *testEnv) mustGet(t *testing.T, id string) Terminal {
	t.Helper()
	term, ok := e.reg.Get(id)
	if !ok {
		t.Fatalf("terminal %s not tracked", id)
	}
	return term
}

func (e *testEnv) createManaged(t *testing.T, m Model) Terminal {
	t.Helper()
	term, err := e.reg.CreateManaged(context.Background(), m)
	if err != nil {
		t.Fatalf("create managed: %v", err)
	}
	return term
}
