package terminal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/ccdash/pkg/tmpl"
)

// DefaultDebounceWindow is how long after the last output burst an active
// assistant terminal decays to pending.
const DefaultDebounceWindow = 1500 * time.Millisecond

// ErrClosedDuringStartup is returned by CreateManaged when the terminal goes
// away before the startup command could be confirmed.
var ErrClosedDuringStartup = errors.New("terminal closed during startup")

// Settings are the registry options that may change while running.
type Settings struct {
	CLIPath        string
	AutoDetect     bool
	Detector       *Detector
	DebounceWindow time.Duration
	ShowOnCreate   bool

	// StartupTemplate optionally replaces the default startup command. It is
	// rendered with StartupData.
	StartupTemplate string
}

// StartupData is the template data for Settings.StartupTemplate.
type StartupData struct {
	CLI   string
	Model string
}

// StartupCommandFor returns the command line typed into a new terminal for m.
func (s Settings) StartupCommandFor(m Model) (string, error) {
	if s.StartupTemplate == "" {
		return StartupCommand(s.CLIPath, m), nil
	}
	out, err := tmpl.Render(s.StartupTemplate, StartupData{CLI: s.CLIPath, Model: string(m)})
	if err != nil {
		return "", fmt.Errorf("render startup command: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DefaultSettings returns the settings used when no configuration is given.
func DefaultSettings() Settings {
	return Settings{
		CLIPath:        "claude",
		AutoDetect:     true,
		DebounceWindow: DefaultDebounceWindow,
		ShowOnCreate:   true,
	}
}

func (s Settings) withDefaults() Settings {
	if s.CLIPath == "" {
		s.CLIPath = "claude"
	}
	if s.DebounceWindow <= 0 {
		s.DebounceWindow = DefaultDebounceWindow
	}
	return s
}

// Options configure a Registry.
type Options struct {
	Settings
	Clock  Clock
	Logger zerolog.Logger
}

// entry is the registry's private record. The debounce timer lives on the
// entry so removing the entry always reaches its timer.
type entry struct {
	Terminal
	interacted   bool
	exited       bool
	outputActive bool
	closing      bool // Dispose issued, waiting for OnClosed
	debounce     Timer
	burstGen     uint64
}

type subscriber struct {
	id int
	fn func()
}

// Registry owns every tracked terminal. It is safe for concurrent use; each
// call runs to completion under a single lock and change observers run after
// the lock is released.
type Registry struct {
	host   Host
	clock  Clock
	logger zerolog.Logger

	mu          sync.Mutex
	settings    Settings
	nextID      int
	terminals   map[string]*entry
	focused     string
	lastCreated time.Time

	subMu       sync.Mutex
	subscribers []subscriber
	nextSub     int
}

// NewRegistry creates an empty registry driving host.
func NewRegistry(host Host, opts Options) *Registry {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &Registry{
		host:      host,
		clock:     clock,
		logger:    opts.Logger,
		settings:  opts.Settings.withDefaults(),
		nextID:    1,
		terminals: make(map[string]*entry),
	}
}

// Configure replaces the runtime settings. Existing records keep their
// managed flag; new detection and command matching use the new values.
func (r *Registry) Configure(s Settings) {
	r.mu.Lock()
	r.settings = s.withDefaults()
	r.mu.Unlock()
}

// Subscribe registers fn to be called after every change that affects
// presentation. Observers run synchronously in registration order.
func (r *Registry) Subscribe(fn func()) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextSub
	r.nextSub++
	r.subscribers = append(r.subscribers, subscriber{id: id, fn: fn})

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		r.subscribers = slices.DeleteFunc(r.subscribers, func(s subscriber) bool {
			return s.id == id
		})
	}
}

func (r *Registry) notify() {
	r.subMu.Lock()
	subs := slices.Clone(r.subscribers)
	r.subMu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// CreateManaged opens a new assistant terminal and starts the CLI in it with
// the given model. A host creation failure is returned and nothing is tracked.
func (r *Registry) CreateManaged(ctx context.Context, model Model) (Terminal, error) {
	r.mu.Lock()
	settings := r.settings
	r.mu.Unlock()

	res, err := r.host.Create(ctx, ManagedName(model))
	if err != nil {
		return Terminal{}, fmt.Errorf("create terminal: %w", err)
	}

	r.mu.Lock()
	e := r.findByHandle(res.Handle)
	if e == nil {
		e = r.track(res, true, model)
	} else {
		// The watcher saw the terminal before we did.
		e.Managed = true
		e.Model = model
		r.recompute(e)
	}
	id := e.ID
	r.mu.Unlock()
	r.notify()

	r.logger.Debug().Str("id", id).Str("handle", res.Handle).Str("model", string(model)).Msg("terminal created")

	if err := r.host.WaitReady(ctx, res.Handle); err != nil {
		return r.copyOf(id), fmt.Errorf("wait for terminal %s: %w", id, err)
	}

	startup, err := settings.StartupCommandFor(model)
	if err != nil {
		return r.copyOf(id), err
	}

	if err := r.host.SendText(ctx, res.Handle, startup); err != nil {
		return r.copyOf(id), fmt.Errorf("start cli in terminal %s: %w", id, err)
	}

	r.mu.Lock()
	e, ok := r.terminals[id]
	var out Terminal
	if ok {
		e.ClaudeRunning = true
		r.recompute(e)
		out = e.Terminal
	}
	r.mu.Unlock()

	if !ok {
		return Terminal{}, fmt.Errorf("terminal %s: %w", id, ErrClosedDuringStartup)
	}

	if settings.ShowOnCreate {
		if err := r.host.Show(ctx, res.Handle); err != nil {
			r.logger.Warn().Err(err).Str("id", id).Msg("failed to show new terminal")
		}
	}

	r.notify()
	return out, nil
}

// Close asks the host to dispose of the terminal. The record is removed when
// the host reports the closure. Unknown ids are ignored.
//
// A terminal already being closed is not disposed again. A failed Dispose
// leaves the terminal closable.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.terminals[id]
	if !ok || e.closing {
		r.mu.Unlock()
		return nil
	}
	e.closing = true
	handle := e.Handle
	r.mu.Unlock()

	if err := r.host.Dispose(ctx, handle); err != nil {
		r.mu.Lock()
		if e, ok := r.terminals[id]; ok {
			e.closing = false
		}
		r.mu.Unlock()
		return fmt.Errorf("close terminal %s: %w", id, err)
	}
	return nil
}

// Focus asks the host to bring the terminal to the foreground. Unknown ids
// are ignored.
func (r *Registry) Focus(ctx context.Context, id string) error {
	handle, ok := r.handleOf(id)
	if !ok {
		return nil
	}
	if err := r.host.Show(ctx, handle); err != nil {
		return fmt.Errorf("focus terminal %s: %w", id, err)
	}
	return nil
}

// Rename sets a custom display name. An empty name clears it.
func (r *Registry) Rename(id, name string) {
	r.mu.Lock()
	e, ok := r.terminals[id]
	if ok {
		e.CustomName = strings.TrimSpace(name)
	}
	r.mu.Unlock()

	if ok {
		r.notify()
	}
}

// List returns copies of every tracked terminal in ascending id order.
func (r *Registry) List() []Terminal {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Terminal, 0, len(r.terminals))
	for _, e := range r.terminals {
		out = append(out, e.Terminal)
	}
	slices.SortFunc(out, func(a, b Terminal) int { return compareIDs(a.ID, b.ID) })
	return out
}

// Get returns a copy of the terminal with the given id.
func (r *Registry) Get(id string) (Terminal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.terminals[id]
	if !ok {
		return Terminal{}, false
	}
	return e.Terminal, true
}

// Shutdown cancels every pending debounce timer.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.terminals {
		r.cancelDebounce(e)
	}
}

// Sync tracks terminals that existed before the registry started watching.
func (r *Registry) Sync(resources []Resource) {
	r.mu.Lock()
	for _, res := range resources {
		if r.findByHandle(res.Handle) == nil {
			r.track(res, r.detect(res), "")
		}
	}
	r.mu.Unlock()

	r.notify()
}

// OnOpened tracks a newly opened terminal.
func (r *Registry) OnOpened(res Resource) {
	r.mu.Lock()
	if r.findByHandle(res.Handle) == nil {
		e := r.track(res, r.detect(res), "")
		r.logger.Debug().Str("id", e.ID).Str("name", res.Name).Bool("managed", e.Managed).Msg("terminal opened")
	}
	r.mu.Unlock()

	r.notify()
}

// OnClosed removes the terminal and cancels its debounce timer.
func (r *Registry) OnClosed(handle string) {
	r.mu.Lock()
	if e := r.findByHandle(handle); e != nil {
		r.cancelDebounce(e)
		delete(r.terminals, e.ID)
		r.logger.Debug().Str("id", e.ID).Msg("terminal closed")
	}
	if r.focused == handle {
		r.focused = ""
	}
	r.mu.Unlock()

	r.notify()
}

// OnStateChanged refreshes the label and host flags of a terminal.
func (r *Registry) OnStateChanged(res Resource) {
	r.mu.Lock()
	if e := r.findByHandle(res.Handle); e != nil {
		e.Label = res.Name
		e.interacted = res.Interacted
		e.exited = res.Exited
		r.recompute(e)
	}
	r.mu.Unlock()

	r.notify()
}

// OnActiveChanged moves the focus pointer; an empty handle means no terminal
// has focus.
func (r *Registry) OnActiveChanged(handle string) {
	r.mu.Lock()
	r.focused = handle
	for _, e := range r.terminals {
		r.recompute(e)
	}
	r.mu.Unlock()

	r.notify()
}

// OnShellExecutionStart marks the CLI as running when an assistant terminal
// starts a command that invokes it.
func (r *Registry) OnShellExecutionStart(handle, commandLine string) {
	r.mu.Lock()
	e := r.findByHandle(handle)
	matched := e != nil && e.Managed && MatchesCLI(r.settings.CLIPath, commandLine)
	if matched {
		e.ClaudeRunning = true
		r.recompute(e)
		r.logger.Debug().Str("id", e.ID).Str("command", commandLine).Msg("cli started")
	}
	r.mu.Unlock()

	if matched {
		r.notify()
	}
}

// OnShellExecutionEnd marks the CLI as stopped and forces the terminal idle.
func (r *Registry) OnShellExecutionEnd(handle, commandLine string) {
	r.mu.Lock()
	e := r.findByHandle(handle)
	matched := e != nil && e.Managed && MatchesCLI(r.settings.CLIPath, commandLine)
	if matched {
		e.ClaudeRunning = false
		r.cancelDebounce(e)
		e.Status = StatusIdle
		r.logger.Debug().Str("id", e.ID).Str("command", commandLine).Msg("cli exited")
	}
	r.mu.Unlock()

	if matched {
		r.notify()
	}
}

// OnOutputBurst records output from a running CLI. The terminal shows as
// active until no output has arrived for the debounce window.
func (r *Registry) OnOutputBurst(handle string) {
	r.mu.Lock()
	e := r.findByHandle(handle)
	if e == nil || !e.Managed || !e.ClaudeRunning {
		r.mu.Unlock()
		return
	}

	prev := e.Status
	e.LastOutputTime = r.clock.Now()
	e.outputActive = true
	r.recompute(e)
	r.restartDebounce(e)
	changed := e.Status != prev
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// restartDebounce replaces any pending timer. Must be called with r.mu held.
func (r *Registry) restartDebounce(e *entry) {
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.burstGen++
	id, gen := e.ID, e.burstGen
	e.debounce = r.clock.AfterFunc(r.settings.DebounceWindow, func() {
		r.debounceFired(id, gen)
	})
}

func (r *Registry) debounceFired(id string, gen uint64) {
	r.mu.Lock()
	e, ok := r.terminals[id]
	if !ok || e.burstGen != gen {
		r.mu.Unlock()
		return
	}

	e.debounce = nil
	e.outputActive = false
	changed := false
	if e.ClaudeRunning && e.Status == StatusActive {
		r.recompute(e)
		changed = e.Status != StatusActive
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// cancelDebounce stops the timer and invalidates any call already in flight.
// Must be called with r.mu held.
func (r *Registry) cancelDebounce(e *entry) {
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	e.burstGen++
	e.outputActive = false
}

// track adds a record for res. Must be called with r.mu held.
func (r *Registry) track(res Resource, managed bool, model Model) *entry {
	id := strconv.Itoa(r.nextID)
	r.nextID++

	now := r.clock.Now()
	if now.Before(r.lastCreated) {
		now = r.lastCreated
	}
	r.lastCreated = now

	if !managed {
		model = ""
	}

	e := &entry{
		Terminal: Terminal{
			ID:        id,
			Handle:    res.Handle,
			Managed:   managed,
			Model:     model,
			Label:     res.Name,
			CreatedAt: now,
			// A detected assistant terminal that has seen input is assumed to be running the CLI.
			ClaudeRunning: managed && model == "" && res.Interacted,
		},
		interacted: res.Interacted,
		exited:     res.Exited,
	}
	r.recompute(e)
	r.terminals[id] = e
	return e
}

// recompute derives the status from the record's signals. Must be called with r.mu held.
func (r *Registry) recompute(e *entry) {
	e.Status = Classify(Signals{
		Focused:       r.focused != "" && r.focused == e.Handle,
		Managed:       e.Managed,
		ClaudeRunning: e.ClaudeRunning,
		OutputActive:  e.outputActive,
		Interacted:    e.interacted,
		Exited:        e.exited,
	})
}

func (r *Registry) detect(res Resource) bool {
	if !r.settings.AutoDetect {
		return false
	}
	return r.settings.Detector.IsManagedName(res.Name)
}

func (r *Registry) findByHandle(handle string) *entry {
	for _, e := range r.terminals {
		if e.Handle == handle {
			return e
		}
	}
	return nil
}

func (r *Registry) handleOf(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.terminals[id]
	if !ok {
		return "", false
	}
	return e.Handle, true
}

func (r *Registry) copyOf(id string) Terminal {
	t, _ := r.Get(id)
	return t
}

var _ Sink = (*Registry)(nil)
