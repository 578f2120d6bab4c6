// Package dashboard is the presentation channel between the terminal registry
// and a rendering surface. Requests flow in, change notifications flow out as
// messages.
package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hay-kot/ccdash/internal/core/terminal"
)

// ErrStopped is returned by Send once Run has returned.
var ErrStopped = errors.New("dashboard stopped")

// Registry is the part of terminal.Registry the dashboard drives.
type Registry interface {
	CreateManaged(ctx context.Context, model terminal.Model) (terminal.Terminal, error)
	Close(ctx context.Context, id string) error
	Focus(ctx context.Context, id string) error
	Rename(id, name string)
	List() []terminal.Terminal
	Subscribe(fn func()) (unsubscribe func())
}

// Options configure a Service.
type Options struct {
	DefaultModel terminal.Model
	Logger       zerolog.Logger
}

// Service owns one presentation channel. Create it with New, start it with
// Run, and stop it by cancelling Run's context.
type Service struct {
	reg Registry
	log zerolog.Logger

	mu           sync.Mutex
	defaultModel terminal.Model

	requests      chan Request
	out           chan Message
	changed       chan struct{}
	modelsChanged chan struct{}
	drain         chan struct{}
	drainOnce     sync.Once
	done          chan struct{}

	creates sync.WaitGroup
}

// New creates a service for reg.
func New(reg Registry, opts Options) *Service {
	model := opts.DefaultModel
	if model == "" {
		model = terminal.ModelSonnet
	}
	return &Service{
		reg:           reg,
		log:           opts.Logger,
		defaultModel:  model,
		requests:      make(chan Request, 16),
		out:           make(chan Message, 16),
		changed:       make(chan struct{}, 1),
		modelsChanged: make(chan struct{}, 1),
		drain:         make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Updates returns the outbound message stream. It is never closed; readers
// stop with their own context.
func (s *Service) Updates() <-chan Message {
	return s.out
}

// Send queues a request. Requests are handled in arrival order.
func (s *Service) Send(ctx context.Context, req Request) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}

	select {
	case s.requests <- req:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetDefaultModel changes the model used for requests without one and
// republishes the model list.
func (s *Service) SetDefaultModel(m terminal.Model) {
	s.mu.Lock()
	changed := s.defaultModel != m
	s.defaultModel = m
	s.mu.Unlock()

	if changed {
		signal(s.modelsChanged)
	}
}

// DefaultModel returns the model used for requests without one.
func (s *Service) DefaultModel() terminal.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultModel
}

// Drain tells Run that no more requests will be sent. Run handles the requests
// already queued, waits for pending creates and returns.
func (s *Service) Drain() {
	s.drainOnce.Do(func() { close(s.drain) })
}

// Run publishes the initial models and terminals, then serves requests and
// registry changes until ctx is cancelled or Drain is called.
func (s *Service) Run(ctx context.Context) error {
	unsubscribe := s.reg.Subscribe(func() { signal(s.changed) })
	defer func() {
		unsubscribe()
		close(s.done)
		s.creates.Wait()
	}()

	s.emit(ctx, NewUpdateModels(s.DefaultModel()))
	s.emit(ctx, NewUpdateTerminals(s.reg.List()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.requests:
			s.handle(ctx, req)
		case <-s.changed:
			s.emit(ctx, NewUpdateTerminals(s.reg.List()))
		case <-s.modelsChanged:
			s.emit(ctx, NewUpdateModels(s.DefaultModel()))
		case <-s.drain:
			s.finish(ctx)
			return nil
		}
	}
}

// finish handles every queued request and publishes the terminals once more
// if they changed meanwhile.
func (s *Service) finish(ctx context.Context) {
	for queued := true; queued; {
		select {
		case req := <-s.requests:
			s.handle(ctx, req)
		default:
			queued = false
		}
	}

	s.creates.Wait()

	select {
	case <-s.changed:
		s.emit(ctx, NewUpdateTerminals(s.reg.List()))
	default:
	}
}

func (s *Service) handle(ctx context.Context, req Request) {
	s.log.Debug().Str("request", req.RequestType()).Msg("handling request")

	switch r := req.(type) {
	case NewTerminal:
		model := s.DefaultModel()
		if r.Model != "" {
			m, err := terminal.ParseModel(r.Model)
			if err != nil {
				s.emit(ctx, NewError(TypeNewTerminal, err))
				return
			}
			model = m
		}

		// Creation waits on the host, so it must not hold up later requests.
		s.creates.Add(1)
		go func() {
			defer s.creates.Done()
			if _, err := s.reg.CreateManaged(ctx, model); err != nil {
				s.log.Error().Err(err).Str("model", string(model)).Msg("create terminal failed")
				s.emit(ctx, NewError(TypeNewTerminal, err))
			}
		}()
	case CloseTerminal:
		if err := s.reg.Close(ctx, r.TerminalID); err != nil {
			s.emit(ctx, NewError(TypeCloseTerminal, err))
		}
	case FocusTerminal:
		if err := s.reg.Focus(ctx, r.TerminalID); err != nil {
			s.emit(ctx, NewError(TypeFocusTerminal, err))
		}
	case RenameTerminal:
		s.reg.Rename(r.TerminalID, r.Name)
	case RequestRefresh:
		s.emit(ctx, NewUpdateModels(s.DefaultModel()))
		s.emit(ctx, NewUpdateTerminals(s.reg.List()))
	default:
		s.emit(ctx, NewError(req.RequestType(), fmt.Errorf("unsupported request")))
	}
}

func (s *Service) emit(ctx context.Context, m Message) {
	select {
	case s.out <- m:
	case <-ctx.Done():
	}
}

// signal performs a non-blocking send so bursts of changes coalesce into one
// pending update.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// ReadRequests decodes newline-delimited JSON requests from r and queues
// them. Malformed lines produce an error message and are skipped. It returns
// nil at end of input or when ctx is cancelled.
func (s *Service) ReadRequests(ctx context.Context, r io.Reader) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := bytes.Clone(sc.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("read requests: %w", err)
			}
			return nil
		case line := <-lines:
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			req, err := DecodeRequest(line)
			if err != nil {
				s.log.Warn().Err(err).Msg("dropping malformed request")
				s.emit(ctx, NewError("", err))
				continue
			}
			if err := s.Send(ctx, req); err != nil {
				if errors.Is(err, ErrStopped) || ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// WriteMessages encodes every outbound message as one JSON line on w. It
// returns once ctx is cancelled or Run has returned, after writing the
// messages still buffered.
func (s *Service) WriteMessages(ctx context.Context, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return s.flush(w)
		case <-s.done:
			return s.flush(w)
		case m := <-s.out:
			if err := writeMessage(w, m); err != nil {
				return err
			}
		}
	}
}

func (s *Service) flush(w io.Writer) error {
	for {
		select {
		case m := <-s.out:
			if err := writeMessage(w, m); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func writeMessage(w io.Writer, m Message) error {
	data, err := EncodeMessage(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
