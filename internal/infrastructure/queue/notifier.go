package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petland/petcare-console/internal/core/domain"
)

const channelBuffer = 64

var ErrNotifierStopped = errors.New("notifier stopped")

// Sink consumes session events.
type Sink interface {
	Handle(ctx context.Context, ev domain.SessionEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev domain.SessionEvent) error

func (f SinkFunc) Handle(ctx context.Context, ev domain.SessionEvent) error { return f(ctx, ev) }

// Notifier fans session events out to sinks. Each sink has its own worker
// and buffer, so events reach every sink in emission order and a slow sink
// delays only itself. Enqueue never blocks: when a sink's buffer is full the
// event is dropped for that sink and logged.
type Notifier struct {
	workers []chan domain.SessionEvent
	sinks   []Sink
	log     zerolog.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewNotifier creates a Notifier with one worker per sink.
func NewNotifier(log zerolog.Logger, sinks ...Sink) *Notifier {
	n := &Notifier{
		workers: make([]chan domain.SessionEvent, len(sinks)),
		sinks:   sinks,
		log:     log,
	}
	for i := range n.workers {
		n.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return n
}

// Start launches the workers. Sinks receive ctx stripped of its
// cancellation: workers run until Stop has drained their buffers, so events
// emitted during shutdown are still delivered.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.stopped {
		return
	}
	n.started = true
	ctx = context.WithoutCancel(ctx)
	for i, ch := range n.workers {
		n.wg.Add(1)
		go n.runWorker(ctx, i, ch)
	}
}

// Enqueue hands ev to every sink. It is safe to use as a session
// subscriber.
func (n *Notifier) Enqueue(ev domain.SessionEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stopped {
		return
	}
	for i, ch := range n.workers {
		select {
		case ch <- ev:
		default:
			n.log.Warn().
				Str("event", string(ev.Type)).
				Int("sink", i).
				Msg("session event dropped, sink is falling behind")
		}
	}
}

// Stop closes the queues and waits until pending events are delivered or
// ctx expires.
func (n *Notifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return ErrNotifierStopped
	}
	n.stopped = true
	for _, ch := range n.workers {
		close(ch)
	}
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	defer n.wg.Done()
	for ev := range ch {
		if err := n.sinks[id].Handle(ctx, ev); err != nil {
			n.log.Error().Err(err).
				Str("event", string(ev.Type)).
				Int("sink", id).
				Msg("session event delivery failed")
		}
	}
}

// LogSink writes an audit line per session event.
func LogSink(log zerolog.Logger) Sink {
	return SinkFunc(func(_ context.Context, ev domain.SessionEvent) error {
		e := log.Info().
			Str("event", string(ev.Type)).
			Str("state", ev.State.String())
		if ev.Principal != nil {
			e = e.Str("user_id", ev.Principal.ID).Str("role", string(ev.Principal.Role))
		}
		e.Msg("session event")
		return nil
	})
}
