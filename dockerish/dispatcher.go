package dockerish

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is the delay between two polls of the engine
	DefaultInterval = 500 * time.Millisecond

	// DefaultRetries is how many times a failed window query is retried before Run gives up
	DefaultRetries = 3

	// DefaultBackoff is the base duration of the wait between two query attempts
	DefaultBackoff = time.Second
)

// HandlerFunc reacts to a dispatched event. A returned error stops the dispatcher.
type HandlerFunc func(ctx context.Context, ev *Event) error

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithInterval sets the polling interval
func WithInterval(interval time.Duration) Option {
	return func(d *Dispatcher) { d.interval = interval }
}

// WithClock replaces the wall clock
func WithClock(clock Clock) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

// WithLogger sets the log entry the dispatcher writes to
func WithLogger(log *logrus.Entry) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithRetries sets how many times a failed window query is retried, waiting exponentially longer from base
func WithRetries(retries uint, base time.Duration) Option {
	return func(d *Dispatcher) {
		d.retries = retries
		d.backoff = base
	}
}

// WithWindowObserver registers a callback invoked with every successfully queried window
func WithWindowObserver(observe func(since, until time.Time)) Option {
	return func(d *Dispatcher) { d.observe = observe }
}

// Dispatcher polls an Engine for events and hands them to the registered handlers
type Dispatcher struct {
	engine   Engine
	clock    Clock
	interval time.Duration
	retries  uint
	backoff  time.Duration
	log      *logrus.Entry
	observe  func(since, until time.Time)

	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	running  bool
}

// New returns an idle dispatcher polling engine
func New(engine Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		clock:    RealClock{},
		interval: DefaultInterval,
		retries:  DefaultRetries,
		backoff:  DefaultBackoff,
		log:      logrus.WithField("component", "dockerish"),
		handlers: make(map[string][]HandlerFunc),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle appends h to the handlers of the named event. The name must be part of the vocabulary or the Wildcard.
func (d *Dispatcher) Handle(name string, h HandlerFunc) error {
	if !Known(name) {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if h == nil {
		return fmt.Errorf("%w: %v", ErrNilHandler, name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
	d.log.Debugf("registered handler #%d for %v", len(d.handlers[name]), name)
	return nil
}

// HandleAll appends h to the handlers receiving every event
func (d *Dispatcher) HandleAll(h HandlerFunc) error {
	return d.Handle(Wildcard, h)
}

// Handlers returns how many handlers are registered under name
func (d *Dispatcher) Handlers(name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[name])
}

// Run dispatches the dockerish.init event and then polls the engine every interval, each poll
// covering the window [since, until) where since is the until of the previous poll.
// It blocks until ctx is cancelled, in which case it returns nil, or until a query exhausts its
// retries, a raw event cannot be normalized or a handler fails.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	since := d.clock.Now()
	d.log.Infof("Start polling every %v", d.interval)

	if err := d.dispatch(ctx, InitEvent(d.engine, since)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Stopping dispatcher")
			return nil
		case <-d.clock.After(d.interval):
		}

		until, err := d.tick(ctx, since)
		if err != nil {
			if stopped(ctx, err) {
				d.log.Info("Stopping dispatcher")
				return nil
			}
			return err
		}
		since = until
	}
}

// tick queries and dispatches one window, returning the since of the next one
func (d *Dispatcher) tick(ctx context.Context, since time.Time) (time.Time, error) {
	until := d.clock.Now()
	if !until.After(since) {
		// clock did not move; the next tick covers the same start
		return since, nil
	}

	raws, err := d.query(ctx, since, until)
	if err != nil {
		return since, err
	}
	if d.observe != nil {
		d.observe(since, until)
	}

	if len(raws) > 0 {
		d.log.Debugf("%d events between %v and %v", len(raws), since, until)
	}
	for _, raw := range raws {
		ev, err := NormalizeEvent(d.engine, raw)
		if err != nil {
			return since, err
		}
		if err := d.dispatch(ctx, ev); err != nil {
			return since, err
		}
	}
	return until, nil
}

// query fetches a window from the engine, retrying with an exponential backoff
func (d *Dispatcher) query(ctx context.Context, since, until time.Time) ([]RawEvent, error) {
	var err error
	for attempt := uint(0); attempt <= d.retries; attempt++ {
		if attempt > 0 {
			wait := backoffDuration(attempt, d.backoff)
			d.log.Warnf("Querying events failed (%v); retrying in %v", err, wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-d.clock.After(wait):
			}
		}

		var raws []RawEvent
		raws, err = d.engine.Events(ctx, since, until)
		if err == nil {
			return raws, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: after %d attempts: %w", ErrQuery, d.retries+1, err)
}

// dispatch invokes the wildcard handlers and then the handlers registered for the event's name
func (d *Dispatcher) dispatch(ctx context.Context, ev *Event) error {
	name := ev.Name()

	d.mu.RLock()
	handlers := make([]HandlerFunc, 0, len(d.handlers[Wildcard])+len(d.handlers[name]))
	handlers = append(handlers, d.handlers[Wildcard]...)
	handlers = append(handlers, d.handlers[name]...)
	d.mu.RUnlock()

	d.log.WithField("event", name).Debugf("dispatching to %d handlers", len(handlers))
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrHandler, name, err)
		}
	}
	return nil
}

// stopped tells whether err only reports the cancellation of ctx. Handler failures are never hidden.
func stopped(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err()) && !errors.Is(err, ErrHandler)
}

// backoffDuration grows exponentially with the attempt number
func backoffDuration(attempt uint, base time.Duration) time.Duration {
	return time.Duration(math.Exp2(float64(attempt-1))+1) * base
}
