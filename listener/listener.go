package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codado/codado/docker"
	"github.com/codado/codado/dockerish"
)

// ErrInvalidConfig is returned by New when the Builder cannot produce a listener
var ErrInvalidConfig = errors.New("invalid configuration")

// Builder holds the listener configuration
type Builder struct {
	DockerHost     string
	Interval       time.Duration
	LookupCacheTTL time.Duration
	Filters        []string
	DieLimit       int
	Format         string
}

// Listener owns a Docker engine and the dispatcher polling it. It prints every event and mourns the
// containers that die, stopping after DieLimit deaths.
type Listener struct {
	*Builder
	Engine     dockerish.Engine
	Dispatcher *dockerish.Dispatcher
	printer    *Printer

	lock   sync.Mutex
	deaths int
	cancel context.CancelFunc
}

// New instantiates a new listener connected to the Docker daemon
func (b *Builder) New(out io.Writer) (*Listener, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	filters, err := docker.ParseFilters(b.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	engine, err := docker.Connect(b.DockerHost, docker.Options{Filters: filters, LookupCacheTTL: b.LookupCacheTTL})
	if err != nil {
		return nil, err
	}
	return b.NewWithEngine(engine, out)
}

// NewWithEngine instantiates a new listener polling engine
func (b *Builder) NewWithEngine(engine dockerish.Engine, out io.Writer, opts ...dockerish.Option) (*Listener, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	printer, err := NewPrinter(out, b.Format)
	if err != nil {
		return nil, err
	}

	opts = append([]dockerish.Option{dockerish.WithInterval(b.Interval)}, opts...)
	l := &Listener{
		Builder:    b,
		Engine:     engine,
		Dispatcher: dockerish.New(engine, opts...),
		printer:    printer,
	}

	if err := l.Dispatcher.Handle("container.die", l.onDie); err != nil {
		return nil, err
	}
	if err := l.Dispatcher.HandleAll(l.onAny); err != nil {
		return nil, err
	}
	return l, nil
}

// Listen polls the engine until a stop signal is received, DieLimit containers died or the
// dispatcher fails
func (l *Listener) Listen(ctx context.Context) error {
	listeningCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.lock.Lock()
	l.cancel = cancel
	l.lock.Unlock()

	go l.gracefulStop(listeningCtx, cancel)
	logrus.Info("Start listening...")
	return l.Dispatcher.Run(listeningCtx)
}

// Deaths returns how many container.die events were mourned
func (l *Listener) Deaths() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.deaths
}

// onDie mourns a dead container
func (l *Listener) onDie(ctx context.Context, ev *dockerish.Event) error {
	container, err := ev.Container(ctx)
	if err != nil {
		logrus.Errorf("Unable to inspect the container '%v' that died: %v", ev.Actor.ID, err)
	}
	if container == nil {
		logrus.Infof("***** died: %v (already gone)", actorLabel(ev.Actor))
	} else {
		logrus.Infof("***** died: %v exit code %v", actorLabel(ev.Actor), ev.Actor.Attributes["exitCode"])
		logrus.Debugf("%+v", container)
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	l.deaths++
	if l.DieLimit > 0 && l.deaths >= l.DieLimit {
		logrus.Infof("%d containers died, stopping", l.deaths)
		if l.cancel != nil {
			l.cancel()
		}
	}
	return nil
}

// onAny prints every event but the deaths, which onDie deals with, and logs the resource the event is about
func (l *Listener) onAny(ctx context.Context, ev *dockerish.Event) error {
	if ev.Name() == "container.die" {
		return nil
	}
	if err := l.printer.Print(ev); err != nil {
		return err
	}

	res, err := ev.Resource(ctx)
	switch {
	case err != nil:
		logrus.Warnf("Unable to inspect the %v of %v: %v", ev.Type, ev.Name(), err)
	case res != nil:
		logrus.WithField("event", ev.Name()).Debugf("%+v", res)
	}
	return nil
}

// gracefulStop cancels gracefully the running goRoutines
func (l *Listener) gracefulStop(ctx context.Context, cancel context.CancelFunc) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stopCh)

	select {
	case <-stopCh: // waits for a stop signal
		logrus.Infof("Stopping routines...")
		cancel()
	case <-ctx.Done():
	}
}
