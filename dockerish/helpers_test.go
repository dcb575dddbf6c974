package dockerish

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeEngine serves scripted windows and in-memory registries
type fakeEngine struct {
	mu       sync.Mutex
	batches  [][]RawEvent
	failures []error
	windows  [][2]time.Time
	registry map[Kind]map[string]Resource
	lookups  int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		registry: map[Kind]map[string]Resource{
			KindImage:     {"sha256:12345": "animage"},
			KindContainer: {"12347": "acontainer"},
			KindNetwork:   {"12349": "anetwork"},
			KindVolume:    {"12351": "avolume"},
			KindPlugin:    {"12353": "aplugin"},
			KindDaemon:    {"DAEMON:1": "adaemon"},
		},
	}
}

func (e *fakeEngine) Events(ctx context.Context, since, until time.Time) ([]RawEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.windows = append(e.windows, [2]time.Time{since, until})
	if len(e.failures) > 0 {
		err := e.failures[0]
		e.failures = e.failures[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(e.batches) == 0 {
		return nil, nil
	}
	batch := e.batches[0]
	e.batches = e.batches[1:]
	return batch, nil
}

func (e *fakeEngine) Lookup(ctx context.Context, kind Kind, ref string) (Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lookups++
	if res, ok := e.registry[kind][ref]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("%s %s: %w", kind, ref, ErrNotFound)
}

// fakeClock hands every timer to the test, which decides when it fires
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers chan chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, timers: make(chan chan time.Time, 16)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.timers <- ch
	return ch
}

// next waits until the dispatcher asks for a timer
func (c *fakeClock) next(t *testing.T) chan time.Time {
	t.Helper()
	select {
	case ch := <-c.timers:
		return ch
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never asked for a timer")
		return nil
	}
}

// step moves the clock forward by d and fires the pending timer
func (c *fakeClock) step(t *testing.T, d time.Duration) {
	t.Helper()
	timer := c.next(t)
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	timer <- now
}

func containerEventLowLevel(action string) RawEvent {
	return RawEvent{
		"status": action,
		"id":     "12347",
		"from":   "abc123",
		"Type":   "container",
		"Action": action,
		"Actor": map[string]interface{}{
			"ID": "12347",
			"Attributes": map[string]interface{}{
				"image": "twist",
				"name":  "peaceful_booth",
			},
		},
		"time":     int64(1497218188),
		"timeNano": int64(1497218188361178103),
	}
}

func imageEventLowLevel() RawEvent {
	return RawEvent{
		"status": "delete",
		"id":     "sha256:12345",
		"Type":   "image",
		"Action": "delete",
		"Actor": map[string]interface{}{
			"ID":         "sha256:12345",
			"Attributes": map[string]interface{}{"name": "sha256:12345"},
		},
		"time":     int64(1497218060),
		"timeNano": int64(1497218060835756369),
	}
}

func networkEventLowLevel(action string) RawEvent {
	return RawEvent{
		"Type":   "network",
		"Action": action,
		"Actor": map[string]interface{}{
			"ID": "12349",
			"Attributes": map[string]interface{}{
				"container": "12347",
				"name":      "bridge",
				"type":      "bridge",
			},
		},
		"time":     int64(1497218188),
		"timeNano": int64(1497218188440356384),
	}
}
