package dockerish

import (
	"context"
	"time"
)

// Kind names the engine registry a lazy event accessor resolves against
type Kind string

const (
	KindContainer Kind = TypeContainer
	KindImage     Kind = TypeImage
	KindPlugin    Kind = TypePlugin
	KindVolume    Kind = TypeVolume
	KindNetwork   Kind = TypeNetwork
	KindDaemon    Kind = TypeDaemon
)

// RawEvent is an event record as decoded from the engine, before normalization
type RawEvent map[string]interface{}

// Resource is whatever the engine returns when inspecting a container, image, network, etc.
type Resource interface{}

// Engine is the container engine the dispatcher polls and events resolve their actors against
type Engine interface {
	// Events returns the raw events with a timestamp in [since, until), in chronological order.
	Events(ctx context.Context, since, until time.Time) ([]RawEvent, error)

	// Lookup inspects the live resource of the given kind. It returns an error wrapping
	// ErrNotFound when the resource is gone.
	Lookup(ctx context.Context, kind Kind, ref string) (Resource, error)
}
