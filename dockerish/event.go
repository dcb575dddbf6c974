package dockerish

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Actor describes the container, image, network, etc. that generated an event
type Actor struct {
	ID     string `json:"id" yaml:"id"`
	Image  string `json:"image,omitempty" yaml:"image,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Signal string `json:"signal,omitempty" yaml:"signal,omitempty"`

	// Attributes holds every attribute of the raw actor, including the ones promoted above
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Event is a normalized engine event
type Event struct {
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Time     int64  `json:"time" yaml:"time"`
	TimeNano int64  `json:"timeNano" yaml:"timeNano"`
	Actor    Actor  `json:"actor" yaml:"actor"`
	Action   string `json:"action" yaml:"action"`
	From     string `json:"from,omitempty" yaml:"from,omitempty"`
	Type     string `json:"type" yaml:"type"`
	Scope    string `json:"scope,omitempty" yaml:"scope,omitempty"`

	engine Engine
}

type rawActor struct {
	ID         string            `mapstructure:"ID"`
	Attributes map[string]string `mapstructure:"Attributes"`
}

type rawEvent struct {
	Status   string      `mapstructure:"status"`
	ID       string      `mapstructure:"id"`
	From     string      `mapstructure:"from"`
	Type     string      `mapstructure:"Type"`
	Action   string      `mapstructure:"Action"`
	Scope    string      `mapstructure:"scope"`
	Time     int64       `mapstructure:"time"`
	TimeNano int64       `mapstructure:"timeNano"`
	Actor    interface{} `mapstructure:"Actor"`
}

var recognizedFields = map[string]bool{
	"Actor": true, "Action": true, "Type": true, "from": true, "id": true,
	"status": true, "scope": true, "time": true, "timeNano": true,
}

var mandatoryFields = []string{"Type", "Action", "time", "timeNano"}

// NormalizeActor builds an Actor from the raw actor of an event. An Actor passes through unchanged.
func NormalizeActor(raw interface{}) (Actor, error) {
	switch a := raw.(type) {
	case Actor:
		return a, nil
	case *Actor:
		if a == nil {
			return Actor{}, nil
		}
		return *a, nil
	case nil:
		return Actor{}, nil
	}

	var ra rawActor
	if err := decode(raw, &ra); err != nil {
		return Actor{}, fmt.Errorf("%w: actor: %v", ErrMalformedEvent, err)
	}
	return Actor{
		ID:         ra.ID,
		Image:      ra.Attributes["image"],
		Name:       ra.Attributes["name"],
		Signal:     ra.Attributes["signal"],
		Attributes: ra.Attributes,
	}, nil
}

// NormalizeEvent builds an Event bound to engine from a raw event record.
// Type, Action, time and timeNano are mandatory; fields the normalizer does not know are rejected.
func NormalizeEvent(engine Engine, raw RawEvent) (*Event, error) {
	var unexpected []string
	for k := range raw {
		if !recognizedFields[k] {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedField, strings.Join(unexpected, ", "))
	}

	for _, k := range mandatoryFields {
		if v, ok := raw[k]; !ok || v == nil {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedEvent, k)
		}
	}

	var re rawEvent
	if err := decode(map[string]interface{}(raw), &re); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if re.Type == "" || re.Action == "" {
		return nil, fmt.Errorf("%w: empty Type or Action", ErrMalformedEvent)
	}

	actor, err := NormalizeActor(re.Actor)
	if err != nil {
		return nil, err
	}

	return &Event{
		Status:   re.Status,
		ID:       re.ID,
		Time:     re.Time,
		TimeNano: re.TimeNano,
		Actor:    actor,
		Action:   re.Action,
		From:     re.From,
		Type:     re.Type,
		Scope:    re.Scope,
		engine:   engine,
	}, nil
}

// InitEvent returns the synthetic dockerish.init event
func InitEvent(engine Engine, t time.Time) *Event {
	return &Event{
		Time:     t.Unix(),
		TimeNano: t.UnixNano(),
		Action:   "init",
		Type:     TypeDockerish,
		engine:   engine,
	}
}

func decode(input interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Name is the dotted event name handlers are registered under, e.g. "container.die"
func (e *Event) Name() string {
	return e.Type + "." + e.Action
}

// Timestamp returns the event time with the best precision available
func (e *Event) Timestamp() time.Time {
	if e.TimeNano != 0 {
		return time.Unix(0, e.TimeNano)
	}
	return time.Unix(e.Time, 0)
}

// Container resolves the container the event refers to. Container events use their actor; network
// events use the container attribute of the actor. A container that is already gone resolves to nil.
func (e *Event) Container(ctx context.Context) (Resource, error) {
	ref := e.Actor.Attributes["container"]
	if e.Type == TypeContainer {
		ref = e.Actor.ID
	}
	return e.resolve(ctx, KindContainer, ref)
}

// Image resolves the image of an image event, or the image a container event was created from
func (e *Event) Image(ctx context.Context) (Resource, error) {
	ref := e.Actor.Image
	switch {
	case e.Type == TypeImage:
		ref = e.Actor.ID
	case ref == "":
		ref = e.From
	}
	return e.resolve(ctx, KindImage, ref)
}

// Network resolves the network of a network event
func (e *Event) Network(ctx context.Context) (Resource, error) {
	return e.resolveOwn(ctx, KindNetwork)
}

// Volume resolves the volume of a volume event
func (e *Event) Volume(ctx context.Context) (Resource, error) {
	return e.resolveOwn(ctx, KindVolume)
}

// Plugin resolves the plugin of a plugin event
func (e *Event) Plugin(ctx context.Context) (Resource, error) {
	return e.resolveOwn(ctx, KindPlugin)
}

// Daemon resolves the daemon of a daemon event
func (e *Event) Daemon(ctx context.Context) (Resource, error) {
	return e.resolveOwn(ctx, KindDaemon)
}

// Resource resolves the resource of the event's own category, if it has one
func (e *Event) Resource(ctx context.Context) (Resource, error) {
	switch e.Type {
	case TypeContainer:
		return e.Container(ctx)
	case TypeImage:
		return e.Image(ctx)
	case TypeNetwork, TypeVolume, TypePlugin, TypeDaemon:
		return e.resolveOwn(ctx, Kind(e.Type))
	}
	return nil, nil
}

func (e *Event) resolveOwn(ctx context.Context, kind Kind) (Resource, error) {
	if e.Type != string(kind) {
		return nil, nil
	}
	return e.resolve(ctx, kind, e.Actor.ID)
}

func (e *Event) resolve(ctx context.Context, kind Kind, ref string) (Resource, error) {
	if ref == "" || e.engine == nil {
		return nil, nil
	}
	res, err := e.engine.Lookup(ctx, kind, ref)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
