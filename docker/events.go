package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	dockerTypes "github.com/docker/docker/api/types"
	dockerEvents "github.com/docker/docker/api/types/events"
	"github.com/sirupsen/logrus"

	"github.com/codado/codado/dockerish"
)

// Events returns the events the daemon recorded in [since, until), oldest first. The daemon treats
// both ends of the window as inclusive, so messages stamped at until are left for the next window.
func (e *Engine) Events(ctx context.Context, since, until time.Time) ([]dockerish.RawEvent, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, errs := e.api.Events(ctx, buildEventsOptions(since, until, e.filters))

	var raws []dockerish.RawEvent
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case message := <-messages:
			if !inWindow(message, since, until) {
				logrus.Debugf("dropping %s.%s event outside [%v, %v)", message.Type, message.Action, since, until)
				continue
			}
			raws = append(raws, toRawEvent(message))
		case err := <-errs:
			// the stream ends with io.EOF once the daemon reaches until
			if err == nil || err == io.EOF {
				return raws, nil
			}
			return nil, err
		}
	}
}

func buildEventsOptions(since, until time.Time, filters map[string][]string) dockerTypes.EventsOptions {
	options := dockerTypes.EventsOptions{
		Since:   timestamp(since),
		Until:   timestamp(until),
		Filters: toFilterArgs(filters),
	}
	return options
}

// timestamp formats t the way the daemon parses since and until: seconds.nanoseconds
func timestamp(t time.Time) string {
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}

func messageTime(message dockerEvents.Message) int64 {
	if message.TimeNano != 0 {
		return message.TimeNano
	}
	return message.Time * int64(time.Second)
}

func inWindow(message dockerEvents.Message, since, until time.Time) bool {
	t := messageTime(message)
	return t >= since.UnixNano() && t < until.UnixNano()
}

// toRawEvent converts a decoded daemon message back into the loosely typed record the normalizer consumes
func toRawEvent(message dockerEvents.Message) dockerish.RawEvent {
	attributes := make(map[string]interface{}, len(message.Actor.Attributes))
	for k, v := range message.Actor.Attributes {
		attributes[k] = v
	}

	raw := dockerish.RawEvent{
		"Type":   message.Type,
		"Action": message.Action,
		"Actor": map[string]interface{}{
			"ID":         message.Actor.ID,
			"Attributes": attributes,
		},
		"time":     message.Time,
		"timeNano": message.TimeNano,
	}
	if message.Status != "" {
		raw["status"] = message.Status
	}
	if message.ID != "" {
		raw["id"] = message.ID
	}
	if message.From != "" {
		raw["from"] = message.From
	}
	return raw
}
