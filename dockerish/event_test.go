package dockerish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalizeActor(t *testing.T) {
	a, err := NormalizeActor(map[string]interface{}{
		"ID":         "sha256:12345",
		"Attributes": map[string]interface{}{"name": "sha256:12345"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sha256:12345", a.ID)
	assert.Equal(t, "sha256:12345", a.Name)
	assert.Empty(t, a.Image)
	assert.Empty(t, a.Signal)
}

func TestNormalizeActorPassThrough(t *testing.T) {
	a1, err := NormalizeActor(map[string]interface{}{
		"ID":         "12347",
		"Attributes": map[string]interface{}{"image": "twist", "name": "peaceful_booth", "signal": "9"},
	})
	require.NoError(t, err)

	a2, err := NormalizeActor(a1)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	a3, err := NormalizeActor(&a1)
	require.NoError(t, err)
	assert.Equal(t, a1, a3)
	assert.Equal(t, "9", a3.Signal)
}

func TestNormalizeActorInvalid(t *testing.T) {
	_, err := NormalizeActor("not an actor")
	assert.True(t, errors.Is(err, ErrMalformedEvent))
}

func TestNormalizeActorIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attrs := rapid.MapOf(
			rapid.SampledFrom([]string{"name", "image", "signal", "container", "type", "exitCode"}),
			rapid.StringMatching(`[a-z0-9_:]{0,12}`),
		).Draw(t, "attributes")
		attrs["name"] = rapid.StringMatching(`[a-z_]{1,12}`).Draw(t, "name")

		raw := map[string]interface{}{"ID": rapid.StringMatching(`[0-9a-f]{1,12}`).Draw(t, "id"), "Attributes": attrs}
		once, err := NormalizeActor(raw)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		twice, err := NormalizeActor(once)
		if err != nil {
			t.Fatalf("normalize twice: %v", err)
		}
		assert.Equal(t, once, twice)
		assert.Equal(t, attrs["name"], once.Name)
	})
}

func TestEventName(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		eventType := rapid.SampledFrom([]string{"container", "image", "plugin", "volume", "network", "daemon", "service"}).Draw(t, "type")
		action := rapid.StringMatching(`[a-z_]{1,16}`).Draw(t, "action")

		ev, err := NormalizeEvent(nil, RawEvent{
			"Type":     eventType,
			"Action":   action,
			"Actor":    map[string]interface{}{"ID": "x", "Attributes": map[string]interface{}{}},
			"time":     int64(1),
			"timeNano": int64(1000000000),
		})
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		assert.Equal(t, eventType+"."+action, ev.Name())
	})
}

func TestNormalizeEvent(t *testing.T) {
	raw := containerEventLowLevel("create")
	ev, err := NormalizeEvent(nil, raw)
	require.NoError(t, err)

	assert.Equal(t, "container.create", ev.Name())
	assert.Equal(t, "create", ev.Status)
	assert.Equal(t, "12347", ev.ID)
	assert.Equal(t, "abc123", ev.From)
	assert.Equal(t, int64(1497218188), ev.Time)
	assert.Equal(t, int64(1497218188361178103), ev.TimeNano)
	assert.Equal(t, Actor{
		ID:         "12347",
		Image:      "twist",
		Name:       "peaceful_booth",
		Attributes: map[string]string{"image": "twist", "name": "peaceful_booth"},
	}, ev.Actor)
	assert.Equal(t, time.Unix(0, 1497218188361178103), ev.Timestamp())

	// the caller's record is left untouched
	assert.Len(t, raw, 8)
}

func TestNormalizeEventWeakNumbers(t *testing.T) {
	raw := imageEventLowLevel()
	raw["time"] = float64(1497218060)
	raw["timeNano"] = "1497218060835756369"

	ev, err := NormalizeEvent(nil, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1497218060), ev.Time)
	assert.Equal(t, int64(1497218060835756369), ev.TimeNano)
}

func TestNormalizeEventErrors(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(RawEvent)
		want   error
	}{
		{
			desc:   "missing Type",
			mutate: func(r RawEvent) { delete(r, "Type") },
			want:   ErrMalformedEvent,
		},
		{
			desc:   "missing Action",
			mutate: func(r RawEvent) { delete(r, "Action") },
			want:   ErrMalformedEvent,
		},
		{
			desc:   "empty Action",
			mutate: func(r RawEvent) { r["Action"] = "" },
			want:   ErrMalformedEvent,
		},
		{
			desc:   "missing time",
			mutate: func(r RawEvent) { delete(r, "time") },
			want:   ErrMalformedEvent,
		},
		{
			desc:   "missing timeNano",
			mutate: func(r RawEvent) { delete(r, "timeNano") },
			want:   ErrMalformedEvent,
		},
		{
			desc:   "unparseable time",
			mutate: func(r RawEvent) { r["time"] = "yesterday" },
			want:   ErrMalformedEvent,
		},
		{
			desc:   "unexpected field",
			mutate: func(r RawEvent) { r["Frobnicated"] = true },
			want:   ErrUnexpectedField,
		},
	}

	for _, test := range testCases {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			raw := containerEventLowLevel("die")
			test.mutate(raw)
			ev, err := NormalizeEvent(nil, raw)
			assert.Nil(t, ev)
			assert.True(t, errors.Is(err, test.want), "got %v", err)
		})
	}
}

func TestEventWithoutActor(t *testing.T) {
	raw := networkEventLowLevel("destroy")
	delete(raw, "Actor")

	ev, err := NormalizeEvent(nil, raw)
	require.NoError(t, err)
	assert.Equal(t, Actor{}, ev.Actor)
}

func TestEventProperties(t *testing.T) {
	testCases := []struct {
		desc     string
		raw      RawEvent
		accessor func(*Event, context.Context) (Resource, error)
		expected Resource
	}{
		{"container", containerEventLowLevel("create"), (*Event).Container, "acontainer"},
		{"network", networkEventLowLevel("connect"), (*Event).Network, "anetwork"},
		{"container of a network event", networkEventLowLevel("connect"), (*Event).Container, "acontainer"},
		{"image", imageEventLowLevel(), (*Event).Image, "animage"},
		{"own resource", imageEventLowLevel(), (*Event).Resource, "animage"},
		{"volume of a container event", containerEventLowLevel("create"), (*Event).Volume, nil},
		{"image of a container event is gone", containerEventLowLevel("create"), (*Event).Image, nil},
	}

	for _, test := range testCases {
		t.Run(test.desc, func(t *testing.T) {
			eng := newFakeEngine()
			ev, err := NormalizeEvent(eng, test.raw)
			require.NoError(t, err)

			res, err := test.accessor(ev, context.Background())
			require.NoError(t, err)
			assert.Equal(t, test.expected, res)
		})
	}
}

func TestEventResolvesAtAccessTime(t *testing.T) {
	eng := newFakeEngine()
	delete(eng.registry[KindContainer], "12347")

	ev, err := NormalizeEvent(eng, containerEventLowLevel("create"))
	require.NoError(t, err)
	assert.Zero(t, eng.lookups)

	eng.registry[KindContainer]["12347"] = "acontainer"
	res, err := ev.Container(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acontainer", res)
	assert.Equal(t, 1, eng.lookups)
}

func TestDestroyedContainerResolvesToNil(t *testing.T) {
	eng := newFakeEngine()
	delete(eng.registry[KindContainer], "12347")

	ev, err := NormalizeEvent(eng, containerEventLowLevel("destroy"))
	require.NoError(t, err)

	res, err := ev.Container(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
}

type brokenEngine struct{ fakeEngine }

func (*brokenEngine) Lookup(ctx context.Context, kind Kind, ref string) (Resource, error) {
	return nil, errors.New("connection refused")
}

func TestLookupFailureIsReturned(t *testing.T) {
	ev, err := NormalizeEvent(&brokenEngine{}, containerEventLowLevel("die"))
	require.NoError(t, err)

	res, err := ev.Container(context.Background())
	assert.Nil(t, res)
	assert.EqualError(t, err, "connection refused")
}

func TestInitEvent(t *testing.T) {
	now := time.Unix(1497218000, 5)
	ev := InitEvent(nil, now)

	assert.Equal(t, InitEventName, ev.Name())
	assert.Equal(t, Actor{}, ev.Actor)
	assert.Empty(t, ev.ID)
	assert.Equal(t, now.UnixNano(), ev.TimeNano)

	res, err := ev.Resource(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, res)
}
