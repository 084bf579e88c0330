package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/fragmede/sanctum/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

func TestTopic(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		event events.Event
		want  string
	}{{
		event: events.UserInitialized{},
		want:  "sanctum:userInitialized",
	}, {
		event: events.Authenticated{Value: true},
		want:  "sanctum:authenticated",
	}, {
		event: events.LoggedOut{},
		want:  "sanctum:loggedOut",
	}}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, events.Topic(tc.event))
		})
	}
}

func TestBus_Publish(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()

	var got []string
	bus.Subscribe(func(e events.Event) { got = append(got, "first:"+e.Name()) })
	unsubscribe := bus.Subscribe(func(e events.Event) { got = append(got, "second:"+e.Name()) })

	bus.Publish(events.UserInitialized{}, events.Authenticated{Value: true})
	assert.Equal(t, []string{
		"first:userInitialized",
		"second:userInitialized",
		"first:authenticated",
		"second:authenticated",
	}, got)

	got = nil
	unsubscribe()
	unsubscribe()

	bus.Publish(events.LoggedOut{})
	assert.Equal(t, []string{"first:loggedOut"}, got)

	got = nil
	bus.Publish()
	assert.Empty(t, got)
}

func TestBus_Channel(t *testing.T) {
	t.Parallel()

	bus := events.NewBus()

	ctx, cancel := context.WithCancel(testutil.ContextWithTimeout(t, testTimeout))
	ch := bus.Channel(ctx, 2)

	bus.Publish(events.Authenticated{Value: true}, events.LoggedOut{})

	e, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, events.Authenticated{Value: true}, e)

	e, ok = receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, events.LoggedOut{}, e)

	cancel()

	_, ok = receive(t, ch)
	assert.False(t, ok)

	// Publishing after the channel is closed must not panic.
	bus.Publish(events.LoggedOut{})
}

// receive returns the next value from ch, failing the test on timeout.
func receive(t *testing.T, ch <-chan events.Event) (e events.Event, ok bool) {
	t.Helper()

	select {
	case e, ok = <-ch:
		return e, ok
	case <-time.After(testTimeout):
		t.Fatalf("did not receive after %s", testTimeout)
	}

	return nil, false
}
