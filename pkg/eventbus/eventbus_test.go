package eventbus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type createdEvent struct {
	ID   int64
	Name string
}

func TestPublish_DispatchesToMatchingHandler(t *testing.T) {
	bus := NewEventPublisher(logrus.New())

	var got []createdEvent
	bus.Subscribe(func(ev createdEvent) {
		got = append(got, ev)
	})
	bus.Subscribe(func(s string) {
		t.Fatal("string handler must not fire for struct event")
	})

	bus.Publish(createdEvent{ID: 7, Name: "PM JOHN"})

	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].ID)
}

func TestPublish_RecoversFromPanickingHandler(t *testing.T) {
	bus := NewEventPublisher(logrus.New())

	fired := false
	bus.Subscribe(func(ev createdEvent) { panic("boom") })
	bus.Subscribe(func(ev createdEvent) { fired = true })

	require.NotPanics(t, func() {
		bus.Publish(createdEvent{ID: 1})
	})
	require.True(t, fired, "sibling handler should still run after a panic")
}

func TestSubscribeUnsubscribe(t *testing.T) {
	bus := NewEventPublisher(nil)

	handler := func(ev createdEvent) {}
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Equal(t, 0, bus.SubscribersCount())

	bus.Subscribe(handler)
	bus.Clear()
	require.Equal(t, 0, bus.SubscribersCount())
}
