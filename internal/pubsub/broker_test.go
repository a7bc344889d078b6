package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return event
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return Event[T]{}
}

func TestBroker_DeliversToSubscriber(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(SuccessEvent, `["hospitals"]`)

	event := receive(t, ch)
	require.Equal(t, SuccessEvent, event.Type)
	require.Equal(t, `["hospitals"]`, event.Payload)
	require.False(t, event.Timestamp.IsZero())
}

func TestBroker_FansOut(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ch1 := broker.Subscribe(context.Background())
	ch2 := broker.Subscribe(context.Background())
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(LoadingEvent, 7)

	require.Equal(t, 7, receive(t, ch1).Payload)
	require.Equal(t, 7, receive(t, ch2).Payload)
}

func TestBroker_ContextCancelUnsubscribes(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return broker.SubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok)
}

func TestBroker_FullBufferDropsEvents(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())
	broker.Publish(LoadingEvent, 1)
	broker.Publish(SuccessEvent, 2)

	require.Equal(t, 1, receive(t, ch).Payload)
	select {
	case event := <-ch:
		require.Failf(t, "unexpected event", "%v", event)
	default:
	}
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	broker := NewBroker[string]()
	broker.Close()
	broker.Close()

	_, ok := <-broker.Subscribe(context.Background())
	require.False(t, ok)

	require.NotPanics(t, func() { broker.Publish(ErrorEvent, "late") })
}
