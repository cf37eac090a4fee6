package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenCmd_ReturnsEventAsMsg(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	broker.Publish(CreatedEvent, "cat.mp4 registered")

	msg := ListenCmd(ctx, ch)()

	event, ok := msg.(Event[string])
	require.True(t, ok, "msg should be Event[string]")
	require.Equal(t, "cat.mp4 registered", event.Payload)
}

func TestListenCmd_CancelledContextReturnsNil(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	cancel()

	require.Nil(t, ListenCmd(ctx, ch)())
}

func TestListenCmd_ClosedChannelReturnsNil(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(context.Background())
	broker.Close()

	require.Nil(t, ListenCmd(context.Background(), ch)())
}

func TestContinuousListener_ListenRepeatedly(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewContinuousListener(ctx, broker)

	broker.Publish(CreatedEvent, 1)
	first, ok := listener.Listen()().(Event[int])
	require.True(t, ok)
	require.Equal(t, 1, first.Payload)

	broker.Publish(UpdatedEvent, 2)
	second, ok := listener.Listen()().(Event[int])
	require.True(t, ok)
	require.Equal(t, 2, second.Payload)
	require.Equal(t, UpdatedEvent, second.Type)
}
