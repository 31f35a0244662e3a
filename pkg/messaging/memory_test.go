package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerDeliversToSubscribedChannels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker()
	msgs, err := b.Subscribe(ctx, Channel("appointment.created"))
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, Channel("review.submitted"), []byte("ignored")))
	require.NoError(t, b.Publish(ctx, Channel("appointment.created"), []byte(`{"id":1}`)))

	select {
	case msg := <-msgs:
		assert.Equal(t, "docbook.appointment.created", msg.Channel)
		assert.JSONEq(t, `{"id":1}`, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryBrokerClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewMemoryBroker()

	msgs, err := b.Subscribe(ctx, "x")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestMemoryBrokerRejectsAfterClose(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "x", nil), ErrClosed)
	_, err := b.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}
