package messaging

import (
	"context"
)

// Message is a payload received from a channel.
type Message struct {
	Channel string
	Payload []byte
}

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers messages until ctx is cancelled, then closes the returned channel.
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Close() error
}

// ChannelPrefix namespaces every domain event channel.
const ChannelPrefix = "docbook."

// Channel returns the broker channel for an event type.
func Channel(eventType string) string {
	return ChannelPrefix + eventType
}
