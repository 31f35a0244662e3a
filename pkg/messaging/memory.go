package messaging

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("broker closed")

// MemoryBroker is an in-process Broker. Publish blocks until every subscriber buffer accepts the message
// or ctx is done.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string][]chan Message
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]chan Message)}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := append([]chan Message(nil), b.subs[channel]...)
	b.mu.RUnlock()

	msg := Message{Channel: channel, Payload: append([]byte(nil), payload...)}
	for _, ch := range subs {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	in := make(chan Message, 16)
	for _, name := range channels {
		b.subs[name] = append(b.subs[name], in)
	}

	out := make(chan Message, 16)
	go func() {
		defer close(out)
		defer b.unsubscribe(in, channels)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-in:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *MemoryBroker) unsubscribe(in chan Message, channels []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range channels {
		subs := b.subs[name]
		for i, ch := range subs {
			if ch == in {
				b.subs[name] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
