// Package pubsub carries domain events from the chat engine to in-process
// observers. Delivery is asynchronous and best effort; nothing on the
// websocket path depends on it.
package pubsub

import "context"

// Message is the unit carried on the bus.
type Message struct {
	// Topic names the kind of event, e.g. "chat.message.sent".
	Topic string
	// ConnectionID is the connection that caused the event, if any.
	ConnectionID string
	// Payload is the JSON encoding of the event.
	Payload []byte
	// Metadata holds optional extra key/value context.
	Metadata map[string]string
}

// Handler processes one message received from a subscription.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber receives messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages on topic to handler until ctx is
	// canceled. It returns as soon as the subscription is active.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Nop is a Publisher that drops every message.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Message) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
