package events

import "context"

// Publisher sends envelopes to a topic partitioned by key. Implementations
// must be safe for concurrent use; the delivery guarantee is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, partitionKey string, envelope Envelope) error
}

// Handler reacts to a delivered envelope. Returning an error requeues the
// message, so handlers must tolerate re-delivery of the same event id.
type Handler interface {
	Handle(ctx context.Context, envelope Envelope) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, envelope Envelope) error {
	return f(ctx, envelope)
}

// Subscriber registers a handler for every envelope delivered on a topic.
type Subscriber interface {
	Subscribe(topic Topic, handler Handler) error
}
