// Package mqtt defines the wire protocol used to reach remote charging pools
// over a message broker: topic layout, message envelopes and the transport
// abstraction implemented by the broker client.
package mqtt

import "context"

// Handler receives the payload of a message delivered on topic.
type Handler func(topic string, payload []byte)

// Transport publishes and subscribes to broker topics.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, h Handler) error
	Unsubscribe(topic string) error
}
