// Package messaging provides a broker-agnostic publisher for security
// events. The service only emits events; consumption belongs to downstream
// systems.
package messaging

import (
	"context"
	"io"
)

// Publisher publishes messages to a destination topic.
//
// Implementations can wrap Kafka or any other messaging system.
type Publisher interface {
	io.Closer

	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) error
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning, so events for one user stay
	// ordered.
	Key []byte

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	// Key is the header name.
	Key string
	// Value is the header value.
	Value []byte
}

// Nop is a Publisher that discards every message. Used when eventing is
// disabled in configuration.
type Nop struct{}

// Publish discards the message.
func (Nop) Publish(context.Context, string, OutgoingMessage) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }
