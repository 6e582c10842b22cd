// Package transport is the delivery seam between the batching pipeline and
// the network.
package transport

import "context"

// Message is one encoded batch.
type Message struct {
	ProjectKey string
	SessionID  string
	Body       []byte
	Events     int
}

// Sender delivers a message once. It does not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Configurable senders accept endpoint and key changes at runtime.
type Configurable interface {
	Configure(endpoint, apiKey string)
}
