// Package core holds the transport-agnostic contracts between the hub
// and its adapters.
package core

// Frame is a single encoded wire message.
type Frame []byte

// ConnID identifies one transport link for its lifetime.
type ConnID string

// Peer abstracts the outbound half of a connection.
// Owned by the adapter; the adapter must Close() it.
type Peer interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}
