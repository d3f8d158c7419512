// Package pubsub is the cross-process fan-out port. A room's members may be
// split across server instances; the adapter relays frames between them.
package pubsub

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("pubsub adapter unavailable")

// Handler receives one relayed message. Called from the adapter's own
// goroutine; implementations must not block.
type Handler func(channel string, payload []byte)

// Adapter is a best-effort broker: no acks, no replay.
type Adapter interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe registers h for every channel matching pattern and returns
	// once the subscription is active.
	Subscribe(ctx context.Context, pattern string, h Handler) error
	Close() error
}
