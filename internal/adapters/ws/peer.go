package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relaydesk/collab/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const sendBuffer = 64

// wsPeer pairs a gorilla conn with its buffered outbound queue.
type wsPeer struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn, send: make(chan core.Frame, sendBuffer)}
}

func (p *wsPeer) TrySend(f core.Frame) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("connection closed")
	}
	select {
	case p.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (p *wsPeer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.send)
	_ = p.conn.Close()
	p.mu.Unlock()
}
