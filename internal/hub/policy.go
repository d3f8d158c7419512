package hub

import "github.com/relaydesk/collab/internal/core"

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickConn
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackpressure(cid core.ConnID) BackpressureAction
}

// DropPolicy sheds the frame and moves on. Delivery is best-effort, so
// this is the default.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(core.ConnID) BackpressureAction { return DropFrame }

// KickPolicy disconnects saturated consumers instead of letting them lag.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(core.ConnID) BackpressureAction { return KickConn }
