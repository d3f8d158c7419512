package ws

import (
	"encoding/json"

	"github.com/relaydesk/collab/internal/core"
)

// handleCursorMove overwrites the sender's presence sample and fans the
// move out. No ordering beyond last-write-wins: stale frames are
// harmless, which keeps high-frequency moves cheap. Moves from a
// connection outside any session are dropped silently (leave races).
func (ctl *Controller) handleCursorMove(cid core.ConnID, env *Envelope) {
	var payload struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	cursor, sid, ok := ctl.hub.SetCursor(cid, payload.X, payload.Y)
	if !ok {
		return
	}
	ctl.broadcastSession(sid, evtCursorMoved, cursor, cid)
}
