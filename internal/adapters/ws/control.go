package ws

import (
	"encoding/json"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

// Control request/grant is a pure relay: the server does not arbitrate
// who holds control, it only attaches verified sender identity.

func (ctl *Controller) handleRequestControl(cid core.ConnID, p *wsPeer) {
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok || info.Session == "" {
		return
	}
	ctl.broadcastSession(info.Session, evtControlRequested, map[string]any{
		"userId":   info.User.ID,
		"userName": info.User.Name,
	}, cid)
}

func (ctl *Controller) handleGrantControl(cid core.ConnID, p *wsPeer, env *Envelope) {
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok || info.Session == "" {
		return
	}
	var payload struct {
		UserID domain.UserID `json:"userId"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.UserID == "" {
		ctl.sendErr(p, "bad_payload")
		return
	}
	ctl.broadcastSession(info.Session, evtControlGranted, map[string]any{
		"userId":    payload.UserID,
		"grantedBy": info.User.ID,
	}, cid)
}
