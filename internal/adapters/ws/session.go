package ws

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

func (ctl *Controller) handleJoin(cid core.ConnID, p *wsPeer, env *Envelope) {
	var payload struct {
		SessionID domain.SessionID `json:"sessionId"`
		Role      string           `json:"role"`
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			ctl.sendErr(p, "bad_payload")
			return
		}
	}
	sid := payload.SessionID
	if sid == "" {
		sid = env.SessionID
	}
	if err := domain.ValidSessionID(sid); err != nil {
		ctl.sendErr(p, "bad_payload")
		return
	}

	info, ok := ctl.hub.Conns.Get(cid)
	if !ok {
		return
	}
	// The id space is client-supplied; cap how fast one user can mint rooms.
	if !ctl.limiter.Allow(info.User.ID) {
		ctl.sendErr(p, "rate_limited")
		return
	}

	role := domain.ParseRole(payload.Role)
	prev, ok := ctl.hub.Join(cid, sid, role)
	if !ok {
		return
	}
	log.Info().Str("module", "ws").Str("cid", string(cid)).Str("session", string(sid)).Msg("join")

	if prev != "" && prev != sid {
		ctl.broadcastSession(prev, evtUserLeft, map[string]any{
			"userId":    info.User.ID,
			"userName":  info.User.Name,
			"timestamp": time.Now(),
		}, cid)
	}

	ctl.send(p, evtSessionParticipants, sid, "", map[string]any{
		"participants": ctl.hub.Participants(sid),
		"cursors":      ctl.hub.CursorSnapshot(sid),
	})

	if prev != sid {
		ctl.broadcastSession(sid, evtUserJoined, map[string]any{
			"userId":    info.User.ID,
			"userName":  info.User.Name,
			"role":      role,
			"timestamp": time.Now(),
		}, cid)
	}
}

func (ctl *Controller) handleLeave(cid core.ConnID, p *wsPeer) {
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok {
		return
	}
	sid, left := ctl.hub.Leave(cid)
	ctl.send(p, evtSessionLeft, sid, "", nil)
	if !left {
		return
	}
	log.Info().Str("module", "ws").Str("cid", string(cid)).Str("session", string(sid)).Msg("leave")
	ctl.broadcastSession(sid, evtUserLeft, map[string]any{
		"userId":    info.User.ID,
		"userName":  info.User.Name,
		"timestamp": time.Now(),
	}, cid)
}
