package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/relaydesk/collab/internal/core"
)

const maxChatMessageLen = 4096

// Chat events are relayed, never stored. Sender identity is injected
// server-side; anything identity-like in the client payload is ignored.

func (ctl *Controller) handleChatJoin(cid core.ConnID, p *wsPeer, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok {
		ctl.sendErr(p, "bad_payload")
		return
	}
	if !ctl.hub.JoinThread(cid, tid) {
		return
	}
	ctl.send(p, evtChatJoined, "", tid, map[string]any{
		"typing": ctl.hub.Typing.Typing(tid),
	})
}

func (ctl *Controller) handleChatLeave(cid core.ConnID, p *wsPeer, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok {
		ctl.sendErr(p, "bad_payload")
		return
	}
	wasTyping := ctl.hub.LeaveThread(cid, tid)
	ctl.send(p, evtChatLeft, "", tid, nil)
	if wasTyping {
		info, ok := ctl.hub.Conns.Get(cid)
		if ok {
			ctl.broadcastThread(tid, evtUserStoppedTyping, map[string]any{
				"userId":   info.User.ID,
				"userName": info.User.Name,
			}, cid)
		}
	}
}

func (ctl *Controller) handleChatMessage(cid core.ConnID, p *wsPeer, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok || !ctl.hub.Threads.Contains(tid, cid) {
		return
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil ||
		payload.Message == "" || len(payload.Message) > maxChatMessageLen {
		ctl.sendErr(p, "bad_payload")
		return
	}
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok {
		return
	}
	ctl.broadcastThread(tid, evtChatMessage, map[string]any{
		"messageId":  uuid.NewString(),
		"message":    payload.Message,
		"senderId":   info.User.ID,
		"senderName": info.User.Name,
		"timestamp":  time.Now(),
	}, cid)
}

func (ctl *Controller) handleChatRead(cid core.ConnID, p *wsPeer, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok || !ctl.hub.Threads.Contains(tid, cid) {
		return
	}
	var payload struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.MessageID == "" {
		ctl.sendErr(p, "bad_payload")
		return
	}
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok {
		return
	}
	ctl.broadcastThread(tid, evtChatRead, map[string]any{
		"messageId": payload.MessageID,
		"senderId":  info.User.ID,
	}, cid)
}

func (ctl *Controller) handleChatReaction(cid core.ConnID, p *wsPeer, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok || !ctl.hub.Threads.Contains(tid, cid) {
		return
	}
	var payload struct {
		MessageID string `json:"messageId"`
		Emoji     string `json:"emoji"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil ||
		payload.MessageID == "" || payload.Emoji == "" || len(payload.Emoji) > 16 {
		ctl.sendErr(p, "bad_payload")
		return
	}
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok {
		return
	}
	ctl.broadcastThread(tid, evtChatReaction, map[string]any{
		"messageId": payload.MessageID,
		"emoji":     payload.Emoji,
		"senderId":  info.User.ID,
	}, cid)
}
