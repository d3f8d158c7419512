package ws

import (
	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

func (ctl *Controller) threadOf(env *Envelope) (domain.ThreadID, bool) {
	if err := domain.ValidThreadID(env.ThreadID); err != nil {
		return "", false
	}
	return env.ThreadID, true
}

func (ctl *Controller) handleTypingStart(cid core.ConnID, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok {
		return
	}
	user, started := ctl.hub.StartTyping(cid, tid)
	// Repeated starts refresh the window without re-announcing.
	if !started {
		return
	}
	ctl.broadcastThread(tid, evtUserTyping, map[string]any{
		"userId":   user.ID,
		"userName": user.Name,
	}, cid)
}

func (ctl *Controller) handleTypingStop(cid core.ConnID, env *Envelope) {
	tid, ok := ctl.threadOf(env)
	if !ok {
		return
	}
	user, stopped := ctl.hub.StopTyping(cid, tid)
	if !stopped {
		return
	}
	ctl.broadcastThread(tid, evtUserStoppedTyping, map[string]any{
		"userId":   user.ID,
		"userName": user.Name,
	}, cid)
}
