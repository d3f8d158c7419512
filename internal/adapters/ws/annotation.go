package ws

import (
	"encoding/json"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

// handleAnnotation validates the inbound shape and relays it to the
// sender's current session. Nothing is stored; ordering holds only
// within one sender's stream. Events from a connection outside any
// session are dropped silently.
func (ctl *Controller) handleAnnotation(cid core.ConnID, p *wsPeer, env *Envelope) {
	info, ok := ctl.hub.Conns.Get(cid)
	if !ok || info.Session == "" {
		return
	}

	var out string
	var payload any

	switch env.Type {
	case evtAnnotationAdd, evtAnnotationUpdate:
		var a domain.Annotation
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			ctl.sendErr(p, "bad_payload")
			return
		}
		if err := a.Validate(); err != nil {
			ctl.sendErr(p, "bad_payload")
			return
		}
		out = evtAnnotationAdded
		if env.Type == evtAnnotationUpdate {
			out = evtAnnotationUpdated
		}
		payload = map[string]any{
			"annotation": a,
			"userId":     info.User.ID,
		}
	case evtAnnotationDelete:
		var del struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Payload, &del); err != nil ||
			del.ID == "" || len(del.ID) > domain.MaxAnnotationIDLen {
			ctl.sendErr(p, "bad_payload")
			return
		}
		out = evtAnnotationDeleted
		payload = map[string]any{
			"id":     del.ID,
			"userId": info.User.ID,
		}
	case evtAnnotationClear:
		out = evtAnnotationCleared
		payload = map[string]any{
			"clearedBy": info.User.ID,
		}
	default:
		return
	}

	ctl.broadcastSession(info.Session, out, payload, cid)
}
