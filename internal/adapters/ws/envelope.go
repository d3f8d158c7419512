package ws

import (
	"encoding/json"
	"errors"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

// Wire event vocabulary.
const (
	evtAuth        = "auth"
	evtAuthSuccess = "auth:success"
	evtAuthError   = "auth:error"
	evtError       = "error"
	evtPing        = "ping"
	evtPong        = "pong"

	evtSessionJoin         = "session:join"
	evtSessionLeave        = "session:leave"
	evtSessionLeft         = "session:left"
	evtSessionParticipants = "session:participants"
	evtUserJoined          = "user:joined"
	evtUserLeft            = "user:left"

	evtRequestControl   = "session:request-control"
	evtControlRequested = "control:requested"
	evtGrantControl     = "session:grant-control"
	evtControlGranted   = "control:granted"

	evtCursorMove  = "cursor:move"
	evtCursorMoved = "cursor:moved"

	evtTypingStart       = "typing:start"
	evtTypingStop        = "typing:stop"
	evtUserTyping        = "user:typing"
	evtUserStoppedTyping = "user:stopped-typing"

	evtAnnotationAdd     = "annotation:add"
	evtAnnotationUpdate  = "annotation:update"
	evtAnnotationDelete  = "annotation:delete"
	evtAnnotationClear   = "annotation:clear"
	evtAnnotationAdded   = "annotation:added"
	evtAnnotationUpdated = "annotation:updated"
	evtAnnotationDeleted = "annotation:deleted"
	evtAnnotationCleared = "annotation:cleared"

	evtChatJoin     = "chat:join"
	evtChatJoined   = "chat:joined"
	evtChatLeave    = "chat:leave"
	evtChatLeft     = "chat:left"
	evtChatMessage  = "chat:message"
	evtChatRead     = "chat:read"
	evtChatReaction = "chat:reaction"
)

var errBadEnvelope = errors.New("bad envelope")

// Envelope is the wire shape of every event in both directions.
type Envelope struct {
	Type      string           `json:"type"`
	SessionID domain.SessionID `json:"sessionId,omitempty"`
	ThreadID  domain.ThreadID  `json:"threadId,omitempty"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
}

func decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errBadEnvelope
	}
	if env.Type == "" {
		return nil, errBadEnvelope
	}
	return &env, nil
}

func encode(typ string, sid domain.SessionID, tid domain.ThreadID, payload any) (core.Frame, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	b, err := json.Marshal(Envelope{Type: typ, SessionID: sid, ThreadID: tid, Payload: raw})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
