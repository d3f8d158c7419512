package hub

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

// Participant is the roster entry sent to a joiner.
type Participant struct {
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
	Role     domain.Role   `json:"role"`
	Color    string        `json:"color"`
	JoinedAt time.Time     `json:"joinedAt"`
}

// Hub coordinates the registries. All session/thread mutations flow
// through here so a connection is never half-removed: observers either
// see it in every registry or in none.
type Hub struct {
	Conns    *ConnRegistry
	Sessions *SessionRegistry
	Threads  *ThreadRegistry
	Presence *PresenceTracker
	Typing   *TypingRegistry
	Bcast    *Broadcaster
}

func New(typingTTL time.Duration, policy Policy) *Hub {
	conns := NewConnRegistry()
	sessions := NewSessionRegistry()
	threads := NewThreadRegistry()
	return &Hub{
		Conns:    conns,
		Sessions: sessions,
		Threads:  threads,
		Presence: NewPresenceTracker(),
		Typing:   NewTypingRegistry(typingTTL),
		Bcast:    NewBroadcaster(conns, sessions, threads, policy),
	}
}

// Join moves the connection into sid. A connection sits in at most one
// session, so any previous membership is fully drained first; the caller
// observes the switch as a single step.
func (h *Hub) Join(cid core.ConnID, sid domain.SessionID, role domain.Role) (prev domain.SessionID, ok bool) {
	info, ok := h.Conns.Get(cid)
	if !ok {
		return "", false
	}
	prev = info.Session
	if prev == sid {
		// Re-join of the current session just refreshes the roster.
		return prev, true
	}
	if prev != "" {
		h.Sessions.Leave(prev, cid)
		h.Presence.Remove(prev, info.User.ID)
	}
	h.Sessions.Join(sid, cid)
	h.Conns.SetSession(cid, sid, role)
	log.Info().Str("module", "hub").Str("cid", string(cid)).Str("session", string(sid)).Str("from", string(prev)).Msg("joined session")
	return prev, true
}

// Leave drains the connection's session-scoped state. The link stays up.
func (h *Hub) Leave(cid core.ConnID) (domain.SessionID, bool) {
	info, ok := h.Conns.Get(cid)
	if !ok || info.Session == "" {
		return "", false
	}
	h.Sessions.Leave(info.Session, cid)
	h.Presence.Remove(info.Session, info.User.ID)
	h.Conns.ClearSession(cid)
	log.Info().Str("module", "hub").Str("cid", string(cid)).Str("session", string(info.Session)).Msg("left session")
	return info.Session, true
}

// Drain is what the disconnect reconciler took out of the registries.
type Drain struct {
	User      domain.User
	Session   domain.SessionID
	Threads   []domain.ThreadID
	WasTyping []domain.ThreadID
}

// Disconnect removes the connection from every registry it touched.
// Safe to call more than once: both an explicit leave and the transport
// close path funnel through here, and the second call finds nothing.
func (h *Hub) Disconnect(cid core.ConnID) (Drain, bool) {
	info, ok := h.Conns.Get(cid)
	if !ok {
		return Drain{}, false
	}
	d := Drain{User: info.User, Session: info.Session}
	if info.Session != "" {
		h.Sessions.Leave(info.Session, cid)
		h.Presence.Remove(info.Session, info.User.ID)
	}
	d.Threads = h.Threads.LeaveAll(cid)
	for _, tid := range d.Threads {
		if h.Typing.Stop(tid, info.User.ID) {
			d.WasTyping = append(d.WasTyping, tid)
		}
	}
	h.Conns.Unbind(cid)
	log.Info().Str("module", "hub").Str("cid", string(cid)).Str("user", string(info.User.ID)).Msg("connection drained")
	return d, true
}

// SetCursor records a move sample for the sender's current session.
// Events from a connection not in a session are dropped silently to
// tolerate leave/move races.
func (h *Hub) SetCursor(cid core.ConnID, x, y float64) (domain.Cursor, domain.SessionID, bool) {
	info, ok := h.Conns.Get(cid)
	if !ok || info.Session == "" {
		return domain.Cursor{}, "", false
	}
	c := domain.Cursor{
		UserID:    info.User.ID,
		X:         x,
		Y:         y,
		Color:     info.User.Color,
		UpdatedAt: time.Now(),
	}
	h.Presence.Set(info.Session, c)
	return c, info.Session, true
}

func (h *Hub) CursorSnapshot(sid domain.SessionID) map[domain.UserID]domain.Cursor {
	return h.Presence.Snapshot(sid)
}

// Participants lists the current roster of sid.
func (h *Hub) Participants(sid domain.SessionID) []Participant {
	members := h.Sessions.Members(sid)
	out := make([]Participant, 0, len(members))
	for _, cid := range members {
		info, ok := h.Conns.Get(cid)
		if !ok {
			continue
		}
		out = append(out, Participant{
			UserID:   info.User.ID,
			UserName: info.User.Name,
			Role:     info.Role,
			Color:    info.User.Color,
			JoinedAt: info.JoinedAt,
		})
	}
	return out
}

// JoinThread subscribes the connection to a chat thread.
func (h *Hub) JoinThread(cid core.ConnID, tid domain.ThreadID) bool {
	if _, ok := h.Conns.Get(cid); !ok {
		return false
	}
	h.Threads.Join(tid, cid)
	return true
}

// LeaveThread also clears any typing flag so the indicator cannot
// outlive membership.
func (h *Hub) LeaveThread(cid core.ConnID, tid domain.ThreadID) (wasTyping bool) {
	info, ok := h.Conns.Get(cid)
	if !ok {
		return false
	}
	wasTyping = h.Typing.Stop(tid, info.User.ID)
	h.Threads.Leave(tid, cid)
	return wasTyping
}

// StartTyping flags the sender in tid. Requires thread membership;
// stray events are no-ops.
func (h *Hub) StartTyping(cid core.ConnID, tid domain.ThreadID) (domain.User, bool) {
	info, ok := h.Conns.Get(cid)
	if !ok || !h.Threads.Contains(tid, cid) {
		return domain.User{}, false
	}
	return info.User, h.Typing.Start(tid, info.User.ID)
}

func (h *Hub) StopTyping(cid core.ConnID, tid domain.ThreadID) (domain.User, bool) {
	info, ok := h.Conns.Get(cid)
	if !ok {
		return domain.User{}, false
	}
	return info.User, h.Typing.Stop(tid, info.User.ID)
}
