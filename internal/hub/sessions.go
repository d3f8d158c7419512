package hub

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

// SessionInfo is a read-only view for APIs.
type SessionInfo struct {
	ID          domain.SessionID `json:"sessionId"`
	MemberCount int              `json:"memberCount"`
}

// SessionRegistry is the source of truth for "who is in this room".
// Sessions come into being on first join and are removed as soon as the
// last member leaves; the id space is client-supplied and unbounded, so
// empty rooms must never accumulate.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]map[core.ConnID]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[domain.SessionID]map[core.ConnID]struct{})}
}

func (s *SessionRegistry) Join(sid domain.SessionID, cid core.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.sessions[sid]
	if !ok {
		members = make(map[core.ConnID]struct{})
		s.sessions[sid] = members
	}
	members[cid] = struct{}{}
	log.Info().Str("module", "hub.sessions").Str("session", string(sid)).Str("cid", string(cid)).Msg("member joined")
}

// Leave removes the connection and garbage-collects the session when it
// empties. Leaving a session one is not in is a no-op.
func (s *SessionRegistry) Leave(sid domain.SessionID, cid core.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.sessions[sid]
	if !ok {
		return
	}
	delete(members, cid)
	if len(members) == 0 {
		delete(s.sessions, sid)
		log.Info().Str("module", "hub.sessions").Str("session", string(sid)).Msg("session emptied, removed")
		return
	}
	log.Info().Str("module", "hub.sessions").Str("session", string(sid)).Str("cid", string(cid)).Msg("member left")
}

func (s *SessionRegistry) Members(sid domain.SessionID) []core.ConnID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.sessions[sid]
	out := make([]core.ConnID, 0, len(members))
	for cid := range members {
		out = append(out, cid)
	}
	return out
}

func (s *SessionRegistry) Contains(sid domain.SessionID, cid core.ConnID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sid][cid]
	return ok
}

func (s *SessionRegistry) Count(sid domain.SessionID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sid])
}

func (s *SessionRegistry) List() []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for sid, members := range s.sessions {
		out = append(out, SessionInfo{ID: sid, MemberCount: len(members)})
	}
	return out
}
