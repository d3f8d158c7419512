// Package hub owns the shared mutable state of the collaboration layer:
// connection identities, session membership, cursors and typing flags.
// Every map in here is mutated only through its own API.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

type connEntry struct {
	User      *domain.User
	Role      domain.Role
	Session   domain.SessionID
	JoinedAt  time.Time
	CreatedAt time.Time
	Peer      core.Peer
	Cancel    context.CancelFunc
}

// ConnInfo is a read-only view of one registered connection.
type ConnInfo struct {
	User     domain.User
	Role     domain.Role
	Session  domain.SessionID
	JoinedAt time.Time
}

// ConnRegistry tracks every authenticated link currently held by this
// process. The gateway binds on handshake success and unbinds on close.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[core.ConnID]*connEntry)}
}

func (r *ConnRegistry) Bind(cid core.ConnID, user *domain.User, peer core.Peer, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{
		User:      user,
		Role:      domain.RoleParticipant,
		Peer:      peer,
		Cancel:    cancel,
		CreatedAt: time.Now(),
	}
	log.Info().Str("module", "hub.registry").Str("cid", string(cid)).Str("user", string(user.ID)).Msg("bound connection")
}

func (r *ConnRegistry) Unbind(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, cid)
	log.Info().Str("module", "hub.registry").Str("cid", string(cid)).Msg("unbind connection")
}

func (r *ConnRegistry) Get(cid core.ConnID) (ConnInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok {
		return ConnInfo{}, false
	}
	return ConnInfo{User: *e.User, Role: e.Role, Session: e.Session, JoinedAt: e.JoinedAt}, true
}

func (r *ConnRegistry) Peer(cid core.ConnID) (core.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Peer, true
	}
	return nil, false
}

// SessionOf reports the session the connection currently sits in, if any.
func (r *ConnRegistry) SessionOf(cid core.ConnID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.Session == "" {
		return "", false
	}
	return e.Session, true
}

func (r *ConnRegistry) SetSession(cid core.ConnID, sid domain.SessionID, role domain.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	e.Session = sid
	e.Role = role
	e.JoinedAt = time.Now()
	log.Info().Str("module", "hub.registry").Str("cid", string(cid)).Str("session", string(sid)).Msg("updated session")
	return true
}

func (r *ConnRegistry) ClearSession(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		e.Session = ""
	}
}

// Cancel fires the connection's lifecycle cancel func, tearing the link down.
func (r *ConnRegistry) Cancel(cid core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "hub.registry").Str("cid", string(cid)).Msg("canceled connection")
	return true
}
