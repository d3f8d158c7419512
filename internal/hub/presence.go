package hub

import (
	"sync"

	"github.com/relaydesk/collab/internal/domain"
)

// PresenceTracker holds the last-known cursor per (session, user).
// Every write overwrites unconditionally; only the current position is
// meaningful, so last-write-wins needs no ordering or history.
type PresenceTracker struct {
	mu      sync.RWMutex
	cursors map[domain.SessionID]map[domain.UserID]domain.Cursor
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{cursors: make(map[domain.SessionID]map[domain.UserID]domain.Cursor)}
}

func (p *PresenceTracker) Set(sid domain.SessionID, c domain.Cursor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursors[sid] == nil {
		p.cursors[sid] = make(map[domain.UserID]domain.Cursor)
	}
	p.cursors[sid][c.UserID] = c
}

// Remove drops the user's sample. Called on explicit leave and by the
// disconnect reconciler so a cursor never outlives its membership.
func (p *PresenceTracker) Remove(sid domain.SessionID, uid domain.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.cursors[sid]; ok {
		delete(m, uid)
		if len(m) == 0 {
			delete(p.cursors, sid)
		}
	}
}

func (p *PresenceTracker) Snapshot(sid domain.SessionID) map[domain.UserID]domain.Cursor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[domain.UserID]domain.Cursor, len(p.cursors[sid]))
	for uid, c := range p.cursors[sid] {
		out[uid] = c
	}
	return out
}
