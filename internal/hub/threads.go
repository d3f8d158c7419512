package hub

import (
	"sync"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

// ThreadRegistry tracks chat-thread membership. Unlike sessions, one
// connection may sit in several threads at once, so a reverse index is
// kept for disconnect cleanup.
type ThreadRegistry struct {
	mu       sync.RWMutex
	byThread map[domain.ThreadID]map[core.ConnID]struct{}
	byConn   map[core.ConnID]map[domain.ThreadID]struct{}
}

func NewThreadRegistry() *ThreadRegistry {
	return &ThreadRegistry{
		byThread: make(map[domain.ThreadID]map[core.ConnID]struct{}),
		byConn:   make(map[core.ConnID]map[domain.ThreadID]struct{}),
	}
}

func (t *ThreadRegistry) Join(tid domain.ThreadID, cid core.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byThread[tid] == nil {
		t.byThread[tid] = make(map[core.ConnID]struct{})
	}
	t.byThread[tid][cid] = struct{}{}
	if t.byConn[cid] == nil {
		t.byConn[cid] = make(map[domain.ThreadID]struct{})
	}
	t.byConn[cid][tid] = struct{}{}
}

func (t *ThreadRegistry) Leave(tid domain.ThreadID, cid core.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaveLocked(tid, cid)
}

func (t *ThreadRegistry) leaveLocked(tid domain.ThreadID, cid core.ConnID) {
	if members, ok := t.byThread[tid]; ok {
		delete(members, cid)
		if len(members) == 0 {
			delete(t.byThread, tid)
		}
	}
	if threads, ok := t.byConn[cid]; ok {
		delete(threads, tid)
		if len(threads) == 0 {
			delete(t.byConn, cid)
		}
	}
}

// LeaveAll drains every thread membership of cid and reports which
// threads were left.
func (t *ThreadRegistry) LeaveAll(cid core.ConnID) []domain.ThreadID {
	t.mu.Lock()
	defer t.mu.Unlock()
	threads := t.byConn[cid]
	out := make([]domain.ThreadID, 0, len(threads))
	for tid := range threads {
		out = append(out, tid)
	}
	for _, tid := range out {
		t.leaveLocked(tid, cid)
	}
	return out
}

func (t *ThreadRegistry) Members(tid domain.ThreadID) []core.ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members := t.byThread[tid]
	out := make([]core.ConnID, 0, len(members))
	for cid := range members {
		out = append(out, cid)
	}
	return out
}

func (t *ThreadRegistry) Contains(tid domain.ThreadID, cid core.ConnID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byThread[tid][cid]
	return ok
}
