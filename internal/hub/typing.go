package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/domain"
)

// ExpireFunc is invoked for every typing entry evicted by the sweep, so
// peers see the same stopped-typing event an explicit stop would emit.
type ExpireFunc func(tid domain.ThreadID, uid domain.UserID)

// TypingRegistry tracks who signals "typing" per thread. Entries carry a
// freshness timestamp and self-expire after the inactivity window even if
// the client dies without sending a stop.
type TypingRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	byThread map[domain.ThreadID]map[domain.UserID]time.Time
	onExpire ExpireFunc
}

func NewTypingRegistry(ttl time.Duration) *TypingRegistry {
	return &TypingRegistry{
		ttl:      ttl,
		byThread: make(map[domain.ThreadID]map[domain.UserID]time.Time),
	}
}

// OnExpire installs the eviction callback. Must be set before Run.
func (t *TypingRegistry) OnExpire(f ExpireFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = f
}

// Start marks the user typing and reports whether the entry is new.
// Repeated starts only refresh the timestamp.
func (t *TypingRegistry) Start(tid domain.ThreadID, uid domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.byThread[tid]
	if !ok {
		users = make(map[domain.UserID]time.Time)
		t.byThread[tid] = users
	}
	_, existed := users[uid]
	users[uid] = time.Now()
	return !existed
}

// Stop clears the flag. Stopping an absent entry is a no-op.
func (t *TypingRegistry) Stop(tid domain.ThreadID, uid domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.byThread[tid]
	if !ok {
		return false
	}
	if _, existed := users[uid]; !existed {
		return false
	}
	delete(users, uid)
	if len(users) == 0 {
		delete(t.byThread, tid)
	}
	return true
}

func (t *TypingRegistry) Typing(tid domain.ThreadID) []domain.UserID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.UserID, 0, len(t.byThread[tid]))
	for uid := range t.byThread[tid] {
		out = append(out, uid)
	}
	return out
}

// Run sweeps stale entries until ctx is done.
func (t *TypingRegistry) Run(ctx context.Context) {
	interval := t.ttl / 2
	if interval < 250*time.Millisecond {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.sweep(now)
		}
	}
}

func (t *TypingRegistry) sweep(now time.Time) {
	type expired struct {
		tid domain.ThreadID
		uid domain.UserID
	}
	var evicted []expired

	t.mu.Lock()
	cutoff := now.Add(-t.ttl)
	for tid, users := range t.byThread {
		for uid, seen := range users {
			if seen.Before(cutoff) {
				delete(users, uid)
				evicted = append(evicted, expired{tid: tid, uid: uid})
			}
		}
		if len(users) == 0 {
			delete(t.byThread, tid)
		}
	}
	onExpire := t.onExpire
	t.mu.Unlock()

	// Callbacks run outside the lock: they broadcast.
	for _, e := range evicted {
		log.Debug().Str("module", "hub.typing").Str("thread", string(e.tid)).Str("user", string(e.uid)).Msg("typing expired")
		if onExpire != nil {
			onExpire(e.tid, e.uid)
		}
	}
}
