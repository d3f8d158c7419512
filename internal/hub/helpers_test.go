package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
)

func testContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx, cancel
}

// fakePeer captures delivered frames in memory.
type fakePeer struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (f *fakePeer) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send buffer full")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakePeer) Close() {}

func (f *fakePeer) received() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakePeer) waitFrames(t *testing.T, n int) []core.Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := f.received(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(f.received()))
	return nil
}

// bindConn registers a connection with a fresh fake peer.
func bindConn(h *Hub, cid core.ConnID, uid domain.UserID) *fakePeer {
	peer := &fakePeer{}
	user, _ := domain.NewUser(uid, "user-"+string(uid))
	h.Conns.Bind(cid, user, peer, nil)
	return peer
}
