package hub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
	"github.com/relaydesk/collab/internal/pubsub"
)

// fakeBus is an in-memory stand-in for the broker, shared between
// broadcaster instances under test.
type fakeBus struct {
	mu       sync.Mutex
	handlers []pubsub.Handler
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	handlers := append([]pubsub.Handler(nil), b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(channel, payload)
	}
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, _ string, h pubsub.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func TestBroadcastEchoSuppression(t *testing.T) {
	h := newTestHub()
	sender := bindConn(h, "a", "ua")
	peerB := bindConn(h, "b", "ub")
	peerC := bindConn(h, "c", "uc")
	h.Join("a", "abc123", domain.RoleParticipant)
	h.Join("b", "abc123", domain.RoleParticipant)
	h.Join("c", "abc123", domain.RoleParticipant)

	res := h.Bcast.ToSession("abc123", core.Frame(`{"x":1}`), "a")
	assert.Equal(t, 2, res.SentTo)

	assert.Empty(t, sender.received())
	require.Len(t, peerB.received(), 1)
	require.Len(t, peerC.received(), 1)
}

func TestBroadcastScopedToSession(t *testing.T) {
	h := newTestHub()
	bindConn(h, "a", "ua")
	outsider := bindConn(h, "b", "ub")
	h.Join("a", "s1", domain.RoleParticipant)
	h.Join("b", "s2", domain.RoleParticipant)

	h.Bcast.ToSession("s1", core.Frame(`{}`), "")
	assert.Empty(t, outsider.received())
}

func TestBroadcastToThread(t *testing.T) {
	h := newTestHub()
	sender := bindConn(h, "a", "ua")
	peerB := bindConn(h, "b", "ub")
	h.JoinThread("a", "t1")
	h.JoinThread("b", "t1")

	h.Bcast.ToThread("t1", core.Frame(`{}`), "a")
	assert.Empty(t, sender.received())
	assert.Len(t, peerB.received(), 1)
}

func TestBroadcastDropsOnBackpressure(t *testing.T) {
	h := newTestHub()
	bindConn(h, "a", "ua")
	slow := bindConn(h, "b", "ub")
	slow.fail = true
	h.Join("a", "s1", domain.RoleParticipant)
	h.Join("b", "s1", domain.RoleParticipant)

	res := h.Bcast.ToSession("s1", core.Frame(`{}`), "a")
	assert.Equal(t, 0, res.SentTo)
	assert.ElementsMatch(t, []string{"b"}, asStrings(res.Dropped))

	// DropPolicy keeps the connection registered.
	_, ok := h.Conns.Get("b")
	assert.True(t, ok)
}

func TestCrossInstanceFanout(t *testing.T) {
	bus := &fakeBus{}
	ctx, _ := testContext(t)

	h1 := newTestHub()
	h2 := newTestHub()
	require.NoError(t, h1.Bcast.Attach(ctx, bus))
	require.NoError(t, h2.Bcast.Attach(ctx, bus))

	sender := bindConn(h1, "a", "ua")
	local := bindConn(h1, "b", "ub")
	remote := bindConn(h2, "c", "uc")
	h1.Join("a", "s1", domain.RoleParticipant)
	h1.Join("b", "s1", domain.RoleParticipant)
	h2.Join("c", "s1", domain.RoleParticipant)

	h1.Bcast.ToSession("s1", core.Frame(`{"event":"x"}`), "a")

	// Remote member is reached through the bus.
	remote.waitFrames(t, 1)
	// Local member got exactly one copy: direct delivery, with the
	// origin-tagged relay skipped when it loops back.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, local.received(), 1)
	assert.Empty(t, sender.received())
}

func TestRelayIgnoresMalformedPayload(t *testing.T) {
	bus := &fakeBus{}
	ctx, _ := testContext(t)
	h := newTestHub()
	require.NoError(t, h.Bcast.Attach(ctx, bus))
	member := bindConn(h, "a", "ua")
	h.Join("a", "s1", domain.RoleParticipant)

	require.NoError(t, bus.Publish(ctx, "collab:session:s1", []byte("not json")))
	require.NoError(t, bus.Publish(ctx, "collab:bogus", []byte(`{"origin":"other","frame":{}}`)))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, member.received())
}

func TestRelayDeliversForeignOrigin(t *testing.T) {
	bus := &fakeBus{}
	ctx, _ := testContext(t)
	h := newTestHub()
	require.NoError(t, h.Bcast.Attach(ctx, bus))
	member := bindConn(h, "a", "ua")
	h.Join("a", "s1", domain.RoleParticipant)

	require.NoError(t, bus.Publish(ctx, "collab:session:s1",
		[]byte(`{"origin":"other-instance","frame":{"type":"cursor:moved"}}`)))

	frames := member.waitFrames(t, 1)
	assert.JSONEq(t, `{"type":"cursor:moved"}`, string(frames[0]))
}

func TestKickPolicyCancelsSaturatedConn(t *testing.T) {
	h := New(4*time.Second, KickPolicy{})
	canceled := make(chan struct{})
	peer := &fakePeer{fail: true}
	user, _ := domain.NewUser("ub", "ub")
	h.Conns.Bind("b", user, peer, func() { close(canceled) })
	bindConn(h, "a", "ua")
	h.Join("a", "s1", domain.RoleParticipant)
	h.Join("b", "s1", domain.RoleParticipant)

	h.Bcast.ToSession("s1", core.Frame(`{}`), "a")

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("saturated connection was not canceled")
	}
}
