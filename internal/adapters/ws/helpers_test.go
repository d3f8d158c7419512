package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/relaydesk/collab/internal/auth"
	"github.com/relaydesk/collab/internal/config"
	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
	"github.com/relaydesk/collab/internal/hub"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Mode:        "release",
		ReadLimit:   32768,
		PingPeriod:  54 * time.Second,
		Secret:      testSecret,
		AuthTimeout: 250 * time.Millisecond,
		TypingTTL:   100 * time.Millisecond,
	}
}

func newTestController(cfg *config.Config) *Controller {
	h := hub.New(cfg.TypingTTL, hub.DropPolicy{})
	ctl := NewController(h, auth.NewVerifier(cfg.Secret), cfg)
	h.Typing.OnExpire(ctl.NotifyTypingExpired)
	return ctl
}

// bindPeer registers a connection backed by a channel-only peer, letting
// handler tests run without a network link.
func bindPeer(ctl *Controller, cid core.ConnID, uid domain.UserID) *wsPeer {
	p := &wsPeer{send: make(chan core.Frame, sendBuffer)}
	user, _ := domain.NewUser(uid, "user-"+string(uid))
	ctl.hub.Conns.Bind(cid, user, p, nil)
	return p
}

// drain empties the peer's outbound queue.
func drain(p *wsPeer) []Envelope {
	var out []Envelope
	for {
		select {
		case f := <-p.send:
			var env Envelope
			if err := json.Unmarshal(f, &env); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

// waitFor blocks until the peer emits an event of the given type.
func waitFor(t *testing.T, p *wsPeer, typ string, timeout time.Duration) Envelope {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case f := <-p.send:
			var env Envelope
			if err := json.Unmarshal(f, &env); err == nil && env.Type == typ {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", typ)
		}
	}
}

func event(t *testing.T, typ string, sid, tid string, payload any) []byte {
	t.Helper()
	frame, err := encode(typ, domain.SessionID(sid), domain.ThreadID(tid), payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return frame
}

func payloadMap(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(env.Payload, &m); err != nil {
		t.Fatalf("payload: %v", err)
	}
	return m
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
