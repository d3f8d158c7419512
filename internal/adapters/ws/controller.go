// Package ws is the connection gateway: it upgrades links, runs the auth
// handshake, and translates wire events into hub operations.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/auth"
	"github.com/relaydesk/collab/internal/config"
	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
	"github.com/relaydesk/collab/internal/hub"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	hub      *hub.Hub
	verifier *auth.Verifier
	cfg      *config.Config
	limiter  *JoinRateLimiter
}

func NewController(h *hub.Hub, v *auth.Verifier, cfg *config.Config) *Controller {
	return &Controller{
		hub:      h,
		verifier: v,
		cfg:      cfg,
		limiter:  NewJoinRateLimiter(10, 10*time.Second),
	}
}

// HandleWS upgrades the link and runs the per-connection lifecycle:
// pending-auth until the handshake passes, then pumps until close.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}
	conn.SetReadLimit(ctl.cfg.ReadLimit)

	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "ws").Str("cid", string(cid)).Msg("new connection, awaiting auth")

	user, err := ctl.handshake(conn)
	if err != nil {
		// Explicit error event before the close, never a silent hang.
		ctl.rejectAndClose(conn, err.Error())
		log.Warn().Err(err).Str("module", "ws").Str("cid", string(cid)).Msg("handshake failed")
		return
	}

	peer := newPeer(conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.hub.Conns.Bind(cid, user, peer, cancel)

	ack, err := encode(evtAuthSuccess, "", "", map[string]any{
		"userId":       user.ID,
		"connectionId": cid,
	})
	if err != nil || peer.TrySend(ack) != nil {
		cancel()
		ctl.reconcile(cid)
		peer.Close()
		return
	}

	go ctl.writePump(ctx, peer)
	go ctl.readPump(ctx, cid, peer)
}

type authPayload struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// handshake enforces the bounded PendingAuth window: the first frame must
// be a valid auth event arriving before the timeout.
func (ctl *Controller) handshake(conn *websocket.Conn) (*domain.User, error) {
	if err := conn.SetReadDeadline(time.Now().Add(ctl.cfg.AuthTimeout)); err != nil {
		return nil, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	env, err := decode(data)
	if err != nil || env.Type != evtAuth {
		return nil, auth.ErrInvalidToken
	}
	var p authPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return nil, auth.ErrInvalidToken
	}

	// Identity comes from the token, never from the payload.
	ident, err := ctl.verifier.Verify(p.Token)
	if err != nil {
		return nil, err
	}
	name := ident.Name
	if name == "" {
		name = p.UserName
	}
	if name == "" || len(name) > domain.MaxNameLen {
		name = "guest"
	}
	user, err := domain.NewUser(ident.UserID, name)
	if err != nil {
		return nil, err
	}
	// Handshake done; reads are paced by pongs from here on.
	if err := conn.SetReadDeadline(time.Now().Add(ctl.pongWait())); err != nil {
		return nil, err
	}
	return user, nil
}

func (ctl *Controller) rejectAndClose(conn *websocket.Conn, msg string) {
	if frame, err := encode(evtAuthError, "", "", map[string]string{"message": msg}); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}
	_ = conn.Close()
}

func (ctl *Controller) pongWait() time.Duration {
	return ctl.cfg.PingPeriod * 10 / 9
}

// reconcile drains every registry the connection touched and announces
// the departure. Idempotent: an earlier explicit leave already emptied
// the session-scoped state.
func (ctl *Controller) reconcile(cid core.ConnID) {
	d, ok := ctl.hub.Disconnect(cid)
	if !ok {
		return
	}
	if d.Session != "" {
		ctl.broadcastSession(d.Session, evtUserLeft, map[string]any{
			"userId":    d.User.ID,
			"userName":  d.User.Name,
			"timestamp": time.Now(),
		}, cid)
	}
	for _, tid := range d.WasTyping {
		ctl.NotifyTypingExpired(tid, d.User.ID)
	}
}

// NotifyTypingExpired emits the stopped-typing event for an evicted
// typing entry; wired as the TypingRegistry expiry callback.
func (ctl *Controller) NotifyTypingExpired(tid domain.ThreadID, uid domain.UserID) {
	frame, err := encode(evtUserStoppedTyping, "", tid, map[string]any{"userId": uid})
	if err != nil {
		return
	}
	ctl.hub.Bcast.ToThread(tid, frame, "")
}

func (ctl *Controller) broadcastSession(sid domain.SessionID, typ string, payload any, exclude core.ConnID) {
	frame, err := encode(typ, sid, "", payload)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("broadcast marshal")
		return
	}
	ctl.hub.Bcast.ToSession(sid, frame, exclude)
}

func (ctl *Controller) broadcastThread(tid domain.ThreadID, typ string, payload any, exclude core.ConnID) {
	frame, err := encode(typ, "", tid, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("broadcast marshal")
		return
	}
	ctl.hub.Bcast.ToThread(tid, frame, exclude)
}

func (ctl *Controller) send(peer core.Peer, typ string, sid domain.SessionID, tid domain.ThreadID, payload any) {
	frame, err := encode(typ, sid, tid, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("send marshal")
		return
	}
	_ = peer.TrySend(frame)
}

func (ctl *Controller) sendErr(peer core.Peer, msg string) {
	ctl.send(peer, evtError, "", "", map[string]string{"message": msg})
}
