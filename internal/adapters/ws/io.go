package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, p *wsPeer) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		// Closing the conn here unblocks a reader stuck in ReadMessage.
		p.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case frame, ok := <-p.send:
			if !ok {
				return
			}
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cid core.ConnID, p *wsPeer) {
	defer func() {
		log.Info().Str("module", "ws").Str("cid", string(cid)).Msg("readPump closing")
		p.Close()
		ctl.reconcile(cid)
	}()

	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "ws").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := p.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("cid", string(cid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(cid, p, data)
		}
	}
}

// handleEvent routes one inbound frame. A malformed event is dropped
// without tearing the connection down.
func (ctl *Controller) handleEvent(cid core.ConnID, p *wsPeer, data []byte) {
	env, err := decode(data)
	if err != nil {
		log.Warn().Str("module", "ws").Str("cid", string(cid)).Msg("bad envelope")
		ctl.sendErr(p, "bad_payload")
		return
	}

	switch env.Type {
	case evtPing:
		ctl.send(p, evtPong, "", "", nil)
	case evtSessionJoin:
		ctl.handleJoin(cid, p, env)
	case evtSessionLeave:
		ctl.handleLeave(cid, p)
	case evtRequestControl:
		ctl.handleRequestControl(cid, p)
	case evtGrantControl:
		ctl.handleGrantControl(cid, p, env)
	case evtCursorMove:
		ctl.handleCursorMove(cid, env)
	case evtTypingStart:
		ctl.handleTypingStart(cid, env)
	case evtTypingStop:
		ctl.handleTypingStop(cid, env)
	case evtChatJoin:
		ctl.handleChatJoin(cid, p, env)
	case evtChatLeave:
		ctl.handleChatLeave(cid, p, env)
	case evtChatMessage:
		ctl.handleChatMessage(cid, p, env)
	case evtChatRead:
		ctl.handleChatRead(cid, p, env)
	case evtChatReaction:
		ctl.handleChatReaction(cid, p, env)
	case evtAnnotationAdd, evtAnnotationUpdate, evtAnnotationDelete, evtAnnotationClear:
		ctl.handleAnnotation(cid, p, env)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}
