package hub

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/relaydesk/collab/internal/core"
	"github.com/relaydesk/collab/internal/domain"
	"github.com/relaydesk/collab/internal/pubsub"
)

const (
	channelPrefix  = "collab:"
	channelPattern = channelPrefix + "*"
)

// relayMessage is what crosses the pub/sub adapter. Origin lets an
// instance skip its own publications; local peers were already served
// without a broker round trip.
type relayMessage struct {
	Origin  string          `json:"origin"`
	Exclude string          `json:"exclude,omitempty"`
	Frame   json.RawMessage `json:"frame"`
}

type pubJob struct {
	channel string
	body    []byte
}

// Broadcaster fans a frame out to every member of a session or thread,
// minus the sender. Cross-process delivery goes through the attached
// adapter; without one, delivery is single-process only.
type Broadcaster struct {
	instance string
	conns    *ConnRegistry
	sessions *SessionRegistry
	threads  *ThreadRegistry
	policy   Policy

	adapter pubsub.Adapter
	pub     chan pubJob
}

func NewBroadcaster(conns *ConnRegistry, sessions *SessionRegistry, threads *ThreadRegistry, policy Policy) *Broadcaster {
	if policy == nil {
		policy = DropPolicy{}
	}
	return &Broadcaster{
		instance: uuid.NewString(),
		conns:    conns,
		sessions: sessions,
		threads:  threads,
		policy:   policy,
	}
}

// Attach wires the cross-process adapter and starts the publish pump.
// A single pump goroutine keeps per-sender FIFO order on the wire.
func (b *Broadcaster) Attach(ctx context.Context, adapter pubsub.Adapter) error {
	if err := adapter.Subscribe(ctx, channelPattern, b.handleRelay); err != nil {
		return err
	}
	b.adapter = adapter
	b.pub = make(chan pubJob, 256)
	go b.publishPump(ctx)
	log.Info().Str("module", "hub.broadcast").Str("instance", b.instance).Msg("pubsub adapter attached")
	return nil
}

// Attached reports whether cross-process delivery is active.
func (b *Broadcaster) Attached() bool { return b.adapter != nil }

func (b *Broadcaster) ToSession(sid domain.SessionID, frame core.Frame, exclude core.ConnID) core.PublishResult {
	res := b.deliver(b.sessions.Members(sid), frame, exclude)
	b.relay(channelPrefix+"session:"+string(sid), frame, exclude)
	return res
}

func (b *Broadcaster) ToThread(tid domain.ThreadID, frame core.Frame, exclude core.ConnID) core.PublishResult {
	res := b.deliver(b.threads.Members(tid), frame, exclude)
	b.relay(channelPrefix+"thread:"+string(tid), frame, exclude)
	return res
}

// ToConn sends to a single local connection.
func (b *Broadcaster) ToConn(cid core.ConnID, frame core.Frame) {
	peer, ok := b.conns.Peer(cid)
	if !ok {
		return
	}
	if err := peer.TrySend(frame); err != nil {
		b.onDrop(cid)
	}
}

func (b *Broadcaster) deliver(members []core.ConnID, frame core.Frame, exclude core.ConnID) core.PublishResult {
	res := core.PublishResult{}
	for _, cid := range members {
		if cid == exclude {
			continue
		}
		peer, ok := b.conns.Peer(cid)
		if !ok {
			continue
		}
		if err := peer.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, cid)
			b.onDrop(cid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "hub.broadcast").Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (b *Broadcaster) onDrop(cid core.ConnID) {
	if b.policy.OnBackpressure(cid) == KickConn {
		b.conns.Cancel(cid)
	}
}

func (b *Broadcaster) relay(channel string, frame core.Frame, exclude core.ConnID) {
	if b.adapter == nil {
		return
	}
	body, err := json.Marshal(relayMessage{
		Origin:  b.instance,
		Exclude: string(exclude),
		Frame:   json.RawMessage(frame),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "hub.broadcast").Msg("relay marshal")
		return
	}
	select {
	case b.pub <- pubJob{channel: channel, body: body}:
	default:
		// Best-effort layer: a saturated broker queue sheds the frame.
		log.Warn().Str("module", "hub.broadcast").Str("channel", channel).Msg("publish queue full, frame dropped")
	}
}

func (b *Broadcaster) publishPump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-b.pub:
			if err := b.adapter.Publish(ctx, job.channel, job.body); err != nil {
				log.Error().Err(err).Str("module", "hub.broadcast").Str("channel", job.channel).Msg("publish failed")
			}
		}
	}
}

// handleRelay delivers frames published by other instances to local
// members of the named scope.
func (b *Broadcaster) handleRelay(channel string, payload []byte) {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Error().Err(err).Str("module", "hub.broadcast").Str("channel", channel).Msg("bad relay payload")
		return
	}
	if msg.Origin == b.instance {
		return
	}
	rest, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return
	}
	kind, id, ok := strings.Cut(rest, ":")
	if !ok {
		return
	}
	frame := core.Frame(msg.Frame)
	exclude := core.ConnID(msg.Exclude)
	switch kind {
	case "session":
		b.deliver(b.sessions.Members(domain.SessionID(id)), frame, exclude)
	case "thread":
		b.deliver(b.threads.Members(domain.ThreadID(id)), frame, exclude)
	default:
		log.Warn().Str("module", "hub.broadcast").Str("channel", channel).Msg("unknown relay scope")
	}
}
