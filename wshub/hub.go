// Package wshub implements the WebSocket upgrade and pub/sub hub: peers
// connect, subscribe to named channels, and publish/broadcast messages to
// channel members. Built on gorilla/websocket, following the upgrader and
// read/write pump conventions shown in the getangry/ags reference handler.
package wshub

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// PeerID uniquely identifies a connected peer for the lifetime of the
// connection.
type PeerID string

// Hub owns the peer registry and channel subscriptions. Membership
// mutation (connect, close, subscribe, unsubscribe) is guarded by a single
// mutex; Publish takes a snapshot of member IDs under the lock and
// dispatches outside it (spec.md §5's suggested discipline).
type Hub struct {
	mu       sync.RWMutex
	peers    map[PeerID]*Peer
	channels map[string]map[PeerID]*Peer

	logger *slog.Logger

	nextID uint64
}

// New constructs an empty Hub. A nil logger falls back to a disabled one.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(discard{}, nil))
	}
	return &Hub{
		peers:    map[PeerID]*Peer{},
		channels: map[string]map[PeerID]*Peer{},
		logger:   logger,
	}
}

// Upgrader is the gorilla/websocket upgrader used for all hub connections.
// CheckOrigin is permissive by default, matching the reference handler;
// callers may replace it before the first Accept.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *Hub) newPeerID() PeerID {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return PeerID(strconv.FormatUint(h.nextID, 10))
}

// register adds a newly-accepted peer to the hub.
func (h *Hub) register(p *Peer) {
	h.mu.Lock()
	h.peers[p.id] = p
	h.mu.Unlock()
}

// remove deletes peer from the hub and from every channel it subscribed
// to, atomically with respect to Publish/Subscribe (spec.md §4.10's close
// sequence: Close delivered, then membership cleanup).
func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	for ch := range p.subscriptions {
		if members := h.channels[ch]; members != nil {
			delete(members, p.id)
			if len(members) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	delete(h.peers, p.id)
	h.mu.Unlock()
}

func (h *Hub) subscribe(p *Peer, channel string) {
	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = map[PeerID]*Peer{}
	}
	h.channels[channel][p.id] = p
	p.subscriptions[channel] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(p *Peer, channel string) {
	h.mu.Lock()
	if members := h.channels[channel]; members != nil {
		delete(members, p.id)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(p.subscriptions, channel)
	h.mu.Unlock()
}

// Publish delivers msg to every peer currently subscribed to channel.
// Delivery is best-effort: a send failure to one peer is logged and does
// not abort delivery to the rest.
func (h *Hub) Publish(channel string, msg string) {
	for _, p := range h.snapshot(channel) {
		if err := p.Send(msg); err != nil {
			h.logger.Warn("publish failed", "channel", channel, "peer", p.id, "error", err)
		}
	}
}

// PublishBytes is the binary-frame counterpart of Publish.
func (h *Hub) PublishBytes(channel string, msg []byte) {
	for _, p := range h.snapshot(channel) {
		if err := p.SendBytes(msg); err != nil {
			h.logger.Warn("publish failed", "channel", channel, "peer", p.id, "error", err)
		}
	}
}

// PublishOthers is Publish with the named peer excluded, for callers that
// want to opt out of the default self-delivery resolution (spec.md §9).
func (h *Hub) PublishOthers(channel string, exclude PeerID, msg string) {
	for _, p := range h.snapshot(channel) {
		if p.id == exclude {
			continue
		}
		if err := p.Send(msg); err != nil {
			h.logger.Warn("publish failed", "channel", channel, "peer", p.id, "error", err)
		}
	}
}

// PublishBytesOthers is PublishOthers's binary-frame counterpart.
func (h *Hub) PublishBytesOthers(channel string, exclude PeerID, msg []byte) {
	for _, p := range h.snapshot(channel) {
		if p.id == exclude {
			continue
		}
		if err := p.SendBytes(msg); err != nil {
			h.logger.Warn("publish failed", "channel", channel, "peer", p.id, "error", err)
		}
	}
}

// snapshot returns the current members of channel as a slice, taken under
// the read lock so Publish can dispatch without holding it.
func (h *Hub) snapshot(channel string) []*Peer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.channels[channel]
	out := make([]*Peer, 0, len(members))
	for _, p := range members {
		out = append(out, p)
	}
	return out
}

// Peers returns the number of currently connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
