package wshub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Event is delivered to a Handler across a peer's lifetime: exactly one
// Open, zero or more Message, exactly one Close (spec.md §4.10).
type Event struct {
	Kind    EventKind
	Peer    *Peer
	Text    string
	Bytes   []byte
	IsBytes bool
}

type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventClose
)

// Handler processes events for one peer's connection lifetime.
type Handler func(Event)

// Peer is one accepted WebSocket connection. Outbound messages are
// enqueued onto a buffered channel drained by a dedicated write pump
// goroutine, the standard gorilla/websocket pattern (one writer per
// connection; reads and writes must not interleave across goroutines).
type Peer struct {
	id            PeerID
	hub           *Hub
	conn          *websocket.Conn
	send          chan wireMessage
	subscriptions map[string]struct{}
	closed        chan struct{}
}

type wireMessage struct {
	messageType int
	data        []byte
}

// ID returns the peer's unique identifier.
func (p *Peer) ID() string { return string(p.id) }

// Send enqueues a text frame.
func (p *Peer) Send(msg string) error {
	return p.enqueue(websocket.TextMessage, []byte(msg))
}

// SendBytes enqueues a binary frame.
func (p *Peer) SendBytes(b []byte) error {
	return p.enqueue(websocket.BinaryMessage, b)
}

func (p *Peer) enqueue(messageType int, data []byte) error {
	select {
	case <-p.closed:
		return websocket.ErrCloseSent
	case p.send <- wireMessage{messageType: messageType, data: data}:
		return nil
	}
}

// Subscribe adds the peer to channel's membership.
func (p *Peer) Subscribe(channel string) { p.hub.subscribe(p, channel) }

// Unsubscribe removes the peer from channel's membership.
func (p *Peer) Unsubscribe(channel string) { p.hub.unsubscribe(p, channel) }

// Publish is sugar for Hub.Publish from a peer's perspective (the
// publisher is not special-cased: if subscribed, it receives its own
// message like any other member, per spec.md §9's resolution).
func (p *Peer) Publish(channel, msg string) { p.hub.Publish(channel, msg) }

// PublishOthers is sugar for Hub.PublishOthers, excluding this peer.
func (p *Peer) PublishOthers(channel, msg string) { p.hub.PublishOthers(channel, p.id, msg) }

// Close terminates the connection; the write pump goroutine exits and the
// peer is removed from the hub once Close is delivered to the handler.
func (p *Peer) Close() error {
	select {
	case <-p.closed:
		return nil
	default:
		close(p.closed)
	}
	return p.conn.Close()
}

// Accept upgrades an HTTP request to a WebSocket connection, registers the
// resulting Peer with the hub, and runs handler synchronously until the
// connection closes (handler is expected to return promptly after
// receiving an EventClose; Accept itself drives the read loop).
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, handler Handler) error {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	p := &Peer{
		id:            h.newPeerID(),
		hub:           h,
		conn:          conn,
		send:          make(chan wireMessage, 32),
		subscriptions: map[string]struct{}{},
		closed:        make(chan struct{}),
	}
	h.register(p)

	done := make(chan struct{})
	go p.writePump(done)

	handler(Event{Kind: EventOpen, Peer: p})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch messageType {
		case websocket.TextMessage:
			handler(Event{Kind: EventMessage, Peer: p, Text: string(data)})
		case websocket.BinaryMessage:
			handler(Event{Kind: EventMessage, Peer: p, Bytes: data, IsBytes: true})
		}
	}

	p.Close()
	<-done
	handler(Event{Kind: EventClose, Peer: p})
	h.remove(p)
	return nil
}

func (p *Peer) writePump(done chan<- struct{}) {
	defer close(done)
	defer p.conn.Close()
	for {
		select {
		case <-p.closed:
			return
		case m := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := p.conn.WriteMessage(m.messageType, m.data); err != nil {
				return
			}
		}
	}
}
