// Package sse streams repository change events to HTTP clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/slipbox/internal/parser"
)

// Event types.
const (
	TypeNoteCreated  = "note.created"
	TypeNoteUpdated  = "note.updated"
	TypeNoteDeleted  = "note.deleted"
	TypeGraphUpdated = "graph.updated"
)

// Event is one message for every subscriber.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NoteEvent is the payload of the note.* events.
type NoteEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
}

type noteChange struct {
	kind     string
	filename string
}

// Broker fans events out to SSE clients.
//
// A single loop goroutine owns the client set and the graph throttle; public
// methods talk to it over channels.
type Broker struct {
	graphEvery time.Duration
	heartbeat  time.Duration

	join    chan chan []byte
	leave   chan chan []byte
	events  chan Event
	changes chan noteChange
	count   chan chan int

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithHeartbeat sends an SSE comment to idle clients at this interval so
// proxies keep the connection open. Zero disables it.
func WithHeartbeat(d time.Duration) BrokerOption {
	return func(b *Broker) { b.heartbeat = d }
}

// NewBroker starts a broker that emits at most one graph.updated event per
// graphThrottle.
func NewBroker(graphThrottle time.Duration, opts ...BrokerOption) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}
	b := &Broker{
		graphEvery: graphThrottle,
		heartbeat:  30 * time.Second,
		join:       make(chan chan []byte),
		leave:      make(chan chan []byte),
		events:     make(chan Event, 256),
		changes:    make(chan noteChange, 256),
		count:      make(chan chan int),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastGraph time.Time

	send := func(e Event) {
		payload, err := json.Marshal(e.Data)
		if err != nil {
			return
		}
		msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, payload))
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// slow client: drop rather than stall everyone
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case e := <-b.events:
			send(e)

		case c := <-b.changes:
			typ := noteEventType(c.kind)
			if typ == "" {
				continue
			}
			send(Event{Type: typ, Data: noteEvent(c.filename)})
			if now := time.Now(); now.Sub(lastGraph) >= b.graphEvery {
				lastGraph = now
				send(Event{Type: TypeGraphUpdated, Data: struct{}{}})
			}

		case resp := <-b.count:
			resp <- len(clients)
		}
	}
}

func noteEventType(kind string) string {
	switch kind {
	case "created":
		return TypeNoteCreated
	case "updated":
		return TypeNoteUpdated
	case "deleted":
		return TypeNoteDeleted
	}
	return ""
}

func noteEvent(filename string) NoteEvent {
	id, title, err := parser.ParseFilename(filename)
	if err != nil {
		return NoteEvent{Filename: filename}
	}
	return NoteEvent{ID: id, Title: title, Filename: filename}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- e:
	case <-b.stopped:
	}
}

// PublishNoteEvent announces a change to a note file. Its signature matches
// index.EventCallback so it can be handed straight to the watcher.
func (b *Broker) PublishNoteEvent(kind, filename string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changes <- noteChange{kind: kind, filename: filename}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
