package sse

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Dashboard event types.
const (
	EventConnected          = "connected"
	EventTransactionUpdated = "transaction_updated"
	EventRuleSaved          = "rule_saved"
	EventRuleDeleted        = "rule_deleted"
	EventMembersRefreshed   = "members_refreshed"
)

// Event represents an SSE event sent to connected clients.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broadcaster fans out events to all connected SSE clients.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[uint64]chan Event
	nextID   atomic.Uint64
	onChange func(clients int)
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[uint64]chan Event),
	}
}

// OnClientsChanged registers fn to be told the client count whenever a
// client joins or leaves. Call it before serving.
func (b *Broadcaster) OnClientsChanged(fn func(clients int)) {
	b.onChange = fn
}

// Subscribe registers a new client and returns a channel to receive events
// and a function to unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.clients[id] = ch
	n := len(b.clients)
	b.mu.Unlock()
	b.notify(n)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.clients[id]; ok {
				delete(b.clients, id)
				close(ch)
			}
			n := len(b.clients)
			b.mu.Unlock()
			b.notify(n)
		})
	}

	return ch, unsub
}

// Publish sends an event to all connected clients.
// Non-blocking: if a client's buffer is full, the event is dropped for that client.
func (b *Broadcaster) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// Emit publishes an event of the given type.
func (b *Broadcaster) Emit(eventType string, data any) {
	b.Publish(Event{Type: eventType, Data: data})
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close closes all client channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
	b.mu.Unlock()
	b.notify(0)
}

func (b *Broadcaster) notify(n int) {
	if b.onChange != nil {
		b.onChange(n)
	}
}
