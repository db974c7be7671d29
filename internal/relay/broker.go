package relay

import (
	"sync"
	"sync/atomic"
)

const (
	subscriberBufSize = 256
	historySize       = 128
)

// Event is one SSE message. Kind becomes the SSE event name and Seq its id.
type Event struct {
	Seq     int64
	Kind    string
	Payload string
}

// Broker fans out activity events to SSE clients and keeps the most recent
// ones so reconnecting clients can catch up.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	history     []Event
	nextID      atomic.Int64
	seq         int64
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Event),
		history:     make([]Event, 0, historySize),
	}
}

// Subscribe registers a client and returns the retained events newer than
// since. Subscribing and taking the backlog happen under one lock, so no
// event is both missed and not replayed. Slow consumers have live events
// dropped.
func (b *Broker) Subscribe(since int64) (int64, []Event, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = ch
	var backlog []Event
	for _, evt := range b.history {
		if evt.Seq > since {
			backlog = append(backlog, evt)
		}
	}
	return id, backlog, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish stamps kind/payload with the next sequence number and sends it to
// every subscriber without blocking.
func (b *Broker) Publish(kind, payload string) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	evt := Event{Seq: b.seq, Kind: kind, Payload: payload}
	if len(b.history) == historySize {
		copy(b.history, b.history[1:])
		b.history = b.history[:historySize-1]
	}
	b.history = append(b.history, evt)

	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
	return evt
}

func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Published returns the sequence number of the last event.
func (b *Broker) Published() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}
