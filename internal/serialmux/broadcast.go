package serialmux

import (
	"sync"

	"github.com/google/uuid"
)

// Broadcaster fans device-to-host lines out to observers (HTTP tail, MQTT
// mirror). It implements protocol.Sender so it can sit alongside the
// serial writer in a MultiSender.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]chan string
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]chan string)}
}

// Subscribe registers an observer channel, buffered one line deep.
func (b *Broadcaster) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes an observer channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Send implements protocol.Sender. Slow observers miss lines rather than
// stalling the control cycle.
func (b *Broadcaster) Send(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close closes every observer channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
