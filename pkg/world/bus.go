package world

import "sync"

// BusEvent is one line of text shown in a room.
type BusEvent struct {
	Room Ref
	Text string
}

// Bus fans room text out to observers such as the scrollback recorder.
// Delivery is best effort: a subscriber that stops draining loses events
// rather than stalling the game.
type Bus struct {
	mu     sync.Mutex
	subs   map[chan BusEvent]struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[chan BusEvent]struct{}{}}
}

// Subscribe registers a new observer channel.
func (b *Bus) Subscribe() chan BusEvent {
	ch := make(chan BusEvent, 256)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes an observer channel.
func (b *Bus) Unsubscribe(ch chan BusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Publish delivers an event to every subscriber that has room for it.
func (b *Bus) Publish(room Ref, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- BusEvent{Room: room, Text: text}:
		default:
		}
	}
}

// Close closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan BusEvent]struct{}{}
}
