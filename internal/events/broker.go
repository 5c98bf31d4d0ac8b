// Package events carries engine notifications to observers.
//
// The engine publishes after each committed change; the dashboard and the
// replay tool subscribe. Delivery is best effort: a subscriber whose buffer
// is full misses the event and is expected to pull a fresh snapshot on the
// next one.
package events

import (
	"sync"
)

// All subscribes to every event type.
const All EventType = "*"

const defaultBufferSize = 16

// Broker manages event distribution
type Broker struct {
	subscribers map[EventType][]chan Event
	// owned tracks every channel once, however many types it listens to.
	owned      map[<-chan Event]chan Event
	mu         sync.RWMutex
	bufferSize int
	closed     bool
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[EventType][]chan Event),
		owned:       make(map[<-chan Event]chan Event),
		bufferSize:  defaultBufferSize,
	}
}

// Subscribe creates a subscription to specific event types. With no types
// it receives everything.
func (b *Broker) Subscribe(eventTypes ...EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}

	if len(eventTypes) == 0 {
		eventTypes = []EventType{All}
	}
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}
	b.owned[ch] = ch

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.owned[sub]
	if !ok {
		return
	}
	for eventType := range b.subscribers {
		b.removeChannel(eventType, ch)
	}
	delete(b.owned, sub)
	close(ch)
}

// Publish sends an event to all subscribers of its type and to wildcard
// subscribers. It never blocks.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			// Channel full, skip this event
		}
	}

	for _, ch := range b.subscribers[All] {
		select {
		case ch <- event:
		default:
		}
	}
}

// removeChannel removes a channel from a specific event type's subscribers
func (b *Broker) removeChannel(eventType EventType, target chan Event) {
	subscribers := b.subscribers[eventType]
	for i, ch := range subscribers {
		if ch == target {
			b.subscribers[eventType] = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}

	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

// Close removes all subscriptions and closes their channels. Later
// publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.owned {
		close(ch)
	}
	b.subscribers = make(map[EventType][]chan Event)
	b.owned = make(map[<-chan Event]chan Event)
	b.closed = true
}
