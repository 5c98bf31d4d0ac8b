package events

import (
	"testing"
)

func TestPublishByType(t *testing.T) {
	b := NewBroker()
	queue := b.Subscribe(QueueChangedEvent)
	all := b.Subscribe()

	b.Publish(Event{Type: QueueChangedEvent, Payload: QueueChangedPayload{Queue: "normal", Action: "admit", Name: "钱五"}})
	b.Publish(Event{Type: DrawCompletedEvent})

	if got := len(queue); got != 1 {
		t.Errorf("typed subscriber got %d events, want 1", got)
	}
	if got := len(all); got != 2 {
		t.Errorf("wildcard subscriber got %d events, want 2", got)
	}

	ev := <-queue
	p, ok := ev.Payload.(QueueChangedPayload)
	if !ok || p.Name != "钱五" {
		t.Errorf("payload = %#v", ev.Payload)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(QueueChangedEvent)

	for i := 0; i < defaultBufferSize+5; i++ {
		b.Publish(Event{Type: QueueChangedEvent})
	}
	if got := len(ch); got != defaultBufferSize {
		t.Errorf("buffered %d events, want %d", got, defaultBufferSize)
	}
}

func TestUnsubscribeMultipleTypes(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(QueueChangedEvent, RosterReloadedEvent)

	b.Unsubscribe(ch)
	b.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("channel still open after Unsubscribe")
	}

	// Must not panic on the removed channel.
	b.Publish(Event{Type: RosterReloadedEvent})
}

func TestClose(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	b.Close()

	if _, open := <-ch; open {
		t.Error("channel open after Close")
	}
	b.Publish(Event{Type: QueueChangedEvent})

	late := b.Subscribe()
	if _, open := <-late; open {
		t.Error("subscription after Close is open")
	}
}
