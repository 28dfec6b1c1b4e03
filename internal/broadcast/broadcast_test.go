package broadcast

import (
	"testing"
	"time"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesAllSubscribersIncludingSender(t *testing.T) {
	bus := NewBus("inbox", nil)
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer a.Close()
	defer b.Close()

	sent := a.Publish(MessagesUpdated, "")

	got := recvOne(t, a.Events())
	if got != sent {
		t.Errorf("sender received %+v, want its own event back", got)
	}
	got = recvOne(t, b.Events())
	if got.Type != MessagesUpdated {
		t.Errorf("peer received %+v", got)
	}
}

func TestIsEchoMatchesOnlyOwnLastSend(t *testing.T) {
	bus := NewBus("inbox", nil)
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer a.Close()
	defer b.Close()

	sent := a.Publish(AccountSwitched, "u@x.test")
	if !a.IsEcho(sent) {
		t.Error("sender must recognize its own event")
	}
	if b.IsEcho(sent) {
		t.Error("peer wrongly claimed the event as its own")
	}

	// An event with a different stamp is not an echo even for the sender.
	if a.IsEcho(Event{Type: AccountSwitched, Timestamp: sent.Timestamp + 1}) {
		t.Error("different timestamp treated as echo")
	}
}

func TestIsEchoBeforeAnySend(t *testing.T) {
	bus := NewBus("inbox", nil)
	s := bus.Subscribe()
	defer s.Close()

	if s.IsEcho(Event{Type: DarkModeToggled, Timestamp: 0}) {
		t.Error("zero-timestamp event matched a subscriber that never sent")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus("inbox", nil)
	slow := bus.Subscribe()
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			bus.Publish(MessagesUpdated, "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber queue")
	}

	if n := len(slow.ch); n != subscriberBuffer {
		t.Errorf("queued = %d, want the buffer size %d", n, subscriberBuffer)
	}
}

func TestCloseDetachesAndIsIdempotent(t *testing.T) {
	bus := NewBus("inbox", nil)
	s := bus.Subscribe()
	s.Close()
	s.Close()

	bus.Publish(MessagesUpdated, "")

	if _, open := <-s.Events(); open {
		t.Error("channel still open after Close")
	}
}
