package sse

import (
	"strings"
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.PublishNoteEvent(TypeNoteSynced, "2026-W05")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: note.synced\n") {
			t.Errorf("msg = %q", s)
		}
		if !strings.Contains(s, `"week":"2026-W05"`) {
			t.Errorf("msg = %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestClientCount(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	b := NewBroker()
	b.Close()
	b.Publish(Event{Type: TypeScanStarted, Data: map[string]string{}})
	if n := b.ClientCount(); n != 0 {
		t.Errorf("count = %d", n)
	}
}
