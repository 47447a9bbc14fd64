package memorybus

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish("entity.inserted", []byte(`{"oid":"x"}`))
	select {
	case evt := <-ch:
		if evt.Topic != "entity.inserted" || string(evt.Payload) != `{"oid":"x"}` {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish("t", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
}

func TestBus_Close(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	b.Close()

	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	cancel()
	b.Publish("t", nil)

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribe after close should return a closed channel")
	}
}
