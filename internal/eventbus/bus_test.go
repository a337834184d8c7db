package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublish_DeliversToSubscribers(t *testing.T) {
	b := NewWithConfig(2, 10)
	defer b.Close(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	got := make(chan string, 2)
	handler := func(e Event) {
		defer wg.Done()
		got <- e.Data["path"].(string)
	}
	b.Subscribe(EventTypeWebhook, handler)
	b.Subscribe(EventTypeWebhook, handler)
	b.Subscribe(EventTypeTransmit, func(Event) { t.Error("transmit handler must not run") })

	b.Publish(Event{Type: EventTypeWebhook, Data: map[string]interface{}{"path": "/hooks/door"}})
	wg.Wait()

	for i := 0; i < 2; i++ {
		if p := <-got; p != "/hooks/door" {
			t.Errorf("path = %q", p)
		}
	}
}

func TestPublish_HandlerPanicDoesNotKillWorker(t *testing.T) {
	b := NewWithConfig(1, 10)
	defer b.Close(context.Background())

	done := make(chan struct{})
	calls := 0
	b.Subscribe(EventTypeWebhook, func(e Event) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		close(done)
	})

	b.Publish(Event{Type: EventTypeWebhook})
	b.Publish(Event{Type: EventTypeWebhook})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second event was not handled after panic")
	}
}

func TestPublish_FullQueueDrops(t *testing.T) {
	b := NewWithConfig(1, 1)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	b.Subscribe(EventTypeWebhook, func(Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	b.Publish(Event{Type: EventTypeWebhook}) // taken by the worker
	<-started
	b.Publish(Event{Type: EventTypeWebhook}) // queued
	b.Publish(Event{Type: EventTypeWebhook}) // dropped, must not block

	close(release)
	b.Close(context.Background())
}

func TestClose_PublishAfterCloseIsDropped(t *testing.T) {
	b := New()
	b.Subscribe(EventTypeWebhook, func(Event) { t.Error("handler ran after close") })
	b.Close(context.Background())
	b.Close(context.Background())

	b.Publish(Event{Type: EventTypeWebhook})
}
