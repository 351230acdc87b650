package bus

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPublishFansOut(t *testing.T) {
	b := New()

	var first, second atomic.Int64
	b.Subscribe(TopicCalendarUpdated, func(Notification) { first.Add(1) })
	b.Subscribe(TopicCalendarUpdated, func(Notification) { second.Add(1) })

	b.Publish(TopicCalendarUpdated, nil)

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("both subscribers must receive the notification, got %d and %d", first.Load(), second.Load())
	}
}

func TestPublishCarriesPayloadAndTopic(t *testing.T) {
	b := New()

	var got Notification
	b.Subscribe(TopicAppointmentCreated, func(n Notification) { got = n })

	b.Publish(TopicAppointmentCreated, "payload")

	if got.Topic != TopicAppointmentCreated {
		t.Errorf("expected topic %q, got %q", TopicAppointmentCreated, got.Topic)
	}
	if got.Payload != "payload" {
		t.Errorf("expected payload carried through, got %v", got.Payload)
	}
	if got.At.IsZero() {
		t.Error("notification must be timestamped")
	}
}

func TestPublishIsTopicScoped(t *testing.T) {
	b := New()

	var calls atomic.Int64
	b.Subscribe(TopicAppointmentDeleted, func(Notification) { calls.Add(1) })

	b.Publish(TopicAppointmentCreated, nil)
	b.Publish(TopicAppointmentUpdated, nil)

	if calls.Load() != 0 {
		t.Errorf("handler must only see its own topic, got %d calls", calls.Load())
	}
}

func TestPublishBeforeSubscribeIsLost(t *testing.T) {
	b := New()

	b.Publish(TopicCalendarUpdated, nil)

	var calls atomic.Int64
	b.Subscribe(TopicCalendarUpdated, func(Notification) { calls.Add(1) })

	if calls.Load() != 0 {
		t.Errorf("late subscriber must not replay earlier notifications, got %d", calls.Load())
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	b := New()
	// Must not panic.
	b.Publish("nobody.listens", 42)
}

func TestSubscriberCount(t *testing.T) {
	b := New()

	if got := b.SubscriberCount(TopicCalendarUpdated); got != 0 {
		t.Fatalf("fresh bus must report 0 subscribers, got %d", got)
	}

	b.Subscribe(TopicCalendarUpdated, func(Notification) {})
	b.Subscribe(TopicCalendarUpdated, func(Notification) {})

	if got := b.SubscriberCount(TopicCalendarUpdated); got != 2 {
		t.Errorf("expected 2 subscribers, got %d", got)
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	b := New()

	var calls atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Subscribe(TopicCalendarUpdated, func(Notification) { calls.Add(1) })
		}()
		go func() {
			defer wg.Done()
			b.Publish(TopicCalendarUpdated, nil)
		}()
	}
	wg.Wait()

	// Every handler registered by the end sees at least the publishes that
	// happened after its registration; exact counts depend on interleaving.
	if got := b.SubscriberCount(TopicCalendarUpdated); got != 10 {
		t.Errorf("expected 10 subscribers registered, got %d", got)
	}
}
