// Package bus is a small in-process publish/subscribe bus. Components that
// need to react to calendar changes register handlers explicitly instead of
// listening on ambient global signals, so the listener set is enumerable
// and testable.
package bus

import (
	"sync"
	"time"
)

// Topics published by the calendar service.
const (
	TopicAppointmentCreated = "appointment.created"
	TopicAppointmentUpdated = "appointment.updated"
	TopicAppointmentDeleted = "appointment.deleted"

	// TopicCalendarUpdated carries no payload; it only signals that the
	// event list may be stale and a refresh should be scheduled.
	TopicCalendarUpdated = "calendar.updated"
)

// Notification is delivered to every handler subscribed to its topic.
// Delivery is at-least-once and unordered across subscribers.
type Notification struct {
	Topic   string
	Payload any
	At      time.Time
}

type Handler func(Notification)

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic. Handlers registered after a
// Publish do not receive that notification.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers the notification synchronously to all current
// subscribers of the topic. Handlers must not block for long.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[topic]))
	copy(hs, b.handlers[topic])
	b.mu.RUnlock()

	n := Notification{Topic: topic, Payload: payload, At: time.Now()}
	for _, h := range hs {
		h(n)
	}
}

// SubscriberCount reports how many handlers are registered for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}
