package toast

import "github.com/sirupsen/logrus"

// Event is a user-visible toast emitted alongside a persisted notification.
type Event struct {
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	Severity string `json:"severity"`
}

// Sink receives toast events. The hosting application decides how to render them.
type Sink interface {
	Publish(event Event)
}

// Bus is a buffered in-process Sink. When the buffer is full the event is
// dropped rather than blocking the dispatcher.
type Bus struct {
	events chan Event
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{events: make(chan Event, buffer)}
}

func (b *Bus) Publish(event Event) {
	select {
	case b.events <- event:
	default:
		logrus.WithField("title", event.Title).Warn("Toast buffer full, dropping event")
	}
}

// Events exposes the stream for the UI/telemetry consumer.
func (b *Bus) Events() <-chan Event {
	return b.events
}
