package transmitter

import "time"

// EventKind is the lifecycle step a request reached.
type EventKind string

const (
	EventAccepted   EventKind = "accepted"
	EventSuperseded EventKind = "superseded"
	EventRejected   EventKind = "rejected"
	EventCompleted  EventKind = "completed"
	EventFailed     EventKind = "failed"
)

// Event reports what happened to a request.
type Event struct {
	Transmitter string
	Kind        EventKind
	Request     Request
	Err         error
	// Duration is the time spent emitting, for completed and failed events.
	Duration time.Duration
	At       time.Time
}

// Observer is notified of request lifecycle events. OnTransmit is called
// from submitting goroutines and from the worker; it must not block or
// call back into the transmitter. Events for one request arrive in order.
type Observer interface {
	OnTransmit(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnTransmit(e Event) { f(e) }

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) OnTransmit(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.OnTransmit(e)
		}
	}
}
