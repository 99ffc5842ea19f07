// Package interactor carries pointer events from a device event loop to
// the objects observing it.
//
// The event loop owns a Dispatcher and feeds it one Event at a time;
// observers run synchronously on the caller's goroutine.
package interactor

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EventType distinguishes pointer events.
type EventType int

const (
	Move EventType = iota
	ButtonDown
	ButtonUp
)

func (t EventType) String() string {
	switch t {
	case Move:
		return "move"
	case ButtonDown:
		return "button-down"
	case ButtonUp:
		return "button-up"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Ray is a half-line from Origin along Direction. Direction need not be
// unit length.
type Ray struct {
	Origin    v3.Vec
	Direction v3.Vec
}

// At returns Origin + t·Direction.
func (r Ray) At(t float64) v3.Vec {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// Event is one pointer event with its world-space picking ray and the
// screen position it came from.
type Event struct {
	Type   EventType
	Button Button
	Ray    Ray
	X, Y   float64
}

// Observer receives events. Returning true consumes the event so that
// later observers do not see it. Observers are compared with ==, so
// implementations should be pointer types.
type Observer interface {
	HandleEvent(ev Event) bool
}

// Interactor is an event source that observers can subscribe to.
type Interactor interface {
	AddObserver(o Observer)
	RemoveObserver(o Observer)
}

// Dispatcher is an Interactor that delivers events in subscription order.
type Dispatcher struct {
	observers []Observer
}

var _ Interactor = (*Dispatcher)(nil)

// NewDispatcher returns a Dispatcher with no observers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AddObserver subscribes o. Adding the same observer twice has no effect.
func (d *Dispatcher) AddObserver(o Observer) {
	for _, x := range d.observers {
		if x == o {
			return
		}
	}
	d.observers = append(d.observers, o)
}

// RemoveObserver unsubscribes o if present.
func (d *Dispatcher) RemoveObserver(o Observer) {
	for k, x := range d.observers {
		if x == o {
			d.observers = append(d.observers[:k:k], d.observers[k+1:]...)
			return
		}
	}
}

// Len returns the number of subscribed observers.
func (d *Dispatcher) Len() int {
	return len(d.observers)
}

// Dispatch delivers ev and reports whether an observer consumed it.
// Observers may subscribe or unsubscribe during delivery; the change takes
// effect from the next event.
func (d *Dispatcher) Dispatch(ev Event) bool {
	observers := append([]Observer(nil), d.observers...)
	for _, o := range observers {
		if o.HandleEvent(ev) {
			return true
		}
	}
	return false
}
