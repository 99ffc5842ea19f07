package interactor

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

type recorder struct {
	name    string
	consume bool
	log     *[]string
}

func (r *recorder) HandleEvent(ev Event) bool {
	*r.log = append(*r.log, r.name+":"+ev.Type.String())
	return r.consume
}

func TestDispatchOrderAndConsume(t *testing.T) {
	var log []string
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", consume: true, log: &log}
	c := &recorder{name: "c", log: &log}

	d := NewDispatcher()
	d.AddObserver(a)
	d.AddObserver(b)
	d.AddObserver(c)
	d.AddObserver(a)
	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}

	if !d.Dispatch(Event{Type: ButtonDown}) {
		t.Error("Dispatch() = false, want consumed")
	}
	want := []string{"a:button-down", "b:button-down"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for k := range want {
		if log[k] != want[k] {
			t.Errorf("log[%d] = %q, want %q", k, log[k], want[k])
		}
	}

	d.RemoveObserver(b)
	log = nil
	if d.Dispatch(Event{Type: Move}) {
		t.Error("Dispatch() = true with no consuming observer")
	}
	if len(log) != 2 || log[1] != "c:move" {
		t.Errorf("log after remove = %v", log)
	}
}

type oneShot struct {
	d     *Dispatcher
	calls int
}

func (o *oneShot) HandleEvent(Event) bool {
	o.calls++
	o.d.RemoveObserver(o)
	return false
}

func TestRemoveDuringDispatch(t *testing.T) {
	var log []string
	d := NewDispatcher()
	once := &oneShot{d: d}
	after := &recorder{name: "after", log: &log}
	d.AddObserver(once)
	d.AddObserver(after)

	d.Dispatch(Event{Type: Move})
	d.Dispatch(Event{Type: Move})

	if once.calls != 1 {
		t.Errorf("self-removing observer called %d times, want 1", once.calls)
	}
	if len(log) != 2 {
		t.Errorf("later observer saw %d events, want 2", len(log))
	}
}

func TestRayAt(t *testing.T) {
	r := Ray{Origin: v3.Vec{X: 1}, Direction: v3.Vec{Y: 2}}
	if got := r.At(1.5); got != (v3.Vec{X: 1, Y: 3}) {
		t.Errorf("At(1.5) = %v", got)
	}
}
