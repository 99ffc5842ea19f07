// Package widget implements the interactive control-point widget.
//
// A Widget binds a surface.Source and an interactor.Interactor. While on,
// it shows one handle per control point and a convex hull guide around
// them, and runs a three-state machine over pointer events:
//
//	Idle ──move over handle──▶ Hovering(k) ──button down──▶ Dragging(k)
//	  ▲                            │                            │
//	  └────────move off handle─────┘◀──────── button up ────────┘
//
// Button down over a handle while Idle starts a drag directly. Only the
// button-up that ends a drag writes to the control grid; every other
// transition is visual. Off discards an uncommitted drag.
//
// Drags are constrained to the plane through the handle's committed world
// position facing the ray that started the drag. Handles are shown in
// world space and committed through the inverse of the source transform.
package widget

import (
	"errors"
	"fmt"

	"github.com/chazu/sculpt/pkg/hull"
	"github.com/chazu/sculpt/pkg/interactor"
	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultHandleSize is the pick radius and glyph radius of a handle.
const DefaultHandleSize = 0.05

var (
	// ErrNoControlGridBound is returned by SetSource for a source without a grid.
	ErrNoControlGridBound = errors.New("no control grid bound")
	// ErrNotBound is returned by On and Off before both an interactor and a
	// source are set.
	ErrNotBound = errors.New("widget not bound")
	// ErrInvalidHandleSize is returned for handle sizes <= 0.
	ErrInvalidHandleSize = errors.New("invalid handle size")
	// ErrSourceChanged rejects a commit whose grid or transform was
	// replaced while the drag was in progress.
	ErrSourceChanged = errors.New("source changed during drag")
)

// StateKind enumerates interaction states.
type StateKind int

const (
	Idle StateKind = iota
	Hovering
	Dragging
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Hovering:
		return "hovering"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// Anchor is captured when a drag starts.
type Anchor struct {
	Ray   interactor.Ray
	Start v3.Vec // handle world position at drag start
}

// State is the current interaction state. Handle is -1 when Idle; Anchor
// is only meaningful while Dragging.
type State struct {
	Kind   StateKind
	Handle int
	Anchor Anchor
}

// Notification is sent to listeners as a drag progresses.
type Notification int

const (
	StartInteraction Notification = iota
	Interaction
	EndInteraction
	Cancelled
)

func (n Notification) String() string {
	switch n {
	case StartInteraction:
		return "start-interaction"
	case Interaction:
		return "interaction"
	case EndInteraction:
		return "end-interaction"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Notification(%d)", int(n))
}

// Listener is called synchronously for each notification.
type Listener func(n Notification, w *Widget)

// Widget is the interactive control-point widget.
type Widget struct {
	interactor interactor.Interactor
	source     *surface.Source
	handleSize float64
	enabled    bool

	handles []Handle
	bound   binding
	hull    *hull.Hull
	state   State

	listeners []Listener
	lastErr   error
}

var _ interactor.Observer = (*Widget)(nil)

// New returns an unbound, disabled widget.
func New() *Widget {
	return &Widget{
		handleSize: DefaultHandleSize,
		state:      State{Kind: Idle, Handle: -1},
	}
}

// SetInteractor binds the event source. If the widget is on, observation
// moves to the new source.
func (w *Widget) SetInteractor(i interactor.Interactor) {
	if w.enabled && w.interactor != nil {
		w.interactor.RemoveObserver(w)
	}
	w.interactor = i
	if w.enabled {
		if i == nil {
			w.disable()
			return
		}
		i.AddObserver(w)
	}
}

// Interactor returns the bound event source.
func (w *Widget) Interactor() interactor.Interactor {
	return w.interactor
}

// SetSource binds the evaluator and rebuilds the handles from its grid.
// An in-progress drag is discarded.
func (w *Widget) SetSource(s *surface.Source) error {
	if s == nil || s.ControlGrid() == nil {
		return fmt.Errorf("widget: set source: %w", ErrNoControlGridBound)
	}
	if w.state.Kind == Dragging {
		w.cancelDrag()
	}
	w.source = s
	w.handles = nil
	w.bound = binding{}
	w.sync()
	logging.For("widget").Info("source bound", "handles", len(w.handles))
	return nil
}

// Source returns the bound evaluator.
func (w *Widget) Source() *surface.Source {
	return w.source
}

// SetHandleSize sets the radius of every handle.
func (w *Widget) SetHandleSize(size float64) error {
	if !(size > 0) {
		return fmt.Errorf("widget: handle size %g: %w", size, ErrInvalidHandleSize)
	}
	w.handleSize = size
	return nil
}

// HandleSize returns the handle radius.
func (w *Widget) HandleSize() float64 {
	return w.handleSize
}

// On starts observing events and shows the handles and guide.
func (w *Widget) On() error {
	if w.interactor == nil || w.source == nil {
		return fmt.Errorf("widget: on: %w", ErrNotBound)
	}
	if w.enabled {
		return nil
	}
	w.sync()
	w.interactor.AddObserver(w)
	w.enabled = true
	logging.For("widget").Info("on")
	return nil
}

// Off stops observing events, hides the widget and returns to Idle,
// discarding any uncommitted drag.
func (w *Widget) Off() error {
	if w.interactor == nil || w.source == nil {
		return fmt.Errorf("widget: off: %w", ErrNotBound)
	}
	if !w.enabled {
		return nil
	}
	w.disable()
	logging.For("widget").Info("off")
	return nil
}

func (w *Widget) disable() {
	if w.state.Kind == Dragging {
		w.cancelDrag()
	}
	w.state = State{Kind: Idle, Handle: -1}
	if w.interactor != nil {
		w.interactor.RemoveObserver(w)
	}
	w.enabled = false
}

// Enabled reports whether the widget is on. Handles and guide are visible
// exactly when it is.
func (w *Widget) Enabled() bool {
	return w.enabled
}

// State returns the current interaction state.
func (w *Widget) State() State {
	return w.state
}

// Handles returns a copy of the handle set in row-major (i, j) order.
func (w *Widget) Handles() []Handle {
	w.sync()
	return append([]Handle(nil), w.handles...)
}

// Hull returns the current convex hull guide, or nil before a source is
// bound.
func (w *Widget) Hull() *hull.Hull {
	w.sync()
	return w.hull
}

// Err returns the error of the most recent failed commit, if any.
func (w *Widget) Err() error {
	return w.lastErr
}

// AddListener registers fn for drag notifications.
func (w *Widget) AddListener(fn Listener) {
	w.listeners = append(w.listeners, fn)
}

func (w *Widget) notify(n Notification) {
	for _, fn := range w.listeners {
		fn(n, w)
	}
}

// HandleEvent implements interactor.Observer. Events that start, continue
// or end a drag are consumed.
func (w *Widget) HandleEvent(ev interactor.Event) bool {
	if !w.enabled || w.source == nil {
		return false
	}
	w.sync()

	switch w.state.Kind {
	case Idle, Hovering:
		k := w.pick(ev.Ray)
		switch ev.Type {
		case interactor.Move:
			if k < 0 {
				w.state = State{Kind: Idle, Handle: -1}
			} else {
				w.state = State{Kind: Hovering, Handle: k}
			}
			return false
		case interactor.ButtonDown:
			if ev.Button != interactor.ButtonLeft || k < 0 {
				return false
			}
			w.startDrag(k, ev.Ray)
			return true
		}
		return false

	case Dragging:
		switch ev.Type {
		case interactor.Move:
			w.drag(ev.Ray)
		case interactor.ButtonUp:
			if ev.Button == interactor.ButtonLeft {
				w.commit()
			}
		}
		return true
	}
	return false
}

func (w *Widget) startDrag(k int, r interactor.Ray) {
	w.state = State{
		Kind:   Dragging,
		Handle: k,
		Anchor: Anchor{Ray: r, Start: w.handles[k].Position},
	}
	logging.For("widget").Debug("drag start", "i", w.handles[k].I, "j", w.handles[k].J)
	w.notify(StartInteraction)
}

func (w *Widget) drag(r interactor.Ray) {
	k := w.state.Handle
	p, ok := dragPoint(w.state.Anchor.Ray, w.handles[k].Committed, r)
	if !ok {
		return
	}
	w.handles[k].Position = p
	w.updateHull()
	w.notify(Interaction)
}

// commit writes the dragged handle back to the grid and re-evaluates.
// A handle that never moved writes back the value already stored.
func (w *Widget) commit() {
	k := w.state.Handle
	h := w.handles[k]
	log := logging.For("widget")

	if w.source.ControlGrid() != w.bound.grid || w.source.Transform() != w.bound.transform {
		w.reject(ErrSourceChanged)
		return
	}
	var local v3.Vec
	if h.Position == h.Committed {
		p, err := w.source.ControlPoint(h.I, h.J)
		if err != nil {
			w.reject(err)
			return
		}
		local = p
	} else {
		local = w.source.ToLocal(h.Position)
	}
	if err := w.source.SetControlPoint(h.I, h.J, local); err != nil {
		w.reject(err)
		return
	}
	w.lastErr = nil
	w.state = State{Kind: Idle, Handle: -1}
	if err := w.source.Update(); err != nil {
		log.Warn("update after commit failed", "err", err)
	}
	w.sync()
	log.Info("commit", "i", h.I, "j", h.J, "point", local)
	w.notify(EndInteraction)
}

func (w *Widget) reject(err error) {
	logging.For("widget").Warn("commit rejected", "err", err)
	w.lastErr = err
	w.cancelDrag()
}

// cancelDrag restores the dragged handle and returns to Idle.
func (w *Widget) cancelDrag() {
	k := w.state.Handle
	if k >= 0 && k < len(w.handles) {
		w.handles[k].Position = w.handles[k].Committed
	}
	w.state = State{Kind: Idle, Handle: -1}
	w.updateHull()
	w.notify(Cancelled)
}
