package main

import (
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/chazu/sculpt/pkg/app"
	"github.com/chazu/sculpt/pkg/interactor"
)

// EventHandlers translates GLFW callbacks into session input.
type EventHandlers struct {
	session *app.App
	script  string

	// Current cursor position in window coordinates.
	mouseX, mouseY float64

	// dirty asks the main loop to refresh the title now.
	dirty bool
}

// NewEventHandlers creates the handlers and installs the callbacks.
func NewEventHandlers(session *app.App, window *glfw.Window, script string) *EventHandlers {
	eh := &EventHandlers{session: session, script: script}
	eh.SetupCallbacks(window)
	return eh
}

// SetupCallbacks configures all GLFW event callbacks.
func (eh *EventHandlers) SetupCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(wnd *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		eh.handleKey(wnd, key, action, mods)
	})
	window.SetMouseButtonCallback(func(wnd *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		eh.handleMouseButton(button, action)
	})
	window.SetCursorPosCallback(func(wnd *glfw.Window, xpos, ypos float64) {
		eh.mouseX, eh.mouseY = xpos, ypos
		eh.session.MouseMove(xpos, ypos)
	})
	window.SetScrollCallback(func(wnd *glfw.Window, _, dy float64) {
		eh.session.Scroll(dy)
	})
	window.SetSizeCallback(func(wnd *glfw.Window, w, h int) {
		eh.session.Resize(w, h)
	})
}

func (eh *EventHandlers) handleMouseButton(button glfw.MouseButton, action glfw.Action) {
	var b interactor.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = interactor.ButtonLeft
	case glfw.MouseButtonRight:
		b = interactor.ButtonRight
	case glfw.MouseButtonMiddle:
		b = interactor.ButtonMiddle
	default:
		return
	}
	eh.session.MouseButton(b, action == glfw.Press, eh.mouseX, eh.mouseY)
	eh.dirty = true
}

func (eh *EventHandlers) handleKey(window *glfw.Window, key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	var err error
	switch key {
	case glfw.KeyEscape:
		window.SetShouldClose(true)
	case glfw.KeyW:
		if action == glfw.Press {
			err = eh.session.ToggleWidget()
		}
	case glfw.KeyF:
		if action == glfw.Press {
			eh.session.ToggleWireframe()
		}
	case glfw.KeyR:
		if action == glfw.Press {
			err = eh.session.ResetBounds()
		}
	case glfw.KeyL:
		if action == glfw.Press && eh.script != "" {
			loadScript(eh.session, eh.script)
		}
	case glfw.KeyEqual, glfw.KeyKPAdd:
		err = eh.session.AdjustResolution(1)
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		err = eh.session.AdjustResolution(-1)
	}
	if err != nil {
		log.Printf("Key %v failed: %v", key, err)
	}
	eh.dirty = true
}
