package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/prism/internal/engine/input"
)

// EventType classifies the events the application reacts to.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
}

// Bindings maps each action to the keys that hold it.
var Bindings = map[input.Action][]sdl.Scancode{
	input.MoveForward: {sdl.SCANCODE_W},
	input.MoveBack:    {sdl.SCANCODE_S},
	input.MoveLeft:    {sdl.SCANCODE_A},
	input.MoveRight:   {sdl.SCANCODE_D},
	input.MoveUp:      {sdl.SCANCODE_SPACE, sdl.SCANCODE_E},
	input.MoveDown:    {sdl.SCANCODE_X, sdl.SCANCODE_Q},
	input.Fast:        {sdl.SCANCODE_LSHIFT, sdl.SCANCODE_RSHIFT},
	input.Slow:        {sdl.SCANCODE_LCTRL, sdl.SCANCODE_RCTRL},
}

// Input polls SDL events and tracks held keys and mouse-look drags.
// Holding the left mouse button turns the camera.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool

	looking        bool
	lookDX, lookDY float32
}

var _ input.Source = (*Input)(nil)

// NewInput returns an input poller for the SDL event queue.
func NewInput() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events. It returns true when the window should close.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.lookDX, i.lookDY = 0, 0

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			code := e.Keysym.Scancode
			switch e.Type {
			case sdl.KEYDOWN:
				if e.Repeat == 0 {
					i.events = append(i.events, Event{Type: EventKeyDown, Key: code})
				}
				i.held[code] = true
			case sdl.KEYUP:
				i.events = append(i.events, Event{Type: EventKeyUp, Key: code})
				delete(i.held, code)
			}

		case *sdl.MouseMotionEvent:
			if i.looking {
				i.lookDX += float32(e.XRel)
				i.lookDY += float32(e.YRel)
			}
			i.events = append(i.events, Event{
				Type:   EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
			})

		case *sdl.MouseButtonEvent:
			ev := Event{MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}
			switch e.Type {
			case sdl.MOUSEBUTTONDOWN:
				ev.Type = EventMouseDown
				if e.Button == sdl.BUTTON_LEFT {
					i.looking = true
				}
			case sdl.MOUSEBUTTONUP:
				ev.Type = EventMouseUp
				if e.Button == sdl.BUTTON_LEFT {
					i.looking = false
				}
			}
			i.events = append(i.events, ev)
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed reports whether the key went down during the last Update.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// Held reports whether any key bound to a is down.
func (i *Input) Held(a input.Action) bool {
	for _, code := range Bindings[a] {
		if i.held[code] {
			return true
		}
	}
	return false
}

func (i *Input) LookDelta() (dx, dy float32) {
	return i.lookDX, i.lookDY
}
