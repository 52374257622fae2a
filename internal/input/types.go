// Package input turns raw pointer and keyboard activity into protocol
// commands on the capturing side and describes the injector that replays
// them on the receiving side.
package input

import (
	"fmt"

	"airkvm/internal/protocol"
)

// RawKind identifies the variant of a RawEvent.
type RawKind uint8

const (
	RawPointerEnter RawKind = iota + 1
	RawPointerLeave
	RawPointerMotion
	RawPointerButton
	RawPointerAxis
	RawKey
)

func (k RawKind) String() string {
	switch k {
	case RawPointerEnter:
		return "PointerEnter"
	case RawPointerLeave:
		return "PointerLeave"
	case RawPointerMotion:
		return "PointerMotion"
	case RawPointerButton:
		return "PointerButton"
	case RawPointerAxis:
		return "PointerAxis"
	case RawKey:
		return "Key"
	default:
		return fmt.Sprintf("RawKind(%d)", uint8(k))
	}
}

// Raw axis identifiers, numbered like wl_pointer.axis.
const (
	AxisVertical   uint32 = 0
	AxisHorizontal uint32 = 1
)

// RawEvent is one pointer or keyboard event as delivered by a capture
// source. Only the fields relevant to Kind are meaningful.
type RawEvent struct {
	Kind    RawKind
	X, Y    float64 // PointerEnter, PointerMotion
	Code    uint32  // PointerButton, Key
	Pressed bool    // PointerButton, Key
	Axis    uint32  // PointerAxis
	Value   float64 // PointerAxis
}

func PointerEnter(x, y float64) RawEvent {
	return RawEvent{Kind: RawPointerEnter, X: x, Y: y}
}

func PointerLeave() RawEvent {
	return RawEvent{Kind: RawPointerLeave}
}

func PointerMotion(x, y float64) RawEvent {
	return RawEvent{Kind: RawPointerMotion, X: x, Y: y}
}

func PointerButton(code uint32, pressed bool) RawEvent {
	return RawEvent{Kind: RawPointerButton, Code: code, Pressed: pressed}
}

func PointerAxis(axis uint32, value float64) RawEvent {
	return RawEvent{Kind: RawPointerAxis, Axis: axis, Value: value}
}

func KeyEvent(code uint32, pressed bool) RawEvent {
	return RawEvent{Kind: RawKey, Code: code, Pressed: pressed}
}

// EventKind identifies the variant of an AppEvent.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventMouseMove
	EventMouseEnter
	EventMouseLeave
	EventMouseButtonPressed
	EventMouseButtonReleased
	EventScrollHorizontal
	EventScrollVertical
	EventKeyPressed
	EventKeyReleased
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "None"
	case EventMouseMove:
		return "MouseMove"
	case EventMouseEnter:
		return "MouseEnter"
	case EventMouseLeave:
		return "MouseLeave"
	case EventMouseButtonPressed:
		return "MouseButtonPressed"
	case EventMouseButtonReleased:
		return "MouseButtonReleased"
	case EventScrollHorizontal:
		return "ScrollHorizontal"
	case EventScrollVertical:
		return "ScrollVertical"
	case EventKeyPressed:
		return "KeyPressed"
	case EventKeyReleased:
		return "KeyReleased"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// AppEvent is the canonical, device-independent form of a RawEvent.
// The zero value is the None event.
type AppEvent struct {
	Kind   EventKind
	X, Y   int32           // MouseMove, MouseEnter
	Button protocol.Button // MouseButtonPressed, MouseButtonReleased
	Value  int32           // ScrollHorizontal, ScrollVertical
	Code   uint32          // KeyPressed, KeyReleased
}

// IsNone reports whether ev carries nothing to forward.
func (ev AppEvent) IsNone() bool { return ev.Kind == EventNone }

// Point is an absolute cursor position.
type Point struct {
	X, Y int32
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
