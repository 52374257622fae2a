package input

import (
	"fmt"
	"math"

	"airkvm/internal/protocol"
)

// Normalizer converts RawEvents into AppEvents while tracking whether the
// pointer is inside the capture surface.
//
// Compositors deliver a motion event at the same coordinates right after
// every enter. Forwarding it would make the first relative move after a
// SetMouse a duplicate, so a motion is dropped when the event recorded just
// before it is that enter. Buttons, scrolls and keys are recorded too, so
// any of them between the enter and the motion lets the motion through.
//
// A Normalizer is not safe for concurrent use; it belongs to the capture loop.
type Normalizer struct {
	focus bool
	last  AppEvent
}

// NewNormalizer returns a Normalizer with the pointer outside the surface.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Focused reports whether the pointer is currently inside the surface.
func (n *Normalizer) Focused() bool { return n.focus }

// Last returns the most recently recorded event. Dropped events are not
// recorded.
func (n *Normalizer) Last() AppEvent { return n.last }

// Handle normalizes ev. A None result means the event was dropped. Unknown
// button codes and axes return an error wrapping ErrUnmappedInput together
// with a None event; the caller logs and carries on.
func (n *Normalizer) Handle(ev RawEvent) (AppEvent, error) {
	switch ev.Kind {
	case RawPointerEnter:
		n.focus = true
		n.last = AppEvent{Kind: EventMouseEnter, X: truncate(ev.X), Y: truncate(ev.Y)}
		return n.last, nil

	case RawPointerLeave:
		n.focus = false
		n.last = AppEvent{Kind: EventMouseLeave}
		return n.last, nil

	case RawPointerMotion:
		if n.last.Kind == EventMouseEnter {
			n.last = AppEvent{}
			return AppEvent{}, nil
		}
		n.last = AppEvent{Kind: EventMouseMove, X: truncate(ev.X), Y: truncate(ev.Y)}
		return n.last, nil

	case RawPointerButton:
		button, ok := protocol.ButtonFromLinuxCode(ev.Code)
		if !ok {
			return AppEvent{}, fmt.Errorf("%w: button code %d", ErrUnmappedInput, ev.Code)
		}
		kind := EventMouseButtonReleased
		if ev.Pressed {
			kind = EventMouseButtonPressed
		}
		n.last = AppEvent{Kind: kind, Button: button}
		return n.last, nil

	case RawPointerAxis:
		value := truncate(ev.Value)
		var kind EventKind
		switch ev.Axis {
		case AxisVertical:
			kind = EventScrollVertical
		case AxisHorizontal:
			kind = EventScrollHorizontal
		default:
			return AppEvent{}, fmt.Errorf("%w: axis %d", ErrUnmappedInput, ev.Axis)
		}
		if value == 0 {
			return AppEvent{}, nil
		}
		n.last = AppEvent{Kind: kind, Value: value}
		return n.last, nil

	case RawKey:
		kind := EventKeyReleased
		if ev.Pressed {
			kind = EventKeyPressed
		}
		n.last = AppEvent{Kind: kind, Code: ev.Code}
		return n.last, nil

	default:
		return AppEvent{}, fmt.Errorf("%w: raw event kind %s", ErrUnmappedInput, ev.Kind)
	}
}

// truncate converts a surface coordinate to int32, rounding toward zero and
// saturating at the int32 range.
func truncate(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}
