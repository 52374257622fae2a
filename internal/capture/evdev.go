package capture

import (
	"encoding/binary"

	"airkvm/internal/input"
)

// Linux input event constants (linux/input-event-codes.h).
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	btnMin = 0x110 // BTN_LEFT
	btnMax = 0x117 // BTN_TASK

	// inputEventSize is sizeof(struct input_event) on 64-bit Linux: a
	// 16-byte timeval followed by type, code and value.
	inputEventSize = 24

	// wheelStep is the axis value of one wheel notch, as compositors report it.
	wheelStep = 10
)

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func decodeInputEvent(b []byte) inputEvent {
	return inputEvent{
		Type:  binary.NativeEndian.Uint16(b[16:18]),
		Code:  binary.NativeEndian.Uint16(b[18:20]),
		Value: int32(binary.NativeEndian.Uint32(b[20:24])),
	}
}

// pointerState turns relative evdev motion into absolute positions on a
// virtual surface of the given size.
type pointerState struct {
	bounds  input.Size
	x, y    float64
	moved   bool
	entered bool
}

func newPointerState(bounds input.Size) *pointerState {
	return &pointerState{
		bounds: bounds,
		x:      float64(bounds.Width / 2),
		y:      float64(bounds.Height / 2),
	}
}

// apply consumes one event and returns the raw events it completes. Motion
// is coalesced until the next EV_SYN.
func (p *pointerState) apply(ev inputEvent) []input.RawEvent {
	var out []input.RawEvent
	if !p.entered {
		p.entered = true
		out = append(out, input.PointerEnter(p.x, p.y))
	}

	switch ev.Type {
	case evSyn:
		if p.moved {
			p.moved = false
			out = append(out, input.PointerMotion(p.x, p.y))
		}
	case evKey:
		// Value 2 is autorepeat; the receiving side repeats on its own.
		if ev.Value == 2 {
			break
		}
		pressed := ev.Value == 1
		if ev.Code >= btnMin && ev.Code <= btnMax {
			out = append(out, input.PointerButton(uint32(ev.Code), pressed))
		} else {
			out = append(out, input.KeyEvent(uint32(ev.Code), pressed))
		}
	case evRel:
		switch ev.Code {
		case relX:
			p.x = clampAxis(p.x+float64(ev.Value), p.bounds.Width)
			p.moved = true
		case relY:
			p.y = clampAxis(p.y+float64(ev.Value), p.bounds.Height)
			p.moved = true
		case relWheel:
			// Evdev counts up as positive; surface axes count down.
			out = append(out, input.PointerAxis(input.AxisVertical, float64(-ev.Value*wheelStep)))
		case relHWheel:
			out = append(out, input.PointerAxis(input.AxisHorizontal, float64(ev.Value*wheelStep)))
		}
	}
	return out
}

func clampAxis(v float64, size int) float64 {
	if size <= 0 {
		return max(v, 0)
	}
	return min(max(v, 0), float64(size-1))
}
