package input

import "airkvm/internal/protocol"

// MapEvent translates a normalized event into the Command sent to the
// server. last is the position most recently sent; the returned Point is the
// position after the Command is applied. A nil Command means nothing is sent.
//
// Motion is sent relative to last so that the server can smooth it. Enter is
// sent absolute and re-synchronizes both sides.
func MapEvent(ev AppEvent, focused bool, last Point) (protocol.Command, Point) {
	switch ev.Kind {
	case EventMouseMove:
		if !focused {
			return nil, last
		}
		dx, dy := ev.X-last.X, ev.Y-last.Y
		pos := Point{X: ev.X, Y: ev.Y}
		if dx == 0 && dy == 0 {
			return nil, pos
		}
		return protocol.MoveMouse{DX: dx, DY: dy}, pos

	case EventMouseEnter:
		return protocol.SetMouse{X: ev.X, Y: ev.Y}, Point{X: ev.X, Y: ev.Y}

	case EventMouseButtonPressed:
		return protocol.MouseButtonPressed{Button: ev.Button}, last

	case EventMouseButtonReleased:
		return protocol.MouseButtonReleased{Button: ev.Button}, last

	case EventScrollHorizontal:
		return protocol.MouseScroll{Axis: protocol.ScrollHorizontal, Value: ev.Value}, last

	case EventScrollVertical:
		return protocol.MouseScroll{Axis: protocol.ScrollVertical, Value: ev.Value}, last

	case EventKeyPressed:
		return protocol.KeyPressed{Code: ev.Code}, last

	case EventKeyReleased:
		return protocol.KeyReleased{Code: ev.Code}, last

	default: // None, MouseLeave
		return nil, last
	}
}
