package input

import (
	"errors"

	"airkvm/internal/protocol"
)

// ErrInjectionUnsupported is returned by the system injector in builds
// without cgo.
var ErrInjectionUnsupported = errors.New("input injection not supported on this platform")

// Injector synthesizes input on the local machine. Implementations are not
// required to be safe for concurrent use; the replay engine calls them from
// a single goroutine per connection.
type Injector interface {
	// MoveCursorAbsolute places the cursor at (x, y) in screen coordinates.
	MoveCursorAbsolute(x, y int32) error
	// PressKey presses key with the modifiers in mods held.
	PressKey(key Key, mods Modifier) error
	ReleaseKey(key Key, mods Modifier) error
	// ClickButton presses or releases button. A press holds the modifiers
	// in mods, so Ctrl-click and Shift-click reach the application.
	ClickButton(button protocol.Button, pressed bool, mods Modifier) error
	// ScrollAxis scrolls one notch; signum is -1 or 1.
	ScrollAxis(axis protocol.ScrollAxis, signum int) error
	TypeText(text string) error
}

// heldNames returns the names of the keys to hold for mods, in a fixed order.
func heldNames(mods Modifier) []string {
	var names []string
	if mods.Contains(ModShift) || mods.Contains(ModCapsShift) {
		names = append(names, "shift")
	}
	if mods.Contains(ModLShift) {
		names = append(names, "lshift")
	}
	if mods.Contains(ModRShift) {
		names = append(names, "rshift")
	}
	if mods.Contains(ModControl) {
		names = append(names, "ctrl")
	}
	if mods.Contains(ModLControl) {
		names = append(names, "lctrl")
	}
	if mods.Contains(ModRControl) {
		names = append(names, "rctrl")
	}
	if mods.Contains(ModAlt) {
		names = append(names, "lalt")
	}
	if mods.Contains(ModAltGr) {
		names = append(names, "ralt")
	}
	return names
}

// buttonName returns the name of b understood by robotgo.
func buttonName(b protocol.Button) (string, bool) {
	switch b {
	case protocol.ButtonLeft:
		return "left", true
	case protocol.ButtonRight:
		return "right", true
	case protocol.ButtonMiddle:
		return "center", true
	default:
		return "", false
	}
}
