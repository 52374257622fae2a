//go:build cgo

package input

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"airkvm/internal/protocol"
)

// SystemInjector drives the local desktop through robotgo.
type SystemInjector struct{}

// NewSystemInjector creates a new robotgo-backed injector
func NewSystemInjector() *SystemInjector {
	return &SystemInjector{}
}

func (i *SystemInjector) MoveCursorAbsolute(x, y int32) error {
	robotgo.Move(int(x), int(y))
	return nil
}

// PressKey holds the modifiers only around the key-down transition, so a
// modifier released before the key is never left stuck down.
func (i *SystemInjector) PressKey(key Key, mods Modifier) error {
	name, ok := key.Resolve()
	if !ok {
		return fmt.Errorf("%w: key code %d", ErrUnmappedInput, key.Code)
	}
	withModifiers(mods, func() { robotgo.KeyToggle(name, "down") })
	return nil
}

// withModifiers runs down with the keys for mods held, releasing them in
// reverse order afterwards.
func withModifiers(mods Modifier, down func()) {
	held := heldNames(mods)
	for _, m := range held {
		robotgo.KeyToggle(m, "down")
	}
	down()
	for j := len(held) - 1; j >= 0; j-- {
		robotgo.KeyToggle(held[j], "up")
	}
}

func (i *SystemInjector) ReleaseKey(key Key, _ Modifier) error {
	name, ok := key.Resolve()
	if !ok {
		return fmt.Errorf("%w: key code %d", ErrUnmappedInput, key.Code)
	}
	robotgo.KeyToggle(name, "up")
	return nil
}

// ClickButton holds mods around the press only, like PressKey.
func (i *SystemInjector) ClickButton(button protocol.Button, pressed bool, mods Modifier) error {
	name, ok := buttonName(button)
	if !ok {
		return fmt.Errorf("%w: button %s", ErrUnmappedInput, button)
	}
	if pressed {
		withModifiers(mods, func() { robotgo.Toggle(name, "down") })
	} else {
		robotgo.Toggle(name, "up")
	}
	return nil
}

// ScrollAxis follows the Wayland sign convention: positive scrolls down or
// right.
func (i *SystemInjector) ScrollAxis(axis protocol.ScrollAxis, signum int) error {
	switch axis {
	case protocol.ScrollVertical:
		robotgo.Scroll(0, -signum)
	case protocol.ScrollHorizontal:
		robotgo.Scroll(signum, 0)
	default:
		return fmt.Errorf("%w: axis %s", ErrUnmappedInput, axis)
	}
	return nil
}

func (i *SystemInjector) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}
