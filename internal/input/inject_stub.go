//go:build !cgo

package input

import "airkvm/internal/protocol"

// Stub implementation for builds without cgo

// SystemInjector represents a stub input injector
type SystemInjector struct{}

// NewSystemInjector creates a new stub injector
func NewSystemInjector() *SystemInjector {
	return &SystemInjector{}
}

func (i *SystemInjector) MoveCursorAbsolute(x, y int32) error {
	return ErrInjectionUnsupported
}

func (i *SystemInjector) PressKey(key Key, mods Modifier) error {
	return ErrInjectionUnsupported
}

func (i *SystemInjector) ReleaseKey(key Key, mods Modifier) error {
	return ErrInjectionUnsupported
}

func (i *SystemInjector) ClickButton(button protocol.Button, pressed bool, mods Modifier) error {
	return ErrInjectionUnsupported
}

func (i *SystemInjector) ScrollAxis(axis protocol.ScrollAxis, signum int) error {
	return ErrInjectionUnsupported
}

func (i *SystemInjector) TypeText(text string) error {
	return ErrInjectionUnsupported
}
