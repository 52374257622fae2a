//go:build !linux

package capture

import (
	"context"
	"errors"

	"airkvm/internal/input"
)

// Evdev is only available on Linux.
type Evdev struct{}

func OpenEvdev(paths []string, grab bool, bounds input.Size) (*Evdev, error) {
	return nil, errors.New("evdev capture not supported on this platform")
}

func (e *Evdev) Next(ctx context.Context) (input.RawEvent, error) {
	return input.RawEvent{}, errors.New("evdev capture not supported on this platform")
}

func (e *Evdev) Close() error { return nil }
