//go:build !cgo

package clipboard

import "fmt"

// System is the desktop clipboard. This build has no clipboard access.
type System struct{}

func NewSystem() *System { return &System{} }

func (System) Text() (string, error) {
	return "", fmt.Errorf("%w: not supported in this build", ErrClipboard)
}

func (System) SetText(string) error {
	return fmt.Errorf("%w: not supported in this build", ErrClipboard)
}
