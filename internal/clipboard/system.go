//go:build cgo

package clipboard

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// System is the desktop clipboard.
type System struct{}

func NewSystem() *System { return &System{} }

func (System) Text() (string, error) {
	text, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: read: %w", ErrClipboard, err)
	}
	return text, nil
}

func (System) SetText(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("%w: write: %w", ErrClipboard, err)
	}
	return nil
}
