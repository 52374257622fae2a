// Package clipboard reads and writes the local clipboard and moves its
// contents across the connection without blocking input replay.
package clipboard

import (
	"errors"
	"sync"
)

// ErrClipboard reports a clipboard that could not be read or written.
var ErrClipboard = errors.New("clipboard: unavailable")

// Clipboard is the local text clipboard.
type Clipboard interface {
	Text() (string, error)
	SetText(text string) error
}

// Memory is an in-process Clipboard, used by dry runs and tests.
type Memory struct {
	mu   sync.Mutex
	text string
}

func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

func (m *Memory) Text() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) SetText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
