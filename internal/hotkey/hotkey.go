// Package hotkey matches key combinations such as "Ctrl+Alt+F12" against
// the stream of key presses seen by the capture loop.
package hotkey

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Manager handles hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // map of current keys pressed
	logger       *slog.Logger
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "ALT", "F12"]
	original string
	callback func()
}

// aliases folds side-specific and alternative key names onto the names
// used in combo strings.
var aliases = map[string]string{
	"LCTRL":   "CTRL",
	"RCTRL":   "CTRL",
	"CONTROL": "CTRL",
	"LSHIFT":  "SHIFT",
	"RSHIFT":  "SHIFT",
	"LALT":    "ALT",
	"RALT":    "ALT",
	"OPTION":  "ALT",
	"LCMD":    "META",
	"RCMD":    "META",
	"CMD":     "META",
	"SUPER":   "META",
	"ESCAPE":  "ESC",
}

func canonical(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// NewManager creates a new hotkey manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		currentState: make(map[string]bool),
		logger:       logger.With("component", "hotkey"),
	}
}

// Register registers a hotkey string (e.g. "Ctrl+Alt+F12") and a callback.
// An empty string registers nothing.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if hotkeyStr == "" {
		return 0, nil
	}

	parts := strings.Split(hotkeyStr, "+")
	for i, p := range parts {
		parts[i] = canonical(p)
		if parts[i] == "" {
			return 0, fmt.Errorf("invalid hotkey %q: empty key", hotkeyStr)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Reset forgets which keys are down.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.currentState)
}

// UpdateState records a key transition and reports whether it completed a
// hotkey. Matching callbacks run on the caller's goroutine before
// UpdateState returns.
func (m *Manager) UpdateState(key string, isDown bool) bool {
	key = canonical(key)
	if key == "" {
		return false
	}

	m.mu.Lock()
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	m.mu.Unlock()

	if !isDown {
		return false
	}

	matched := m.matches(key)
	for _, hk := range matched {
		m.logger.Info("hotkey triggered", "hotkey", hk.original)
		hk.callback()
	}
	return len(matched) > 0
}

// matches returns the hotkeys that are fully held and include key, so a
// combo fires once when its last key goes down.
func (m *Manager) matches(key string) []*registeredHotkey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*registeredHotkey
	for _, hk := range m.hotkeys {
		match := false
		// All parts of the hotkey must be in currentState
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
			if part == key {
				match = true
			}
		}
		if match {
			matched = append(matched, hk)
		}
	}
	return matched
}
