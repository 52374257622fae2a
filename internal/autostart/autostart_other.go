//go:build !windows

package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// itemPath returns the LaunchAgent plist on macOS and the XDG autostart
// entry elsewhere.
func itemPath() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "LaunchAgents", "com.airkvm.server.plist"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "autostart", Label+".desktop"), nil
}

func enable(command []string) error {
	path, err := itemPath()
	if err != nil {
		return err
	}

	render := renderDesktop
	if runtime.GOOS == "darwin" {
		render = renderPlist
	}
	data, err := render(command)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func disable() error {
	path, err := itemPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func isEnabled() bool {
	path, err := itemPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
