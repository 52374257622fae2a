package input

import (
	"log/slog"

	"airkvm/internal/protocol"
)

// LogInjector records every injection at debug level instead of touching the
// desktop. It backs the server's --dry-run mode.
type LogInjector struct {
	logger *slog.Logger
}

func NewLogInjector(logger *slog.Logger) *LogInjector {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogInjector{logger: logger.With("component", "injector", "dry_run", true)}
}

func (i *LogInjector) MoveCursorAbsolute(x, y int32) error {
	i.logger.Debug("move cursor", "x", x, "y", y)
	return nil
}

func (i *LogInjector) PressKey(key Key, mods Modifier) error {
	name, _ := key.Resolve()
	i.logger.Info("key down", "code", key.Code, "name", name, "modifiers", mods.String())
	return nil
}

func (i *LogInjector) ReleaseKey(key Key, mods Modifier) error {
	name, _ := key.Resolve()
	i.logger.Info("key up", "code", key.Code, "name", name, "modifiers", mods.String())
	return nil
}

func (i *LogInjector) ClickButton(button protocol.Button, pressed bool, mods Modifier) error {
	i.logger.Info("mouse button", "button", button.String(), "pressed", pressed, "modifiers", mods.String())
	return nil
}

func (i *LogInjector) ScrollAxis(axis protocol.ScrollAxis, signum int) error {
	i.logger.Info("scroll", "axis", axis.String(), "signum", signum)
	return nil
}

func (i *LogInjector) TypeText(text string) error {
	i.logger.Info("type text", "length", len(text))
	return nil
}
