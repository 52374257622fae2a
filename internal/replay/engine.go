// Package replay applies decoded commands to the local desktop: it smooths
// relative motion, tracks held modifiers, and answers copy keystrokes with
// the resulting clipboard contents.
package replay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"airkvm/internal/clipboard"
	"airkvm/internal/input"
	"airkvm/internal/protocol"
)

// ErrInjection reports a command the injector failed to apply. Only that
// command is lost; replay continues with the next one.
var ErrInjection = errors.New("replay: injection failed")

// maxSmoothPoints bounds the injector calls spent on one relative move.
// Longer moves jump straight to the target.
const maxSmoothPoints = 4096

// DefaultCopyReadbackDelay is how long the engine waits after a copy
// keystroke before reading the clipboard.
const DefaultCopyReadbackDelay = 100 * time.Millisecond

// DefaultCopyKeys are KEY_C and KEY_COPY.
var DefaultCopyKeys = []uint32{input.KeyC, input.KeyCopy}

// navigationKeys maps cursor-movement codes to the injector's key names.
var navigationKeys = map[uint32]string{
	input.KeyUp:       "up",
	input.KeyDown:     "down",
	input.KeyLeft:     "left",
	input.KeyRight:    "right",
	input.KeyHome:     "home",
	input.KeyEnd:      "end",
	input.KeyPageUp:   "pageup",
	input.KeyPageDown: "pagedown",
}

// Options configures an Engine.
type Options struct {
	// MoveType is the step used for MoveMouse. SetMouse is always Immediate.
	MoveType MoveType
	// CopyKeys are the key codes that, pressed with Control held, trigger a
	// clipboard read-back. Nil selects DefaultCopyKeys.
	CopyKeys          []uint32
	CopyReadbackDelay time.Duration
	Logger            *slog.Logger
}

// Engine replays the commands of one connection. Apply must be called from a
// single goroutine; clipboard work runs in the background and replies
// through the function given to NewEngine.
type Engine struct {
	inj    input.Injector
	bridge *clipboard.Bridge
	reply  func(protocol.Answer) error
	logger *slog.Logger

	moveType  MoveType
	copyKeys  map[uint32]bool
	copyDelay time.Duration

	pos  input.Point
	mods input.Modifier
}

// NewEngine creates an engine with the cursor assumed at (0,0) and no
// modifiers held.
func NewEngine(inj input.Injector, cb clipboard.Clipboard, reply func(protocol.Answer) error, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := opts.CopyKeys
	if keys == nil {
		keys = DefaultCopyKeys
	}
	copyKeys := make(map[uint32]bool, len(keys))
	for _, k := range keys {
		copyKeys[k] = true
	}
	return &Engine{
		inj:       inj,
		bridge:    clipboard.NewBridge(cb, false, logger),
		reply:     reply,
		logger:    logger.With("component", "replay"),
		moveType:  opts.MoveType,
		copyKeys:  copyKeys,
		copyDelay: opts.CopyReadbackDelay,
	}
}

// Position returns the logical cursor position.
func (e *Engine) Position() input.Point { return e.pos }

// Modifiers returns the modifiers currently held.
func (e *Engine) Modifiers() input.Modifier { return e.mods }

// Apply replays one command. An error wraps ErrInjection or
// input.ErrUnmappedInput and affects only cmd.
func (e *Engine) Apply(cmd protocol.Command) error {
	var err error
	switch c := cmd.(type) {
	case protocol.SetMouse:
		err = e.moveTo(input.Point{X: c.X, Y: c.Y}, Immediate)
	case protocol.MoveMouse:
		err = e.moveTo(offset(e.pos, c.DX, c.DY), e.moveType)
	case protocol.MouseButtonPressed:
		err = e.inj.ClickButton(c.Button, true, e.mods)
	case protocol.MouseButtonReleased:
		err = e.inj.ClickButton(c.Button, false, e.mods)
	case protocol.MouseScroll:
		if c.Value == 0 {
			return nil
		}
		err = e.inj.ScrollAxis(c.Axis, signum(c.Value))
	case protocol.KeyPressed:
		err = e.keyPressed(c.Code)
	case protocol.KeyReleased:
		err = e.keyReleased(c.Code)
	case protocol.InputText:
		err = e.inj.TypeText(c.Text)
	case protocol.SetClipboard:
		e.bridge.Apply(c.Text)
	default:
		return fmt.Errorf("%w: unsupported command %T", ErrInjection, cmd)
	}
	if err != nil {
		if errors.Is(err, input.ErrUnmappedInput) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrInjection, cmd.Kind(), err)
	}
	return nil
}

// Close abandons pending clipboard read-backs and waits for clipboard
// writes to finish.
func (e *Engine) Close() {
	e.bridge.Close()
}

// moveTo walks the cursor to target. The logical position becomes target
// even when injection fails, so it keeps mirroring the client.
func (e *Engine) moveTo(target input.Point, step MoveType) error {
	from := e.pos
	e.pos = target
	// Past maxSmoothPoints the configured step is ignored and the cursor
	// jumps straight to target, with no intermediate positions.
	if pathLen(from, target, step) > maxSmoothPoints {
		step = Immediate
	}
	for _, p := range SmoothMove(from, target, step) {
		if err := e.inj.MoveCursorAbsolute(p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) keyPressed(code uint32) error {
	if bit, ok := input.ModifierForKey(code); ok {
		e.mods.Set(bit)
		return nil
	}
	if err := e.inj.PressKey(e.key(code), e.mods); err != nil {
		return err
	}
	if e.mods.IsControl() && e.copyKeys[code] {
		e.logger.Debug("copy detected, reading clipboard back", "code", code, "delay", e.copyDelay)
		e.bridge.ReadBack(e.copyDelay, e.reply)
	}
	return nil
}

func (e *Engine) keyReleased(code uint32) error {
	if bit, ok := input.ModifierForKey(code); ok {
		e.mods.Remove(bit)
		return nil
	}
	return e.inj.ReleaseKey(e.key(code), e.mods)
}

func (e *Engine) key(code uint32) input.Key {
	return input.Key{Code: code, Name: navigationKeys[code]}
}

// offset adds (dx, dy) to p, saturating at the int32 range.
func offset(p input.Point, dx, dy int32) input.Point {
	return input.Point{X: clamp(int64(p.X) + int64(dx)), Y: clamp(int64(p.Y) + int64(dy))}
}

func clamp(v int64) int32 {
	return int32(min(max(v, math.MinInt32), math.MaxInt32))
}

func signum(v int32) int {
	if v < 0 {
		return -1
	}
	return 1
}
