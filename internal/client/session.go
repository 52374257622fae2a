// Package client runs the capturing side of a connection: it normalizes
// local input, maps it to commands, and applies the server's answers.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"airkvm/internal/capture"
	"airkvm/internal/clipboard"
	"airkvm/internal/hotkey"
	"airkvm/internal/input"
	"airkvm/internal/protocol"
)

// Transport is the message channel to the server. *network.Conn
// implements it.
type Transport interface {
	Send(msg []byte) error
	Run(ctx context.Context, handle func([]byte) error) error
	Close()
}

// Options configures a Session.
type Options struct {
	// Scaler maps capture coordinates to the server's display. Nil means
	// input.Identity.
	Scaler input.Scaler
	// ToggleHotkey pauses and resumes forwarding, e.g. "Ctrl+Alt+F12".
	// Empty disables it.
	ToggleHotkey string
	// ClipboardDedupe skips pushing a clipboard the server already has.
	ClipboardDedupe bool
	Logger          *slog.Logger
}

// Session forwards one capture source over one connection.
//
// The capture loop owns the normalizer, the position and the pause state;
// HandleRaw must not be called concurrently with itself. Answers arrive on
// the transport's read goroutine and only touch the clipboard bridge.
type Session struct {
	conn    Transport
	bridge  *clipboard.Bridge
	hotkeys *hotkey.Manager
	scaler  input.Scaler
	logger  *slog.Logger

	norm *input.Normalizer
	pos  input.Point

	paused    bool
	toggled   bool
	held      map[uint32]bool
	swallowed map[uint32]bool
}

// NewSession creates a session over conn using cb as the local clipboard.
func NewSession(conn Transport, cb clipboard.Clipboard, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scaler := opts.Scaler
	if scaler == nil {
		scaler = input.Identity
	}
	s := &Session{
		conn:      conn,
		bridge:    clipboard.NewBridge(cb, opts.ClipboardDedupe, logger),
		hotkeys:   hotkey.NewManager(logger),
		scaler:    scaler,
		logger:    logger.With("component", "client"),
		norm:      input.NewNormalizer(),
		held:      make(map[uint32]bool),
		swallowed: make(map[uint32]bool),
	}
	if _, err := s.hotkeys.Register(opts.ToggleHotkey, func() { s.toggled = true }); err != nil {
		return nil, fmt.Errorf("toggle hotkey: %w", err)
	}
	return s, nil
}

// Position returns the last position sent to the server.
func (s *Session) Position() input.Point { return s.pos }

// Paused reports whether forwarding is suspended by the toggle hotkey.
func (s *Session) Paused() bool { return s.paused }

// Run forwards events from src until it is exhausted, ctx is done, or the
// connection ends. Exhausting src closes the connection cleanly.
func (s *Session) Run(ctx context.Context, src capture.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	connDone := make(chan error, 1)
	go func() {
		connDone <- s.conn.Run(ctx, s.handleMessage)
		cancel()
	}()

	captureErr := s.capture(ctx, src)
	s.conn.Close()
	connErr := <-connDone
	s.bridge.Close()

	switch {
	case connErr != nil:
		return connErr
	case captureErr != nil && !errors.Is(captureErr, context.Canceled):
		return captureErr
	default:
		return nil
	}
}

func (s *Session) capture(ctx context.Context, src capture.Source) error {
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.logger.Info("capture source exhausted")
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.HandleRaw(ev); err != nil {
			return err
		}
	}
}

// HandleRaw processes one raw event. Unmapped input is logged and dropped;
// an error means the command could not be sent.
func (s *Session) HandleRaw(raw input.RawEvent) error {
	raw = input.ScaleEvent(s.scaler, raw)
	ev, err := s.norm.Handle(raw)
	if err != nil {
		s.logger.Debug("dropping event", "kind", raw.Kind.String(), "error", err)
		return nil
	}

	switch ev.Kind {
	case input.EventKeyPressed, input.EventKeyReleased:
		return s.handleKey(ev)
	case input.EventNone:
		return nil
	case input.EventMouseLeave:
		// Key releases after leaving the surface are not delivered.
		s.hotkeys.Reset()
	}
	if s.paused {
		return nil
	}
	return s.forward(ev)
}

func (s *Session) handleKey(ev input.AppEvent) error {
	pressed := ev.Kind == input.EventKeyPressed
	if name := input.KeyName(ev.Code); name != "" {
		s.toggled = false
		if s.hotkeys.UpdateState(name, pressed) && s.toggled {
			s.swallowed[ev.Code] = true
			return s.toggle()
		}
	}
	if !pressed && s.swallowed[ev.Code] {
		delete(s.swallowed, ev.Code)
		return nil
	}
	if s.paused {
		return nil
	}
	if pressed {
		s.held[ev.Code] = true
	} else {
		delete(s.held, ev.Code)
	}
	return s.forward(ev)
}

// toggle pauses by releasing every held key and leaving, and resumes by
// re-entering at the last position.
func (s *Session) toggle() error {
	if s.paused {
		s.paused = false
		s.logger.Info("forwarding resumed")
		return s.forward(input.AppEvent{Kind: input.EventMouseEnter, X: s.pos.X, Y: s.pos.Y})
	}
	for code := range s.held {
		if err := s.send(protocol.KeyReleased{Code: code}); err != nil {
			return err
		}
	}
	clear(s.held)
	s.paused = true
	s.logger.Info("forwarding paused")
	return s.forward(input.AppEvent{Kind: input.EventMouseLeave})
}

func (s *Session) forward(ev input.AppEvent) error {
	cmd, pos := input.MapEvent(ev, s.norm.Focused() || ev.Kind == input.EventMouseEnter, s.pos)
	s.pos = pos
	if ev.Kind == input.EventMouseEnter {
		s.bridge.Push(s.send)
	}
	if cmd == nil {
		return nil
	}
	return s.send(cmd)
}

// TypeText asks the server to type text verbatim.
func (s *Session) TypeText(text string) error {
	return s.send(protocol.InputText{Text: text})
}

// send encodes and queues one command. The transport keeps the order of
// calls made from one goroutine; clipboard pushes may interleave.
func (s *Session) send(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return s.conn.Send(data)
}

func (s *Session) handleMessage(data []byte) error {
	answer, err := protocol.DecodeAnswer(data)
	if err != nil {
		return err
	}
	switch a := answer.(type) {
	case protocol.ClipboardContents:
		s.logger.Debug("received clipboard", "length", len(a.Text))
		s.bridge.Apply(a.Text)
	}
	return nil
}
