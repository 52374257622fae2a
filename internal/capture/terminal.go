package capture

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"airkvm/internal/input"
)

// ctrlRightBracket ends a terminal capture, as in telnet.
const ctrlRightBracket = 0x1d

// Terminal captures keystrokes from a TTY in raw mode. A terminal only
// reports characters, so each one is turned into the key presses that
// would type it on a US layout, with Shift or Ctrl around it as needed.
type Terminal struct {
	in     *os.File
	state  *term.State
	chunks chan []byte
	errs   chan error
	queue  queue
	done   bool
}

// NewTerminal switches f into raw mode and starts reading from it. Close
// restores the previous mode.
func NewTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", f.Name())
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t := &Terminal{
		in:     f,
		state:  state,
		chunks: make(chan []byte),
		errs:   make(chan error, 1),
	}
	go t.readLoop()
	return t, nil
}

func (t *Terminal) readLoop() {
	for {
		buf := make([]byte, 64)
		n, err := t.in.Read(buf)
		if n > 0 {
			t.chunks <- buf[:n]
		}
		if err != nil {
			t.errs <- err
			return
		}
	}
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	return term.Restore(int(t.in.Fd()), t.state)
}

func (t *Terminal) Next(ctx context.Context) (input.RawEvent, error) {
	for {
		if ev, ok := t.queue.pop(); ok {
			return ev, nil
		}
		if t.done {
			return input.RawEvent{}, io.EOF
		}
		select {
		case chunk := <-t.chunks:
			var events []input.RawEvent
			events, t.done = decodeTerminal(chunk)
			t.queue = append(t.queue, events...)
		case err := <-t.errs:
			t.done = true
			if err != io.EOF {
				return input.RawEvent{}, fmt.Errorf("terminal read: %w", err)
			}
		case <-ctx.Done():
			return input.RawEvent{}, ctx.Err()
		}
	}
}

type stroke struct {
	code  uint32
	shift bool
}

// usLayout maps printable ASCII to the key that types it.
var usLayout = func() map[byte]stroke {
	m := make(map[byte]stroke)
	plain := "1234567890-="
	shifted := "!@#$%^&*()_+"
	for i := range plain {
		m[plain[i]] = stroke{code: uint32(2 + i)}
		m[shifted[i]] = stroke{code: uint32(2 + i), shift: true}
	}
	rows := []struct {
		start   uint32
		plain   string
		shifted string
	}{
		{16, "qwertyuiop[]", "QWERTYUIOP{}"},
		{30, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
		{43, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
	}
	for _, r := range rows {
		for i := range r.plain {
			m[r.plain[i]] = stroke{code: r.start + uint32(i)}
			m[r.shifted[i]] = stroke{code: r.start + uint32(i), shift: true}
		}
	}
	m[' '] = stroke{code: input.KeySpace}
	m['\t'] = stroke{code: input.KeyTab}
	m['\r'] = stroke{code: input.KeyEnter}
	m['\n'] = stroke{code: input.KeyEnter}
	m[0x7f] = stroke{code: input.KeyBackspace}
	m[0x08] = stroke{code: input.KeyBackspace}
	return m
}()

// csiKeys maps the final bytes of ESC [ sequences to keys.
var csiKeys = map[string]uint32{
	"A":  input.KeyUp,
	"B":  input.KeyDown,
	"C":  input.KeyRight,
	"D":  input.KeyLeft,
	"H":  input.KeyHome,
	"F":  input.KeyEnd,
	"1~": input.KeyHome,
	"2~": input.KeyInsert,
	"3~": input.KeyDelete,
	"4~": input.KeyEnd,
	"5~": input.KeyPageUp,
	"6~": input.KeyPageDown,
}

// decodeTerminal turns one chunk of raw terminal input into key events. It
// reports eof when the chunk contains Ctrl-]; input after it is ignored.
func decodeTerminal(chunk []byte) (events []input.RawEvent, eof bool) {
	tap := func(code uint32, mod uint32) {
		if mod != 0 {
			events = append(events, input.KeyEvent(mod, true))
		}
		events = append(events, input.KeyEvent(code, true), input.KeyEvent(code, false))
		if mod != 0 {
			events = append(events, input.KeyEvent(mod, false))
		}
	}

	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		switch {
		case b == ctrlRightBracket:
			return events, true

		case b == 0x1b:
			if i+2 < len(chunk) && (chunk[i+1] == '[' || chunk[i+1] == 'O') {
				j := i + 2
				for j < len(chunk) && (chunk[j] >= '0' && chunk[j] <= '9' || chunk[j] == ';') {
					j++
				}
				if j < len(chunk) {
					if code, ok := csiKeys[string(chunk[i+2:j+1])]; ok {
						tap(code, 0)
						i = j
						continue
					}
					if code, ok := csiKeys[string(chunk[j])]; ok {
						tap(code, 0)
						i = j
						continue
					}
				}
			}
			tap(input.KeyEsc, 0)

		default:
			if s, ok := usLayout[b]; ok {
				var mod uint32
				if s.shift {
					mod = input.KeyLeftShift
				}
				tap(s.code, mod)
				continue
			}
			if b >= 0x01 && b <= 0x1a {
				// Ctrl-A through Ctrl-Z, minus the ones claimed above.
				tap(usLayout['a'+b-1].code, input.KeyLeftCtrl)
			}
		}
	}
	return events, false
}
