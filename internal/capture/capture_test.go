package capture

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airkvm/internal/input"
)

func drain(t *testing.T, src Source) []input.RawEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []input.RawEvent
	for {
		ev, err := src.Next(ctx)
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestParseScript(t *testing.T) {
	steps, err := ParseScript([]byte(`
- event: enter
  x: 100
  y: 50
- event: motion
  x: 110
  y: 50
  delay: 5ms
- event: key
  key: lctrl
- event: tap
  code: 111
- event: key
  key: LCTRL
  pressed: false
- event: click
  button: right
- event: scroll
  axis: horizontal
  value: -15
- event: leave
`))
	require.NoError(t, err)

	var events []input.RawEvent
	for _, s := range steps {
		events = append(events, s.Event)
	}
	assert.Equal(t, []input.RawEvent{
		input.PointerEnter(100, 50),
		input.PointerMotion(110, 50),
		input.KeyEvent(input.KeyLeftCtrl, true),
		input.KeyEvent(input.KeyDelete, true),
		input.KeyEvent(input.KeyDelete, false),
		input.KeyEvent(input.KeyLeftCtrl, false),
		input.PointerButton(0x111, true),
		input.PointerButton(0x111, false),
		input.PointerAxis(input.AxisHorizontal, -15),
		input.PointerLeave(),
	}, events)
	assert.Equal(t, 5*time.Millisecond, steps[1].Delay)
	assert.Zero(t, steps[0].Delay)
}

func TestParseScriptErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"not a list":     "event: enter",
		"unknown event":  "- event: jump",
		"unknown key":    "- event: tap\n  key: hyper",
		"missing key":    "- event: key",
		"unknown button": "- event: click\n  button: sixth",
		"unknown axis":   "- event: scroll\n  axis: diagonal",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestScriptSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- event: enter\n  x: 1\n  y: 2\n- event: leave\n  delay: 1ms\n"), 0o644))

	src, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, []input.RawEvent{input.PointerEnter(1, 2), input.PointerLeave()}, drain(t, src))
}

func TestScriptHonorsContext(t *testing.T) {
	src := NewScript([]Step{{Event: input.PointerLeave(), Delay: time.Hour}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannelSource(t *testing.T) {
	ch := make(chan input.RawEvent, 2)
	ch <- input.KeyEvent(30, true)
	ch <- input.KeyEvent(30, false)
	close(ch)

	assert.Equal(t, []input.RawEvent{input.KeyEvent(30, true), input.KeyEvent(30, false)}, drain(t, Channel(ch)))
}

func TestDecodeTerminal(t *testing.T) {
	events, eof := decodeTerminal([]byte("aB\x03"))
	assert.False(t, eof)
	assert.Equal(t, []input.RawEvent{
		input.KeyEvent(30, true), input.KeyEvent(30, false),
		input.KeyEvent(input.KeyLeftShift, true),
		input.KeyEvent(48, true), input.KeyEvent(48, false),
		input.KeyEvent(input.KeyLeftShift, false),
		input.KeyEvent(input.KeyLeftCtrl, true),
		input.KeyEvent(input.KeyC, true), input.KeyEvent(input.KeyC, false),
		input.KeyEvent(input.KeyLeftCtrl, false),
	}, events)
}

func TestDecodeTerminalEscapeSequences(t *testing.T) {
	tests := map[string]uint32{
		"\x1b[A":    input.KeyUp,
		"\x1bOB":    input.KeyDown,
		"\x1b[3~":   input.KeyDelete,
		"\x1b[6~":   input.KeyPageDown,
		"\x1b[1;5C": input.KeyRight,
		"\x1b":      input.KeyEsc,
		"\r":        input.KeyEnter,
		"\x7f":      input.KeyBackspace,
	}
	for seq, code := range tests {
		events, _ := decodeTerminal([]byte(seq))
		assert.Equal(t, []input.RawEvent{input.KeyEvent(code, true), input.KeyEvent(code, false)}, events, "%q", seq)
	}
}

func TestDecodeTerminalStopsAtCtrlBracket(t *testing.T) {
	events, eof := decodeTerminal([]byte("q\x1dzzz"))
	assert.True(t, eof)
	assert.Len(t, events, 2)
}

func rawInputEvent(typ, code uint16, value int32) []byte {
	b := make([]byte, inputEventSize)
	binary.NativeEndian.PutUint16(b[16:], typ)
	binary.NativeEndian.PutUint16(b[18:], code)
	binary.NativeEndian.PutUint32(b[20:], uint32(value))
	return b
}

func TestDecodeInputEvent(t *testing.T) {
	ev := decodeInputEvent(rawInputEvent(evRel, relY, -3))
	assert.Equal(t, inputEvent{Type: evRel, Code: relY, Value: -3}, ev)
}

func TestPointerState(t *testing.T) {
	p := newPointerState(input.Size{Width: 100, Height: 80})

	var out []input.RawEvent
	for _, ev := range []inputEvent{
		{evRel, relX, 5},
		{evRel, relY, -100},
		{evSyn, 0, 0},
		{evKey, btnMin, 1},
		{evKey, uint16(input.KeyC), 1},
		{evKey, uint16(input.KeyC), 2},
		{evKey, uint16(input.KeyC), 0},
		{evRel, relWheel, 1},
		{evRel, relHWheel, -1},
		{evRel, relX, 1000},
		{evSyn, 0, 0},
		{evSyn, 0, 0},
	} {
		out = append(out, p.apply(ev)...)
	}

	assert.Equal(t, []input.RawEvent{
		input.PointerEnter(50, 40),
		input.PointerMotion(55, 0),
		input.PointerButton(0x110, true),
		input.KeyEvent(input.KeyC, true),
		input.KeyEvent(input.KeyC, false),
		input.PointerAxis(input.AxisVertical, -10),
		input.PointerAxis(input.AxisHorizontal, -10),
		input.PointerMotion(99, 0),
	}, out)
}
