package input

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airkvm/internal/protocol"
)

func TestNormalizerFocus(t *testing.T) {
	n := NewNormalizer()
	assert.False(t, n.Focused())

	ev, err := n.Handle(PointerEnter(10.9, -3.7))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventMouseEnter, X: 10, Y: -3}, ev)
	assert.True(t, n.Focused())

	ev, err = n.Handle(PointerLeave())
	require.NoError(t, err)
	assert.Equal(t, EventMouseLeave, ev.Kind)
	assert.False(t, n.Focused())
}

func TestNormalizerSuppressesFirstMotionAfterEnter(t *testing.T) {
	n := NewNormalizer()

	_, err := n.Handle(PointerEnter(100, 50))
	require.NoError(t, err)

	ev, err := n.Handle(PointerMotion(100, 50))
	require.NoError(t, err)
	assert.True(t, ev.IsNone(), "first motion after enter must be dropped")

	ev, err = n.Handle(PointerMotion(110, 50))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventMouseMove, X: 110, Y: 50}, ev)
	assert.Equal(t, ev, n.Last())
}

func TestNormalizerMotionWithoutEnter(t *testing.T) {
	n := NewNormalizer()
	ev, err := n.Handle(PointerMotion(5, 6))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventMouseMove, X: 5, Y: 6}, ev)
}

func TestNormalizerButtons(t *testing.T) {
	n := NewNormalizer()

	ev, err := n.Handle(PointerButton(272, true))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventMouseButtonPressed, Button: protocol.ButtonLeft}, ev)

	ev, err = n.Handle(PointerButton(276, false))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventMouseButtonReleased, Button: protocol.ButtonMouse5}, ev)

	ev, err = n.Handle(PointerButton(0x120, true))
	require.ErrorIs(t, err, ErrUnmappedInput)
	assert.True(t, ev.IsNone())
}

func TestNormalizerRecordedEventClearsEnterMarker(t *testing.T) {
	for name, between := range map[string]RawEvent{
		"button": PointerButton(272, true),
		"axis":   PointerAxis(AxisVertical, 3),
		"key":    KeyEvent(30, true),
	} {
		t.Run(name, func(t *testing.T) {
			n := NewNormalizer()
			_, err := n.Handle(PointerEnter(1, 1))
			require.NoError(t, err)
			_, err = n.Handle(between)
			require.NoError(t, err)

			ev, err := n.Handle(PointerMotion(50, 50))
			require.NoError(t, err)
			assert.Equal(t, AppEvent{Kind: EventMouseMove, X: 50, Y: 50}, ev)
		})
	}
}

func TestNormalizerDroppedEventKeepsEnterMarker(t *testing.T) {
	n := NewNormalizer()
	_, err := n.Handle(PointerEnter(1, 1))
	require.NoError(t, err)
	_, err = n.Handle(PointerAxis(AxisVertical, 0.2))
	require.NoError(t, err)
	_, err = n.Handle(PointerButton(0x120, true))
	require.ErrorIs(t, err, ErrUnmappedInput)

	ev, err := n.Handle(PointerMotion(1, 1))
	require.NoError(t, err)
	assert.True(t, ev.IsNone())
}

func TestNormalizerAxis(t *testing.T) {
	n := NewNormalizer()

	ev, err := n.Handle(PointerAxis(AxisVertical, 10.5))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventScrollVertical, Value: 10}, ev)

	ev, err = n.Handle(PointerAxis(AxisHorizontal, -2))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventScrollHorizontal, Value: -2}, ev)

	ev, err = n.Handle(PointerAxis(AxisVertical, 0.4))
	require.NoError(t, err)
	assert.True(t, ev.IsNone(), "zero-valued scroll must be dropped")

	_, err = n.Handle(PointerAxis(7, 1))
	assert.ErrorIs(t, err, ErrUnmappedInput)
}

func TestNormalizerKeys(t *testing.T) {
	n := NewNormalizer()
	ev, err := n.Handle(KeyEvent(KeyC, true))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventKeyPressed, Code: KeyC}, ev)

	// Keys are forwarded regardless of focus.
	ev, err = n.Handle(KeyEvent(999, false))
	require.NoError(t, err)
	assert.Equal(t, AppEvent{Kind: EventKeyReleased, Code: 999}, ev)
}

func TestTruncateSaturates(t *testing.T) {
	assert.Equal(t, int32(math.MaxInt32), truncate(1e12))
	assert.Equal(t, int32(math.MinInt32), truncate(-1e12))
	assert.Equal(t, int32(0), truncate(math.NaN()))
	assert.Equal(t, int32(-1), truncate(-1.9))
}

// Enter at (100,50), a suppressed motion, then a real motion to (110,50).
func TestEnterThenMoveProducesSetMouseAndRelativeMove(t *testing.T) {
	n := NewNormalizer()
	var pos Point
	var cmds []protocol.Command

	for _, raw := range []RawEvent{
		PointerEnter(100, 50),
		PointerMotion(100, 50),
		PointerMotion(110, 50),
	} {
		ev, err := n.Handle(raw)
		require.NoError(t, err)
		var cmd protocol.Command
		cmd, pos = MapEvent(ev, n.Focused(), pos)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	assert.Equal(t, []protocol.Command{
		protocol.SetMouse{X: 100, Y: 50},
		protocol.MoveMouse{DX: 10, DY: 0},
	}, cmds)
	assert.Equal(t, Point{X: 110, Y: 50}, pos)
}

func TestMapEvent(t *testing.T) {
	last := Point{X: 10, Y: 10}
	tests := []struct {
		name    string
		ev      AppEvent
		focused bool
		want    protocol.Command
		pos     Point
	}{
		{"none", AppEvent{}, true, nil, last},
		{"leave", AppEvent{Kind: EventMouseLeave}, false, nil, last},
		{"move unfocused", AppEvent{Kind: EventMouseMove, X: 20, Y: 5}, false, nil, last},
		{"move", AppEvent{Kind: EventMouseMove, X: 20, Y: 5}, true, protocol.MoveMouse{DX: 10, DY: -5}, Point{20, 5}},
		{"move zero delta", AppEvent{Kind: EventMouseMove, X: 10, Y: 10}, true, nil, last},
		{"enter", AppEvent{Kind: EventMouseEnter, X: 3, Y: 4}, true, protocol.SetMouse{X: 3, Y: 4}, Point{3, 4}},
		{"press", AppEvent{Kind: EventMouseButtonPressed, Button: protocol.ButtonRight}, true, protocol.MouseButtonPressed{Button: protocol.ButtonRight}, last},
		{"release", AppEvent{Kind: EventMouseButtonReleased, Button: protocol.ButtonMiddle}, false, protocol.MouseButtonReleased{Button: protocol.ButtonMiddle}, last},
		{"scroll h", AppEvent{Kind: EventScrollHorizontal, Value: 3}, true, protocol.MouseScroll{Axis: protocol.ScrollHorizontal, Value: 3}, last},
		{"scroll v", AppEvent{Kind: EventScrollVertical, Value: -1}, true, protocol.MouseScroll{Axis: protocol.ScrollVertical, Value: -1}, last},
		{"key down", AppEvent{Kind: EventKeyPressed, Code: 30}, false, protocol.KeyPressed{Code: 30}, last},
		{"key up", AppEvent{Kind: EventKeyReleased, Code: 30}, true, protocol.KeyReleased{Code: 30}, last},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, pos := MapEvent(tt.ev, tt.focused, last)
			assert.Equal(t, tt.want, cmd)
			assert.Equal(t, tt.pos, pos)
		})
	}
}

func TestRatioScaler(t *testing.T) {
	s := RatioScaler(Size{Width: 1000, Height: 500}, Size{Width: 2000, Height: 2000})
	ev := ScaleEvent(s, PointerMotion(100, 100))
	assert.Equal(t, 200.0, ev.X)
	assert.Equal(t, 400.0, ev.Y)

	key := KeyEvent(KeyC, true)
	assert.Equal(t, key, ScaleEvent(s, key))

	x, y := RatioScaler(Size{}, Size{Width: 10, Height: 10}).Scale(7, 8)
	assert.Equal(t, 7.0, x)
	assert.Equal(t, 8.0, y)
}

func TestModifierBitmask(t *testing.T) {
	var m Modifier
	m.Set(ModLControl)
	m.Set(ModLShift)
	assert.True(t, m.IsControl())
	assert.True(t, m.IsShift())
	assert.False(t, m.IsAlt())
	assert.True(t, m.Contains(ModLControl|ModLShift))
	assert.Equal(t, "LShift|LControl", m.String())

	m.Remove(ModLControl)
	assert.False(t, m.IsControl())
	assert.True(t, m.IsShift(), "removing one bit must keep the others")

	m.Remove(ModLShift)
	assert.Equal(t, ModNone, m)
	assert.Equal(t, "None", m.String())
}

func TestModifierCapsShiftIsNotShift(t *testing.T) {
	m := ModCapsShift
	assert.False(t, m.IsShift())
	assert.Equal(t, []string{"shift"}, heldNames(m))
}

func TestModifierForKey(t *testing.T) {
	for code, want := range map[uint32]Modifier{
		42:  ModLShift,
		54:  ModRShift,
		29:  ModLControl,
		97:  ModRControl,
		56:  ModAlt,
		100: ModAltGr,
		58:  ModCapsShift,
	} {
		got, ok := ModifierForKey(code)
		assert.True(t, ok, "code %d", code)
		assert.Equal(t, want, got, "code %d", code)
	}
	_, ok := ModifierForKey(KeyC)
	assert.False(t, ok)
}

func TestKeyNames(t *testing.T) {
	assert.Equal(t, "c", KeyName(KeyC))
	assert.Equal(t, "f12", KeyName(KeyF12))
	assert.Equal(t, "", KeyName(0))

	code, ok := KeyCode("F12")
	require.True(t, ok)
	assert.Equal(t, KeyF12, code)

	name, ok := Key{Code: KeyUp}.Resolve()
	assert.True(t, ok)
	assert.Equal(t, "up", name)

	name, ok = Key{Code: 0, Name: "home"}.Resolve()
	assert.True(t, ok)
	assert.Equal(t, "home", name)

	_, ok = Key{Code: 0xfff}.Resolve()
	assert.False(t, ok)
}
