package replay

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airkvm/internal/clipboard"
	"airkvm/internal/input"
	"airkvm/internal/protocol"
)

type keyCall struct {
	key     input.Key
	mods    input.Modifier
	pressed bool
}

type fakeInjector struct {
	moves   []input.Point
	keys    []keyCall
	buttons []protocol.Button
	clicks  []input.Modifier
	scrolls []int
	typed   []string
	fail    error
}

func (f *fakeInjector) MoveCursorAbsolute(x, y int32) error {
	if f.fail != nil {
		return f.fail
	}
	f.moves = append(f.moves, input.Point{X: x, Y: y})
	return nil
}

func (f *fakeInjector) PressKey(key input.Key, mods input.Modifier) error {
	f.keys = append(f.keys, keyCall{key, mods, true})
	return f.fail
}

func (f *fakeInjector) ReleaseKey(key input.Key, mods input.Modifier) error {
	f.keys = append(f.keys, keyCall{key, mods, false})
	return f.fail
}

func (f *fakeInjector) ClickButton(button protocol.Button, pressed bool, mods input.Modifier) error {
	f.buttons = append(f.buttons, button)
	f.clicks = append(f.clicks, mods)
	return f.fail
}

func (f *fakeInjector) ScrollAxis(axis protocol.ScrollAxis, signum int) error {
	f.scrolls = append(f.scrolls, signum)
	return f.fail
}

func (f *fakeInjector) TypeText(text string) error {
	f.typed = append(f.typed, text)
	return f.fail
}

type answers struct {
	mu  sync.Mutex
	got []protocol.Answer
	ch  chan struct{}
}

func newAnswers() *answers {
	return &answers{ch: make(chan struct{}, 16)}
}

func (a *answers) reply(ans protocol.Answer) error {
	a.mu.Lock()
	a.got = append(a.got, ans)
	a.mu.Unlock()
	a.ch <- struct{}{}
	return nil
}

func (a *answers) list() []protocol.Answer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]protocol.Answer(nil), a.got...)
}

func newTestEngine(t *testing.T, inj input.Injector, cb clipboard.Clipboard, ans *answers, opts Options) *Engine {
	t.Helper()
	e := NewEngine(inj, cb, ans.reply, opts)
	t.Cleanup(e.Close)
	return e
}

func TestMoveMouseSmoothedFromOrigin(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{MoveType: Faster})

	require.NoError(t, e.Apply(protocol.MoveMouse{DX: 5, DY: 0}))

	assert.Equal(t, []input.Point{{X: 2, Y: 0}, {X: 4, Y: 0}, {X: 5, Y: 0}}, inj.moves)
	assert.Equal(t, input.Point{X: 5, Y: 0}, e.Position())
}

func TestSetMouseIsImmediate(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{MoveType: Smooth})

	require.NoError(t, e.Apply(protocol.SetMouse{X: 100, Y: 50}))
	require.NoError(t, e.Apply(protocol.MoveMouse{DX: 10, DY: 0}))

	assert.Len(t, inj.moves, 11)
	assert.Equal(t, input.Point{X: 100, Y: 50}, inj.moves[0])
	assert.Equal(t, input.Point{X: 110, Y: 50}, inj.moves[len(inj.moves)-1])
	assert.Equal(t, input.Point{X: 110, Y: 50}, e.Position())
}

func TestHugeMoveJumps(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{MoveType: Smooth})

	require.NoError(t, e.Apply(protocol.MoveMouse{DX: 1 << 30, DY: -(1 << 30)}))
	assert.Equal(t, []input.Point{{X: 1 << 30, Y: -(1 << 30)}}, inj.moves)
}

func TestMoveSaturates(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{MoveType: Immediate})

	require.NoError(t, e.Apply(protocol.SetMouse{X: 2147483600, Y: 0}))
	require.NoError(t, e.Apply(protocol.MoveMouse{DX: 1000, DY: 0}))
	assert.Equal(t, input.Point{X: 2147483647, Y: 0}, e.Position())
}

func TestModifiersAreTrackedNotForwarded(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftShift}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyRightAlt}))
	assert.Equal(t, input.ModLShift|input.ModAltGr, e.Modifiers())

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: 30}))
	require.NoError(t, e.Apply(protocol.KeyReleased{Code: input.KeyLeftShift}))
	require.NoError(t, e.Apply(protocol.KeyReleased{Code: 30}))
	require.NoError(t, e.Apply(protocol.KeyReleased{Code: input.KeyRightAlt}))

	assert.Equal(t, input.ModNone, e.Modifiers())
	assert.Equal(t, []keyCall{
		{input.Key{Code: 30}, input.ModLShift | input.ModAltGr, true},
		{input.Key{Code: 30}, input.ModAltGr, false},
	}, inj.keys)
}

func TestModifierPressIsIdempotent(t *testing.T) {
	e := newTestEngine(t, &fakeInjector{}, clipboard.NewMemory(""), newAnswers(), Options{})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftCtrl}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftCtrl}))
	assert.Equal(t, input.ModLControl, e.Modifiers())

	require.NoError(t, e.Apply(protocol.KeyReleased{Code: input.KeyLeftCtrl}))
	assert.Equal(t, input.ModNone, e.Modifiers())
}

func TestNavigationKeysAreNamed(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyPageDown}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: 30}))

	assert.Equal(t, input.Key{Code: input.KeyPageDown, Name: "pagedown"}, inj.keys[0].key)
	assert.Equal(t, input.Key{Code: 30}, inj.keys[1].key)
}

func TestControlCopyKeyRepliesWithClipboard(t *testing.T) {
	inj := &fakeInjector{}
	ans := newAnswers()
	e := newTestEngine(t, inj, clipboard.NewMemory("selected text"), ans, Options{
		CopyKeys:          []uint32{input.KeyDelete},
		CopyReadbackDelay: 50 * time.Millisecond,
	})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftCtrl}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyDelete}))
	assert.Equal(t, input.ModLControl, e.Modifiers())

	// The read-back is pending; replay carries on meanwhile.
	require.NoError(t, e.Apply(protocol.MoveMouse{DX: 1, DY: 1}))
	assert.Empty(t, ans.list())

	select {
	case <-ans.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no clipboard answer")
	}
	assert.Equal(t, []protocol.Answer{protocol.ClipboardContents{Text: "selected text"}}, ans.list())
}

func TestCopyKeyWithoutControlDoesNothing(t *testing.T) {
	ans := newAnswers()
	e := newTestEngine(t, &fakeInjector{}, clipboard.NewMemory("x"), ans, Options{})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyC}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftShift}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyC}))
	e.bridge.Wait()

	assert.Empty(t, ans.list())
}

func TestDefaultCopyKeys(t *testing.T) {
	ans := newAnswers()
	e := newTestEngine(t, &fakeInjector{}, clipboard.NewMemory("x"), ans, Options{})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyRightCtrl}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyC}))
	e.bridge.Wait()

	assert.Equal(t, []protocol.Answer{protocol.ClipboardContents{Text: "x"}}, ans.list())
}

func TestButtonsScrollAndText(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{})

	require.NoError(t, e.Apply(protocol.MouseButtonPressed{Button: protocol.ButtonLeft}))
	require.NoError(t, e.Apply(protocol.MouseButtonReleased{Button: protocol.ButtonLeft}))
	require.NoError(t, e.Apply(protocol.MouseScroll{Axis: protocol.ScrollVertical, Value: -15}))
	require.NoError(t, e.Apply(protocol.MouseScroll{Axis: protocol.ScrollHorizontal, Value: 3}))
	require.NoError(t, e.Apply(protocol.MouseScroll{Axis: protocol.ScrollHorizontal, Value: 0}))
	require.NoError(t, e.Apply(protocol.InputText{Text: "hi"}))

	assert.Equal(t, []protocol.Button{protocol.ButtonLeft, protocol.ButtonLeft}, inj.buttons)
	assert.Equal(t, []int{-1, 1}, inj.scrolls)
	assert.Equal(t, []string{"hi"}, inj.typed)
}

func TestSetClipboardWritesLocally(t *testing.T) {
	mem := clipboard.NewMemory("")
	e := newTestEngine(t, &fakeInjector{}, mem, newAnswers(), Options{})

	require.NoError(t, e.Apply(protocol.SetClipboard{Text: "pasted"}))
	e.bridge.Wait()

	text, err := mem.Text()
	require.NoError(t, err)
	assert.Equal(t, "pasted", text)
}

func TestInjectionFailureIsPerCommand(t *testing.T) {
	boom := errors.New("boom")
	inj := &fakeInjector{fail: boom}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{})

	err := e.Apply(protocol.SetMouse{X: 7, Y: 8})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInjection)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, input.Point{X: 7, Y: 8}, e.Position())

	inj.fail = nil
	require.NoError(t, e.Apply(protocol.MoveMouse{DX: 1, DY: 0}))
	assert.Equal(t, input.Point{X: 8, Y: 8}, e.Position())
}

func TestUnmappedInputIsNotInjectionError(t *testing.T) {
	inj := &fakeInjector{fail: input.ErrUnmappedInput}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{})

	err := e.Apply(protocol.MouseButtonPressed{Button: protocol.ButtonMouse4})
	assert.ErrorIs(t, err, input.ErrUnmappedInput)
	assert.NotErrorIs(t, err, ErrInjection)
}

func TestClickCarriesHeldModifiers(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{})

	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftCtrl}))
	require.NoError(t, e.Apply(protocol.KeyPressed{Code: input.KeyLeftShift}))
	require.NoError(t, e.Apply(protocol.MouseButtonPressed{Button: protocol.ButtonLeft}))
	require.NoError(t, e.Apply(protocol.KeyReleased{Code: input.KeyLeftCtrl}))
	require.NoError(t, e.Apply(protocol.KeyReleased{Code: input.KeyLeftShift}))
	require.NoError(t, e.Apply(protocol.MouseButtonReleased{Button: protocol.ButtonLeft}))

	require.Len(t, inj.clicks, 2)
	assert.True(t, inj.clicks[0].Contains(input.ModLControl))
	assert.True(t, inj.clicks[0].Contains(input.ModLShift))
	assert.Equal(t, input.ModNone, inj.clicks[1])
}

func TestLongMoveJumpsToTarget(t *testing.T) {
	inj := &fakeInjector{}
	e := newTestEngine(t, inj, clipboard.NewMemory(""), newAnswers(), Options{MoveType: Faster})

	dx := int32(2*maxSmoothPoints + 2)
	require.NoError(t, e.Apply(protocol.MoveMouse{DX: dx, DY: 7}))
	assert.Equal(t, []input.Point{{X: dx, Y: 7}}, inj.moves)

	inj.moves = nil
	require.NoError(t, e.Apply(protocol.MoveMouse{DX: -2 * maxSmoothPoints, DY: 0}))
	assert.Len(t, inj.moves, maxSmoothPoints, "a move of exactly the limit is still smoothed")
}

// Replaying whatever a client sends leaves the server cursor where the
// client last put it.
func TestReplayTracksClientPosition(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		norm := input.NewNormalizer()
		var clientPos input.Point
		e := newTestEngine(t, &fakeInjector{}, clipboard.NewMemory(""), newAnswers(), Options{MoveType: VeryFast, CopyKeys: []uint32{}})

		coord := func() float64 { return float64(rng.IntN(4000) - 500) }
		for step := range 300 {
			var raw input.RawEvent
			switch rng.IntN(10) {
			case 0:
				raw = input.PointerEnter(coord(), coord())
			case 1:
				raw = input.PointerLeave()
			case 2:
				raw = input.PointerButton(0x110+uint32(rng.IntN(3)), rng.IntN(2) == 0)
			case 3:
				raw = input.KeyEvent(uint32(rng.IntN(60)+1), rng.IntN(2) == 0)
			case 4:
				raw = input.PointerAxis(input.AxisVertical, float64(rng.IntN(21)-10))
			default:
				raw = input.PointerMotion(coord(), coord())
			}

			ev, err := norm.Handle(raw)
			require.NoError(t, err)
			var cmd protocol.Command
			cmd, clientPos = input.MapEvent(ev, norm.Focused(), clientPos)
			if cmd != nil {
				require.NoError(t, e.Apply(cmd))
			}
			require.Equal(t, clientPos, e.Position(), "seed %d step %d after %s", seed, step, raw.Kind)
		}
	}
}
