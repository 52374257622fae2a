package clipboard

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airkvm/internal/protocol"
)

type failing struct{}

func (failing) Text() (string, error) { return "", ErrClipboard }
func (failing) SetText(string) error  { return ErrClipboard }

type recorder struct {
	mu       sync.Mutex
	commands []protocol.Command
	answers  []protocol.Answer
}

func (r *recorder) send(cmd protocol.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *recorder) reply(a protocol.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, a)
	return nil
}

func TestBridgePush(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(NewMemory("hello"), false, nil)

	b.Push(rec.send)
	b.Push(rec.send)
	b.Wait()

	assert.Equal(t, []protocol.Command{
		protocol.SetClipboard{Text: "hello"},
		protocol.SetClipboard{Text: "hello"},
	}, rec.commands)
}

func TestBridgePushDedupe(t *testing.T) {
	rec := &recorder{}
	mem := NewMemory("hello")
	b := NewBridge(mem, true, nil)

	b.Push(rec.send)
	b.Wait()
	b.Push(rec.send)
	b.Wait()
	require.NoError(t, mem.SetText("world"))
	b.Push(rec.send)
	b.Wait()

	assert.Equal(t, []protocol.Command{
		protocol.SetClipboard{Text: "hello"},
		protocol.SetClipboard{Text: "world"},
	}, rec.commands)
}

func TestBridgeApplyIsNotPushedBack(t *testing.T) {
	rec := &recorder{}
	mem := NewMemory("")
	b := NewBridge(mem, true, nil)

	b.Apply("from server")
	b.Wait()
	text, err := mem.Text()
	require.NoError(t, err)
	assert.Equal(t, "from server", text)

	b.Push(rec.send)
	b.Wait()
	assert.Empty(t, rec.commands)
}

func TestBridgeReadBack(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(NewMemory("copied"), false, nil)

	start := time.Now()
	b.ReadBack(20*time.Millisecond, rec.reply)
	b.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, []protocol.Answer{protocol.ClipboardContents{Text: "copied"}}, rec.answers)
}

func TestBridgeCloseAbandonsReadBack(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(NewMemory("copied"), false, nil)

	b.ReadBack(time.Hour, rec.reply)
	b.Close()

	assert.Empty(t, rec.answers)
}

func TestBridgeErrorsSendNothing(t *testing.T) {
	rec := &recorder{}
	b := NewBridge(failing{}, false, nil)

	b.Push(rec.send)
	b.ReadBack(0, rec.reply)
	b.Apply("x")
	b.Wait()

	assert.Empty(t, rec.commands)
	assert.Empty(t, rec.answers)
}

// history records every text written to it.
type history struct {
	Memory
	mu      sync.Mutex
	written []string
}

func (h *history) SetText(text string) error {
	h.mu.Lock()
	h.written = append(h.written, text)
	h.mu.Unlock()
	return h.Memory.SetText(text)
}

func TestBridgeApplyKeepsOrder(t *testing.T) {
	h := &history{}
	b := NewBridge(h, false, nil)

	var want []string
	for i := 0; i < 50; i++ {
		text := strconv.Itoa(i)
		want = append(want, text)
		b.Apply(text)
	}
	b.Close()

	text, err := h.Text()
	require.NoError(t, err)
	assert.Equal(t, "49", text)
	assert.Equal(t, want, h.written)
}

func TestBridgeReadBackBeforeApplySeesOldText(t *testing.T) {
	rec := &recorder{}
	mem := NewMemory("old")
	b := NewBridge(mem, false, nil)

	b.ReadBack(10*time.Millisecond, rec.reply)
	b.Apply("new")
	b.Wait()

	assert.Equal(t, []protocol.Answer{protocol.ClipboardContents{Text: "old"}}, rec.answers)
	text, err := mem.Text()
	require.NoError(t, err)
	assert.Equal(t, "new", text)
}
