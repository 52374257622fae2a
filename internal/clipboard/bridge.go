package clipboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"airkvm/internal/protocol"
)

// Bridge performs clipboard transfers on a background worker. Every
// operation returns immediately and runs after the ones queued before it;
// failures are logged and nothing is sent.
type Bridge struct {
	cb     Clipboard
	dedupe bool
	logger *slog.Logger

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once

	qmu     sync.Mutex
	queue   []func()
	running bool

	mu     sync.Mutex
	last   [32]byte
	synced bool
}

// NewBridge wraps cb. With dedupe set, Push skips text whose digest matches
// the last text pushed or applied.
func NewBridge(cb Clipboard, dedupe bool, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cb:     cb,
		dedupe: dedupe,
		logger: logger.With("component", "clipboard"),
		done:   make(chan struct{}),
	}
}

// Push reads the local clipboard and sends it as a SetClipboard command.
func (b *Bridge) Push(send func(protocol.Command) error) {
	b.spawn(func() {
		text, err := b.cb.Text()
		if err != nil {
			b.logger.Warn("clipboard read failed", "error", err)
			return
		}
		if !b.remember(text) {
			b.logger.Debug("clipboard unchanged, not pushed")
			return
		}
		if err := send(protocol.SetClipboard{Text: text}); err != nil {
			b.logger.Warn("clipboard push failed", "error", err)
		}
	})
}

// ReadBack waits for delay, giving the application that handled a copy
// keystroke time to update the clipboard, then replies with its contents.
// Operations queued after it wait for the delay too.
func (b *Bridge) ReadBack(delay time.Duration, reply func(protocol.Answer) error) {
	b.spawn(func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-b.done:
				return
			}
		}
		text, err := b.cb.Text()
		if err != nil {
			b.logger.Warn("clipboard read failed", "error", err)
			return
		}
		if err := reply(protocol.ClipboardContents{Text: text}); err != nil {
			b.logger.Warn("clipboard reply failed", "error", err)
		}
	})
}

// Apply writes text to the local clipboard.
func (b *Bridge) Apply(text string) {
	b.spawn(func() {
		if err := b.cb.SetText(text); err != nil {
			b.logger.Warn("clipboard write failed", "error", err)
			return
		}
		b.remember(text)
	})
}

// Wait blocks until every pending operation has finished.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// Close abandons pending read-backs and waits for the rest to finish.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}

// spawn queues fn and starts the worker if it is idle.
func (b *Bridge) spawn(fn func()) {
	b.wg.Add(1)
	b.qmu.Lock()
	b.queue = append(b.queue, fn)
	start := !b.running
	b.running = true
	b.qmu.Unlock()

	if start {
		go b.work()
	}
}

// work runs queued operations in order and exits once the queue is empty.
func (b *Bridge) work() {
	for {
		b.qmu.Lock()
		if len(b.queue) == 0 {
			b.running = false
			b.qmu.Unlock()
			return
		}
		fn := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
		b.qmu.Unlock()

		fn()
		b.wg.Done()
	}
}

// remember records text as the last synchronized value and reports whether
// it differs from the previous one. Without dedupe it always reports true.
func (b *Bridge) remember(text string) bool {
	if !b.dedupe {
		return true
	}
	sum := blake3.Sum256([]byte(text))
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.synced && sum == b.last {
		return false
	}
	b.last, b.synced = sum, true
	return true
}
