//go:build linux

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"airkvm/internal/input"
)

// eviocgrab is EVIOCGRAB, _IOW('E', 0x90, int).
const eviocgrab = 0x40044590

// Evdev reads keyboards and mice from /dev/input/event* devices. Relative
// pointer motion is integrated into an absolute position on a virtual
// surface; the first event delivered is an enter at its center.
type Evdev struct {
	files   []*os.File
	grabbed bool
	events  chan inputEvent
	errs    chan error
	state   *pointerState
	queue   queue

	closeOnce sync.Once
}

// OpenEvdev opens the given devices. With grab set, the devices are taken
// exclusively so their input no longer reaches the local desktop.
func OpenEvdev(paths []string, grab bool, bounds input.Size) (*Evdev, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input devices given")
	}
	e := &Evdev{
		grabbed: grab,
		events:  make(chan inputEvent, 64),
		errs:    make(chan error, len(paths)),
		state:   newPointerState(bounds),
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		e.files = append(e.files, f)
		if grab {
			if err := unix.IoctlSetInt(int(f.Fd()), eviocgrab, 1); err != nil {
				e.Close()
				return nil, fmt.Errorf("failed to grab %s: %w", path, err)
			}
		}
	}
	for _, f := range e.files {
		go e.readLoop(f)
	}
	return e, nil
}

func (e *Evdev) readLoop(f *os.File) {
	buf := make([]byte, inputEventSize*64)
	for {
		n, err := f.Read(buf)
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			e.events <- decodeInputEvent(buf[off : off+inputEventSize])
		}
		if err != nil {
			e.errs <- fmt.Errorf("read %s: %w", f.Name(), err)
			return
		}
	}
}

func (e *Evdev) Next(ctx context.Context) (input.RawEvent, error) {
	for {
		if ev, ok := e.queue.pop(); ok {
			return ev, nil
		}
		select {
		case ev := <-e.events:
			e.queue = append(e.queue, e.state.apply(ev)...)
		case err := <-e.errs:
			if errors.Is(err, os.ErrClosed) {
				return input.RawEvent{}, io.EOF
			}
			return input.RawEvent{}, err
		case <-ctx.Done():
			return input.RawEvent{}, ctx.Err()
		}
	}
}

// Close releases the grab and closes the devices.
func (e *Evdev) Close() error {
	var errs []error
	e.closeOnce.Do(func() {
		for _, f := range e.files {
			if e.grabbed {
				unix.IoctlSetInt(int(f.Fd()), eviocgrab, 0)
			}
			if err := f.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
