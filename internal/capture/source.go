// Package capture produces raw input events from local devices, terminals
// and scripts.
package capture

import (
	"context"
	"io"

	"airkvm/internal/input"
)

// Source yields raw events one at a time. Next blocks until an event is
// available, ctx is done, or the source is exhausted, in which case it
// returns io.EOF.
type Source interface {
	Next(ctx context.Context) (input.RawEvent, error)
}

// Channel adapts a Go channel to a Source. A closed channel ends the source.
type Channel <-chan input.RawEvent

func (c Channel) Next(ctx context.Context) (input.RawEvent, error) {
	select {
	case ev, ok := <-c:
		if !ok {
			return input.RawEvent{}, io.EOF
		}
		return ev, nil
	case <-ctx.Done():
		return input.RawEvent{}, ctx.Err()
	}
}

// queue holds events decoded ahead of the caller.
type queue []input.RawEvent

func (q *queue) pop() (input.RawEvent, bool) {
	if len(*q) == 0 {
		return input.RawEvent{}, false
	}
	ev := (*q)[0]
	*q = (*q)[1:]
	return ev, true
}
