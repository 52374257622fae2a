package network

import (
	"errors"
	"net"
)

// ErrTransport matches every *Error via errors.Is.
var ErrTransport = errors.New("network: transport error")

// Error is a terminal connection failure. There is no reconnect: once a
// Conn reports one, it is finished.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "network: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransport }

func errClosed(op string) error {
	return &Error{Op: op, Err: net.ErrClosed}
}
