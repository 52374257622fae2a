package protocol

import "errors"

// ErrCodec matches every *CodecError via errors.Is.
var ErrCodec = errors.New("protocol: codec error")

// CodecError reports a message that could not be encoded or decoded.
// A peer that sends one is broken; the connection should be dropped.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return "protocol: " + e.Op + ": " + e.Err.Error()
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Is(target error) bool { return target == ErrCodec }
