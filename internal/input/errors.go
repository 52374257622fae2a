package input

import "errors"

// ErrUnmappedInput reports a raw code or name with no counterpart on the
// other side of the translation. The event is dropped; it is never fatal.
var ErrUnmappedInput = errors.New("input: unmapped input")
