package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire format
//
// Every message is a CBOR array of two elements:
//
//	[tag(uint), payload(array)]
//
// The tag is the CommandKind or AnswerKind; the payload is the variant's
// fields in declaration order. Encoding uses Core Deterministic Encoding
// (RFC 8949 §4.2), so the same message always produces the same bytes.
// A SetMouse{X: 100, Y: 50} is 7 bytes: 82 01 82 18 64 18 32.

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Go strings may hold arbitrary bytes; accept them back verbatim so
		// any string that encodes also round-trips.
		UTF8:            cbor.UTF8DecodeInvalid,
		MaxNestedLevels: 4,
	}.DecMode()
	if err != nil {
		panic("protocol: CBOR decoder initialization failed: " + err.Error())
	}
}

const cborMajorArray = 4

type frame struct {
	_    struct{} `cbor:",toarray"`
	Tag  uint8
	Body cbor.RawMessage
}

// EncodeCommand serializes a Command to its wire form.
func EncodeCommand(cmd Command) ([]byte, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, &CodecError{Op: "encode command", Err: err}
	}
	data, err := encode(uint8(cmd.Kind()), cmd)
	if err != nil {
		return nil, &CodecError{Op: "encode " + cmd.Kind().String(), Err: err}
	}
	return data, nil
}

// DecodeCommand parses one wire message into a Command.
func DecodeCommand(data []byte) (Command, error) {
	f, err := decodeFrame(data)
	if err != nil {
		return nil, &CodecError{Op: "decode command", Err: err}
	}

	kind := CommandKind(f.Tag)
	var cmd Command
	switch kind {
	case KindSetMouse:
		cmd, err = decodeBody[SetMouse](f.Body)
	case KindMoveMouse:
		cmd, err = decodeBody[MoveMouse](f.Body)
	case KindMouseButtonPressed:
		cmd, err = decodeBody[MouseButtonPressed](f.Body)
	case KindMouseButtonReleased:
		cmd, err = decodeBody[MouseButtonReleased](f.Body)
	case KindMouseScroll:
		cmd, err = decodeBody[MouseScroll](f.Body)
	case KindKeyPressed:
		cmd, err = decodeBody[KeyPressed](f.Body)
	case KindKeyReleased:
		cmd, err = decodeBody[KeyReleased](f.Body)
	case KindInputText:
		cmd, err = decodeBody[InputText](f.Body)
	case KindSetClipboard:
		cmd, err = decodeBody[SetClipboard](f.Body)
	default:
		return nil, &CodecError{Op: "decode command", Err: fmt.Errorf("unknown tag %d", f.Tag)}
	}
	if err == nil {
		err = validateCommand(cmd)
	}
	if err != nil {
		return nil, &CodecError{Op: "decode " + kind.String(), Err: err}
	}
	return cmd, nil
}

// EncodeAnswer serializes an Answer to its wire form.
func EncodeAnswer(answer Answer) ([]byte, error) {
	switch answer.(type) {
	case ClipboardContents:
	case nil:
		return nil, &CodecError{Op: "encode answer", Err: errors.New("nil answer")}
	default:
		return nil, &CodecError{Op: "encode answer", Err: fmt.Errorf("unsupported answer type %T", answer)}
	}
	data, err := encode(uint8(answer.Kind()), answer)
	if err != nil {
		return nil, &CodecError{Op: "encode " + answer.Kind().String(), Err: err}
	}
	return data, nil
}

// DecodeAnswer parses one wire message into an Answer.
func DecodeAnswer(data []byte) (Answer, error) {
	f, err := decodeFrame(data)
	if err != nil {
		return nil, &CodecError{Op: "decode answer", Err: err}
	}

	switch AnswerKind(f.Tag) {
	case KindClipboardContents:
		answer, err := decodeBody[ClipboardContents](f.Body)
		if err != nil {
			return nil, &CodecError{Op: "decode ClipboardContents", Err: err}
		}
		return answer, nil
	default:
		return nil, &CodecError{Op: "decode answer", Err: fmt.Errorf("unknown tag %d", f.Tag)}
	}
}

func encode(tag uint8, body any) ([]byte, error) {
	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(frame{Tag: tag, Body: raw})
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	if len(data) == 0 {
		return f, errors.New("empty message")
	}
	if err := decMode.Unmarshal(data, &f); err != nil {
		return f, err
	}
	if len(f.Body) == 0 {
		return f, errors.New("missing payload")
	}
	// null and undefined would otherwise decode into a zero-valued struct
	if f.Body[0]>>5 != cborMajorArray {
		return f, fmt.Errorf("payload is not an array (initial byte 0x%02x)", f.Body[0])
	}
	return f, nil
}

func decodeBody[T any](body []byte) (T, error) {
	var v T
	err := decMode.Unmarshal(body, &v)
	return v, err
}

// validateCommand accepts only the value types defined in this package and
// rejects enum fields outside their defined range.
func validateCommand(cmd Command) error {
	switch c := cmd.(type) {
	case nil:
		return errors.New("nil command")
	case MouseButtonPressed:
		return validateButton(c.Button)
	case MouseButtonReleased:
		return validateButton(c.Button)
	case MouseScroll:
		if !c.Axis.Valid() {
			return fmt.Errorf("invalid scroll axis %d", uint8(c.Axis))
		}
		return nil
	case SetMouse, MoveMouse, KeyPressed, KeyReleased, InputText, SetClipboard:
		return nil
	default:
		return fmt.Errorf("unsupported command type %T", cmd)
	}
}

func validateButton(b Button) error {
	if !b.Valid() {
		return fmt.Errorf("invalid button %d", uint8(b))
	}
	return nil
}
