// Package protocol defines the messages exchanged between air-client and
// air-server and their binary encoding.
//
// Commands flow from the capturing client to the replaying server; Answers
// flow back. Every message travels as one WebSocket binary frame.
package protocol

import "fmt"

// CommandKind is the wire discriminant of a Command.
type CommandKind uint8

const (
	KindSetMouse CommandKind = iota + 1
	KindMoveMouse
	KindMouseButtonPressed
	KindMouseButtonReleased
	KindMouseScroll
	KindKeyPressed
	KindKeyReleased
	KindInputText
	KindSetClipboard
)

func (k CommandKind) String() string {
	switch k {
	case KindSetMouse:
		return "SetMouse"
	case KindMoveMouse:
		return "MoveMouse"
	case KindMouseButtonPressed:
		return "MouseButtonPressed"
	case KindMouseButtonReleased:
		return "MouseButtonReleased"
	case KindMouseScroll:
		return "MouseScroll"
	case KindKeyPressed:
		return "KeyPressed"
	case KindKeyReleased:
		return "KeyReleased"
	case KindInputText:
		return "InputText"
	case KindSetClipboard:
		return "SetClipboard"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// Command is a client→server message. The set of implementations is closed:
// only the types in this package satisfy it.
type Command interface {
	Kind() CommandKind
}

// SetMouse teleports the cursor to an absolute position.
type SetMouse struct {
	_ struct{} `cbor:",toarray"`
	X int32
	Y int32
}

// MoveMouse moves the cursor relative to its last position.
type MoveMouse struct {
	_  struct{} `cbor:",toarray"`
	DX int32
	DY int32
}

type MouseButtonPressed struct {
	_      struct{} `cbor:",toarray"`
	Button Button
}

type MouseButtonReleased struct {
	_      struct{} `cbor:",toarray"`
	Button Button
}

// MouseScroll carries one scroll tick on a single axis.
type MouseScroll struct {
	_     struct{} `cbor:",toarray"`
	Axis  ScrollAxis
	Value int32
}

// KeyPressed carries a raw Linux input key code.
type KeyPressed struct {
	_    struct{} `cbor:",toarray"`
	Code uint32
}

type KeyReleased struct {
	_    struct{} `cbor:",toarray"`
	Code uint32
}

// InputText asks the server to type a string verbatim.
type InputText struct {
	_    struct{} `cbor:",toarray"`
	Text string
}

// SetClipboard replaces the server's clipboard contents.
type SetClipboard struct {
	_    struct{} `cbor:",toarray"`
	Text string
}

func (SetMouse) Kind() CommandKind            { return KindSetMouse }
func (MoveMouse) Kind() CommandKind           { return KindMoveMouse }
func (MouseButtonPressed) Kind() CommandKind  { return KindMouseButtonPressed }
func (MouseButtonReleased) Kind() CommandKind { return KindMouseButtonReleased }
func (MouseScroll) Kind() CommandKind         { return KindMouseScroll }
func (KeyPressed) Kind() CommandKind          { return KindKeyPressed }
func (KeyReleased) Kind() CommandKind         { return KindKeyReleased }
func (InputText) Kind() CommandKind           { return KindInputText }
func (SetClipboard) Kind() CommandKind        { return KindSetClipboard }

// AnswerKind is the wire discriminant of an Answer.
type AnswerKind uint8

const (
	KindClipboardContents AnswerKind = iota + 1
)

func (k AnswerKind) String() string {
	if k == KindClipboardContents {
		return "ClipboardContents"
	}
	return fmt.Sprintf("AnswerKind(%d)", uint8(k))
}

// Answer is a server→client message.
type Answer interface {
	Kind() AnswerKind
}

// ClipboardContents returns the server clipboard after a copy was detected.
type ClipboardContents struct {
	_    struct{} `cbor:",toarray"`
	Text string
}

func (ClipboardContents) Kind() AnswerKind { return KindClipboardContents }

// Button identifies a mouse button.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonMouse4
	ButtonMouse5
)

// Linux input event codes for mouse buttons (linux/input-event-codes.h).
const (
	btnLeft   = 0x110 // BTN_LEFT
	btnRight  = 0x111 // BTN_RIGHT
	btnMiddle = 0x112 // BTN_MIDDLE
	btnSide   = 0x113 // BTN_SIDE, "back"
	btnExtra  = 0x114 // BTN_EXTRA, "forward"
)

// ButtonFromLinuxCode maps a BTN_* code to a Button.
func ButtonFromLinuxCode(code uint32) (Button, bool) {
	switch code {
	case btnLeft:
		return ButtonLeft, true
	case btnRight:
		return ButtonRight, true
	case btnMiddle:
		return ButtonMiddle, true
	case btnSide:
		return ButtonMouse4, true
	case btnExtra:
		return ButtonMouse5, true
	default:
		return 0, false
	}
}

// Valid reports whether b is one of the defined buttons.
func (b Button) Valid() bool {
	return b <= ButtonMouse5
}

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "LEFT"
	case ButtonRight:
		return "RIGHT"
	case ButtonMiddle:
		return "MIDDLE"
	case ButtonMouse4:
		return "MOUSE4"
	case ButtonMouse5:
		return "MOUSE5"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// ScrollAxis selects the scroll direction of a MouseScroll.
type ScrollAxis uint8

const (
	ScrollVertical ScrollAxis = iota
	ScrollHorizontal
)

func (a ScrollAxis) Valid() bool {
	return a <= ScrollHorizontal
}

func (a ScrollAxis) String() string {
	switch a {
	case ScrollVertical:
		return "vertical"
	case ScrollHorizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("ScrollAxis(%d)", uint8(a))
	}
}
