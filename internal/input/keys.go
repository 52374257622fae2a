package input

import "strings"

// Linux input key codes (linux/input-event-codes.h) used by name in this
// module. The protocol carries every key as its raw code.
const (
	KeyEsc        uint32 = 1
	KeyBackspace  uint32 = 14
	KeyTab        uint32 = 15
	KeyEnter      uint32 = 28
	KeyLeftCtrl   uint32 = 29
	KeyLeftShift  uint32 = 42
	KeyRightShift uint32 = 54
	KeyLeftAlt    uint32 = 56
	KeySpace      uint32 = 57
	KeyCapsLock   uint32 = 58
	KeyF1         uint32 = 59
	KeyF11        uint32 = 87
	KeyF12        uint32 = 88
	KeyRightCtrl  uint32 = 97
	KeyRightAlt   uint32 = 100
	KeyHome       uint32 = 102
	KeyUp         uint32 = 103
	KeyPageUp     uint32 = 104
	KeyLeft       uint32 = 105
	KeyRight      uint32 = 106
	KeyEnd        uint32 = 107
	KeyDown       uint32 = 108
	KeyPageDown   uint32 = 109
	KeyInsert     uint32 = 110
	KeyDelete     uint32 = 111
	KeyLeftMeta   uint32 = 125
	KeyRightMeta  uint32 = 126
	KeyCopy       uint32 = 133
	KeyPaste      uint32 = 135
	KeyCut        uint32 = 137

	KeyC uint32 = 46
	KeyV uint32 = 47
)

// keyNames maps Linux key codes to the key names understood by robotgo.
var keyNames = map[uint32]string{
	1:   "esc",
	2:   "1",
	3:   "2",
	4:   "3",
	5:   "4",
	6:   "5",
	7:   "6",
	8:   "7",
	9:   "8",
	10:  "9",
	11:  "0",
	12:  "-",
	13:  "=",
	14:  "backspace",
	15:  "tab",
	16:  "q",
	17:  "w",
	18:  "e",
	19:  "r",
	20:  "t",
	21:  "y",
	22:  "u",
	23:  "i",
	24:  "o",
	25:  "p",
	26:  "[",
	27:  "]",
	28:  "enter",
	29:  "lctrl",
	30:  "a",
	31:  "s",
	32:  "d",
	33:  "f",
	34:  "g",
	35:  "h",
	36:  "j",
	37:  "k",
	38:  "l",
	39:  ";",
	40:  "'",
	41:  "`",
	42:  "lshift",
	43:  "\\",
	44:  "z",
	45:  "x",
	46:  "c",
	47:  "v",
	48:  "b",
	49:  "n",
	50:  "m",
	51:  ",",
	52:  ".",
	53:  "/",
	54:  "rshift",
	55:  "num*",
	56:  "lalt",
	57:  "space",
	58:  "capslock",
	59:  "f1",
	60:  "f2",
	61:  "f3",
	62:  "f4",
	63:  "f5",
	64:  "f6",
	65:  "f7",
	66:  "f8",
	67:  "f9",
	68:  "f10",
	69:  "num_lock",
	71:  "num7",
	72:  "num8",
	73:  "num9",
	74:  "num-",
	75:  "num4",
	76:  "num5",
	77:  "num6",
	78:  "num+",
	79:  "num1",
	80:  "num2",
	81:  "num3",
	82:  "num0",
	83:  "num.",
	87:  "f11",
	88:  "f12",
	96:  "num_enter",
	97:  "rctrl",
	98:  "num/",
	99:  "printscreen",
	100: "ralt",
	102: "home",
	103: "up",
	104: "pageup",
	105: "left",
	106: "right",
	107: "end",
	108: "down",
	109: "pagedown",
	110: "insert",
	111: "delete",
	113: "audio_mute",
	114: "audio_vol_down",
	115: "audio_vol_up",
	125: "lcmd",
	126: "rcmd",
	163: "audio_next",
	164: "audio_play",
	165: "audio_prev",
	166: "audio_stop",
}

// KeyName returns the lower-case name of a Linux key code, or "" when the
// code has no name.
func KeyName(code uint32) string {
	return keyNames[code]
}

var keyCodes = func() map[string]uint32 {
	m := make(map[string]uint32, len(keyNames))
	for code, name := range keyNames {
		m[name] = code
	}
	return m
}()

// KeyCode returns the Linux key code for a name produced by KeyName. The
// lookup is case-insensitive.
func KeyCode(name string) (uint32, bool) {
	code, ok := keyCodes[strings.ToLower(name)]
	return code, ok
}

// Key is a key to inject. Name, when set, takes precedence over the name
// derived from Code.
type Key struct {
	Code uint32
	Name string
}

// Resolve returns the injectable name of k.
func (k Key) Resolve() (string, bool) {
	if k.Name != "" {
		return k.Name, true
	}
	name := KeyName(k.Code)
	return name, name != ""
}
