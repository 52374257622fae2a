package input

import "strings"

// Modifier is the set of modifier keys currently held.
type Modifier uint16

const (
	ModShift Modifier = 1 << iota
	ModAltGr
	ModControl
	ModAlt
	ModLShift
	ModRShift
	ModLControl
	ModRControl
	ModCapsShift
)

// ModNone is the empty set.
const ModNone Modifier = 0

var modifierNames = []struct {
	bit  Modifier
	name string
}{
	{ModShift, "Shift"},
	{ModAltGr, "AltGr"},
	{ModControl, "Control"},
	{ModAlt, "Alt"},
	{ModLShift, "LShift"},
	{ModRShift, "RShift"},
	{ModLControl, "LControl"},
	{ModRControl, "RControl"},
	{ModCapsShift, "CapsShift"},
}

// Set adds every bit of other to m.
func (m *Modifier) Set(other Modifier) { *m |= other }

// Remove clears every bit of other from m.
func (m *Modifier) Remove(other Modifier) { *m &^= other }

// Contains reports whether every bit of other is held.
func (m Modifier) Contains(other Modifier) bool { return m&other == other }

func (m Modifier) IsShift() bool {
	return m&(ModShift|ModLShift|ModRShift) != 0
}

func (m Modifier) IsControl() bool {
	return m&(ModControl|ModLControl|ModRControl) != 0
}

func (m Modifier) IsAlt() bool {
	return m&(ModAlt|ModAltGr) != 0
}

func (m Modifier) String() string {
	if m == ModNone {
		return "None"
	}
	var parts []string
	for _, mn := range modifierNames {
		if m.Contains(mn.bit) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ModifierForKey returns the modifier bit tracked for a key code, if the key
// is a modifier.
func ModifierForKey(code uint32) (Modifier, bool) {
	switch code {
	case KeyLeftShift:
		return ModLShift, true
	case KeyRightShift:
		return ModRShift, true
	case KeyLeftCtrl:
		return ModLControl, true
	case KeyRightCtrl:
		return ModRControl, true
	case KeyLeftAlt:
		return ModAlt, true
	case KeyRightAlt:
		return ModAltGr, true
	case KeyCapsLock:
		return ModCapsShift, true
	default:
		return ModNone, false
	}
}
