package domain

// Mode is the requested depth of an explanation. The zero value is not a
// valid mode; obtain one from the constants or ModeFromIndex.
type Mode int

const (
	ModeSimple Mode = iota + 1
	ModeDetailed
	ModeTechnical
)

// Modes lists every mode in presentation order.
var Modes = [...]Mode{ModeSimple, ModeDetailed, ModeTechnical}

// ModeFromIndex maps a 1-based choice index to a mode.
func ModeFromIndex(i int) (Mode, bool) {
	if i < 1 || i > len(Modes) {
		return 0, false
	}
	return Modes[i-1], true
}

// ParseMode maps a lower-case mode name to a mode.
func ParseMode(name string) (Mode, bool) {
	for _, m := range Modes {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}

// Index is the 1-based choice index of m.
func (m Mode) Index() int { return int(m) }

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeDetailed:
		return "detailed"
	case ModeTechnical:
		return "technical"
	}
	return "unknown"
}

// Label is the button label shown for m.
func (m Mode) Label() string {
	switch m {
	case ModeSimple:
		return "Simple"
	case ModeDetailed:
		return "Detailed"
	case ModeTechnical:
		return "Technical"
	}
	return ""
}
