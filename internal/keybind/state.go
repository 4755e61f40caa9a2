package keybind

import "fmt"

// Transition is the key transition encoded in the first state character.
type Transition byte

// Key transitions.
const (
	TransitionUp     Transition = 'u'
	TransitionDown   Transition = 'd'
	TransitionPress  Transition = 'p'
	TransitionRepeat Transition = 'r'
)

// String returns the transition name.
func (t Transition) String() string {
	switch t {
	case TransitionUp:
		return "up"
	case TransitionDown:
		return "down"
	case TransitionPress:
		return "press"
	case TransitionRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// KeyState is a parsed key state code.
type KeyState struct {
	Transition Transition

	// Qualifier is the optional second character ('m' or 0).
	Qualifier byte
}

// ParseState parses a state code such as "d", "um" or "r".
func ParseState(code string) (KeyState, error) {
	if code == "" {
		return KeyState{}, fmt.Errorf("%w: empty", ErrInvalidKeyState)
	}

	st := KeyState{Transition: Transition(code[0])}
	switch st.Transition {
	case TransitionUp, TransitionDown, TransitionPress, TransitionRepeat:
	default:
		return KeyState{}, fmt.Errorf("%w: %q", ErrInvalidKeyState, code)
	}
	if len(code) > 1 {
		st.Qualifier = code[1]
	}
	return st, nil
}

// Emit reports whether the state is a qualifying emit transition: an up
// transition qualified with 'm', or a down transition.
func (s KeyState) Emit() bool {
	if s.Transition == TransitionUp {
		return s.Qualifier == 'm'
	}
	return s.Transition == TransitionDown
}

// Repeating reports whether the state is a press or a key repeat.
func (s KeyState) Repeating() bool {
	return s.Transition == TransitionPress || s.Transition == TransitionRepeat
}

// ShouldFire reports whether a binding's callback runs for this state.
// Emit transitions always fire; press and repeat fire only for repeatable
// bindings.
func (s KeyState) ShouldFire(repeatable bool) bool {
	if s.Emit() {
		return true
	}
	return s.Repeating() && repeatable
}

// String returns the state code.
func (s KeyState) String() string {
	if s.Qualifier == 0 {
		return string(s.Transition)
	}
	return string([]byte{byte(s.Transition), s.Qualifier})
}
