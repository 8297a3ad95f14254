package app

// State is the recorder lifecycle.
type State int

// Lifecycle states, in the order the record button walks through them.
const (
	BeforeRecording State = iota
	OnRecording
	AfterRecording
	OnPlaying
)

var stateNames = [...]string{
	BeforeRecording: "idle",
	OnRecording:     "recording",
	AfterRecording:  "stopped",
	OnPlaying:       "playing",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ResetEnabled reports whether the reset button is usable in this state.
func (s State) ResetEnabled() bool {
	return s == AfterRecording || s == OnPlaying
}
