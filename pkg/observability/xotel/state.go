package xotel

// State Manager 的生命周期状态。
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateStarted
	StateShuttingDown
	StateStopped
	StateDisabled
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateStarting:      "starting",
	StateStarted:       "started",
	StateShuttingDown:  "shutting_down",
	StateStopped:       "stopped",
	StateDisabled:      "disabled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
