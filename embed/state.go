package embed

// State is the lifecycle state of one embedding
type State int

const (
	// StateUninitialized is the state before Mount and after Unmount
	StateUninitialized State = iota
	// StateAwaitingReadiness buffers configuration and subscriptions until the
	// content announces itself
	StateAwaitingReadiness
	// StateActive has a live bridge
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingReadiness:
		return "awaiting-readiness"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}
