package maintenance

// RemediationState is a state of the remediation loop.
type RemediationState int

const (
	// StateChecking verifies that every required artifact exists.
	StateChecking RemediationState = iota
	// StateRestarting restarts the node agent.
	StateRestarting
	// StateWaiting lets the restarted agent settle.
	StateWaiting
	// StateSucceeded is terminal: all artifacts are present.
	StateSucceeded
	// StateFailed is terminal: artifacts are still missing after the budget is spent.
	StateFailed
)

// String implements fmt.Stringer.
func (s RemediationState) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateRestarting:
		return "restarting"
	case StateWaiting:
		return "waiting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves the state.
func (s RemediationState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
