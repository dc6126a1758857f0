package submit

// State represents the lifecycle of a single submission attempt
type State string

const (
	// StateAttempting is the initial state: the direct network request is in
	// flight.
	StateAttempting State = "ATTEMPTING"

	// StateSucceeded means the server accepted the submission.
	StateSucceeded State = "SUCCEEDED"

	// StateQueuedOffline means the request got no server response and the
	// payload was handed to the durable queue; the actual submission happens
	// later via the sync engine.
	StateQueuedOffline State = "QUEUED_OFFLINE"

	// StateFailed means the request reached the server and was rejected.
	// Never queued: an automatic retry would repeat the rejection.
	StateFailed State = "FAILED"
)

var validStates = map[State]bool{
	StateAttempting:    true,
	StateSucceeded:     true,
	StateQueuedOffline: true,
	StateFailed:        true,
}

var terminalStates = map[State]bool{
	StateSucceeded:     true,
	StateQueuedOffline: true,
	StateFailed:        true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known submission state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
