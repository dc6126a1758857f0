package submit

import "errors"

// Trigger represents an event that moves a submission attempt forward
type Trigger string

const (
	TriggerSucceed Trigger = "SUCCEED"
	TriggerQueue   Trigger = "QUEUE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// ErrInvalidTransition is returned when a trigger is not permitted in the
// current state
var ErrInvalidTransition = errors.New("invalid submission state transition")

var transitions = map[State]map[Trigger]State{
	StateAttempting: {
		TriggerSucceed: StateSucceeded,
		TriggerQueue:   StateQueuedOffline,
		TriggerReject:  StateFailed,
	},
}

// Machine tracks one submission attempt's state
type Machine struct {
	state State
}

// NewMachine creates a machine in the Attempting state
func NewMachine() *Machine {
	return &Machine{state: StateAttempting}
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := transitions[m.state][trigger]
	return ok
}

// Fire executes the trigger, transitioning to the new state if allowed
func (m *Machine) Fire(trigger Trigger) error {
	next, ok := transitions[m.state][trigger]
	if !ok {
		return ErrInvalidTransition
	}
	m.state = next
	return nil
}
