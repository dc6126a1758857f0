package submit

import "testing"

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateAttempting, false},
		{StateSucceeded, true},
		{StateQueuedOffline, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"attempting", StateAttempting, true},
		{"succeeded", StateSucceeded, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		want    State
	}{
		{"succeed", TriggerSucceed, StateSucceeded},
		{"queue", TriggerQueue, StateQueuedOffline},
		{"reject", TriggerReject, StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			if m.State() != StateAttempting {
				t.Fatalf("initial state = %v, want %v", m.State(), StateAttempting)
			}
			if !m.CanFire(tt.trigger) {
				t.Fatalf("CanFire(%v) = false, want true", tt.trigger)
			}
			if err := m.Fire(tt.trigger); err != nil {
				t.Fatalf("Fire(%v) error = %v", tt.trigger, err)
			}
			if m.State() != tt.want {
				t.Errorf("State() = %v, want %v", m.State(), tt.want)
			}
		})
	}
}

func TestMachine_TerminalStatesRejectTriggers(t *testing.T) {
	m := NewMachine()
	if err := m.Fire(TriggerSucceed); err != nil {
		t.Fatalf("Fire(TriggerSucceed) error = %v", err)
	}

	for _, trigger := range []Trigger{TriggerSucceed, TriggerQueue, TriggerReject} {
		if m.CanFire(trigger) {
			t.Errorf("CanFire(%v) = true in terminal state", trigger)
		}
		if err := m.Fire(trigger); err != ErrInvalidTransition {
			t.Errorf("Fire(%v) error = %v, want ErrInvalidTransition", trigger, err)
		}
	}
}
