package state

import (
	"testing"
)

// MockState is a test double for the State interface.
// It helps us track which methods have been called.
type MockState struct {
	ID            string
	OnEnterCalled bool
	OnExitCalled  bool
}

func (m *MockState) OnEnter() {
	m.OnEnterCalled = true
}

func (m *MockState) OnExit() {
	m.OnExitCalled = true
}

func (m *MockState) GetID() string {
	return m.ID
}

func (m *MockState) Phase() Phase {
	return PhaseLobby
}

func (m *MockState) Allows(action Action) bool {
	return true
}

// reset clears the call tracking flags.
func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
}

type namedRoom string

func (r namedRoom) GetID() string { return string(r) }

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != initialState {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	sm.AddTransition(initialState, nextState, nil)
	initialState.reset() // Reset after initialization

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}

	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}

	if sm.GetCurrentState() != nextState {
		t.Error("GetCurrentState should return the new state")
	}
}

func TestStateMachine_UnregisteredTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}

	sm := NewBaseStateMachine(stateA)
	stateA.reset()

	if err := sm.ChangeState(stateB); err != ErrTransitionNotAllowed {
		t.Fatalf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if stateA.OnExitCalled {
		t.Error("OnExit should not be called when the transition is not registered")
	}
	if sm.GetCurrentState() != stateA {
		t.Error("Current state should not change")
	}
}

func TestStateMachine_AddAndUseTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewBaseStateMachine(stateA)

	// Add a valid transition from A to B
	err := sm.AddTransition(stateA, stateB, func() bool { return true })
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// Add a blocked transition from B to C
	err = sm.AddTransition(stateB, stateC, func() bool { return false })
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// --- Test valid transition ---
	stateA.reset()
	err = sm.ChangeState(stateB)
	if err != nil {
		t.Errorf("Expected transition from A to B to be allowed, but got error: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to be B, but got %s", sm.GetCurrentState().GetID())
	}

	// --- Test blocked transition ---
	stateB.reset()
	err = sm.ChangeState(stateC)
	if err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to remain B after a blocked transition, but got %s", sm.GetCurrentState().GetID())
	}
	if stateB.OnExitCalled {
		t.Error("OnExit should not be called on the current state if transition is blocked")
	}
	if stateC.OnEnterCalled {
		t.Error("OnEnter should not be called on the new state if transition is blocked")
	}
}

func TestPhaseStates_AllowedActions(t *testing.T) {
	room := namedRoom("r1")
	tests := []struct {
		state  *PhaseState
		action Action
		want   bool
	}{
		{NewLobbyState(room), ActionStart, true},
		{NewLobbyState(room), ActionRoll, false},
		{NewLobbyState(room), ActionShoot, false},
		{NewActiveState(room), ActionRoll, true},
		{NewActiveState(room), ActionShoot, true},
		{NewActiveState(room), ActionStart, false},
		{NewFinishedState(room), ActionRoll, false},
		{NewFinishedState(room), ActionShoot, false},
		{NewFinishedState(room), ActionStart, false},
		{NewFinishedState(room), ActionState, true},
		{NewFinishedState(room), ActionJoin, true},
		{NewFinishedState(room), ActionChat, true},
	}

	for _, tt := range tests {
		if got := tt.state.Allows(tt.action); got != tt.want {
			t.Errorf("%s.Allows(%s) = %v, expected %v", tt.state.GetID(), tt.action, got, tt.want)
		}
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseActive.String() != "active" {
		t.Errorf("Expected active, got %s", PhaseActive.String())
	}
	if NewFinishedState(namedRoom("r")).Phase() != PhaseFinished {
		t.Error("Finished state should report PhaseFinished")
	}
}
