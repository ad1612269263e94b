// state/phases.go
package state

import (
	"github.com/wfunc/oddroll/logger"
)

// Phase is the coarse room lifecycle stage.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseActive
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Action names a player request that a phase may accept or refuse.
// Leaving is not an Action: a closed connection cannot be refused.
type Action string

const (
	ActionJoin  Action = "join"
	ActionStart Action = "start"
	ActionRoll  Action = "roll"
	ActionShoot Action = "shoot"
	ActionChat  Action = "chat"
	ActionState Action = "state"
)

// 房间阶段状态
type PhaseState struct {
	ID      string
	Room    RoomContext
	phase   Phase
	allowed map[Action]bool
}

func newPhaseState(room RoomContext, phase Phase, actions ...Action) *PhaseState {
	allowed := make(map[Action]bool, len(actions))
	for _, a := range actions {
		allowed[a] = true
	}
	return &PhaseState{
		ID:      phase.String(),
		Room:    room,
		phase:   phase,
		allowed: allowed,
	}
}

// NewLobbyState creates the waiting phase: players gather until someone starts the game.
func NewLobbyState(room RoomContext) *PhaseState {
	return newPhaseState(room, PhaseLobby,
		ActionJoin, ActionStart, ActionChat, ActionState)
}

// NewActiveState creates the playing phase.
func NewActiveState(room RoomContext) *PhaseState {
	return newPhaseState(room, PhaseActive,
		ActionJoin, ActionRoll, ActionShoot, ActionChat, ActionState)
}

// NewFinishedState creates the terminal phase. Nothing that changes a board is accepted.
func NewFinishedState(room RoomContext) *PhaseState {
	return newPhaseState(room, PhaseFinished,
		ActionJoin, ActionChat, ActionState)
}

func (s *PhaseState) GetID() string {
	return s.ID
}

func (s *PhaseState) Phase() Phase {
	return s.phase
}

func (s *PhaseState) Allows(action Action) bool {
	return s.allowed[action]
}

func (s *PhaseState) OnEnter() {
	logger.Log.Debugf("room %s entered %s phase", s.Room.GetID(), s.ID)
}

func (s *PhaseState) OnExit() {
	logger.Log.Debugf("room %s left %s phase", s.Room.GetID(), s.ID)
}
