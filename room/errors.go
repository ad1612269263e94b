// room/errors.go
package room

import "errors"

// Kind classifies why an action was rejected.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: malformed input such as an empty name or a bad label.
	KindValidation
	// KindPolicy: well-formed but not allowed now (turn, capacity, phase).
	KindPolicy
	// KindStructural: the action references a room or player that no longer exists.
	KindStructural
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPolicy:
		return "policy"
	case KindStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// Error is a rejected action. No state was changed unless the sentinel says otherwise.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidRoomKey = newError(KindValidation, "invalid_room_key", "room key is required")
	ErrInvalidName    = newError(KindValidation, "invalid_name", "player name is required")
	ErrInvalidLabel   = newError(KindValidation, "invalid_label", "box number must be one of 1, 3, 5, 7, 9")
	ErrSelfTarget     = newError(KindValidation, "self_target", "cannot shoot yourself")

	ErrRoomFull        = newError(KindPolicy, "room_full", "room is full")
	ErrTooFewPlayers   = newError(KindPolicy, "too_few_players", "need at least 2 players")
	ErrAlreadyStarted  = newError(KindPolicy, "already_started", "game already started")
	ErrGameNotStarted  = newError(KindPolicy, "game_not_started", "game has not started")
	ErrGameFinished    = newError(KindPolicy, "game_finished", "game is over")
	ErrNotCurrentTurn  = newError(KindPolicy, "not_your_turn", "not your turn")
	ErrShooterNotAlive = newError(KindPolicy, "shooter_not_alive", "you have been eliminated")
	ErrTargetNotAlive  = newError(KindPolicy, "target_not_alive", "target is not alive")
	ErrNoLoadedGun     = newError(KindPolicy, "no_loaded_gun", "no 3-bullet gun found")
	// ErrAlreadyDisabled is returned after the shooter's charge was spent, unless the
	// room refunds it.
	ErrAlreadyDisabled = newError(KindPolicy, "already_disabled", "box already disabled")
	ErrAlreadyInRoom   = newError(KindPolicy, "already_in_room", "already in a room")
	ErrPhaseNotAllowed = newError(KindPolicy, "phase_not_allowed", "not allowed in this phase")

	ErrNotInRoom      = newError(KindStructural, "not_in_room", "not in a room")
	ErrPlayerNotFound = newError(KindStructural, "player_not_found", "player not found")
	ErrTargetNotFound = newError(KindStructural, "target_not_found", "target not found")
)

// KindOf returns the Kind of a room error, or KindUnknown for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
