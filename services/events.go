// services/events.go
package services

import (
	"github.com/wfunc/oddroll/room"
)

// Event is one outbound message and the sessions that must receive it.
// Recipients are resolved under the room lock, so delivery never looks the room up again.
type Event struct {
	MsgID      uint16
	Recipients []string
	Payload    interface{}
}

func private(sessionID string, msgID uint16, payload interface{}) Event {
	return Event{MsgID: msgID, Recipients: []string{sessionID}, Payload: payload}
}

func toMembers(members []string, msgID uint16, payload interface{}) Event {
	return Event{MsgID: msgID, Recipients: members, Payload: payload}
}

func except(members []string, sessionID string) []string {
	out := make([]string, 0, len(members))
	for _, id := range members {
		if id != sessionID {
			out = append(out, id)
		}
	}
	return out
}

// Notice is a private rejection: joinFailed, notYourTurn, shootFailed, actionFailed, serverError.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type JoinSuccess struct {
	PlayerID string              `json:"playerId"`
	RoomKey  string              `json:"roomKey"`
	Capacity int                 `json:"maxPlayers"`
	Phase    string              `json:"phase"`
	Players  []room.PublicPlayer `json:"players"`
}

// PlayersUpdate is sent for playerJoined and playerLeft.
type PlayersUpdate struct {
	Players       []room.PublicPlayer `json:"players"`
	CurrentPlayer *room.PublicPlayer  `json:"currentPlayer"`
}

type GameStarted struct {
	CurrentPlayer room.PublicPlayer   `json:"currentPlayer"`
	Players       []room.PublicPlayer `json:"players"`
}

// DiceRolled goes to the whole room; CurrentPlayerState is only filled in the
// roller's own copy.
type DiceRolled struct {
	PlayerID           string           `json:"playerId"`
	PlayerName         string           `json:"playerName"`
	RolledNumber       room.Label       `json:"rolledNumber"`
	Result             room.RollOutcome `json:"result"`
	CurrentPlayerState *room.Board      `json:"currentPlayerState,omitempty"`
}

type TurnChanged struct {
	CurrentPlayer room.PublicPlayer   `json:"currentPlayer"`
	Players       []room.PublicPlayer `json:"players"`
}

type PlayerShot struct {
	ShooterID      string              `json:"shooterId"`
	TargetID       string              `json:"targetId"`
	DisabledBox    room.Label          `json:"disabledBox"`
	Eliminated     bool                `json:"eliminated"`
	Message        string              `json:"message"`
	UpdatedPlayers []room.PublicPlayer `json:"updatedPlayers"`
}

type GameOver struct {
	Winner room.PublicPlayer `json:"winner"`
}

type GameState struct {
	Phase         string              `json:"phase"`
	Players       []room.PublicPlayer `json:"players"`
	CurrentPlayer *room.PublicPlayer  `json:"currentPlayer"`
	Winner        *room.PublicPlayer  `json:"winner,omitempty"`
	MyState       room.Board          `json:"myState"`
}

type ChatMessage struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}
