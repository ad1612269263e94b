// models/models.go
package models

import (
	"time"
)

// GameRecord 对局记录, written once when a room reaches its winner.
type GameRecord struct {
	ID         string         `json:"id"`
	RoomID     string         `json:"room_id"`
	Winner     PlayerResult   `json:"winner"`
	Players    []PlayerResult `json:"players"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Duration is how long the game ran.
func (r *GameRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// PlayerResult 玩家结果（用于对局记录）
type PlayerResult struct {
	PlayerID      string `json:"player_id"`
	Name          string `json:"name"`
	Outcome       string `json:"outcome"` // win/lose
	Alive         bool   `json:"alive"`
	DisabledBoxes int    `json:"disabled_boxes"`
	BodyParts     int    `json:"body_parts"`
}

const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
)
