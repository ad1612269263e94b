// models/gorm_models.go
package models

import (
	"time"
)

// GormGameRecord is the game_records row.
type GormGameRecord struct {
	ID         uint           `gorm:"primaryKey"`
	RecordID   string         `gorm:"uniqueIndex;not null"`
	RoomID     string         `gorm:"index;not null"`
	WinnerID   string         `gorm:"not null"`
	WinnerName string         `gorm:"not null"`
	Players    []PlayerResult `gorm:"serializer:json;type:jsonb;not null"`
	StartedAt  time.Time
	FinishedAt time.Time `gorm:"index"`
	CreatedAt  time.Time
}

func (GormGameRecord) TableName() string {
	return "game_records"
}

// NewGormGameRecord flattens a record into its row.
func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RecordID:   r.ID,
		RoomID:     r.RoomID,
		WinnerID:   r.Winner.PlayerID,
		WinnerName: r.Winner.Name,
		Players:    r.Players,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// Record rebuilds the domain record; the winner is looked up in Players.
func (g *GormGameRecord) Record() GameRecord {
	rec := GameRecord{
		ID:         g.RecordID,
		RoomID:     g.RoomID,
		Players:    g.Players,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
		Winner:     PlayerResult{PlayerID: g.WinnerID, Name: g.WinnerName, Outcome: OutcomeWin},
	}
	for _, p := range g.Players {
		if p.PlayerID == g.WinnerID {
			rec.Winner = p
			break
		}
	}
	return rec
}
