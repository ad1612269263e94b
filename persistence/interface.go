// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/oddroll/config"
	"github.com/wfunc/oddroll/models"
)

// Database stores finished games. Live rooms are never persisted.
type Database interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error)
	Close() error
}

// ErrInvalidRecord 错误定义
var ErrInvalidRecord = fmt.Errorf("invalid game record")

func validate(record *models.GameRecord) error {
	if record == nil || record.ID == "" || record.RoomID == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Open picks the store named by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(defaultMemoryCapacity), nil
	case "gorm":
		db, err := NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
