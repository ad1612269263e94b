// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/oddroll/models"
)

// PostgreSQL 数据库实现 (database/sql + lib/pq)
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构, compatible with the gorm store
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            record_id TEXT UNIQUE NOT NULL,
            room_id TEXT NOT NULL,
            winner_id TEXT NOT NULL,
            winner_name TEXT NOT NULL,
            players JSONB NOT NULL,
            started_at TIMESTAMPTZ,
            finished_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return fmt.Errorf("create game_records: %w", err)
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_finished_at ON game_records(finished_at);
    `)
	return err
}

// SaveGameRecord 保存对局记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	if err := validate(record); err != nil {
		return err
	}
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO game_records (record_id, room_id, winner_id, winner_name, players, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (record_id) DO NOTHING
    `
	_, err = p.db.ExecContext(ctx, query,
		record.ID,
		record.RoomID,
		record.Winner.PlayerID,
		record.Winner.Name,
		players,
		record.StartedAt,
		record.FinishedAt)
	return err
}

// RecentGameRecords 最近的对局, newest first
func (p *PostgreSQL) RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
        SELECT record_id, room_id, winner_id, winner_name, players, started_at, finished_at
        FROM game_records
        ORDER BY finished_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var (
			row     models.GormGameRecord
			players []byte
			started sql.NullTime
			ended   sql.NullTime
		)
		if err := rows.Scan(&row.RecordID, &row.RoomID, &row.WinnerID, &row.WinnerName, &players, &started, &ended); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &row.Players); err != nil {
			return nil, err
		}
		row.StartedAt = started.Time
		row.FinishedAt = ended.Time
		records = append(records, row.Record())
	}
	return records, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
