// persistence/memory.go
package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/oddroll/models"
)

const defaultMemoryCapacity = 1000

// Memory keeps the most recent records in process memory.
type Memory struct {
	records  []models.GameRecord
	capacity int
	mutex    sync.RWMutex
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	if err := validate(record); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records = append(m.records, *record)
	if over := len(m.records) - m.capacity; over > 0 {
		m.records = append([]models.GameRecord(nil), m.records[over:]...)
	}
	return nil
}

// RecentGameRecords returns up to limit records, newest first.
func (m *Memory) RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]models.GameRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
