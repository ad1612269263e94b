// room/manager.go
package room

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/state"
)

// Settings are the registry-wide room rules.
type Settings struct {
	DefaultCapacity int
	MinCapacity     int
	MaxCapacity     int
	Options
}

// DefaultSettings mirror the stock game: up to six players, names of twenty characters.
func DefaultSettings() Settings {
	return Settings{
		DefaultCapacity: 6,
		MinCapacity:     2,
		MaxCapacity:     6,
		Options:         Options{MaxNameLength: 20},
	}
}

// JoinResult is returned to the joining connection; Others are the members
// that must be told about the newcomer.
type JoinResult struct {
	RoomID   string
	PlayerID string
	Created  bool
	Capacity int
	Phase    string
	Players  []PublicPlayer
	Current  *PublicPlayer
	Others   []string
}

// LeaveResult describes a departure. When Empty is set the room is gone and
// nobody is left to notify.
type LeaveResult struct {
	RoomID  string
	Player  PublicPlayer
	Empty   bool
	Players []PublicPlayer
	Current *PublicPlayer
	Winner  *PublicPlayer
	Finish  *Finish
	Members []string
}

// Manager 管理所有房间. It is the only owner of rooms; rooms are created on the
// first join to an unknown key and dropped as soon as they empty.
type Manager struct {
	rooms    map[string]*Room
	members  map[string]string // sessionID -> roomID
	settings Settings
	dice     Dice
	mutex    sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(settings Settings, dice Dice) *Manager {
	if dice == nil {
		dice = NewRandomDice()
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		members:  make(map[string]string),
		settings: settings,
		dice:     dice,
	}
}

// Capacity clamps a creator's hint. Zero or negative means "use the default".
func (m *Manager) Capacity(hint int) int {
	if hint <= 0 {
		return m.settings.DefaultCapacity
	}
	if hint < m.settings.MinCapacity {
		return m.settings.MinCapacity
	}
	if m.settings.MaxCapacity > 0 && hint > m.settings.MaxCapacity {
		return m.settings.MaxCapacity
	}
	return hint
}

func (m *Manager) normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if limit := m.settings.MaxNameLength; limit > 0 && utf8.RuneCountInString(name) > limit {
		name = strings.TrimSpace(string([]rune(name)[:limit]))
	}
	return name, nil
}

func (m *Manager) getOrCreate(id string, capacityHint int) (*Room, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if r, exists := m.rooms[id]; exists {
		return r, false
	}
	r := NewRoom(id, m.Capacity(capacityHint), m.settings.Options, m.dice)
	m.rooms[id] = r
	logger.Log.Infof("room %s created (capacity %d)", id, r.Capacity)
	return r, true
}

// dropRoom removes the entry only if it still points at r.
func (m *Manager) dropRoom(r *Room) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if cur, exists := m.rooms[r.ID]; exists && cur == r {
		delete(m.rooms, r.ID)
		logger.Log.Infof("room %s deleted (empty)", r.ID)
	}
}

// Join adds a connection to the room with the given key, creating it on demand.
// The key is used verbatim; only an all-blank key is rejected.
// The capacity hint only matters when the room is created.
func (m *Manager) Join(sessionID, roomID, name string, capacityHint int) (*JoinResult, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, ErrInvalidRoomKey
	}
	name, err := m.normalizeName(name)
	if err != nil {
		return nil, err
	}

	m.mutex.RLock()
	_, inRoom := m.members[sessionID]
	m.mutex.RUnlock()
	if inRoom {
		return nil, ErrAlreadyInRoom
	}

	for {
		r, created := m.getOrCreate(roomID, capacityHint)

		r.mu.Lock()
		if r.closed {
			// emptied and dropped between lookup and lock; the next lookup creates a fresh room
			r.mu.Unlock()
			continue
		}
		if !r.allows(state.ActionJoin) {
			r.mu.Unlock()
			return nil, ErrPhaseNotAllowed
		}
		if err := r.addPlayer(sessionID, name); err != nil {
			r.mu.Unlock()
			return nil, err
		}

		res := &JoinResult{
			RoomID:   r.ID,
			PlayerID: sessionID,
			Created:  created,
			Capacity: r.Capacity,
			Phase:    r.phase().String(),
			Players:  r.publicPlayers(),
			Current:  r.currentPublic(),
		}
		for _, id := range r.order {
			if id != sessionID {
				res.Others = append(res.Others, id)
			}
		}

		m.mutex.Lock()
		m.members[sessionID] = r.ID
		m.mutex.Unlock()
		r.mu.Unlock()

		logger.Log.Infof("%s joined room %s (%d/%d)", name, r.ID, len(res.Players), r.Capacity)
		return res, nil
	}
}

// Leave removes a connection from its room. The room is torn down when it empties.
func (m *Manager) Leave(sessionID string) (*LeaveResult, error) {
	m.mutex.Lock()
	roomID, inRoom := m.members[sessionID]
	delete(m.members, sessionID)
	r := m.rooms[roomID]
	m.mutex.Unlock()

	if !inRoom || r == nil {
		return nil, ErrNotInRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, removed := r.removePlayer(sessionID)
	if !removed {
		return nil, ErrPlayerNotFound
	}
	if res.Empty {
		r.closed = true
		m.dropRoom(r)
	}
	logger.Log.Infof("%s left room %s", res.Player.Name, r.ID)
	return res, nil
}

// Locate returns the room a connection is in.
func (m *Manager) Locate(sessionID string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	roomID, inRoom := m.members[sessionID]
	if !inRoom {
		return nil, false
	}
	r, exists := m.rooms[roomID]
	return r, exists
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.rooms[id]
	return r, exists
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// PlayerCount returns the number of connections seated in any room.
func (m *Manager) PlayerCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.members)
}

// Summaries lists every room, ordered by key.
func (m *Manager) Summaries() []Summary {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	list := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		list = append(list, r.Summary())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
