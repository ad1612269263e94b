// room/room.go
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/state"
)

// Options are the per-room rules taken from configuration.
type Options struct {
	MaxNameLength int
	// RefundChargeOnDisabledTarget restores the shooter's full load when the
	// chosen box was already disabled.
	RefundChargeOnDisabledTarget bool
}

// Room 是游戏房间的核心结构. All fields are guarded by mu; every exported method
// takes the lock, so actions within one room are applied one at a time.
type Room struct {
	ID         string
	Capacity   int
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	players    map[string]*PlayerState // sessionID -> player
	order      []string                // join order
	turnCursor int
	winner     *PlayerState

	machine  state.StateMachine
	lobby    state.State
	active   state.State
	finished state.State

	opts   Options
	dice   Dice
	closed bool
	mu     sync.Mutex
}

// NewRoom 创建一个新房间
func NewRoom(id string, capacity int, opts Options, dice Dice) *Room {
	r := &Room{
		ID:        id,
		Capacity:  capacity,
		CreatedAt: time.Now(),
		players:   make(map[string]*PlayerState),
		opts:      opts,
		dice:      dice,
	}

	r.lobby = state.NewLobbyState(r)
	r.active = state.NewActiveState(r)
	r.finished = state.NewFinishedState(r)

	machine := state.NewBaseStateMachine(r.lobby)
	machine.AddTransition(r.lobby, r.active, func() bool {
		return len(r.players) >= 2
	})
	machine.AddTransition(r.active, r.finished, func() bool {
		return len(r.alivePlayers()) <= 1
	})
	r.machine = machine

	return r
}

// GetID implements state.RoomContext.
func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) phase() state.Phase {
	return r.machine.GetCurrentState().Phase()
}

// Phase reports the room's lifecycle stage.
func (r *Room) Phase() state.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase()
}

func (r *Room) allows(action state.Action) bool {
	return r.machine.GetCurrentState().Allows(action)
}

// --- 内部辅助, 调用方持有 mu ---

func (r *Room) alivePlayers() []*PlayerState {
	alive := make([]*PlayerState, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.IsAlive {
			alive = append(alive, p)
		}
	}
	return alive
}

// currentPlayer resolves the cursor against the live alive ordering. A cursor
// left past the end by an elimination or departure wraps to the first player.
func (r *Room) currentPlayer() *PlayerState {
	if r.phase() != state.PhaseActive {
		return nil
	}
	alive := r.alivePlayers()
	if len(alive) == 0 {
		return nil
	}
	if r.turnCursor >= len(alive) {
		r.turnCursor = 0
	}
	return alive[r.turnCursor]
}

func (r *Room) currentPublic() *PublicPlayer {
	p := r.currentPlayer()
	if p == nil {
		return nil
	}
	pub := p.Public()
	return &pub
}

// advanceTurn moves the cursor to the next alive player. With one or no alive
// players the turn does not change.
func (r *Room) advanceTurn() *PlayerState {
	alive := r.alivePlayers()
	if len(alive) <= 1 {
		return nil
	}
	r.turnCursor++
	if r.turnCursor >= len(alive) {
		r.turnCursor = 0
	}
	return alive[r.turnCursor]
}

// checkWinner finishes the game when exactly one player is left alive.
func (r *Room) checkWinner() *PlayerState {
	if r.phase() != state.PhaseActive {
		return nil
	}
	alive := r.alivePlayers()
	if len(alive) != 1 {
		return nil
	}
	if err := r.machine.ChangeState(r.finished); err != nil {
		logger.Log.Errorf("room %s: cannot finish game: %v", r.ID, err)
		return nil
	}
	r.winner = alive[0]
	r.FinishedAt = time.Now()
	logger.Log.Infof("room %s: %s wins", r.ID, r.winner.Name)
	return r.winner
}

func (r *Room) publicPlayers() []PublicPlayer {
	list := make([]PublicPlayer, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.players[id].Public())
	}
	return list
}

func (r *Room) members() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *Room) finish(winner *PlayerState) *Finish {
	if winner == nil {
		return nil
	}
	standings := make([]Standing, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		standings = append(standings, Standing{PublicPlayer: p.Public(), DisabledBoxes: p.disabledCount()})
	}
	return &Finish{
		RoomID:     r.ID,
		Winner:     winner.Public(),
		Standings:  standings,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func (r *Room) addPlayer(id, name string) error {
	if len(r.players) >= r.Capacity {
		return ErrRoomFull
	}
	r.players[id] = newPlayerState(id, name)
	r.order = append(r.order, id)
	return nil
}

func (r *Room) removePlayer(id string) (*LeaveResult, bool) {
	p, exists := r.players[id]
	if !exists {
		return nil, false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	res := &LeaveResult{RoomID: r.ID, Player: p.Public(), Empty: len(r.players) == 0}
	if res.Empty {
		return res, true
	}

	// 对局中离开导致只剩一名存活玩家, 判其获胜
	if winner := r.checkWinner(); winner != nil {
		pub := winner.Public()
		res.Winner = &pub
		res.Finish = r.finish(winner)
	}
	res.Players = r.publicPlayers()
	res.Current = r.currentPublic()
	res.Members = r.members()
	return res, true
}

// --- 房间核心逻辑 ---

// StartResult is what a successful start broadcasts.
type StartResult struct {
	Current PublicPlayer
	Players []PublicPlayer
	Members []string
}

// Start moves the room from lobby to play. Any member may start; who is
// allowed to press the button is decided by the caller.
func (r *Room) Start(requesterID string) (*StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[requesterID]; !ok {
		return nil, ErrPlayerNotFound
	}
	if !r.allows(state.ActionStart) {
		if r.phase() == state.PhaseFinished {
			return nil, ErrGameFinished
		}
		return nil, ErrAlreadyStarted
	}
	if len(r.players) < 2 {
		return nil, ErrTooFewPlayers
	}
	if err := r.machine.ChangeState(r.active); err != nil {
		return nil, ErrTooFewPlayers
	}

	r.turnCursor = 0
	r.StartedAt = time.Now()
	current := r.currentPlayer()
	logger.Log.Infof("room %s: game started with %d players, %s goes first", r.ID, len(r.players), current.Name)

	return &StartResult{
		Current: current.Public(),
		Players: r.publicPlayers(),
		Members: r.members(),
	}, nil
}

// RollResult carries a resolved roll. Board is the roller's own state and must
// only be delivered to the roller.
type RollResult struct {
	Roller  PublicPlayer
	Label   Label
	Outcome RollOutcome
	Board   Board
	Members []string
}

// Roll draws a face for the current player and applies it to their board.
// The turn does not advance; only a shot does that.
func (r *Room) Roll(requesterID string) (*RollResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.allows(state.ActionRoll) {
		if r.phase() == state.PhaseFinished {
			return nil, ErrGameFinished
		}
		return nil, ErrNotCurrentTurn
	}
	player, ok := r.players[requesterID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	current := r.currentPlayer()
	if current == nil || current.ID != player.ID {
		return nil, ErrNotCurrentTurn
	}

	label := r.dice.Roll()
	outcome := player.applyRoll(label)
	logger.Log.Infof("room %s: %s rolled %d: %s", r.ID, player.Name, label, outcome.Message)

	return &RollResult{
		Roller:  player.Public(),
		Label:   label,
		Outcome: outcome,
		Board:   player.Board(),
		Members: r.members(),
	}, nil
}

// ShootResult is the room-wide outcome of a successful shot. Exactly one of
// Winner and Next is set when the game goes on or ends; both are nil when the
// turn could not move.
type ShootResult struct {
	ShooterID   string
	TargetID    string
	DisabledBox Label
	ConsumedBox Label
	Eliminated  bool
	Message     string
	Players     []PublicPlayer
	Winner      *PublicPlayer
	Next        *PublicPlayer
	Finish      *Finish
	Members     []string
}

// Shoot spends the shooter's first full load to disable a box on the target.
// The load is spent before the target box is checked, so ErrAlreadyDisabled
// still costs the shot unless the room refunds it.
func (r *Room) Shoot(shooterID, targetID string, label Label) (*ShootResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.allows(state.ActionShoot) {
		if r.phase() == state.PhaseFinished {
			return nil, ErrGameFinished
		}
		return nil, ErrGameNotStarted
	}

	shooter, ok := r.players[shooterID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !shooter.IsAlive {
		return nil, ErrShooterNotAlive
	}
	target, ok := r.players[targetID]
	if !ok {
		return nil, ErrTargetNotFound
	}
	if !target.IsAlive {
		return nil, ErrTargetNotAlive
	}
	if shooterID == targetID {
		return nil, ErrSelfTarget
	}
	if !label.Valid() {
		return nil, ErrInvalidLabel
	}
	consumed, gun, ok := shooter.loadedBox()
	if !ok {
		return nil, ErrNoLoadedGun
	}

	gun.BulletCount = 0
	shooter.MustShoot = false

	if target.Box(label).Disabled {
		if r.opts.RefundChargeOnDisabledTarget {
			gun.BulletCount = FullLoad
			shooter.MustShoot = true
		}
		logger.Log.Infof("room %s: %s shot %s's box %d which was already disabled", r.ID, shooter.Name, target.Name, label)
		return nil, ErrAlreadyDisabled
	}

	target.disable(label)
	res := &ShootResult{
		ShooterID:   shooterID,
		TargetID:    targetID,
		DisabledBox: label,
		ConsumedBox: consumed,
		Eliminated:  !target.IsAlive,
		Message:     fmt.Sprintf("%s's box %d disabled", target.Name, label),
	}
	logger.Log.Infof("room %s: %s disabled %s's box %d (eliminated=%v)", r.ID, shooter.Name, target.Name, label, res.Eliminated)

	if winner := r.checkWinner(); winner != nil {
		pub := winner.Public()
		res.Winner = &pub
		res.Finish = r.finish(winner)
	} else if next := r.advanceTurn(); next != nil {
		pub := next.Public()
		res.Next = &pub
	}

	res.Players = r.publicPlayers()
	res.Members = r.members()
	return res, nil
}

// Snapshot is an on-demand resync for one member.
type Snapshot struct {
	RoomID   string
	Phase    state.Phase
	Players  []PublicPlayer
	Current  *PublicPlayer
	Winner   *PublicPlayer
	MyState  Board
	Capacity int
}

// Snapshot returns the public list, current player and the requester's own board.
func (r *Room) Snapshot(requesterID string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[requesterID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !r.allows(state.ActionState) {
		return nil, ErrPhaseNotAllowed
	}
	snap := &Snapshot{
		RoomID:   r.ID,
		Phase:    r.phase(),
		Players:  r.publicPlayers(),
		Current:  r.currentPublic(),
		MyState:  p.Board(),
		Capacity: r.Capacity,
	}
	if r.winner != nil {
		w := r.winner.Public()
		snap.Winner = &w
	}
	return snap, nil
}

// Speaker returns a member's display name and the room's recipients, for chat relay.
func (r *Room) Speaker(id string) (string, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return "", nil, ErrPlayerNotFound
	}
	if !r.allows(state.ActionChat) {
		return "", nil, ErrPhaseNotAllowed
	}
	return p.Name, r.members(), nil
}

// Members returns member session IDs in join order.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members()
}

// Summary 房间概要, 用于管理接口
type Summary struct {
	ID       string `json:"id"`
	Phase    string `json:"phase"`
	Players  int    `json:"players"`
	Alive    int    `json:"alive"`
	Capacity int    `json:"capacity"`
	Current  string `json:"current,omitempty"`
	Winner   string `json:"winner,omitempty"`
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		ID:       r.ID,
		Phase:    r.phase().String(),
		Players:  len(r.players),
		Alive:    len(r.alivePlayers()),
		Capacity: r.Capacity,
	}
	if c := r.currentPlayer(); c != nil {
		s.Current = c.Name
	}
	if r.winner != nil {
		s.Winner = r.winner.Name
	}
	return s
}

// Standing is one player's final line in a finished game.
type Standing struct {
	PublicPlayer
	DisabledBoxes int
}

// Finish summarises a game that just ended.
type Finish struct {
	RoomID     string
	Winner     PublicPlayer
	Standings  []Standing
	StartedAt  time.Time
	FinishedAt time.Time
}
