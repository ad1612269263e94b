// services/game_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/models"
	"github.com/wfunc/oddroll/network"
	"github.com/wfunc/oddroll/room"
)

const recordTimeout = 5 * time.Second

// Recorder stores finished games.
type Recorder interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
}

// Observer receives game counters. monitor.Monitor implements it.
type Observer interface {
	GameStarted()
	GameFinished()
	DiceRolled(success bool)
	PlayerShot(eliminated bool)
	ActionRejected(kind string)
}

type nopObserver struct{}

func (nopObserver) GameStarted()          {}
func (nopObserver) GameFinished()         {}
func (nopObserver) DiceRolled(bool)       {}
func (nopObserver) PlayerShot(bool)       {}
func (nopObserver) ActionRejected(string) {}

// GameService turns inbound actions into room mutations and the events to deliver.
// It never writes to a connection itself.
type GameService struct {
	rooms         *room.Manager
	recorder      Recorder
	observer      Observer
	maxChatLength int
}

// NewGameService wires the engine. recorder and observer may be nil.
func NewGameService(rooms *room.Manager, recorder Recorder, observer Observer, maxChatLength int) *GameService {
	if observer == nil {
		observer = nopObserver{}
	}
	if maxChatLength <= 0 {
		maxChatLength = 200
	}
	return &GameService{
		rooms:         rooms,
		recorder:      recorder,
		observer:      observer,
		maxChatLength: maxChatLength,
	}
}

// Handle decodes one inbound packet and runs the matching action.
func (s *GameService) Handle(sessionID string, msgID uint16, data []byte) []Event {
	switch msgID {
	case network.MsgTypeJoinRoom:
		var req network.JoinRoomRequest
		if err := decode(data, &req); err != nil {
			return s.malformed(sessionID, network.MsgTypeJoinFailed, err)
		}
		return s.Join(sessionID, req)
	case network.MsgTypeStartGame:
		return s.Start(sessionID)
	case network.MsgTypeRollDice:
		return s.Roll(sessionID)
	case network.MsgTypeShootPlayer:
		var req network.ShootPlayerRequest
		if err := decode(data, &req); err != nil {
			return s.malformed(sessionID, network.MsgTypeShootFailed, err)
		}
		return s.Shoot(sessionID, req)
	case network.MsgTypeSendChat:
		var req network.SendChatRequest
		if err := decode(data, &req); err != nil {
			return s.malformed(sessionID, network.MsgTypeActionFailed, err)
		}
		return s.Chat(sessionID, req)
	case network.MsgTypeGetGameState:
		return s.State(sessionID)
	case network.MsgTypeLeaveRoom:
		return s.Leave(sessionID)
	default:
		logger.Log.Infof("Unknown message type %d from session %s", msgID, sessionID)
		return []Event{private(sessionID, network.MsgTypeActionFailed,
			Notice{Code: "unknown_message", Message: fmt.Sprintf("unknown message type %d", msgID)})}
	}
}

func decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(data, v)
}

func (s *GameService) malformed(sessionID string, msgID uint16, err error) []Event {
	logger.Log.Debugf("session %s sent a malformed %s: %v", sessionID, network.MsgName(msgID), err)
	s.observer.ActionRejected(room.KindValidation.String())
	return []Event{private(sessionID, msgID, Notice{Code: "malformed_request", Message: "malformed request"})}
}

// reject turns a room error into a private notice.
func (s *GameService) reject(sessionID string, msgID uint16, err error) []Event {
	code := "error"
	var re *room.Error
	if errors.As(err, &re) {
		code = re.Code
	}
	kind := room.KindOf(err)
	logger.Log.Debugf("session %s: %s rejected (%s): %v", sessionID, network.MsgName(msgID), kind, err)
	s.observer.ActionRejected(kind.String())
	return []Event{private(sessionID, msgID, Notice{Code: code, Message: err.Error()})}
}

// guard converts a panic inside an action into a private serverError so the
// connection and the other rooms keep going.
func (s *GameService) guard(sessionID, action string, events *[]Event) {
	if rec := recover(); rec != nil {
		logger.Log.Errorf("panic in %s for session %s: %v\n%s", action, sessionID, rec, debug.Stack())
		*events = []Event{private(sessionID, network.MsgTypeServerError,
			Notice{Code: "server_error", Message: "server error"})}
	}
}

func (s *GameService) locate(sessionID string) (*room.Room, error) {
	r, ok := s.rooms.Locate(sessionID)
	if !ok {
		return nil, room.ErrNotInRoom
	}
	return r, nil
}

// Join seats the session in the room named by the request, creating it if needed.
func (s *GameService) Join(sessionID string, req network.JoinRoomRequest) (events []Event) {
	defer s.guard(sessionID, "join", &events)

	res, err := s.rooms.Join(sessionID, req.RoomKey, req.PlayerName, req.MaxPlayers)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeJoinFailed, err)
	}

	events = append(events, private(sessionID, network.MsgTypeJoinSuccess, JoinSuccess{
		PlayerID: res.PlayerID,
		RoomKey:  res.RoomID,
		Capacity: res.Capacity,
		Phase:    res.Phase,
		Players:  res.Players,
	}))
	if len(res.Others) > 0 {
		events = append(events, toMembers(res.Others, network.MsgTypePlayerJoined, PlayersUpdate{
			Players:       res.Players,
			CurrentPlayer: res.Current,
		}))
	}
	return events
}

// Start begins the game in the caller's room.
func (s *GameService) Start(sessionID string) (events []Event) {
	defer s.guard(sessionID, "start", &events)

	r, err := s.locate(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	res, err := r.Start(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}

	s.observer.GameStarted()
	return []Event{toMembers(res.Members, network.MsgTypeGameStarted, GameStarted{
		CurrentPlayer: res.Current,
		Players:       res.Players,
	})}
}

// Roll throws the die for the caller. Everyone sees the face and outcome; only
// the roller gets their board.
func (s *GameService) Roll(sessionID string) (events []Event) {
	defer s.guard(sessionID, "roll", &events)

	r, err := s.locate(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	res, err := r.Roll(sessionID)
	if err != nil {
		if errors.Is(err, room.ErrNotCurrentTurn) {
			return s.reject(sessionID, network.MsgTypeNotYourTurn, err)
		}
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}

	s.observer.DiceRolled(res.Outcome.Success)
	public := DiceRolled{
		PlayerID:     res.Roller.ID,
		PlayerName:   res.Roller.Name,
		RolledNumber: res.Label,
		Result:       res.Outcome,
	}
	own := public
	board := res.Board
	own.CurrentPlayerState = &board

	if others := except(res.Members, sessionID); len(others) > 0 {
		events = append(events, toMembers(others, network.MsgTypeDiceRolled, public))
	}
	events = append(events, private(sessionID, network.MsgTypeDiceRolled, own))
	return events
}

// Shoot fires the caller's loaded gun at a box on another player.
func (s *GameService) Shoot(sessionID string, req network.ShootPlayerRequest) (events []Event) {
	defer s.guard(sessionID, "shoot", &events)

	r, err := s.locate(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeShootFailed, err)
	}
	res, err := r.Shoot(sessionID, req.TargetID, room.Label(req.DisableNumber))
	if err != nil {
		return s.reject(sessionID, network.MsgTypeShootFailed, err)
	}

	s.observer.PlayerShot(res.Eliminated)
	events = append(events, toMembers(res.Members, network.MsgTypePlayerShot, PlayerShot{
		ShooterID:      res.ShooterID,
		TargetID:       res.TargetID,
		DisabledBox:    res.DisabledBox,
		Eliminated:     res.Eliminated,
		Message:        res.Message,
		UpdatedPlayers: res.Players,
	}))

	switch {
	case res.Winner != nil:
		events = append(events, toMembers(res.Members, network.MsgTypeGameOver, GameOver{Winner: *res.Winner}))
		s.finish(res.Finish)
	case res.Next != nil:
		events = append(events, toMembers(res.Members, network.MsgTypeTurnChanged, TurnChanged{
			CurrentPlayer: *res.Next,
			Players:       res.Players,
		}))
	}
	return events
}

// Chat relays a trimmed message to the caller's room. Empty messages are dropped.
func (s *GameService) Chat(sessionID string, req network.SendChatRequest) (events []Event) {
	defer s.guard(sessionID, "chat", &events)

	r, err := s.locate(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	msg := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(msg) > s.maxChatLength {
		msg = string([]rune(msg)[:s.maxChatLength])
	}
	if msg == "" {
		return nil
	}
	name, members, err := r.Speaker(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	return []Event{toMembers(members, network.MsgTypeChatMessage, ChatMessage{
		PlayerID:   sessionID,
		PlayerName: name,
		Message:    msg,
	})}
}

// State resends the caller's board and the public view of the room.
func (s *GameService) State(sessionID string) (events []Event) {
	defer s.guard(sessionID, "state", &events)

	r, err := s.locate(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	snap, err := r.Snapshot(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	return []Event{private(sessionID, network.MsgTypeGameState, GameState{
		Phase:         snap.Phase.String(),
		Players:       snap.Players,
		CurrentPlayer: snap.Current,
		Winner:        snap.Winner,
		MyState:       snap.MyState,
	})}
}

// Leave takes the caller out of their room but keeps the connection usable.
func (s *GameService) Leave(sessionID string) (events []Event) {
	defer s.guard(sessionID, "leave", &events)

	res, err := s.rooms.Leave(sessionID)
	if err != nil {
		return s.reject(sessionID, network.MsgTypeActionFailed, err)
	}
	return s.departed(res)
}

// Disconnect is Leave for a closed connection: nothing is sent back to it.
func (s *GameService) Disconnect(sessionID string) (events []Event) {
	defer s.guard(sessionID, "disconnect", &events)

	res, err := s.rooms.Leave(sessionID)
	if err != nil {
		return nil
	}
	return s.departed(res)
}

func (s *GameService) departed(res *room.LeaveResult) []Event {
	if res.Empty {
		return nil
	}
	events := []Event{toMembers(res.Members, network.MsgTypePlayerLeft, PlayersUpdate{
		Players:       res.Players,
		CurrentPlayer: res.Current,
	})}
	if res.Winner != nil {
		events = append(events, toMembers(res.Members, network.MsgTypeGameOver, GameOver{Winner: *res.Winner}))
		s.finish(res.Finish)
	}
	return events
}

// finish stores the result of a game that just ended. Called outside the room lock.
func (s *GameService) finish(f *room.Finish) {
	s.observer.GameFinished()
	if s.recorder == nil || f == nil {
		return
	}

	record := NewGameRecord(f)
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.recorder.SaveGameRecord(ctx, record); err != nil {
		logger.Log.Errorf("room %s: failed to save game record: %v", f.RoomID, err)
		return
	}
	logger.Log.Infof("room %s: saved game record %s", f.RoomID, record.ID)
}

// NewGameRecord converts a finished game into its history record.
func NewGameRecord(f *room.Finish) *models.GameRecord {
	record := &models.GameRecord{
		ID:         uuid.New().String(),
		RoomID:     f.RoomID,
		StartedAt:  f.StartedAt,
		FinishedAt: f.FinishedAt,
	}
	for _, st := range f.Standings {
		res := models.PlayerResult{
			PlayerID:      st.ID,
			Name:          st.Name,
			Outcome:       models.OutcomeLose,
			Alive:         st.IsAlive,
			DisabledBoxes: st.DisabledBoxes,
			BodyParts:     st.TotalBodyParts,
		}
		if st.ID == f.Winner.ID {
			res.Outcome = models.OutcomeWin
			record.Winner = res
		}
		record.Players = append(record.Players, res)
	}
	return record
}
