// rpc/rpc.go
package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/models"
	"github.com/wfunc/oddroll/room"
)

// ServiceName is the name clients dial methods under, e.g. "GameService.ListRooms".
const ServiceName = "GameService"

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
	historyTimeout     = 5 * time.Second
)

// Server manages the admin RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers svc. The listener is bound here so
// the caller learns about a busy port before the game server starts.
func NewServer(addr string, svc *GameService) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(ServiceName, svc); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      srv,
	}, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start accepts admin connections until Stop is called.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// History reads finished games. persistence.Database satisfies it.
type History interface {
	RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error)
}

// GameService exposes read-only admin queries over net/rpc.
type GameService struct {
	rooms   *room.Manager
	history History
}

// NewGameService creates the admin service. history may be nil.
func NewGameService(rooms *room.Manager, history History) *GameService {
	return &GameService{rooms: rooms, history: history}
}

// ListRoomsArgs filters by phase ("lobby", "active", "finished"); empty lists all.
type ListRoomsArgs struct {
	Phase string
}

type ListRoomsReply struct {
	Rooms   []room.Summary
	Players int
}

// ListRooms returns a summary of every live room.
func (gs *GameService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, summary := range gs.rooms.Summaries() {
		if args.Phase != "" && summary.Phase != args.Phase {
			continue
		}
		reply.Rooms = append(reply.Rooms, summary)
	}
	reply.Players = gs.rooms.PlayerCount()
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []models.GameRecord
}

// RecentGames returns finished games, newest first.
func (gs *GameService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	if gs.history == nil {
		return errors.New("match history is not configured")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	games, err := gs.history.RecentGameRecords(ctx, limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}
