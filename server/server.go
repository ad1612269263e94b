// server/server.go
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wfunc/oddroll/broadcast"
	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/monitor"
	"github.com/wfunc/oddroll/network"
	"github.com/wfunc/oddroll/room"
	"github.com/wfunc/oddroll/services"
	"github.com/wfunc/oddroll/session"
)

// Options are the transport settings taken from config.ServerConfig.
type Options struct {
	Addr      string
	Heartbeat time.Duration
	RateLimit rate.Limit
	RateBurst int
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	mux            *http.ServeMux
	httpServer     *http.Server
	roomManager    *room.Manager
	sessionManager *session.Manager
	engine         *services.GameService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	conns          sync.WaitGroup
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewGameServer(opts Options, rooms *room.Manager, engine *services.GameService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		opts:           opts,
		mux:            http.NewServeMux(),
		roomManager:    rooms,
		sessionManager: session.NewManager(),
		engine:         engine,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)

	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.Handle("/metrics", mon.Handler())
	s.httpServer = &http.Server{
		Addr:    opts.Addr,
		Handler: s.mux,
	}
	return s
}

// Handler exposes the routes, for tests and embedding.
func (s *GameServer) Handler() http.Handler {
	return s.mux
}

func (s *GameServer) Sessions() *session.Manager {
	return s.sessionManager
}

// Start serves until Shutdown is called.
func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.opts.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, closes the open ones and waits for
// their departures to be processed.
func (s *GameServer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
	})
	err := s.httpServer.Shutdown(ctx)

	// hijacked websocket connections are not closed by http.Server
	for _, sess := range s.sessionManager.All() {
		sess.Close()
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// RefreshStats pushes room and session counts into the gauges. Run by the timer.
func (s *GameServer) RefreshStats() {
	rooms, players := s.roomManager.Count(), s.roomManager.PlayerCount()
	s.monitor.SetRoomStats(rooms, players)
	logger.Log.Infof("stats: %d sessions, %d rooms, %d seated players", s.sessionManager.Count(), rooms, players)
}

// SweepIdle closes connections that have been silent for more than two
// heartbeat intervals. The read loop then runs the normal disconnect path.
func (s *GameServer) SweepIdle() {
	if s.opts.Heartbeat <= 0 {
		return
	}
	cutoff := time.Now().Add(-2 * s.opts.Heartbeat)
	for _, sess := range s.sessionManager.All() {
		if sess.LastActive().Before(cutoff) {
			logger.Log.Infof("Closing idle session %s", sess.GetID())
			sess.Close()
		}
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.shutdownChan:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.conns.Add(1)
	defer s.conns.Done()
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(wsConn network.Connection) {
	sess := session.NewSession(uuid.New().String(), wsConn, s.opts.RateLimit, s.opts.RateBurst)
	wsConn.SetHeartbeat(s.opts.Heartbeat)
	s.sessionManager.Add(sess)
	s.monitor.SessionOpened()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.broadcaster.Deliver(s.engine.Disconnect(sess.GetID()))
		wsConn.Close()
		s.monitor.SessionClosed()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					logger.Log.Infof("Session %s missed its heartbeat", sess.GetID())
				}
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	sess.Touch()
	s.monitor.IncMessagesReceived()

	if packet.MsgID == network.MsgTypeHeartbeat {
		sess.Send(network.MsgTypeHeartbeat, nil)
		return
	}
	if !sess.Allow() {
		s.monitor.IncRateLimited()
		s.broadcaster.Deliver([]services.Event{{
			MsgID:      network.MsgTypeActionFailed,
			Recipients: []string{sess.GetID()},
			Payload:    services.Notice{Code: "rate_limited", Message: "too many requests"},
		}})
		return
	}

	start := time.Now()
	events := s.engine.Handle(sess.GetID(), packet.MsgID, packet.Data)
	s.broadcaster.Deliver(events)
	s.monitor.ObserveMessageLatency(time.Since(start))
}
