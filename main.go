package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/oddroll/config"
	"github.com/wfunc/oddroll/logger"
	"github.com/wfunc/oddroll/monitor"
	"github.com/wfunc/oddroll/persistence"
	"github.com/wfunc/oddroll/room"
	"github.com/wfunc/oddroll/rpc"
	"github.com/wfunc/oddroll/server"
	"github.com/wfunc/oddroll/services"
	"github.com/wfunc/oddroll/timer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger; the configured level is applied once config is loaded
	logger.Init("info")

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	// Initialize match history
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open match history store: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Match history store ready (driver %q).", cfg.Database.Driver)

	rooms := room.NewRoomManager(room.Settings{
		DefaultCapacity: cfg.Game.DefaultCapacity,
		MinCapacity:     cfg.Game.MinCapacity,
		MaxCapacity:     cfg.Game.MaxCapacity,
		Options: room.Options{
			MaxNameLength:                cfg.Game.MaxNameLength,
			RefundChargeOnDisabledTarget: cfg.Game.RefundChargeOnDisabledTarget,
		},
	}, room.NewRandomDice())

	mon := monitor.NewMonitor("oddroll", nil)
	engine := services.NewGameService(rooms, db, mon, cfg.Game.MaxChatLength)

	// Initialize Game Server
	gameServer := server.NewGameServer(server.Options{
		Addr:      cfg.Server.HTTPAddress,
		Heartbeat: cfg.Server.Heartbeat,
		RateLimit: rate.Limit(cfg.Server.RateLimit),
		RateBurst: cfg.Server.RateBurst,
	}, rooms, engine, mon)

	// 初始化RPC服务器
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress, rpc.NewGameService(rooms, db))
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	go rpcServer.Start()

	timers := timer.NewTimerManager(timer.DefaultResolution)
	timers.AddTimer("stats", cfg.Server.StatsInterval, cfg.Server.StatsInterval, gameServer.RefreshStats)
	if cfg.Server.Heartbeat > 0 {
		timers.AddTimer("idle-sweep", cfg.Server.Heartbeat, cfg.Server.Heartbeat, gameServer.SweepIdle)
	}

	// Start Server
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- gameServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Log.Infof("Received %s, shutting down.", sig)
	case err := <-serveErr:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Game server shutdown: %v", err)
	}
	rpcServer.Stop()
	timers.Stop()
	logger.Log.Info("Server stopped.")
}
