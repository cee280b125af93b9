package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hearttiles/hearttiles-server/internal/config"
	"github.com/hearttiles/hearttiles-server/internal/game"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
	"github.com/hearttiles/hearttiles-server/internal/repository"
	"github.com/hearttiles/hearttiles-server/internal/room"
	"github.com/hearttiles/hearttiles-server/internal/server"
	"github.com/hearttiles/hearttiles-server/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting heart tiles server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store := initStore(ctx, cfg.Database, logger)

	sessionMgr := session.NewManager(store, cfg.Server.SessionTTL, logger)
	sessionMgr.LoadFromStore(ctx)
	go sessionMgr.CleanupExpired(ctx)

	clock := card.SystemClock{}
	engine := game.NewEngine(
		game.Config{
			DeckSize:      cfg.Game.DeckSize,
			HandHearts:    cfg.Game.HandHearts,
			HandMagic:     cfg.Game.HandMagic,
			HeartsPerTurn: cfg.Game.HeartsPerTurn,
			MagicPerTurn:  cfg.Game.MagicPerTurn,
		},
		rand.New(rand.NewSource(time.Now().UnixNano())),
		card.NewTimestampIDSource(clock),
		clock,
		logger,
	)

	roomMgr := room.NewManager(engine, store, clock, logger)
	roomMgr.LoadFromStore(ctx)
	logger.Info("room manager initialized", zap.Int("rooms", roomMgr.RoomCount()))

	srv := server.NewServer(cfg.Server, roomMgr, sessionMgr, logger)
	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil {
			logger.Error("websocket server error", zap.Error(serveErr))
		}
	}()

	logger.Info("heart tiles server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
		zap.Bool("database", cfg.Database.Enabled),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}

	logger.Info("heart tiles server stopped")
}

// initStore connects to PostgreSQL when enabled, falling back to the
// in-memory store so the game stays available without durable storage.
func initStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) repository.FullStore {
	if !cfg.Enabled {
		logger.Info("database disabled, using in-memory store")
		return repository.NewMemoryStore()
	}

	pool, err := repository.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Warn("database unavailable, using in-memory store", zap.Error(err))
		return repository.NewMemoryStore()
	}

	pg := repository.NewPostgres(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Warn("schema setup failed, using in-memory store", zap.Error(err))
		pool.Close()
		return repository.NewMemoryStore()
	}
	return repository.NewBestEffort(pg, logger)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
