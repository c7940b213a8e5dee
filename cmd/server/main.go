package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/monopolyfree/monopoly-server-go/internal/config"
	"github.com/monopolyfree/monopoly-server-go/internal/repository"
	"github.com/monopolyfree/monopoly-server-go/internal/server"
	"github.com/monopolyfree/monopoly-server-go/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
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

	logger.Info("starting monopoly server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Optional audit feed; the game itself is memory-resident.
	var auditor server.Auditor
	if cfg.Database.DSN != "" {
		db, dbErr := repository.NewDB(ctx, cfg.Database.DSN, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()

		audit, auditErr := repository.NewAuditRepository(ctx, db)
		if auditErr != nil {
			logger.Fatal("failed to initialize audit repository", zap.Error(auditErr))
		}
		auditor = audit
		logger.Info("audit repository initialized")
	}

	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, logger)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
	)
	go sessionMgr.CleanupExpiredSessions(ctx)

	metrics := server.NewMetrics()
	dispatcher := server.NewDispatcher(logger)
	registry := server.NewRegistry(cfg.Game.HistoryCapacity, dispatcher, metrics, logger)
	logger.Info("game registry initialized",
		zap.Int("history_capacity", cfg.Game.HistoryCapacity),
	)

	wsServer := server.NewWebSocketServer(
		cfg.Server.WebSocket,
		registry,
		sessionMgr,
		dispatcher,
		metrics,
		auditor,
		logger,
	)

	go func() {
		if wsErr := wsServer.ListenAndServe(ctx); wsErr != nil {
			logger.Error("websocket server error", zap.Error(wsErr))
		}
	}()

	if cfg.Server.Metrics.Enabled {
		go func() {
			logger.Info("metrics server listening", zap.String("address", cfg.Server.Metrics.Address))
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if metricsErr := http.ListenAndServe(cfg.Server.Metrics.Address, mux); metricsErr != nil {
				logger.Error("metrics server error", zap.Error(metricsErr))
			}
		}()
	}

	// Lines typed on stdin are broadcast to every game as operator
	// notifications.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			registry.Broadcast(line)
		}
	}()

	logger.Info("monopoly server initialized",
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()
	sessionMgr.CloseAll()

	logger.Info("monopoly server stopped")
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
