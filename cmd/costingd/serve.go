package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/buildinfo"
	"github.com/xelth-com/eckcosting/internal/config"
	"github.com/xelth-com/eckcosting/internal/database"
	"github.com/xelth-com/eckcosting/internal/handlers"
	"github.com/xelth-com/eckcosting/internal/metrics"
	"github.com/xelth-com/eckcosting/internal/models"
	"github.com/xelth-com/eckcosting/internal/notify"
	"github.com/xelth-com/eckcosting/internal/scheduler"
	"github.com/xelth-com/eckcosting/internal/store"
	costsync "github.com/xelth-com/eckcosting/internal/sync"
	"github.com/xelth-com/eckcosting/internal/transport"
	"github.com/xelth-com/eckcosting/internal/websocket"
	"github.com/xelth-com/eckcosting/pkg/logger"
)

type serveOptions struct {
	envFile      string
	memoryBroker bool
	development  bool
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync engine and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "load environment from this file instead of ./.env")
	cmd.Flags().BoolVar(&opts.memoryBroker, "memory-broker", false, "use an in-process broker (offline demo)")
	cmd.Flags().BoolVar(&opts.development, "dev", false, "human-readable debug logging")
	return cmd
}

func serve(ctx context.Context, opts *serveOptions) error {
	// 1. Load configuration
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Logger
	build := logger.New
	if opts.development {
		build = logger.NewDevelopment
	}
	log, err := build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	info := buildinfo.Get()
	log.Info("Starting costingd", zap.String("version", info.Version), zap.String("commit", info.CommitHash))

	// 3. Core state
	reg := metrics.New()
	st := store.New(models.DefaultRateCard())
	notes := notify.New()

	var broker transport.Broker
	if opts.memoryBroker {
		log.Warn("Using in-process broker, no backend will answer")
		broker = transport.NewMemoryServer().NewClient(cfg.Sync.QueueSize)
	} else {
		broker = transport.NewMQTTClient(cfg.Broker, cfg.Sync.QueueSize, logger.Named(log, "transport.mqtt"))
	}

	deps := costsync.Deps{
		Broker:  broker,
		Store:   st,
		Notify:  notes,
		Topics:  cfg.Topics,
		Sync:    cfg.Sync,
		Metrics: reg,
		Logger:  logger.Named(log, "sync.engine"),
	}

	// 4. Optional action journal
	var (
		db       *database.DB
		recorder *database.Recorder
	)
	if cfg.Database.JournalEnabled {
		db, err = database.Connect(cfg.Database, logger.Named(log, "database"))
		if err != nil {
			return fmt.Errorf("failed to connect to journal database: %w", err)
		}
		gormJournal, err := database.NewGormJournal(db)
		if err != nil {
			db.Close()
			return err
		}
		recorder = database.NewRecorder(gormJournal, cfg.Sync.QueueSize, logger.Named(log, "journal"))
		deps.Journal = recorder
	}

	engine := costsync.New(deps)

	// 5. Dashboard push
	hub := websocket.NewHub(logger.Named(log, "websocket"))
	hub.OnClientCount(reg.SetWebsocketClients)
	engine.OnChange(func(c store.Collection) {
		hub.Broadcast(websocket.Event{Type: websocket.EventState, Collection: string(c), Data: st.Collection(c)})
	})
	engine.OnStatus(func(s transport.Status) {
		hub.Broadcast(websocket.Event{Type: websocket.EventStatus, Data: s.String()})
	})
	notes.OnAppend(func(ev models.NotificationEvent) {
		hub.Broadcast(websocket.Event{Type: websocket.EventNotification, Data: ev})
	})

	routerDeps := handlers.Deps{
		Engine:      engine,
		Hub:         hub,
		Metrics:     reg,
		Auth:        cfg.Auth,
		Capacity:    cfg.Sync.WarehouseCapacity,
		FrontendDir: cfg.Server.FrontendDir,
		Logger:      logger.Named(log, "http"),
	}
	if recorder != nil {
		routerDeps.Journal = recorder
	}
	router := handlers.NewRouter(routerDeps)

	watchdog := scheduler.NewScheduler(cfg.Sync.WatchdogSchedule, engine, logger.Named(log, "scheduler"))

	// 6. Start everything
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go hub.Run(runCtx)
	if err := engine.Start(runCtx); err != nil {
		return err
	}
	if err := watchdog.Start(); err != nil {
		engine.Stop()
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr), zap.String("broker", cfg.Broker.Endpoint()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully")
	case err = <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}

	watchdog.Stop()
	engine.Stop()
	cancel()

	if recorder != nil {
		recorder.Close()
	}
	if db != nil {
		log.Info("Closing journal database")
		if err := db.Close(); err != nil {
			log.Warn("Database close error", zap.Error(err))
		}
	}

	log.Info("Shutdown complete")
	return err
}
