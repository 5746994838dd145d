package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordflash/internal/assessment"
	"wordflash/internal/config"
	"wordflash/internal/events"
	"wordflash/internal/handler"
	"wordflash/internal/metrics"
	"wordflash/internal/pause"
	"wordflash/internal/repository/postgres"
	"wordflash/internal/scheduler"
	"wordflash/internal/service"
	"wordflash/internal/settings"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if cfg.Debug {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}
	defer logger.Sync()

	logger.Info("Starting WordFlash",
		zap.String("source_lang", cfg.Learning.SourceLang),
		zap.String("target_lang", cfg.Learning.TargetLang),
		zap.Bool("debug", cfg.Debug),
	)

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Metrics and event plumbing
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	bus := events.NewBus()
	coordinator := pause.NewCoordinator(logger,
		pause.WithStrict(cfg.Debug),
		pause.WithOnChange(m.SetPaused),
	)
	defer coordinator.Close()

	// Settings file, reloaded on change
	store := settings.NewStore(cfg.Learning.SettingsFile, bus, logger)
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load settings", zap.Error(err))
	}
	watcher, err := settings.NewWatcher(store, logger)
	if err != nil {
		logger.Fatal("Failed to watch settings", zap.Error(err))
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	entryRepo := postgres.NewTranslationEntryRepo(db)
	learningRepo := postgres.NewLearningInfoRepo(db)
	priorityRepo := postgres.NewPriorityWordRepo(db)

	// Initialize services
	learningService := service.NewLearningService(learningRepo, bus, time.Now, cfg.Debug, logger)
	services := handler.Services{
		Auth:     service.NewAuthService(userRepo, cfg.BotPassword, logger),
		Words:    service.NewWordService(entryRepo, coordinator, cfg.Learning.SourceLang, cfg.Learning.TargetLang, logger),
		Learning: learningService,
		Priority: service.NewPriorityService(priorityRepo, entryRepo),
		Stats:    service.NewStatsService(learningRepo, logger),
	}

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("Bot handler failed", zap.Error(err))
		},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	h := handler.NewHandler(bot, services, store, coordinator, logger)
	h.RegisterHandlers()

	sched := scheduler.New(scheduler.Deps{
		Entries:   entryRepo,
		Learning:  learningService,
		Selector:  assessment.NewSelector(store, priorityRepo, nil, logger),
		Presenter: h,
		Pause:     coordinator,
		Settings:  store,
		Bus:       bus,
		Metrics:   m,
		Logger:    logger,
	}, scheduler.Config{
		TickInterval: cfg.Learning.TickInterval,
		SkipCooldown: time.Hour,
	})
	h.AttachScheduler(sched)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Bot started successfully")
		bot.Start()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping bot...")
		bot.Stop()
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := newMetricsServer(cfg.MetricsAddr, registry)
		g.Go(func() error {
			logger.Info("Metrics server listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Stopped with error", zap.Error(err))
		return
	}

	logger.Info("WordFlash stopped gracefully")
}

func newMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies pending migrations from ./migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}
