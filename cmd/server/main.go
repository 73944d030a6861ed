package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/config"
	"campuslink/internal/db"
	"campuslink/internal/logging"
	"campuslink/internal/realtime"
	"campuslink/internal/router"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const penaltyCacheSize = 10000

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calendar, err := clock.LoadCalendar(clock.System{}, cfg.Clock.Timezone)
	if err != nil {
		return err
	}

	// Initialize Database
	conn, err := db.Open(cfg.Database.DSN, cfg.Database.LogLevel, logger)
	if err != nil {
		return err
	}

	timetable, err := services.NewTimetable(cfg.Shuttle.Routes)
	if err != nil {
		return err
	}

	penalties, closePenalties, err := newPenaltyStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePenalties()

	// 실시간 좌석 알림
	hub := realtime.NewHub(logger)
	notifier := services.NewSlotNotifier(conn, hub, 0, logger)
	go notifier.Start(ctx)

	eligibility := services.NewEligibility(conn, calendar, logger)
	deps := router.Deps{
		Calendar:      calendar,
		Users:         services.NewUser(conn, logger),
		Eligibility:   eligibility,
		Reputation:    services.NewReputation(conn, calendar, eligibility, logger),
		Reports:       services.NewReport(conn, calendar, logger),
		Taxi:          services.NewTaxi(conn, calendar, logger),
		Notifications: services.NewNotification(conn, logger),
		Hub:           hub,
		Logger:        logger,
		Shuttle: services.NewShuttle(conn, calendar, timetable, penalties, notifier, services.ShuttleOptions{
			LeadWindow: time.Duration(cfg.Shuttle.LeadWindowMinutes) * time.Minute,
			Cooldown:   time.Duration(cfg.Shuttle.CooldownSeconds) * time.Second,
		}, logger),
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	router.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("CampusLink server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newPenaltyStore picks the configured cancellation penalty backend.
func newPenaltyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.PenaltyStore, func(), error) {
	if cfg.Shuttle.PenaltyBackend != config.PenaltyBackendRedis {
		store, err := services.NewMemoryPenaltyStore(penaltyCacheSize)
		return store, func() {}, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("Redis penalty store connected", zap.String("addr", cfg.Redis.Addr))
	return services.NewRedisPenaltyStore(client), func() { _ = client.Close() }, nil
}
