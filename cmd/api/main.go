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

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	_ "github.com/tripsync/tripsync-api/api/swagger"
	"github.com/tripsync/tripsync-api/internal/handler"
	"github.com/tripsync/tripsync-api/internal/models"
	"github.com/tripsync/tripsync-api/internal/realtime"
	"github.com/tripsync/tripsync-api/internal/repository"
	"github.com/tripsync/tripsync-api/internal/router"
	"github.com/tripsync/tripsync-api/internal/service"
	"github.com/tripsync/tripsync-api/pkg/cache"
	"github.com/tripsync/tripsync-api/pkg/config"
	"github.com/tripsync/tripsync-api/pkg/database"
	"github.com/tripsync/tripsync-api/pkg/logger"
)

// @title TripSync API
// @version 1.0
// @description Event coordination backend: trips, shared schedules and live attendance.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		log.Warn("redis unavailable, caching and live updates disabled", zap.Error(err))
	} else {
		redisClient = client
		defer func() { _ = redisClient.Close() }()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, log)
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Schedule.CacheTTL, log, true)
	} else {
		cacheService = service.NewCacheService(nil, metrics, cfg.Schedule.CacheTTL, log, false)
	}

	authService := service.NewAuthService(userRepo, service.AuthConfig{
		JWTSecret:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.Expiration,
		RefreshTokenTTL: cfg.JWT.RefreshExpiration,
		Issuer:          "tripsync",
	}, validate, log)
	userService := service.NewUserService(userRepo, validate, log)
	eventService := service.NewEventService(eventRepo, validate, log)
	scheduleService := service.NewScheduleService(eventRepo, attendanceRepo, userService, cacheService, cfg.Schedule.CacheTTL, log)

	var attendanceService *service.AttendanceService
	var hub *realtime.Hub
	if cfg.Realtime.Enabled && redisClient != nil {
		loader := func(ctx context.Context, eventID string) ([]models.AttendanceEntry, error) {
			return attendanceService.List(ctx, eventID, userService)
		}
		hub = realtime.NewHub(redisClient, loader, realtime.Config{
			ChannelPrefix:  cfg.Realtime.ChannelPrefix,
			PublishWorkers: cfg.Realtime.PublishWorkers,
			BufferSize:     cfg.Realtime.BufferSize,
		}, log)
	}
	attendanceService = service.NewAttendanceService(attendanceRepo, eventRepo, scheduleService, hub, validate, log)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportService = service.NewExportService(eventService, scheduleService, true, log)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if hub != nil {
		hub.Start(rootCtx)
		defer hub.Stop()
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Cleanup.TokenPurgeCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		purged, err := userRepo.PurgeExpiredRefreshTokens(ctx, time.Now().UTC())
		if err != nil {
			log.Warn("refresh token purge failed", zap.Error(err))
			return
		}
		if purged > 0 {
			log.Info("purged expired refresh tokens", zap.Int64("count", purged))
		}
	}); err != nil {
		log.Warn("invalid token purge schedule", zap.String("cron", cfg.Cleanup.TokenPurgeCron), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	engine := router.New(router.Deps{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Auth:    authService,

		AuthHandler:       handler.NewAuthHandler(authService),
		EventHandler:      handler.NewEventHandler(eventService),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, userService, hub),
		ScheduleHandler:   handler.NewScheduleHandler(scheduleService, exportService),
		UserHandler:       handler.NewUserHandler(userService),

		DBPing: func(ctx context.Context) error { return db.PingContext(ctx) },
		RedisPing: func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
