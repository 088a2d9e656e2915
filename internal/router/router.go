package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/tripsync/tripsync-api/internal/handler"
	"github.com/tripsync/tripsync-api/internal/middleware"
	"github.com/tripsync/tripsync-api/internal/service"
	"github.com/tripsync/tripsync-api/pkg/config"
	"github.com/tripsync/tripsync-api/pkg/logger"
	"github.com/tripsync/tripsync-api/pkg/middleware/cors"
	"github.com/tripsync/tripsync-api/pkg/middleware/requestid"
)

// Pinger reports backing store health for the readiness probe.
type Pinger func(ctx context.Context) error

// Deps bundles everything the router needs.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Auth    *service.AuthService

	AuthHandler       *handler.AuthHandler
	EventHandler      *handler.EventHandler
	AttendanceHandler *handler.AttendanceHandler
	ScheduleHandler   *handler.ScheduleHandler
	UserHandler       *handler.UserHandler

	DBPing    Pinger
	RedisPing Pinger
}

// New assembles the gin engine with middleware and all routes.
func New(deps Deps) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestid.Middleware())
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(cors.New(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		engine.Use(middleware.Metrics(deps.Metrics))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ready", readiness(deps))
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Config.Env != config.EnvProduction {
		engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := engine.Group(deps.Config.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)
		auth.POST("/logout", middleware.JWT(deps.Auth), deps.AuthHandler.Logout)
		auth.POST("/change-password", middleware.JWT(deps.Auth), deps.AuthHandler.ChangePassword)
	}

	users := api.Group("/users", middleware.JWT(deps.Auth))
	{
		users.GET("/me", deps.UserHandler.Me)
		users.PATCH("/me", deps.UserHandler.Update)
	}

	events := api.Group("/events")
	{
		// The share link must work for anonymous viewers, who get only the
		// public summary. Everything else requires a session.
		events.GET("/:id", middleware.OptionalJWT(deps.Auth), deps.EventHandler.Get)

		events.GET("", middleware.JWT(deps.Auth), deps.EventHandler.List)
		events.POST("", middleware.JWT(deps.Auth), deps.EventHandler.Create)
		events.PATCH("/:id", middleware.JWT(deps.Auth), deps.EventHandler.Update)
		events.DELETE("/:id", middleware.JWT(deps.Auth), deps.EventHandler.Delete)
		events.GET("/:id/calendar.ics", middleware.JWT(deps.Auth), deps.EventHandler.ICalendar)

		events.PUT("/:id/attendance", middleware.JWT(deps.Auth), deps.AttendanceHandler.Upsert)
		events.GET("/:id/attendance", middleware.JWT(deps.Auth), deps.AttendanceHandler.List)
		events.DELETE("/:id/attendance", middleware.JWT(deps.Auth), deps.AttendanceHandler.Delete)
		events.GET("/:id/attendance/me", middleware.JWT(deps.Auth), deps.AttendanceHandler.Get)
		events.GET("/:id/attendance/stream", middleware.JWT(deps.Auth), deps.AttendanceHandler.Stream)

		events.GET("/:id/schedule", middleware.JWT(deps.Auth), deps.ScheduleHandler.Get)
		events.GET("/:id/schedule/export", middleware.JWT(deps.Auth), deps.ScheduleHandler.Export)
	}

	return engine
}

func readiness(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if deps.DBPing != nil {
			if err := deps.DBPing(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if deps.RedisPing != nil {
			if err := deps.RedisPing(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": checks})
	}
}
