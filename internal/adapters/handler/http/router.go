package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/Ivan200915/discipline-engine/internal/adapters/handler/http/middleware"
	"github.com/Ivan200915/discipline-engine/internal/core/services"
)

type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type RouterDependencies struct {
	AuthHandler       *AuthHandler
	LogHandler        *LogHandler
	StreakHandler     *StreakHandler
	ProtectionHandler *ProtectionHandler
	InsightsHandler   *InsightsHandler
	SeasonHandler     *SeasonHandler
	TokenService      *services.TokenService
	DB                *sqlx.DB
	Redis             *redis.Client
	StartTime         time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(corsMiddleware())

	// The limiter needs Redis for its counters. Without Redis the API runs
	// unthrottled rather than not at all.
	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, 100, 1*time.Minute))
	}

	router.GET("/health", healthCheck(deps))

	apiV1 := router.Group("/api/v1")
	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))

	for _, h := range []routeRegistrar{
		deps.LogHandler,
		deps.StreakHandler,
		deps.ProtectionHandler,
		deps.InsightsHandler,
		deps.SeasonHandler,
	} {
		h.RegisterRoutes(protected)
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func healthCheck(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "connected"
		if err := deps.DB.Ping(); err != nil {
			dbStatus = "unreachable"
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(c.Request.Context()).Err() != nil {
				redisStatus = "unreachable"
			}
		}

		status, code := "ok", http.StatusOK
		if dbStatus == "unreachable" || redisStatus == "unreachable" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}
