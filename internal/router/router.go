package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carepilot/internal/config"
	"carepilot/internal/handler"
	"carepilot/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Intake  *handler.IntakeHandler
	Chat    *handler.ChatHandler
	Session *handler.SessionHandler
	Health  *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, logger zerolog.Logger, h Handlers) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	// Model-backed routes share one per-client budget
	limited := middleware.RateLimit(middleware.NewClientLimiters(cfg.RateLimit))

	v1.POST("/intake", limited, h.Intake.Process)
	v1.POST("/chat", limited, h.Chat.Reply)

	sessions := v1.Group("/sessions")
	sessions.POST("", limited, h.Session.Create)
	sessions.GET("/:id", h.Session.Get)
	sessions.DELETE("/:id", h.Session.Delete)
	sessions.POST("/:id/intake", limited, h.Session.Intake)
	sessions.GET("/:id/careplan", h.Session.CarePlan)
	sessions.GET("/:id/careplan/slots", h.Session.Slots)
	sessions.GET("/:id/careplan/export", h.Session.Export)
	sessions.GET("/:id/messages", h.Session.Messages)
	sessions.POST("/:id/messages", limited, h.Session.Send)
	sessions.POST("/:id/notifications", h.Session.Notify)
	sessions.POST("/:id/adherence", h.Session.CheckIn)
	sessions.GET("/:id/adherence", h.Session.Adherence)

	return r
}
