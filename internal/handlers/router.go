package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/qti-delivery-service/internal/services"
	"github.com/SAP-F-2025/qti-delivery-service/internal/utils"
	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	exportHandler  *ExportHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager.Delivery(), validator, logger),
		exportHandler:  NewExportHandler(serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			// Lifecycle
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/suspend", hm.sessionHandler.SuspendSession)
			sessions.POST("/:id/resume", hm.sessionHandler.ResumeSession)
			sessions.POST("/:id/end", hm.sessionHandler.EndSession)
			sessions.DELETE("/:id", hm.sessionHandler.DeleteSession)

			// Attempts
			sessions.POST("/:id/attempts/begin", hm.sessionHandler.BeginAttempt)
			sessions.POST("/:id/attempts/end", hm.sessionHandler.EndAttempt)
			sessions.POST("/:id/skip", hm.sessionHandler.SkipItem)

			// Navigation
			sessions.POST("/:id/next", hm.sessionHandler.MoveNext)
			sessions.POST("/:id/back", hm.sessionHandler.MoveBack)
			sessions.POST("/:id/jump", hm.sessionHandler.JumpTo)

			// Time, variables and reporting
			sessions.POST("/:id/time", hm.sessionHandler.AddElapsedTime)
			sessions.GET("/:id/variable", hm.sessionHandler.GetVariable)
			sessions.GET("/:id/outcomes", hm.sessionHandler.GetOutcomes)
			sessions.GET("/:id/report", hm.exportHandler.ExportSessionReport)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "qti-delivery-service",
		})
	})
}
