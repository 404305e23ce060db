package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
	"github.com/SAP-F-2025/qti-delivery-service/internal/services"
	"github.com/SAP-F-2025/qti-delivery-service/internal/utils"
	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
)

// ErrorResponse is the error body of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps successful payloads
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries shared handler behavior
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs the start of request handling
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// sessionIDParam reads and checks the session ID path parameter;
// returns "" after writing the error response when it is missing.
func (h *BaseHandler) sessionIDParam(c *gin.Context) string {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Session ID is required",
		})
	}
	return id
}

// handleServiceError maps service and runtime errors to HTTP status
// codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrVariableNotFound),
		errors.Is(err, runtime.ErrUnknownItemRef):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})

	case errors.Is(err, runtime.ErrInvalidPosition),
		errors.Is(err, runtime.ErrGlobalScopeSequenced),
		errors.Is(err, runtime.ErrUnknownVariable),
		errors.Is(err, runtime.ErrBranchTargetUnknown):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	case errors.Is(err, runtime.ErrMaxAttemptsReached),
		errors.Is(err, runtime.ErrSessionCompleted),
		errors.Is(err, runtime.ErrAttemptNotStarted),
		errors.Is(err, runtime.ErrSessionNotInteracting),
		errors.Is(err, runtime.ErrTestSessionClosed),
		errors.Is(err, runtime.ErrLinearNavigationOnly),
		errors.Is(err, runtime.ErrJumpNotAllowed),
		errors.Is(err, runtime.ErrSkipNotAllowed),
		errors.Is(err, services.ErrSessionNotRunning),
		errors.Is(err, services.ErrSessionClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	default:
		utils.LoggerFromContext(c.Request.Context(), h.logger).Error("Request failed",
			"error", err,
			"path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
