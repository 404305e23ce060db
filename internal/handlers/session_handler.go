package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/qti-delivery-service/internal/services"
	"github.com/SAP-F-2025/qti-delivery-service/internal/utils"
	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	deliveryService services.DeliveryService
	validator       *validator.Validator
}

func NewSessionHandler(
	deliveryService services.DeliveryService,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:     NewBaseHandler(logger),
		deliveryService: deliveryService,
		validator:       validator,
	}
}

// StartSession instantiates and begins a delivery session
// @Summary Start delivery session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.InstantiateSessionRequest true "Candidate data"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting delivery session")

	var req services.InstantiateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.deliveryService.StartSession(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the current session state
// @Summary Get delivery session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	session, err := h.deliveryService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SuspendSession suspends a running session
func (h *SessionHandler) SuspendSession(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	h.LogRequest(c, "Suspending delivery session", "session_id", id)

	session, err := h.deliveryService.SuspendSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ResumeSession resumes a suspended session
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	h.LogRequest(c, "Resuming delivery session", "session_id", id)

	session, err := h.deliveryService.ResumeSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// EndSession closes the session and runs final outcome processing
func (h *SessionHandler) EndSession(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	h.LogRequest(c, "Ending delivery session", "session_id", id)

	session, err := h.deliveryService.EndSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession removes persisted session state
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	h.LogRequest(c, "Deleting delivery session", "session_id", id)

	if err := h.deliveryService.DeleteSession(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// BeginAttempt opens an attempt on the current item
func (h *SessionHandler) BeginAttempt(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	session, err := h.deliveryService.BeginAttempt(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// EndAttempt submits responses for the current item
// @Summary End attempt
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param responses body services.SubmitResponsesRequest true "Candidate responses"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/attempts/end [post]
func (h *SessionHandler) EndAttempt(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	h.LogRequest(c, "Ending attempt", "session_id", id)

	var req services.SubmitResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.deliveryService.EndAttempt(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SkipItem skips the current item without responses
func (h *SessionHandler) SkipItem(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	session, err := h.deliveryService.SkipItem(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// MoveNext advances the route cursor
func (h *SessionHandler) MoveNext(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	session, err := h.deliveryService.MoveNext(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// MoveBack steps the route cursor backwards in non-linear parts
func (h *SessionHandler) MoveBack(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	session, err := h.deliveryService.MoveBack(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// JumpTo moves the route cursor to an absolute position
func (h *SessionHandler) JumpTo(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	var req services.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.deliveryService.JumpTo(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// AddElapsedTime credits candidate time against the timed components
func (h *SessionHandler) AddElapsedTime(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	var req services.AddTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.deliveryService.AddElapsedTime(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetVariable resolves a dotted variable name against the session
func (h *SessionHandler) GetVariable(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	identifier := c.Query("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'identifier' is required",
		})
		return
	}

	variable, err := h.deliveryService.GetVariable(c.Request.Context(), id, identifier)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, variable)
}

// GetOutcomes returns the test-level outcome values
func (h *SessionHandler) GetOutcomes(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}

	outcomes, err := h.deliveryService.GetOutcomes(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: outcomes})
}
