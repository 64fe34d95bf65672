package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carepilot/internal/domain"
	"carepilot/internal/service"
)

// SessionHandler handles session-scoped intake, chat and adherence.
type SessionHandler struct {
	sessionService service.SessionService
	maxBytes       int64
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, maxBytes int64) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, maxBytes: maxBytes}
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/sessions
// @Summary Create a session
// @Tags sessions
// @Produce json
// @Success 201 {object} Response{data=service.SessionInfo} "Session created"
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	info, err := h.sessionService.Create(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, info)
}

// Get handles GET /api/v1/sessions/:id
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} Response{data=service.SessionInfo} "Session"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	info, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, info)
}

// Delete handles DELETE /api/v1/sessions/:id
// @Summary Delete a session
// @Description Ends the session and cancels any request in flight for it.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} Response{data=MessageResponse} "Session deleted"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "session deleted"})
}

// Intake handles POST /api/v1/sessions/:id/intake
// @Summary Upload a document into a session
// @Description Replaces the session's care plan and restarts the conversation with the greeting.
// @Tags sessions
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param file formData file false "Document (PDF, JPG, PNG, GIF or WebP)"
// @Success 200 {object} Response{data=service.IntakeResult} "Extracted care plan"
// @Failure 409 {object} ErrorResponseBody "Intake already in progress"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "Document could not be decoded"
// @Failure 502 {object} ErrorResponseBody "Extraction failed"
// @Router /sessions/{id}/intake [post]
func (h *SessionHandler) Intake(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	input, ok := readDocument(c, h.maxBytes)
	if !ok {
		return
	}
	result, err := h.sessionService.Intake(c.Request.Context(), id, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// CarePlan handles GET /api/v1/sessions/:id/careplan
// @Summary Get the session's care plan
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} Response{data=domain.CarePlan} "Care plan"
// @Failure 409 {object} ErrorResponseBody "No care plan yet"
// @Router /sessions/{id}/careplan [get]
func (h *SessionHandler) CarePlan(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	plan, err := h.sessionService.CarePlan(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plan)
}

// Slots handles GET /api/v1/sessions/:id/careplan/slots
// @Summary Get the care plan grouped by time of day
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} Response{data=domain.SlotView} "Morning, afternoon and night buckets"
// @Failure 409 {object} ErrorResponseBody "No care plan yet"
// @Router /sessions/{id}/careplan/slots [get]
func (h *SessionHandler) Slots(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	view, err := h.sessionService.Slots(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// Export handles GET /api/v1/sessions/:id/careplan/export
// @Summary Download the schedule
// @Tags sessions
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID (UUID)"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Schedule"
// @Failure 400 {object} ErrorResponseBody "Unsupported format"
// @Failure 409 {object} ErrorResponseBody "No care plan yet"
// @Router /sessions/{id}/careplan/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	format := domain.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(domain.ExportCSV))))
	file, err := h.sessionService.Export(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Messages handles GET /api/v1/sessions/:id/messages
// @Summary List the conversation
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} Response{data=[]domain.ConversationTurn} "Conversation"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Router /sessions/{id}/messages [get]
func (h *SessionHandler) Messages(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	msgs, err := h.sessionService.Messages(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, msgs)
}

// Send handles POST /api/v1/sessions/:id/messages
// @Summary Ask a question in a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param request body SendMessageRequest true "User message"
// @Success 200 {object} Response{data=service.ChatReply} "Assistant reply"
// @Failure 409 {object} ErrorResponseBody "No care plan yet or reply in progress"
// @Router /sessions/{id}/messages [post]
func (h *SessionHandler) Send(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "content is required")
		return
	}
	reply, err := h.sessionService.Send(c.Request.Context(), id, req.Content)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, reply)
}

// Notify handles POST /api/v1/sessions/:id/notifications
// @Summary Post an assistant message into a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param request body NotifyRequest true "Message"
// @Success 202 {object} Response{data=MessageResponse} "Queued"
// @Failure 503 {object} ErrorResponseBody "Queue full"
// @Router /sessions/{id}/notifications [post]
func (h *SessionHandler) Notify(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "message is required")
		return
	}
	if err := h.sessionService.Notify(c.Request.Context(), id, req.Message); err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: MessageResponse{Message: "notification queued"}})
}

// CheckIn handles POST /api/v1/sessions/:id/adherence
// @Summary Record whether a slot's doses were taken
// @Description A missed slot posts an adherence alert into the conversation.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param request body service.CheckInInput true "Check-in"
// @Success 201 {object} Response{data=domain.AdherenceCheckIn} "Recorded"
// @Failure 400 {object} ErrorResponseBody "Invalid check-in"
// @Failure 409 {object} ErrorResponseBody "No care plan yet"
// @Router /sessions/{id}/adherence [post]
func (h *SessionHandler) CheckIn(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req service.CheckInInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "day (>= 1) and slot are required")
		return
	}
	checkIn, err := h.sessionService.CheckIn(c.Request.Context(), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, checkIn)
}

// Adherence handles GET /api/v1/sessions/:id/adherence
// @Summary Adherence summary
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} Response{data=service.AdherenceSummary} "Summary"
// @Router /sessions/{id}/adherence [get]
func (h *SessionHandler) Adherence(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	summary, err := h.sessionService.Adherence(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}
