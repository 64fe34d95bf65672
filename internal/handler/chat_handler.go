package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carepilot/internal/service"
)

// ChatHandler handles stateless grounded questions.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Reply handles POST /api/v1/chat
// @Summary Ask about a care plan
// @Description Answers the last user message using only the supplied care plan. When the assistant is unreachable the reply is a fixed apology with degraded=true.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Conversation and care plan"
// @Success 200 {object} Response{data=service.ChatReply} "Assistant reply"
// @Failure 400 {object} ErrorResponseBody "Invalid conversation"
// @Router /chat [post]
func (h *ChatHandler) Reply(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "messages and context are required")
		return
	}

	reply, err := h.chatService.Reply(c.Request.Context(), req.Messages, req.Context)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, reply)
}
