package handler

import (
	"carepilot/internal/domain"
)

// Swagger type definitions for API documentation.

// --- Request Types ---

// IntakeImageRequest is the JSON form of an intake upload.
type IntakeImageRequest struct {
	Image    string `json:"image" binding:"required" example:"data:image/jpeg;base64,/9j/4AAQSkZJRg..."`
	FileName string `json:"file_name" example:"prescription.jpg"`
}

// ChatRequest is a stateless grounded question: the whole conversation plus
// the care plan it is grounded on.
type ChatRequest struct {
	Messages []domain.ConversationTurn `json:"messages" binding:"required"`
	Context  *domain.CarePlan          `json:"context" binding:"required"`
}

// SendMessageRequest is one user message in a session.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required" example:"When should I take Metformin?"`
}

// NotifyRequest injects an assistant message into a session.
type NotifyRequest struct {
	Message string `json:"message" binding:"required" example:"Time for your evening dose."`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"session deleted"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
