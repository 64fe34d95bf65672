package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carepilot/internal/domain"
	"carepilot/internal/llm"
	"carepilot/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var rateErr *llm.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests, "RATE_LIMITED", "the model provider is rate limiting requests; retry later"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "unsupported document; allowed: pdf, jpg, png, gif, webp"
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", "document is empty"
	case errors.Is(err, domain.ErrDecode):
		return http.StatusUnprocessableEntity, "DECODE_ERROR", "document could not be decoded"
	case errors.Is(err, domain.ErrComposition):
		return http.StatusUnprocessableEntity, "COMPOSITION_ERROR", "no page of the document could be rendered"
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, "TIMEOUT", "processing took too long"
	case errors.Is(err, domain.ErrEmptyResponse):
		return http.StatusBadGateway, "EMPTY_EXTRACTION", "the extraction model returned no content"
	case errors.Is(err, domain.ErrMalformedExtraction):
		return http.StatusBadGateway, "MALFORMED_EXTRACTION", "the extraction model returned an unreadable care plan"
	case errors.Is(err, domain.ErrCapabilityUnavailable):
		return http.StatusBadGateway, "EXTRACTION_UNAVAILABLE", "the extraction model could not be reached"
	case errors.Is(err, domain.ErrChatUnavailable):
		return http.StatusServiceUnavailable, "CHAT_UNAVAILABLE", "the assistant could not be reached"
	case errors.Is(err, domain.ErrInvalidConversation):
		return http.StatusBadRequest, "INVALID_CONVERSATION", err.Error()
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "session not found"
	case errors.Is(err, domain.ErrTooManySessions):
		return http.StatusServiceUnavailable, "TOO_MANY_SESSIONS", "the session limit has been reached; try again later"
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, "SESSION_BUSY", "a request for this session is already in progress"
	case errors.Is(err, domain.ErrNoCarePlan):
		return http.StatusConflict, "NO_CARE_PLAN", "upload a document before using this session"
	case errors.Is(err, domain.ErrInvalidCheckIn):
		return http.StatusBadRequest, "INVALID_CHECK_IN", err.Error()
	case errors.Is(err, domain.ErrEventQueueFull):
		return http.StatusServiceUnavailable, "EVENT_QUEUE_FULL", "too many pending notifications for this session"
	case errors.Is(err, domain.ErrUnsupportedExportType):
		return http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT", "unsupported export format; allowed: csv, xlsx"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Malformed extractions carry the raw model text in details.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)

	l := middleware.GetLogger(c)
	if status >= 500 {
		l.Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("code", code).Msg("request rejected")
	}

	var rateErr *llm.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
	}

	apiErr := &APIError{Code: code, Message: msg}
	if raw, ok := domain.RawResponse(err); ok {
		apiErr.Details = gin.H{"raw": raw}
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}
