package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepilot/internal/domain"
	"carepilot/internal/handler"
	"carepilot/internal/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.DecodeError("bad", nil), http.StatusUnprocessableEntity, "DECODE_ERROR"},
		{domain.UnsupportedFormatError("text/plain"), http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{domain.CompositionError("none", nil), http.StatusUnprocessableEntity, "COMPOSITION_ERROR"},
		{domain.EmptyResponseError("empty"), http.StatusBadGateway, "EMPTY_EXTRACTION"},
		{domain.MalformedExtractionError("x", nil), http.StatusBadGateway, "MALFORMED_EXTRACTION"},
		{domain.CapabilityUnavailableError("down", nil), http.StatusBadGateway, "EXTRACTION_UNAVAILABLE"},
		{domain.ChatUnavailableError("down", nil), http.StatusServiceUnavailable, "CHAT_UNAVAILABLE"},
		{domain.TimeoutError("slow", nil), http.StatusGatewayTimeout, "TIMEOUT"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{fmt.Errorf("%w: bad", domain.ErrInvalidConversation), http.StatusBadRequest, "INVALID_CONVERSATION"},
		{domain.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{domain.ErrSessionBusy, http.StatusConflict, "SESSION_BUSY"},
		{domain.ErrTooManySessions, http.StatusServiceUnavailable, "TOO_MANY_SESSIONS"},
		{domain.ErrNoCarePlan, http.StatusConflict, "NO_CARE_PLAN"},
		{domain.ErrInvalidCheckIn, http.StatusBadRequest, "INVALID_CHECK_IN"},
		{domain.ErrUnsupportedExportType, http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT"},
		{llm.NewRateLimitError("mistral", errors.New("429"), 30), http.StatusTooManyRequests, "RATE_LIMITED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestHandleError_MalformedIncludesRaw(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handler.HandleError(c, domain.MalformedExtractionError("Sure! Here is", errors.New("invalid character")))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Sure! Here is", details["raw"])
}

func TestHandleError_RateLimitSetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := fmt.Errorf("extracting: %w", llm.NewRateLimitError("mistral", errors.New("429"), 30))
	handler.HandleError(c, err)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}
