package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"carepilot/internal/config"
	"carepilot/internal/handler"
	"carepilot/internal/router"
	"carepilot/internal/service"
	"carepilot/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(sessionSvc *mocks.MockSessionService) *gin.Engine {
	cfg := &config.Config{RateLimit: config.RateLimitConfig{RPS: 0.01, Burst: 1}}
	return router.Setup(cfg, zerolog.Nop(), router.Handlers{
		Intake:  handler.NewIntakeHandler(new(mocks.MockIntakeService), 1<<20),
		Chat:    handler.NewChatHandler(new(mocks.MockChatService)),
		Session: handler.NewSessionHandler(sessionSvc, 1<<20),
		Health:  handler.NewHealthHandler(),
	})
}

func createSession(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/sessions", http.NoBody)
	req.RemoteAddr = "10.0.0.7:40000"
	r.ServeHTTP(w, req)
	return w
}

func TestSetup_SessionCreationIsRateLimited(t *testing.T) {
	sessionSvc := new(mocks.MockSessionService)
	sessionSvc.On("Create", mock.Anything).
		Return(&service.SessionInfo{ID: uuid.New(), CreatedAt: time.Now()}, nil).Once()
	r := newEngine(sessionSvc)

	assert.Equal(t, http.StatusCreated, createSession(r).Code)

	w := createSession(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	sessionSvc.AssertNumberOfCalls(t, "Create", 1)
}

func TestSetup_HealthIsNotRateLimited(t *testing.T) {
	r := newEngine(new(mocks.MockSessionService))
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
