package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/interfaces/http/handler"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Config{
		CORSOrigins: []string{"https://shop.example.com"},
		Logger:      zap.NewNop(),
	}, Handlers{
		System:       handler.NewSystemHandler(),
		Subscription: &handler.SubscriptionHandler{},
		Order:        &handler.OrderHandler{},
		Webhook:      &handler.StripeWebhookHandler{},
		Address:      &handler.AddressHandler{},
	})
}

func TestRouter_Health(t *testing.T) {
	engine := newTestEngine()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	engine := newTestEngine()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/nope", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	engine := newTestEngine()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/create-order", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	engine := newTestEngine()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	engine.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
