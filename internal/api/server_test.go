package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/notify"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		API:      &config.APIConfig{Environment: "test", JWTSigningKey: "server-test", JWTTTL: time.Hour},
		Gin:      &config.GinConfig{Mode: "test"},
		Razorpay: &config.RazorpayConfig{Currency: "INR"},
		QR:       &config.QRConfig{RequireToken: true},
		Mail:     &config.MailConfig{Provider: "console"},
	}
}

func TestNewServer_Routes(t *testing.T) {
	s := NewServer(testConfig(), nil, Integrations{Hub: notify.NewHub()})

	routes := map[string]bool{}
	for _, r := range s.Router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /api/health",
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/auth/me",
		"GET /api/events",
		"GET /api/events/:id",
		"POST /api/events",
		"PUT /api/events/:id",
		"DELETE /api/events/:id",
		"POST /api/events/:id/approve",
		"POST /api/registrations/:eventId/register",
		"DELETE /api/registrations/:eventId/unregister",
		"GET /api/registrations/my-events",
		"GET /api/registrations/:eventId/participants",
		"POST /api/payment/create-order",
		"POST /api/payment/verify",
		"POST /api/payment/refund",
		"POST /api/qr/verify",
		"GET /api/notifications/ws",
		"GET /api/admin/stats",
		"POST /api/admin/organizers/:id/approve",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestNewServer_Guards(t *testing.T) {
	s := NewServer(testConfig(), nil, Integrations{Hub: notify.NewHub()})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/auth/me", http.StatusUnauthorized},
		{http.MethodPost, "/api/events", http.StatusUnauthorized},
		{http.MethodPost, "/api/qr/verify", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/users", http.StatusUnauthorized},
		{http.MethodGet, "/api/notifications", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	s.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
