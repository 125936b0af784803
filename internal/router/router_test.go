package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/govhealth/fieldsurvey/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            8080,
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		JWTAccessTTL:    time.Hour,
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 10, Burst: 40},
	}
}

func TestHealthz(t *testing.T) {
	h := New(testConfig(), nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := New(testConfig(), nil, nil)

	for _, path := range []string{"/me/surveys", "/me/responses", "/admin/surveys", "/admin/audit"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}
