package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"edusync/api/response"
	"edusync/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedEngine(cfg *config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), RateLimitMiddleware(cfg))
	r.GET("/ping", func(c *gin.Context) { response.HandleSuccess(c, nil, "pong") })
	return r
}

func call(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerClientIP(t *testing.T) {
	r := limitedEngine(&config.RateLimitConfig{Enabled: true, Rate: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, call(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call(r, "10.0.0.1").Code)

	w := call(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusOK, call(r, "10.0.0.2").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := limitedEngine(&config.RateLimitConfig{Enabled: false, Rate: 0.001, Burst: 1})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, call(r, "10.0.0.1").Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := limitedEngine(&config.RateLimitConfig{})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-7", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"request_id":"req-7"`)
}
