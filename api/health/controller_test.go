package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"edusync/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(checkers map[string]Checker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{App: config.AppConfig{Version: "1.2.3", Env: "production"}}
	r := gin.New()
	NewController(cfg, checkers).RegisterRoutes(r.Group(""))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthReportsEveryDependency(t *testing.T) {
	r := newEngine(map[string]Checker{
		"database": func(context.Context) error { return nil },
		"blob":     func(context.Context) error { return errors.New("container not found") },
	})

	w := get(r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, statusUnhealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, statusHealthy, resp.Checks["database"].Status)
	assert.Equal(t, "container not found", resp.Checks["blob"].Message)
	assert.Nil(t, resp.System)
}

func TestReadinessNamesUnavailableDependencies(t *testing.T) {
	down := func(context.Context) error { return errors.New("down") }
	r := newEngine(map[string]Checker{"database": down, "blob": down})

	w := get(r, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status      string   `json:"status"`
		Unavailable []string `json:"unavailable"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, []string{"blob", "database"}, body.Unavailable)
}

func TestReadyAndLiveWithoutCheckers(t *testing.T) {
	r := newEngine(nil)
	assert.Equal(t, http.StatusOK, get(r, "/health/ready").Code)
	assert.Equal(t, http.StatusOK, get(r, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
}

func TestCheckerGetsDeadline(t *testing.T) {
	var hadDeadline bool
	r := newEngine(map[string]Checker{"database": func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}})

	assert.Equal(t, http.StatusOK, get(r, "/health/ready").Code)
	assert.True(t, hadDeadline)
}
