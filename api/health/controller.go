package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"edusync/config"

	"github.com/gin-gonic/gin"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Checker reports whether one dependency is usable; nil means healthy.
type Checker func(ctx context.Context) error

// Controller serves /health, /health/live and /health/ready.
type Controller struct {
	config    *config.Config
	checkers  map[string]Checker
	startTime time.Time
}

// NewController checkers are keyed by dependency name, e.g. "database".
func NewController(cfg *config.Config, checkers map[string]Checker) *Controller {
	if checkers == nil {
		checkers = map[string]Checker{}
	}
	return &Controller{
		config:    cfg,
		checkers:  checkers,
		startTime: time.Now(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.Liveness)
	router.GET("/health/ready", c.Readiness)
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is the outcome of one Checker.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo is only exposed in development.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
}

// Health runs every checker and reports each result.
func (c *Controller) Health(ctx *gin.Context) {
	checks, failed := c.runChecks(ctx.Request.Context())
	resp := HealthResponse{
		Status:    statusHealthy,
		Version:   c.config.App.Version,
		Uptime:    time.Since(c.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if c.config.IsDevelopment() {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		resp.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     mem.Alloc,
		}
	}

	code := http.StatusOK
	if len(failed) > 0 {
		resp.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, resp)
}

// Liveness only says the process is serving.
func (c *Controller) Liveness(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness fails while any dependency is down and names the ones that are.
func (c *Controller) Readiness(ctx *gin.Context) {
	if _, failed := c.runChecks(ctx.Request.Context()); len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "not_ready",
			"unavailable": failed,
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// runChecks returns every outcome plus the sorted names of failed checkers.
func (c *Controller) runChecks(ctx context.Context) (map[string]Check, []string) {
	checks := make(map[string]Check, len(c.checkers))
	var failed []string
	for name, check := range c.checkers {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		err := check(cctx)
		latency := time.Since(start).String()
		cancel()

		if err != nil {
			checks[name] = Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency}
			failed = append(failed, name)
			continue
		}
		checks[name] = Check{Status: statusHealthy, Latency: latency}
	}
	sort.Strings(failed)
	return checks, failed
}
