package api

import (
	"net/http"

	"edusync/api/middleware"
	"edusync/config"

	"github.com/gin-gonic/gin"
)

// ControllerRegister is implemented by every controller.
type ControllerRegister interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// MiddlewareRegister extra global middleware appended after the defaults.
type MiddlewareRegister = gin.HandlerFunc

// Route a route outside /api/v1, e.g. the metrics endpoint.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Router Route configuration
type Router struct {
	engine       *gin.Engine
	config       *config.Config
	public       []ControllerRegister
	protected    []ControllerRegister
	auth         gin.HandlerFunc
	customRoutes []Route
}

// NewRouter public controllers are reachable without a token; protected
// controllers sit behind auth.
func NewRouter(
	cfg *config.Config,
	public []ControllerRegister,
	protected []ControllerRegister,
	auth gin.HandlerFunc,
	middlewares []MiddlewareRegister,
	customRoutes []Route,
) *Router {
	// Set Gin mode based on environment
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware (order is important)
	engine.Use(middleware.RequestIDMiddleware())                      // 1. Generate request ID first
	engine.Use(middleware.RecoveryMiddleware())                       // 2. Recovery middleware
	engine.Use(middleware.LoggingMiddleware())                        // 3. Logging middleware
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))                  // 4. CORS
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit)) // 5. Rate limiting
	for _, m := range middlewares {
		engine.Use(m)
	}

	return &Router{
		engine:       engine,
		config:       cfg,
		public:       public,
		protected:    protected,
		auth:         auth,
		customRoutes: customRoutes,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	for _, c := range r.public {
		c.RegisterRoutes(apiGroup)
	}

	securedGroup := apiGroup.Group("")
	if r.auth != nil {
		securedGroup.Use(r.auth)
	}
	for _, c := range r.protected {
		c.RegisterRoutes(securedGroup)
	}

	for _, route := range r.customRoutes {
		r.engine.Handle(route.Method, route.Path, route.Handler)
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
