package middleware

import (
	"net/http"
	"sync"
	"time"

	"edusync/api/ctxutil"
	"edusync/api/response"
	"edusync/config"
	"edusync/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// RequestIDHeader Request ID header
	RequestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware Request ID middleware
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(response.RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// LoggingMiddleware Logging middleware
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		log := logger.WithRequestID(response.GetRequestID(c))

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if caller, ok := ctxutil.Identity(c); ok {
			fields = append(fields, zap.String("caller_id", caller.UserID), zap.String("caller_role", string(caller.Role)))
		}
		if pending := c.Writer.Header().Get(response.SideEffectHeader); pending != "" {
			fields = append(fields, zap.String("side_effect_pending", pending))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("HTTP Request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
	}
}

// RecoveryMiddleware Recovery middleware
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				reqID := response.GetRequestID(c)

				logger.Error("Panic recovered",
					zap.String("request_id", reqID),
					zap.Any("error", recovered),
					zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Success:   false,
					Error:     "INTERNAL_ERROR",
					Message:   "internal server error",
					Code:      http.StatusInternalServerError,
					RequestID: reqID,
				})
			}
		}()

		c.Next()
	}
}

// CORSMiddleware CORS middleware backed by gin-contrib/cors.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader, response.SideEffectHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			corsConfig.AllowAllOrigins = true
			// 通配来源不能携带凭证
			corsConfig.AllowCredentials = false
			break
		}
	}
	if !corsConfig.AllowAllOrigins {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	if len(corsConfig.AllowOrigins) == 0 && !corsConfig.AllowAllOrigins {
		// cors.New panics on an empty origin list
		corsConfig.AllowOrigins = []string{"http://localhost"}
	}
	return cors.New(corsConfig)
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	buckets sync.Map
	rate    rate.Limit
	burst   int
}

func (l *ipLimiter) allow(ip string) bool {
	b, ok := l.buckets.Load(ip)
	if !ok {
		b, _ = l.buckets.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	}
	return b.(*rate.Limiter).Allow()
}

// RateLimitMiddleware answers 429 once a client IP exhausts its bucket.
func RateLimitMiddleware(cfg *config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := &ipLimiter{rate: rate.Limit(cfg.Rate), burst: cfg.Burst}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if limiter.allow(ip) {
			c.Next()
			return
		}

		reqID := response.GetRequestID(c)
		logger.WithRequestID(reqID).Named("ratelimit").Warn("Rate limit exceeded",
			zap.String("client_ip", ip),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
			Success:   false,
			Error:     "TOO_MANY_REQUESTS",
			Message:   "too many requests, please try again later",
			Code:      http.StatusTooManyRequests,
			RequestID: reqID,
		})
	}
}
