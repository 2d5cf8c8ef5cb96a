package httpkit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"crmbulk_backend/platform/logger"
	"crmbulk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextAPIKeyKey is the gin context key for the forwarded CRM API key.
	ContextAPIKeyKey = "pooolAPIKey"
	// ContextEnvKey is the gin context key for the requested CRM environment.
	ContextEnvKey = "pooolEnv"
	// ContextCustomURLKey is the gin context key for a custom CRM base URL.
	ContextCustomURLKey = "pooolCustomURL"
	// HeaderRequestID is the response header carrying the request ID.
	HeaderRequestID = "X-Request-Id"
	// HeaderPooolEnv selects the CRM environment for a request.
	HeaderPooolEnv = "X-Poool-Env"
	// HeaderPooolURL supplies a custom CRM base URL.
	HeaderPooolURL = "X-Poool-Url"
)

// RequestID assigns a UUID to every request and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(string(logger.RequestIDKey), id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		log.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")

		// Only add HSTS when serving TLS
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// CredentialsRequired extracts the CRM bearer key and environment headers and
// stores them on the context. The backend never persists the key; it is
// forwarded to the CRM API for the duration of the request only.
func CredentialsRequired(val *validator.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing CRM API key"})
			return
		}

		env := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderPooolEnv)))
		if err := val.Var(env, "poolenv"); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + HeaderPooolEnv + " header"})
			return
		}
		if env == "custom" && strings.TrimSpace(c.GetHeader(HeaderPooolURL)) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: HeaderPooolURL + " is required for the custom environment"})
			return
		}

		c.Set(ContextAPIKeyKey, key)
		c.Set(ContextEnvKey, env)
		c.Set(ContextCustomURLKey, strings.TrimSpace(c.GetHeader(HeaderPooolURL)))
		c.Next()
	}
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, exists := i.limiters.Load(ip)
	if !exists {
		newLimiter := rate.NewLimiter(i.rate, i.burst)
		i.limiters.Store(ip, newLimiter)
		return newLimiter
	}
	return limiter.(*rate.Limiter)
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := i.getLimiter(ip)

		if !limiter.Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}
