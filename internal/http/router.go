package http

import (
	"net/http"
	"time"

	"crmbulk_backend/platform/config"
	"crmbulk_backend/platform/httpkit"
	"crmbulk_backend/platform/logger"
	"crmbulk_backend/platform/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// NewRouter assembles the gin engine: recovery, CORS, security headers,
// request IDs, request logging and the per-IP rate limit, then lets every
// module register its routes under /api/v1.
func NewRouter(cfg *config.Config, log *logger.Logger, val *validator.Validator, modules []Module) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(cfg))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(log))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(cfg.IPRateLimit), cfg.IPRateBurst, log)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctx := &RouterContext{
		Engine:              engine,
		V1:                  engine.Group("/api/v1"),
		CredentialsRequired: httpkit.CredentialsRequired(val),
	}

	for _, module := range modules {
		module.RegisterRoutes(ctx)
		log.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			httpkit.HeaderRequestID, httpkit.HeaderPooolEnv, httpkit.HeaderPooolURL,
		},
		ExposeHeaders:    []string{httpkit.HeaderRequestID, "Content-Disposition"},
		AllowCredentials: cfg.CORSAllowCreds,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowAll {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	return cors.New(corsCfg)
}
