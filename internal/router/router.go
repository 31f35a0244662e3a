package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler/auth"
	"github.com/jwalitptl/docbook-api/internal/handler/health"
	"github.com/jwalitptl/docbook-api/internal/handler/prometheus"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	apperrors "github.com/jwalitptl/docbook-api/pkg/errors"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	CORSConfig       middleware.CORSConfig
	Security         middleware.SecurityConfig
	MaxBodyBytes     int64
	// StaticPrefix serves StaticFS (the avatar store) when both are set.
	StaticPrefix string
	StaticFS     http.FileSystem
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    *auth.Handler
	healthH  *health.Handler
	metrics  *prometheus.Handler
	handlers []Handler
	config   RouterConfig
}

// NewRouter wires the engine. handlers are mounted behind authentication.
func NewRouter(
	authMW *middleware.AuthMiddleware,
	authH *auth.Handler,
	healthH *health.Handler,
	metrics *prometheus.Handler,
	config RouterConfig,
	handlers ...Handler,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     authMW,
		authH:    authH,
		healthH:  healthH,
		metrics:  metrics,
		handlers: handlers,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.SizeLimit(config.MaxBodyBytes),
	)

	engine.NoRoute(func(c *gin.Context) {
		httputil.RespondWithError(c, apperrors.NotFound("route", nil))
	})

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metrics.Handler())

	if r.config.StaticPrefix != "" && r.config.StaticFS != nil {
		r.engine.StaticFS(r.config.StaticPrefix, r.config.StaticFS)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if r.config.RateLimitEnabled {
		limit = middleware.NewRateLimiter(r.config.RateLimit).RateLimit()
	}

	// Public routes
	public := api.Group("", limit)
	r.authH.RegisterPublicRoutes(public)

	// Protected routes; the limiter runs after authentication so it keys by user.
	protected := api.Group("", r.auth.Authenticate(), limit)
	r.authH.RegisterRoutes(protected)
	for _, h := range r.handlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
