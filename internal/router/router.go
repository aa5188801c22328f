package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/edu-content/internal/handler/health"
	"github.com/jwalitptl/edu-content/internal/handler/prometheus"
	"github.com/jwalitptl/edu-content/internal/middleware"
	"github.com/jwalitptl/edu-content/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	handlers []Handler
	healthH  *health.Handler
	metrics  *prometheus.Handler
	config   RouterConfig
}

type RouterConfig struct {
	Mode string
	// RateLimit of zero disables rate limiting.
	RateLimit   rate.Limit
	RateBurst   int
	CORSConfig  middleware.CORSConfig
	MetricsPath string
}

// NewRouter builds the engine. Each handler registers its routes under /api/v1.
func NewRouter(
	healthH *health.Handler,
	metrics *prometheus.Handler,
	log *logger.Logger,
	config RouterConfig,
	handlers ...Handler,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	engine := gin.New() // Use New() instead of Default() for more control

	r := &Router{
		engine:   engine,
		handlers: handlers,
		healthH:  healthH,
		metrics:  metrics,
		config:   config,
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(log),
		middleware.Recovery(log),
		middleware.Logger(log),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(middleware.CORS(config.CORSConfig))

	return r
}

func (r *Router) Setup() {
	r.healthH.RegisterRoutes(r.engine)
	if r.metrics != nil {
		r.engine.GET(r.config.MetricsPath, r.metrics.Handler())
	}

	api := r.engine.Group("/api/v1")

	// Add version header
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	if r.config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		api.Use(rateLimiter.RateLimit())
	}

	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
