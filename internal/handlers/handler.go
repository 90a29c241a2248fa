package handlers

import (
	"energisense/internal/logger"
	"energisense/internal/metrics"
	"energisense/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics

	openRegistration bool
	staticDir        string
	ingestLimiter    *ipLimiter
}

// Option customizes a Handler.
type Option func(*Handler)

// WithMetrics enables request and domain counters plus the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithOpenRegistration lets anyone call /api/auth/register. When false (the
// default) registration requires an admin token.
func WithOpenRegistration(open bool) Option {
	return func(h *Handler) { h.openRegistration = open }
}

// WithStaticDir serves the built dashboard from dir with an index.html fallback.
func WithStaticDir(dir string) Option {
	return func(h *Handler) { h.staticDir = dir }
}

// WithIngestLimit caps unauthenticated ingestion per client IP. perSec <= 0
// disables the limit.
func WithIngestLimit(perSec float64, burst int) Option {
	return func(h *Handler) {
		if perSec > 0 {
			h.ingestLimiter = newIPLimiter(perSec, burst)
		}
	}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	{
		h.registerAuthRoutes(api)
		h.registerDataRoutes(api)
		h.registerAdminRoutes(api)
	}

	router.NoRoute(h.serveStatic)
	return router
}

func (h *Handler) registerAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.login)
		if h.openRegistration {
			auth.POST("/register", h.register)
		} else {
			auth.POST("/register", h.authMiddleware, h.adminOnly, h.register)
		}
	}
}

func (h *Handler) registerDataRoutes(api *gin.RouterGroup) {
	data := api.Group("/data")
	{
		// unauthenticated write path for sensors and the injector
		data.POST("", h.ingestRateLimit, h.ingestReading)
		data.POST("/inject", h.ingestRateLimit, h.ingestReading)

		data.GET("/latest", h.authMiddleware, h.latestReadings)
	}
}

func (h *Handler) registerAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin", h.authMiddleware, h.adminOnly)
	{
		admin.GET("/users", h.listUsers)
	}
}
