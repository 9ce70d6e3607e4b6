// Package router assembles the gin engine of the HTTP shell.
package router

import (
	"context"
	"net/http"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/erp/modulith/internal/infrastructure/persistence"
	"github.com/erp/modulith/internal/interfaces/http/handler"
	"github.com/erp/modulith/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes limits request bodies when EngineConfig leaves it unset
const DefaultMaxBodyBytes = 1 << 20

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig holds what NewEngine needs besides the mediator
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	Tokens         *auth.TokenService
	TracerProvider trace.TracerProvider
	MaxBodyBytes   int64
	// Health reports readiness on /health; nil always reports healthy.
	Health func(ctx context.Context) error
	// PoolStats adds the database connection pool to a healthy /health answer.
	PoolStats func() (persistence.ConnectionStats, error)
}

// NewEngine builds the gin engine serving the module endpoints through m.
// Middleware order: panic recovery, request logging with correlation id,
// tracing, body limit, bearer authentication.
func NewEngine(m *mediator.Mediator, cfg EngineConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(cfg.Logger),
		logger.GinMiddleware(cfg.Logger),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			TracerProvider: cfg.TracerProvider,
		}),
		middleware.BodyLimit(cfg.MaxBodyBytes),
		middleware.BearerAuth(middleware.BearerAuthConfig{
			Tokens:    cfg.Tokens,
			SkipPaths: []string{"/health"},
			Logger:    cfg.Logger,
		}),
		middleware.SpanAttributes(),
	)

	engine.GET("/health", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		body := gin.H{"status": "ok"}
		if cfg.PoolStats != nil {
			if stats, err := cfg.PoolStats(); err == nil {
				body["database"] = stats
			} else {
				logger.L(c.Request.Context()).Warn("Connection pool stats unavailable", zap.Error(err))
			}
		}
		c.JSON(http.StatusOK, body)
	})

	NewRouter(engine).
		Register(handler.NewWidgetHandler(m)).
		Register(handler.NewInvoiceHandler(m)).
		Setup()

	return engine
}
