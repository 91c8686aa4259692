package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/petland/petcare-console/internal/api/docs" // swagger docs
	"github.com/petland/petcare-console/internal/api/handler"
	"github.com/petland/petcare-console/internal/api/middleware"
	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/core/ports"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Session   ports.SessionService
	Resources ports.ResourceGateway
	Store     ports.StateStore
	Log       zerolog.Logger

	// Registerer and Gatherer back the HTTP metrics and /metrics. When nil a
	// private registry is used.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	if d.Registerer == nil || d.Gatherer == nil {
		reg := prometheus.NewRegistry()
		d.Registerer, d.Gatherer = reg, reg
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "petcare",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Session, d.Store)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session ---
	requireSession := middleware.RequireSession(d.Session)
	sessionHandler := handler.NewSessionHandler(d.Session)

	e.GET("/session", sessionHandler.Get)
	e.POST("/session/login", sessionHandler.Login)
	e.POST("/session/register", sessionHandler.Register)
	e.POST("/session/logout", sessionHandler.Logout)
	e.DELETE("/session/error", sessionHandler.ClearError)
	e.PATCH("/session/profile", sessionHandler.UpdateProfile,
		requireSession, middleware.RequireRoute(domain.RouteAccount))

	// --- Navigation and access checks ---
	navHandler := handler.NewNavigationHandler(d.Session)

	e.GET("/navigation", navHandler.Navigation, requireSession)
	e.GET("/access/routes", navHandler.Routes, requireSession)
	e.GET("/access/routes/:route", navHandler.Route, requireSession)
	e.GET("/access/permissions/:permission", navHandler.Permission, requireSession)

	// --- CRUD proxy ---
	if d.Resources != nil {
		resourceHandler := handler.NewResourceHandler(d.Resources)
		api := e.Group("/api", requireSession, middleware.RequireResourceAccess())

		api.GET("/:resource", resourceHandler.List)
		api.POST("/:resource", resourceHandler.Create)
		api.GET("/:resource/:id", resourceHandler.Get)
		api.PUT("/:resource/:id", resourceHandler.Update)
		api.PATCH("/:resource/:id", resourceHandler.Update)
		api.DELETE("/:resource/:id", resourceHandler.Delete)
	}

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
