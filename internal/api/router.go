package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/memory-app/memory-api/internal/api/docs"
	"github.com/memory-app/memory-api/internal/api/handler"
	"github.com/memory-app/memory-api/internal/api/metrics"
	"github.com/memory-app/memory-api/internal/api/middleware"
	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

const bodyLimit = "1M"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth          ports.AuthService
	Projects      ports.ProjectService
	Assignments   ports.AssignmentService
	Authenticator *middleware.Authenticator
	Health        *handler.HealthHandler

	LoginRatePerMinute float64
	LoginBurst         int
	AllowOrigins       []string

	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registry, which /metrics serves.
	Registerer prometheus.Registerer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	origins := d.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metrics.Namespace,
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Auth, d.Assignments)
	projectHandler := handler.NewProjectHandler(d.Projects)
	assignmentHandler := handler.NewAssignmentHandler(d.Assignments)

	requireAuth := d.Authenticator.RequireAuth()
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login, middleware.LoginRateLimit(d.LoginRatePerMinute, d.LoginBurst))
	auth.POST("/register", authHandler.Register, requireAuth, adminOnly)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout, requireAuth)

	// --- Authenticated API ---
	v1 := e.Group("/v1", requireAuth)

	v1.GET("/users", userHandler.List, adminOnly)
	v1.PUT("/users/me/password", userHandler.ChangePassword)
	v1.GET("/users/:id/projects", userHandler.Projects)
	v1.GET("/me/projects", userHandler.MyProjects)

	v1.GET("/projects", projectHandler.List)
	v1.POST("/projects", projectHandler.Create, adminOnly)
	v1.GET("/projects/:id", projectHandler.Get)
	v1.POST("/projects/:id/archive", projectHandler.Archive, adminOnly)

	v1.GET("/projects/:id/assignments", assignmentHandler.List)
	v1.GET("/projects/:id/assignments/history", assignmentHandler.History)
	v1.POST("/projects/:id/assignments", assignmentHandler.Assign)
	v1.PATCH("/projects/:id/assignments/:user_id", assignmentHandler.ChangeRole)
	v1.DELETE("/projects/:id/assignments/:user_id", assignmentHandler.Remove)
	v1.GET("/projects/:id/available-users", assignmentHandler.Available)
	v1.GET("/projects/:id/stats", assignmentHandler.Stats)

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", d.Health.Liveness)
	e.GET("/health/ready", d.Health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error()
			case v.Status >= 400:
				ev = log.Warn()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
