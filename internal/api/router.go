package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hans-clinic/appointment-system/internal/api/handler"
	"github.com/hans-clinic/appointment-system/internal/api/middleware"
	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
	"github.com/hans-clinic/appointment-system/internal/infrastructure/http/handlers"
)

// RouterDeps carries everything the router needs. Services are constructed
// in main so the router stays free of storage wiring.
type RouterDeps struct {
	Appointments  ports.AppointmentService
	Notifications ports.NotificationService
	Auth          ports.AuthService
	Mongo         *mongo.Database
	Redis         *redis.Client
	JWTSecret     string
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("clinic"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	apptHandler := handler.NewAppointmentHandler(deps.Appointments)
	notifHandler := handler.NewNotificationHandler(deps.Notifications)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Authenticated routes ---
	// Route-level RBAC is the coarse tier: it knows roles, not resources.
	// Per-resource ownership checks live in the services.
	auth := middleware.Auth(deps.JWTSecret)
	anyRole := middleware.RBAC(domain.RolePatient, domain.RoleDoctor, domain.RoleAdmin)

	v1 := e.Group("/v1", auth)

	appts := v1.Group("/appointments")
	appts.POST("", apptHandler.Create, middleware.RBAC(domain.RolePatient, domain.RoleAdmin))
	appts.GET("", apptHandler.List, anyRole)
	appts.GET("/:id", apptHandler.Get, anyRole)
	appts.POST("/:id/confirm", apptHandler.Confirm, middleware.RBAC(domain.RoleDoctor, domain.RoleAdmin))
	appts.POST("/:id/cancel", apptHandler.Cancel, anyRole)
	appts.POST("/:id/complete", apptHandler.Complete, middleware.RBAC(domain.RoleDoctor, domain.RoleAdmin))
	appts.POST("/:id/no-show", apptHandler.NoShow, middleware.RBAC(domain.RoleDoctor, domain.RoleAdmin))
	appts.POST("/:id/reschedule", apptHandler.Reschedule, anyRole)

	notifs := v1.Group("/notifications")
	notifs.POST("", notifHandler.Schedule, middleware.RBAC(domain.RoleAdmin))
	notifs.GET("", notifHandler.List, anyRole)
	notifs.GET("/:id", notifHandler.Get, anyRole)
	notifs.POST("/:id/retry", notifHandler.Retry, anyRole)
	notifs.POST("/:id/cancel", notifHandler.Cancel, anyRole)

	return e
}
