package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/quillpost/blog-api/internal/api/handler"
	"github.com/quillpost/blog-api/internal/api/middleware"
	"github.com/quillpost/blog-api/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth         ports.AuthService
	Sessions     ports.SessionResolver
	Users        ports.UserService
	Verification ports.VerificationService
	Passwords    ports.PasswordService
	Blog         ports.BlogService
	// Checks are run by the readiness probe, keyed by dependency name.
	Checks map[string]handler.DependencyCheck
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "blog",
		Registerer: deps.Registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)
	otpHandler := handler.NewOTPHandler(deps.Verification)
	passwordHandler := handler.NewPasswordHandler(deps.Passwords)
	blogHandler := handler.NewBlogHandler(deps.Blog)
	requireAuth := middleware.Auth(deps.Sessions)

	// --- Accounts ---
	e.POST("/registration", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/details", userHandler.Details, requireAuth)

	// --- Email verification ---
	e.GET("/otp", otpHandler.Request, requireAuth)
	e.POST("/otp", otpHandler.Verify, requireAuth)

	// --- Password reset ---
	e.POST("/password/request", passwordHandler.RequestReset)
	e.PUT("/password/reset", passwordHandler.Reset)

	// --- Blog ---
	e.GET("/blog", blogHandler.List)
	e.GET("/blog/:id", blogHandler.Get)
	e.POST("/blog", blogHandler.Create, requireAuth)
	e.PUT("/blog/:id", blogHandler.Update, requireAuth)
	e.DELETE("/blog/:id", blogHandler.Delete, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
