package api

import (
	"net"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/userauth/auth-service/internal/api/handler"
	"github.com/userauth/auth-service/internal/api/middleware"
	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

// Deps is everything the API router needs. It is assembled once in cmd/server.
type Deps struct {
	AuthService  ports.AuthService
	AdminService ports.AdminService
	Limiter      ports.RateLimiter // nil disables rate limiting
	Cookies      handler.CookieConfig
	CORSOrigins  []string
	Logger       zerolog.Logger
	Registerer   prometheus.Registerer // nil means prometheus.DefaultRegisterer

	// TrustedProxies are CIDRs allowed to set X-Forwarded-For. Empty means
	// the client IP is always the socket peer.
	TrustedProxies []*net.IPNet
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(d.TrustedProxies)
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit("10K"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "auth_api",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Cookies)
	adminHandler := handler.NewAdminHandler(d.AdminService)
	authMiddleware := middleware.Auth(d.AuthService)

	var limited []echo.MiddlewareFunc
	if d.Limiter != nil {
		limited = append(limited, middleware.RateLimit(d.Limiter, d.Logger))
	}

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register, limited...)
	auth.POST("/login", authHandler.Login, limited...)
	auth.POST("/refresh", authHandler.Refresh, limited...)
	auth.POST("/logout", authHandler.Logout, authMiddleware)
	auth.GET("/profile", authHandler.Profile, authMiddleware)
	auth.PUT("/profile", authHandler.UpdateProfile, authMiddleware)
	auth.PUT("/change-password", authHandler.ChangePassword, authMiddleware)

	// --- Admin routes ---
	admin := api.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/dashboard/stats", adminHandler.DashboardStats)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PUT("/users/:id/status", adminHandler.UpdateStatus)
	admin.PUT("/users/:id/role", adminHandler.UpdateRole)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	// --- API docs ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// ipExtractor decides which address identifies a client for rate limiting.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// ParseOrigins splits a comma-separated CORS_ORIGIN value.
func ParseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
