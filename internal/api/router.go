package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/auth"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/handlers"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/middleware"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Listings      *handlers.ListingHandler
	Verification  *handlers.VerificationHandler
	Disclosure    *handlers.DisclosureHandler
	Notifications *handlers.NotificationHandler
	Activity      *handlers.ActivityHandler
}

// Options carries router-level configuration.
type Options struct {
	JWT            *auth.JWTService
	AllowedOrigins []string

	// OTPRequestLimit bounds disclosure code requests per client IP per window.
	OTPRequestLimit  int
	OTPRequestWindow time.Duration
}

// NewRouter assembles the gin engine with all routes and middleware.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(opts.AllowedOrigins),
	)

	router.GET("/health", h.Health.Live)
	router.GET("/health/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	otpLimiter := middleware.NewRateLimiter(opts.OTPRequestLimit, opts.OTPRequestWindow)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}

		listings := api.Group("/listings")
		{
			listings.GET("", h.Listings.List)
			listings.GET("/:id", middleware.OptionalAuth(opts.JWT), h.Listings.Get)
			listings.GET("/:id/qr", h.Listings.ShareQR)

			listings.POST("", middleware.RequireAuth(opts.JWT), middleware.RequireAgent(), h.Listings.Create)
			listings.GET("/mine", middleware.RequireAuth(opts.JWT), middleware.RequireAgent(), h.Listings.Mine)

			listings.POST("/:id/decision", middleware.RequireAuth(opts.JWT), middleware.RequireAdmin(), h.Verification.Decide)

			listings.POST("/:id/contact/request-code",
				otpLimiter.Middleware(), middleware.OptionalAuth(opts.JWT), h.Disclosure.RequestCode)
			listings.POST("/:id/contact/verify-code",
				middleware.OptionalAuth(opts.JWT), h.Disclosure.VerifyCode)
		}

		verification := api.Group("/verification")
		{
			verification.GET("/mode", h.Verification.GetMode)
			verification.PUT("/mode", middleware.RequireAuth(opts.JWT), middleware.RequireAdmin(), h.Verification.SetMode)
			verification.GET("/pending", middleware.RequireAuth(opts.JWT), middleware.RequireAdmin(), h.Verification.Pending)
		}

		notifications := api.Group("/notifications", middleware.RequireAuth(opts.JWT))
		{
			notifications.GET("", h.Notifications.List)
			notifications.GET("/unread-count", h.Notifications.UnreadCount)
			notifications.GET("/stream", h.Notifications.Stream)
			notifications.POST("/read-all", h.Notifications.MarkAllRead)
			notifications.POST("/:id/read", h.Notifications.MarkRead)
			notifications.POST("/:id/archive", h.Notifications.Archive)
			notifications.DELETE("/:id", h.Notifications.Delete)
		}

		api.GET("/activity", middleware.RequireAuth(opts.JWT), h.Activity.List)
	}

	return router
}
