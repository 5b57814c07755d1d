package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/config"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/handlers"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/onboarding"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/service"
)

// SetupRouter wires all routes. The onboarding gate runs inside the auth
// middleware, so guarded cleaner routes need no extra wiring here.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
	cleanerHandler *handlers.CleanerHandler,
	reviewHandler *handlers.ReviewHandler,
	documentHandler *handlers.DocumentHandler,
	placeHandler *handlers.PlaceHandler,
	testCheckoutHandler *handlers.TestCheckoutHandler,
	healthHandler *handlers.HealthHandler,
	tokens *service.TokenService,
	auth *service.AuthService,
	gate *onboarding.Gate,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	// Sandbox checkout page; only wired when the test provider is active.
	if testCheckoutHandler != nil {
		r.GET("/web/payments/link/:reference", testCheckoutHandler.Show)
		r.POST("/web/payments/link/:reference", testCheckoutHandler.Submit)
	}

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/:role/signup", authHandler.Signup)
		authGroup.POST("/:role/login", authHandler.Login)
	}

	// Provider deliveries are authenticated by signature, not by token.
	webhooks := r.Group("/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit*10, cfg.RateLimitPeriod))
	{
		webhooks.POST("/payments/:provider", paymentHandler.Webhook)
	}

	anyRole := middleware.AuthMiddleware(tokens, auth, gate)
	cleanerOnly := middleware.AuthMiddleware(tokens, auth, gate, models.RoleCleaner)
	customerOnly := middleware.AuthMiddleware(tokens, auth, gate, models.RoleCustomer)
	adminOnly := middleware.AuthMiddleware(tokens, auth, gate, models.RoleAdmin)

	bookings := r.Group("/bookings")
	{
		bookings.POST("", customerOnly, bookingHandler.Create)
		bookings.GET("", anyRole, bookingHandler.List)
		bookings.GET("/:id", anyRole, middleware.UUIDValidator("id"), bookingHandler.Get)
		bookings.GET("/:id/payment", anyRole, middleware.UUIDValidator("id"), bookingHandler.Payment)
		bookings.POST("/:id/accept", cleanerOnly, middleware.UUIDValidator("id"), bookingHandler.Accept)
		bookings.POST("/:id/complete", cleanerOnly, middleware.UUIDValidator("id"), bookingHandler.Complete)
		bookings.POST("/:id/acknowledge", customerOnly, middleware.UUIDValidator("id"), bookingHandler.Acknowledge)
		bookings.POST("/:id/reviews", customerOnly, middleware.UUIDValidator("id"), reviewHandler.Create)
		bookings.GET("/:id/reviews", anyRole, middleware.UUIDValidator("id"), reviewHandler.ListForBooking)
	}

	reviews := r.Group("/reviews")
	{
		reviews.GET("/:id", middleware.UUIDValidator("id"), reviewHandler.Get)
		reviews.PATCH("/:id", customerOnly, middleware.UUIDValidator("id"), reviewHandler.Update)
		reviews.DELETE("/:id", customerOnly, middleware.UUIDValidator("id"), reviewHandler.Delete)
	}

	// Cleaner ratings are public marketplace data.
	r.GET("/cleaners/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListForCleaner)
	r.GET("/cleaners/:id/rating", middleware.UUIDValidator("id"), reviewHandler.RatingSummary)

	cleaners := r.Group("/cleaners")
	cleaners.Use(cleanerOnly)
	{
		cleaners.GET("/me", cleanerHandler.Me)
		cleaners.PUT("/onboarding", cleanerHandler.SubmitOnboarding)
		cleaners.POST("/documents", documentHandler.Upload)
		cleaners.GET("/documents", documentHandler.List)
		cleaners.DELETE("/documents/:id", middleware.UUIDValidator("id"), documentHandler.Delete)
	}

	places := r.Group("/places")
	places.Use(anyRole)
	{
		places.GET("/autocomplete", placeHandler.Autocomplete)
	}

	admin := r.Group("/admin")
	admin.Use(adminOnly)
	{
		admin.GET("/onboarding/pending", cleanerHandler.ListPendingReviews)
		admin.PUT("/onboarding/:id/review", middleware.UUIDValidator("id"), cleanerHandler.Review)
		admin.POST("/payments/:reference/sync", paymentHandler.Sync)
		admin.POST("/payments/:reference/refund", paymentHandler.Refund)
	}

	return r
}
