package routes

import (
	"strings"
	"time"

	"homehub/handlers"
	"homehub/middleware"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// maxRequestBytes bounds a whole multipart body: several files of at most
// storage.MaxUploadBytes each plus form fields.
const maxRequestBytes = 6 * storage.MaxUploadBytes

// Options carries the cross-cutting pieces the routes are wired with.
type Options struct {
	Auth   *middleware.Authenticator
	Policy access.Policy
	// ClientURL may list several origins separated by commas.
	ClientURL         string
	UploadDir         string
	MaxRequestsPerMin int
}

func allowedOrigins(clientURL string) []string {
	var origins []string
	for _, o := range strings.Split(clientURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// RegisterAuthRoutes registers account endpoints.
func RegisterAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", hb.Auth.RegisterHandler)
		auth.POST("/login", hb.Auth.LoginHandler)
		auth.GET("/oauth/:provider", hb.Auth.OAuthRedirectHandler)
		auth.GET("/oauth/:provider/callback", hb.Auth.OAuthCallbackHandler)

		protected := auth.Group("")
		protected.Use(opts.Auth.JWTAuth(true))
		protected.GET("/me", hb.Auth.MeHandler)
		protected.PUT("/me", hb.Auth.UpdateProfileHandler)
		protected.PUT("/password", hb.Auth.ChangePasswordHandler)
		protected.GET("/referrals", hb.Auth.ReferralsHandler)
	}
}

// RegisterCatalogRoutes registers categories, services and their reviews.
func RegisterCatalogRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	api.GET("/categories", hb.Catalog.ListCategoriesHandler(true))

	services := api.Group("/services")
	{
		services.GET("", hb.Catalog.ListServicesHandler)
		services.GET("/:id", hb.Catalog.GetServiceHandler)
		services.GET("/:id/reviews", hb.Review.ListReviewsHandler)
		services.POST("/:id/reviews", opts.Auth.JWTAuth(false), hb.Review.SubmitReviewHandler)

		provider := services.Group("")
		provider.Use(opts.Auth.JWTAuth(true))
		provider.GET("/mine", middleware.RequireRoles(models.RoleProvider), hb.Catalog.MyServicesHandler)
		provider.POST("",
			middleware.RequireRoles(models.RoleProvider, models.RoleAdmin, models.RoleSuperAdmin),
			middleware.RequireCapability(opts.Policy, access.CapCreateService),
			hb.Catalog.CreateServiceHandler)
		provider.PUT("/:id", hb.Catalog.UpdateServiceHandler)
		provider.DELETE("/:id", hb.Catalog.DeleteServiceHandler)
	}

	api.DELETE("/reviews/:id", opts.Auth.JWTAuth(true), hb.Review.DeleteReviewHandler)
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", opts.Auth.JWTAuth(false), hb.Booking.CreateBookingHandler)

		protected := bookings.Group("")
		protected.Use(opts.Auth.JWTAuth(true))
		protected.GET("/my", hb.Booking.MyBookingsHandler)
		protected.GET("/provider", middleware.RequireRoles(models.RoleProvider), hb.Booking.ProviderBookingsHandler)
		protected.GET("/:id", hb.Booking.GetBookingHandler)
		protected.PATCH("/:id/status", hb.Booking.UpdateStatusHandler)
	}
}

// RegisterSubscriptionRoutes registers plans, subscriptions and premium
// memberships.
func RegisterSubscriptionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	subs := api.Group("/subscriptions")
	{
		subs.GET("/plans", hb.Subscription.ListPlansHandler(true))

		protected := subs.Group("")
		protected.Use(opts.Auth.JWTAuth(true))
		protected.POST("", middleware.RequireRoles(models.RoleProvider), hb.Subscription.SubscribeHandler)
		protected.GET("/me", hb.Subscription.MySubscriptionHandler)
		protected.POST("/:id/verify-payment", hb.Subscription.VerifyPaymentHandler)
		protected.POST("/:id/cancel", hb.Subscription.CancelHandler)
		protected.POST("/:id/pause", hb.Subscription.PauseHandler)
		protected.POST("/:id/resume", hb.Subscription.ResumeHandler)
	}

	premium := api.Group("/premium")
	{
		premium.GET("/tiers", hb.Subscription.TiersHandler)

		protected := premium.Group("")
		protected.Use(opts.Auth.JWTAuth(true))
		protected.POST("", hb.Subscription.PurchaseMembershipHandler)
		protected.GET("/me", hb.Subscription.MyMembershipHandler)
		protected.POST("/:id/verify-payment", hb.Subscription.VerifyMembershipHandler)
		protected.POST("/:id/cancel", hb.Subscription.CancelMembershipHandler)
	}
}

// RegisterOfferRoutes registers special offers.
func RegisterOfferRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	offers := api.Group("/offers")
	{
		offers.GET("", hb.Offer.ListOffersHandler)
		offers.POST("/:id/redeem", hb.Offer.RedeemOfferHandler)

		protected := offers.Group("")
		protected.Use(opts.Auth.JWTAuth(true))
		protected.GET("/mine", middleware.RequireRoles(models.RoleProvider), hb.Offer.MyOffersHandler)
		protected.POST("",
			middleware.RequireRoles(models.RoleProvider, models.RoleAdmin, models.RoleSuperAdmin),
			middleware.RequireCapability(opts.Policy, access.CapCreateOffer),
			hb.Offer.CreateOfferHandler)
		protected.PUT("/:id", hb.Offer.UpdateOfferHandler)
		protected.DELETE("/:id", hb.Offer.DeleteOfferHandler)

		offers.GET("/:id", hb.Offer.GetOfferHandler)
	}
}

// RegisterPublicFormRoutes registers jobs, investments, the women initiative,
// inquiries and public site content.
func RegisterPublicFormRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/jobs", hb.Job.ListJobsHandler(false))
	api.GET("/jobs/:id", hb.Job.GetJobHandler)
	api.POST("/jobs/:id/apply", hb.Job.ApplyHandler)

	api.POST("/investments", hb.Intake.SubmitInvestmentHandler)
	api.POST("/women-initiatives", hb.Intake.ApplyWomenInitiativeHandler)
	api.POST("/inquiries/:kind", hb.Intake.SubmitInquiryHandler)

	api.GET("/team", hb.Content.ListTeamHandler(false))
	api.GET("/testimonials", hb.Content.ListTestimonialsHandler(false))
	api.GET("/banners", hb.Content.ListBannersHandler(false))

	api.GET("/stats", hb.Stats.PublicStatsHandler)
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, opts Options) {
	admin := api.Group("/admin")
	admin.Use(opts.Auth.JWTAuth(true), middleware.IsAdmin())
	{
		admin.GET("/users", hb.Admin.ListUsersHandler)
		admin.PATCH("/users/:id/status", hb.Admin.SetUserStatusHandler)
		admin.PATCH("/users/:id/role", middleware.RequireRoles(models.RoleSuperAdmin), hb.Admin.SetUserRoleHandler)
		admin.POST("/maintenance/run", hb.Admin.RunMaintenanceHandler)
		admin.GET("/stats", hb.Stats.AdminStatsHandler)

		admin.GET("/bookings", hb.Booking.AllBookingsHandler)

		admin.GET("/categories", hb.Catalog.ListCategoriesHandler(false))
		admin.POST("/categories", hb.Catalog.CreateCategoryHandler)
		admin.PUT("/categories/:id", hb.Catalog.UpdateCategoryHandler)
		admin.DELETE("/categories/:id", hb.Catalog.DeleteCategoryHandler)

		admin.GET("/subscription-plans", hb.Subscription.ListPlansHandler(false))
		admin.POST("/subscription-plans", hb.Subscription.CreatePlanHandler)
		admin.PUT("/subscription-plans/:id", hb.Subscription.UpdatePlanHandler)
		admin.DELETE("/subscription-plans/:id", hb.Subscription.DeletePlanHandler)
		admin.GET("/subscriptions", hb.Subscription.ListSubscriptionsHandler)
		admin.GET("/premium", hb.Subscription.ListMembershipsHandler)

		admin.GET("/jobs", hb.Job.ListJobsHandler(true))
		admin.POST("/jobs", hb.Job.CreateJobHandler)
		admin.PUT("/jobs/:id", hb.Job.UpdateJobHandler)
		admin.DELETE("/jobs/:id", hb.Job.DeleteJobHandler)
		admin.GET("/job-applications", hb.Job.ListApplicationsHandler)
		admin.PATCH("/job-applications/:id/status", hb.Job.SetApplicationStatusHandler)

		admin.GET("/investments", hb.Intake.ListInvestmentsHandler)
		admin.PATCH("/investments/:id/status", hb.Intake.SetInvestmentStatusHandler)
		admin.GET("/women-initiatives", hb.Intake.ListWomenInitiativesHandler)
		admin.POST("/women-initiatives/:id/decision", hb.Intake.DecideWomenInitiativeHandler)
		admin.GET("/inquiries", hb.Intake.ListInquiriesHandler)

		admin.GET("/team", hb.Content.ListTeamHandler(true))
		admin.POST("/team", hb.Content.CreateTeamMemberHandler)
		admin.PUT("/team/:id", hb.Content.UpdateTeamMemberHandler)
		admin.DELETE("/team/:id", hb.Content.DeleteTeamMemberHandler)
		admin.GET("/testimonials", hb.Content.ListTestimonialsHandler(true))
		admin.POST("/testimonials", hb.Content.CreateTestimonialHandler)
		admin.PUT("/testimonials/:id", hb.Content.UpdateTestimonialHandler)
		admin.DELETE("/testimonials/:id", hb.Content.DeleteTestimonialHandler)
		admin.GET("/banners", hb.Content.ListBannersHandler(true))
		admin.POST("/banners", hb.Content.CreateBannerHandler)
		admin.PUT("/banners/:id", hb.Content.UpdateBannerHandler)
		admin.DELETE("/banners/:id", hb.Content.DeleteBannerHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", handlers.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := allowedOrigins(opts.ClientURL); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	r.Use(middleware.RateLimitMiddleware(opts.MaxRequestsPerMin))
	r.Use(middleware.MaxUploadSize(maxRequestBytes))

	r.Static("/uploads", opts.UploadDir)
	RegisterHealthRoute(r)

	api := r.Group("/api")
	RegisterAuthRoutes(api, hb, opts)
	RegisterCatalogRoutes(api, hb, opts)
	RegisterBookingRoutes(api, hb, opts)
	RegisterSubscriptionRoutes(api, hb, opts)
	RegisterOfferRoutes(api, hb, opts)
	RegisterPublicFormRoutes(api, hb)
	RegisterAdminRoutes(api, hb, opts)
}
