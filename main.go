package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"homehub/config"
	"homehub/cron"
	"homehub/database"
	"homehub/database/repository"
	"homehub/handlers"
	"homehub/middleware"
	"homehub/routes"
	"homehub/services/access"
	"homehub/services/booking"
	"homehub/services/catalog"
	"homehub/services/content"
	"homehub/services/intake"
	"homehub/services/jobs"
	"homehub/services/maintenance"
	"homehub/services/notification"
	"homehub/services/offer"
	"homehub/services/payment"
	"homehub/services/review"
	"homehub/services/socialauth"
	"homehub/services/stats"
	"homehub/services/storage"
	"homehub/services/subscription"
	"homehub/services/tasks"
	"homehub/services/user"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if err := database.InitDB(); err != nil {
		logger.Fatal("main: database unavailable", zap.Error(err))
	}
	utils.InitRedis()

	files, err := storage.NewFileStore()
	if err != nil {
		logger.Fatal("main: failed to initialize file storage", zap.Error(err))
	}
	urls := storage.URLResolver{PublicBaseURL: cfg.PublicBaseURL, Production: config.IsProduction()}

	repos := repository.NewRepositories(database.DB())
	cache := utils.NewRedisCache(utils.GetCacheClient())
	authCache := utils.NewRedisCache(utils.GetAuthCacheClient())

	// Notifications go through the queue when Redis is reachable and run
	// inline otherwise.
	notifier := notification.NewDefaultNotificationService(
		notification.NewSMTPSender(cfg),
		notification.NewHTTPWhatsApp(cfg),
	)
	inline := tasks.NewInlineDispatcher(notifier, repos.Users)
	queue := asynq.NewClient(cron.RedisOpt())
	dispatcher := tasks.NewQueueDispatcher(queue, inline)

	// services.
	policy := access.NewDefaultPolicy(repos.Subscriptions, repos.Memberships, repos.Services, repos.Offers, cfg.FreeServiceLimit)
	policy.Bookings = repos.Bookings
	catalogService := &catalog.DefaultCatalogService{
		Categories:   repos.Categories,
		ServiceTypes: repos.ServiceTypes,
		Services:     repos.Services,
		Files:        files,
	}
	userService := &user.DefaultUserService{
		Repo:           repos.Users,
		Referrals:      repos.Referrals,
		Files:          files,
		AuthCache:      authCache,
		Tasks:          dispatcher,
		ReferralPoints: cfg.ReferralPoints,
	}
	bookingService := &booking.DefaultBookingService{
		Repo:          repos.Bookings,
		Services:      repos.Services,
		References:    catalogService,
		Users:         repos.Users,
		Subscriptions: repos.Subscriptions,
		Policy:        policy,
		Tasks:         dispatcher,
		LoyaltyPoints: cfg.LoyaltyPointsPerBooking,
	}
	reviewService := &review.DefaultReviewService{
		Repo:     repos.Reviews,
		Services: repos.Services,
		Users:    repos.Users,
	}
	subscriptionService := &subscription.DefaultSubscriptionService{
		Plans:         repos.Plans,
		Subscriptions: repos.Subscriptions,
		Memberships:   repos.Memberships,
		Payments:      payment.NewGateway(cfg.StripeSecretKey),
		Users:         repos.Users,
		Currency:      cfg.PaymentCurrency,
	}
	offerService := &offer.DefaultOfferService{
		Repo:     repos.Offers,
		Services: repos.Services,
		Files:    files,
	}
	jobService := &jobs.DefaultJobService{
		Jobs:         repos.Jobs,
		Applications: repos.Applications,
		Files:        files,
	}
	intakeService := &intake.DefaultIntakeService{
		Investments: repos.Investments,
		Women:       repos.WomenInitiatives,
		Inquiries:   repos.Inquiries,
		Files:       files,
		Tasks:       dispatcher,
	}
	contentService := &content.DefaultContentService{
		Team:         repos.TeamMembers,
		Testimonials: repos.Testimonials,
		Banners:      repos.Banners,
		Files:        files,
	}
	statsService := &stats.DefaultStatsService{
		Services:      repos.Services,
		Bookings:      repos.Bookings,
		Categories:    repos.Categories,
		Users:         repos.Users,
		Subscriptions: repos.Subscriptions,
		Memberships:   repos.Memberships,
		Applications:  repos.Applications,
		Women:         repos.WomenInitiatives,
		Inquiries:     repos.Inquiries,
		Cache:         cache,
	}
	sweeper := &maintenance.DefaultSweeper{
		Subscriptions: repos.Subscriptions,
		Memberships:   repos.Memberships,
		Tasks:         dispatcher,
		Lock:          cache,
		ReminderDays:  cfg.ReminderDaysBefore,
	}
	oauth := socialauth.NewServiceFromConfig(cfg, cache)

	clientURL := strings.TrimSpace(strings.Split(cfg.ClientURL, ",")[0])
	handlerBundle := &handlers.HandlerBundle{
		Auth:         handlers.NewAuthHandler(userService, oauth, urls, clientURL),
		Admin:        handlers.NewAdminHandler(userService, sweeper, urls),
		Catalog:      handlers.NewCatalogHandler(catalogService, urls),
		Booking:      handlers.NewBookingHandler(bookingService),
		Review:       handlers.NewReviewHandler(reviewService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Offer:        handlers.NewOfferHandler(offerService, urls),
		Job:          handlers.NewJobHandler(jobService, urls),
		Intake:       handlers.NewIntakeHandler(intakeService, urls),
		Content:      handlers.NewContentHandler(contentService, urls),
		Stats:        handlers.NewStatsHandler(statsService),
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger())

	routes.RegisterRoutes(router, handlerBundle, routes.Options{
		Auth:              &middleware.Authenticator{Users: repos.Users, Cache: authCache},
		Policy:            policy,
		ClientURL:         cfg.ClientURL,
		UploadDir:         cfg.UploadDir,
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
	})

	// Background work.
	worker := cron.StartWorker(&cron.Handlers{Notifier: notifier, Users: repos.Users, Sweeper: sweeper})
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	utils.StartHealthMonitor(monitorCtx, []*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()}, database.MongoClient)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	stopMonitor()
	worker.Shutdown()
	if err := queue.Close(); err != nil {
		logger.Warn("main: task queue close failed", zap.Error(err))
	}
	inline.Wait()
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: database disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
