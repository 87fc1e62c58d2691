package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmarqs/promoterhub-backend/api/routes"
	"github.com/dmarqs/promoterhub-backend/internal/accounts"
	"github.com/dmarqs/promoterhub-backend/internal/analytics"
	"github.com/dmarqs/promoterhub-backend/internal/auth"
	"github.com/dmarqs/promoterhub-backend/internal/billing"
	"github.com/dmarqs/promoterhub-backend/internal/campaigns"
	"github.com/dmarqs/promoterhub-backend/internal/contacts"
	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/internal/feedback"
	"github.com/dmarqs/promoterhub-backend/internal/messaging"
	"github.com/dmarqs/promoterhub-backend/internal/subscriptions"
	"github.com/dmarqs/promoterhub-backend/internal/users"
	squarewebhook "github.com/dmarqs/promoterhub-backend/internal/webhooks/square"
	"github.com/dmarqs/promoterhub-backend/pkg/auth/session"
	"github.com/dmarqs/promoterhub-backend/pkg/config"
	"github.com/dmarqs/promoterhub-backend/pkg/db"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/metrics"
	"github.com/dmarqs/promoterhub-backend/pkg/migrate"
	"github.com/dmarqs/promoterhub-backend/pkg/pubsub"
	"github.com/dmarqs/promoterhub-backend/pkg/redis"
	"github.com/dmarqs/promoterhub-backend/pkg/square"
)

// Square retries webhook deliveries for days, so the dedup window has to
// outlive the retry schedule.
const squareWebhookDedupTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	squareClient, err := square.NewClient(ctx, cfg.Square, logg)
	requireResource(ctx, logg, "square", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	userRepo := users.NewRepository(dbClient.DB())
	accountRepo := accounts.NewRepository(dbClient.DB())
	campaignRepo := campaigns.NewRepository(dbClient.DB())
	responseRepo := feedback.NewRepository(dbClient.DB())
	contactRepo := contacts.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:    userRepo,
		AccountRepo: accountRepo,
		Session:     sessionManager,
		JWTConfig:   cfg.JWT,
	})
	requireResource(ctx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "register service", err)

	entitlementService, err := entitlements.NewService(entitlements.ServiceParams{
		Accounts:      accountRepo,
		Subscriptions: billingRepo,
		Plans:         billingRepo,
		Usage:         entitlements.NewAccumulator(campaignRepo, responseRepo, logg),
		Logger:        logg,
		Metrics:       metrics.NewEntitlementMetrics(prometheus.DefaultRegisterer),
	})
	requireResource(ctx, logg, "entitlement service", err)

	campaignService, err := campaigns.NewService(campaigns.ServiceParams{
		Repo:         campaignRepo,
		Entitlements: entitlementService,
		Logger:       logg,
	})
	requireResource(ctx, logg, "campaign service", err)

	analyticsPublisher, err := analytics.NewPubSubPublisher(pubsubClient.AnalyticsPublisher())
	requireResource(ctx, logg, "analytics publisher", err)

	feedbackService, err := feedback.NewService(feedback.ServiceParams{
		Repo:         responseRepo,
		Campaigns:    campaignRepo,
		Entitlements: entitlementService,
		Publisher:    analyticsPublisher,
		Logger:       logg,
	})
	requireResource(ctx, logg, "feedback service", err)

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Responses: responseRepo,
		Campaigns: campaignRepo,
		Logger:    logg,
	})
	requireResource(ctx, logg, "analytics service", err)

	contactService, err := contacts.NewService(contacts.ServiceParams{
		Repo:   contactRepo,
		Logger: logg,
	})
	requireResource(ctx, logg, "contact service", err)

	messagePublisher, err := messaging.NewPubSubPublisher(pubsubClient.MessagingPublisher())
	requireResource(ctx, logg, "messaging publisher", err)

	messagingService, err := messaging.NewService(messaging.ServiceParams{
		Campaigns: campaignRepo,
		Publisher: messagePublisher,
		Config:    cfg.Messaging,
		Logger:    logg,
	})
	requireResource(ctx, logg, "messaging service", err)

	squareGateway := subscriptions.NewSquareGateway(squareClient, cfg.Square.LocationID)

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		BillingRepo: billingRepo,
		AccountRepo: accountRepo,
		Square:      squareGateway,
		Logger:      logg,
	})
	requireResource(ctx, logg, "subscription service", err)

	webhookService, err := squarewebhook.NewService(squarewebhook.ServiceParams{
		BillingRepo: billingRepo,
		AccountRepo: accountRepo,
		Square:      squareGateway,
		Logger:      logg,
	})
	requireResource(ctx, logg, "square webhook service", err)

	webhookGuard, err := squarewebhook.NewIdempotencyGuard(redisClient, squareWebhookDedupTTL, "square")
	requireResource(ctx, logg, "square webhook guard", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:  cfg,
			Logger:  logg,
			DB:      dbClient,
			Redis:   redisClient,
			Session: sessionManager,

			AuthService:     authService,
			RegisterService: registerService,
			Accounts:        accountRepo,
			Entitlements:    entitlementService,
			Campaigns:       campaignService,
			Feedback:        feedbackService,
			Analytics:       analyticsService,
			Contacts:        contactService,
			Messaging:       messagingService,
			Subscriptions:   subscriptionService,

			SquareClient:       squareClient,
			SquareWebhook:      webhookService,
			SquareWebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
